package domain

import (
	"context"
	"time"
)

// SearchClient resolves a query against the remote search service.
// Errors wrap ErrTransport or ErrMalformedResponse.
type SearchClient interface {
	Search(ctx context.Context, q Query) (*ResultSet, error)
}

// HistoryEntry is a previously submitted query
type HistoryEntry struct {
	Text     string    `json:"text"`
	Count    int       `json:"count"`
	LastUsed time.Time `json:"last_used"`
}

// HistoryStore keeps the queries a user has searched for.
// It never stores results.
type HistoryStore interface {
	Record(q Query) error
	Recent(limit int) ([]HistoryEntry, error)
	Suggest(prefix string, limit int) ([]HistoryEntry, error)
	Clear() error
	Close() error
}
