package domain

import (
	"encoding/json"
	"time"
)

// Item is a single search hit. Raw holds the backend payload untouched.
type Item struct {
	ID           string          `json:"id"`
	Title        string          `json:"title"`
	Description  string          `json:"description,omitempty"`
	URL          string          `json:"url,omitempty"`
	ThumbnailURL string          `json:"thumbnail,omitempty"`
	Raw          json.RawMessage `json:"raw,omitempty"`
}

// ResultSet is the resolved answer to a Query. Treat it as immutable once
// published: cached sets are shared between readers.
type ResultSet struct {
	Query      Query
	Items      []Item
	TotalCount int
	Generation uint64
	FromCache  bool
	ResolvedAt time.Time
}

// EmptyResult returns the terminal result for a query with no text
func EmptyResult(q Query) *ResultSet {
	return &ResultSet{Query: q, Items: []Item{}, ResolvedAt: time.Now()}
}

// IsEmpty reports whether there is nothing to display
func (r *ResultSet) IsEmpty() bool {
	return r == nil || len(r.Items) == 0
}

// HasNextPage reports whether the backend has more results past this page
func (r *ResultSet) HasNextPage() bool {
	if r == nil {
		return false
	}
	size := r.Query.PageSize
	if size <= 0 {
		size = DefaultPageSize
	}
	return (r.Query.Page+1)*size < r.TotalCount
}

// WithGeneration returns a shallow copy stamped for a new publication.
// Items are shared.
func (r *ResultSet) WithGeneration(gen uint64, fromCache bool) *ResultSet {
	cp := *r
	cp.Generation = gen
	cp.FromCache = fromCache
	return &cp
}
