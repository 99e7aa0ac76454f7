package domain

import (
	"strconv"
	"strings"
)

// DefaultPageSize is used when a Query carries no page size
const DefaultPageSize = 20

// Query is an immutable search intent: the text typed by the user plus
// pagination. Two queries are equal when their keys are equal.
type Query struct {
	Text     string // Trimmed, original casing (sent to the backend)
	Page     int    // 0-based page index
	PageSize int
}

// NewQuery builds a Query from raw user input
func NewQuery(text string, page, pageSize int) Query {
	if page < 0 {
		page = 0
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Query{
		Text:     strings.Join(strings.Fields(text), " "),
		Page:     page,
		PageSize: pageSize,
	}
}

// Normalized returns the case-folded text used for identity
func (q Query) Normalized() string {
	return strings.ToLower(strings.Join(strings.Fields(q.Text), " "))
}

// IsEmpty reports whether the query has no searchable text
func (q Query) IsEmpty() bool {
	return q.Normalized() == ""
}

// Key returns the cache / de-duplication key (q=<normalized>|p=<page>|n=<size>)
func (q Query) Key() string {
	var b strings.Builder
	b.WriteString("q=")
	b.WriteString(q.Normalized())
	b.WriteString("|p=")
	b.WriteString(strconv.Itoa(q.Page))
	b.WriteString("|n=")
	b.WriteString(strconv.Itoa(q.pageSize()))
	return b.String()
}

// WithPage returns a copy of the query pointed at another page
func (q Query) WithPage(page int) Query {
	return NewQuery(q.Text, page, q.PageSize)
}

func (q Query) pageSize() int {
	if q.PageSize <= 0 {
		return DefaultPageSize
	}
	return q.PageSize
}

func (q Query) String() string {
	return q.Key()
}
