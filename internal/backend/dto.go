package backend

import "encoding/json"

// SearchResponse is the body returned by the search endpoint
type SearchResponse struct {
	Items      *[]json.RawMessage `json:"items"`
	TotalCount *int               `json:"totalCount"`
}

// ItemDTO holds the display fields we understand. Anything else stays in
// the raw payload.
type ItemDTO struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Snippet     string          `json:"snippet"`
	URL         string          `json:"url"`
	Thumbnail   string          `json:"thumbnail"`
	Image       string          `json:"image"`
}
