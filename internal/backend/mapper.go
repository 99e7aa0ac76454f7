package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mmcdole/scout/internal/domain"
	"github.com/mmcdole/scout/internal/images"
)

// MapResponse converts a decoded response into a ResultSet for q
func MapResponse(resp *SearchResponse, q domain.Query, allow *images.Allowlist) (*domain.ResultSet, error) {
	if resp.Items == nil {
		return nil, fmt.Errorf("%w: missing items", domain.ErrMalformedResponse)
	}

	raw := *resp.Items
	items := make([]domain.Item, 0, len(raw))
	for i, r := range raw {
		item, err := MapItem(r, allow)
		if err != nil {
			return nil, fmt.Errorf("%w: item %d: %v", domain.ErrMalformedResponse, i, err)
		}
		items = append(items, item)
	}

	total := len(items)
	if resp.TotalCount != nil {
		if *resp.TotalCount < 0 {
			return nil, fmt.Errorf("%w: negative totalCount %d", domain.ErrMalformedResponse, *resp.TotalCount)
		}
		total = *resp.TotalCount
	}

	return &domain.ResultSet{
		Query:      q,
		Items:      items,
		TotalCount: total,
	}, nil
}

// MapItem converts one raw item. Thumbnails on hosts outside the
// allow-list are dropped.
func MapItem(raw json.RawMessage, allow *images.Allowlist) (domain.Item, error) {
	var dto ItemDTO
	if err := json.Unmarshal(raw, &dto); err != nil {
		return domain.Item{}, err
	}

	id, err := parseID(dto.ID)
	if err != nil {
		return domain.Item{}, err
	}

	title := firstNonEmpty(dto.Title, dto.Name)
	if title == "" {
		title = id
	}

	return domain.Item{
		ID:           id,
		Title:        title,
		Description:  firstNonEmpty(dto.Description, dto.Snippet),
		URL:          dto.URL,
		ThumbnailURL: allow.Filter(firstNonEmpty(dto.Thumbnail, dto.Image)),
		Raw:          append(json.RawMessage(nil), raw...),
	}, nil
}

// parseID accepts string and numeric identifiers
func parseID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", fmt.Errorf("missing id")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", err
		}
		if strings.TrimSpace(s) == "" {
			return "", fmt.Errorf("empty id")
		}
		return s, nil
	}

	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("unsupported id %s", string(raw))
	}
	return n.String(), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
