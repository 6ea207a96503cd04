package adminapi

import (
	"encoding/json"
	"strconv"
)

// DefaultPageSize is the page size list views use unless told otherwise.
const DefaultPageSize = 20

// PageRequest selects a page window plus optional server-side filters.
type PageRequest struct {
	Page   int    `url:"page"`
	Size   int    `url:"size"`
	Status string `url:"status,omitempty"`
	City   string `url:"city,omitempty"`
	Search string `url:"search,omitempty"`
}

// Page is one slice of a paginated listing.
type Page[T any] struct {
	Content       []T `json:"content"`
	TotalElements int `json:"totalElements"`
	TotalPages    int `json:"totalPages"`
	Size          int `json:"size"`
	Number        int `json:"number"`
}

// UnmarshalJSON decodes leniently: the response shape is a convention, so an
// absent or malformed content array becomes empty and malformed counters
// become zero instead of failing the whole call.
func (p *Page[T]) UnmarshalJSON(data []byte) error {
	var raw struct {
		Content       json.RawMessage `json:"content"`
		TotalElements json.RawMessage `json:"totalElements"`
		TotalPages    json.RawMessage `json:"totalPages"`
		Size          json.RawMessage `json:"size"`
		Number        json.RawMessage `json:"number"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		// not an object at all
		*p = Page[T]{Content: []T{}}
		return nil
	}
	var content []T
	if len(raw.Content) > 0 {
		if err := json.Unmarshal(raw.Content, &content); err != nil {
			content = nil
		}
	}
	if content == nil {
		content = []T{}
	}
	*p = Page[T]{
		Content:       content,
		TotalElements: lenientInt(raw.TotalElements),
		TotalPages:    lenientInt(raw.TotalPages),
		Size:          lenientInt(raw.Size),
		Number:        lenientInt(raw.Number),
	}
	return nil
}

// Normalize returns a copy that is always safe to render: non-nil content,
// non-negative counts and at least one page. When the backend omitted
// totalPages it is derived from totalElements and size.
func (p Page[T]) Normalize(size int) Page[T] {
	out := p
	if out.Content == nil {
		out.Content = []T{}
	}
	if out.TotalElements < 0 {
		out.TotalElements = 0
	}
	if out.Size <= 0 {
		out.Size = size
	}
	if out.TotalPages <= 0 && out.TotalElements > 0 && out.Size > 0 {
		out.TotalPages = (out.TotalElements + out.Size - 1) / out.Size
	}
	if out.TotalPages < 1 {
		out.TotalPages = 1
	}
	if out.Number < 0 {
		out.Number = 0
	}
	return out
}

func lenientInt(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0
		}
		n = json.Number(s)
	}
	if v, err := n.Int64(); err == nil {
		return int(v)
	}
	if f, err := strconv.ParseFloat(n.String(), 64); err == nil {
		return int(f)
	}
	return 0
}
