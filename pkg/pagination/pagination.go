package pagination

import (
	"net/http"
	"strconv"
)

// Window is an offset/limit slice of an ordered listing.
type Window struct {
	Offset int `json:"offset"`
	Limit  int `json:"limit"`
}

// FromRequest reads ?offset= and ?limit=. Missing or malformed values fall
// back to offset 0 and defaultLimit; limit is capped at maxLimit.
func FromRequest(r *http.Request, defaultLimit, maxLimit int) Window {
	q := r.URL.Query()
	w := Window{Limit: defaultLimit}

	if v, err := strconv.Atoi(q.Get("offset")); err == nil && v > 0 {
		w.Offset = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil && v > 0 {
		w.Limit = v
	}
	if maxLimit > 0 && w.Limit > maxLimit {
		w.Limit = maxLimit
	}
	return w
}

// Next returns the window immediately after w.
func (w Window) Next() Window {
	return Window{Offset: w.Offset + w.Limit, Limit: w.Limit}
}

// Page is one window of results.
//
// HasMore is true when the page came back full. When the remaining count is
// exactly Limit this yields one extra, empty page before it turns false.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Offset     int  `json:"offset"`
	Limit      int  `json:"limit"`
	HasMore    bool `json:"has_more"`
	NextOffset int  `json:"next_offset"`
}

// NewPage wraps items fetched for w.
func NewPage[T any](items []T, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	p := Page[T]{
		Items:      items,
		Offset:     w.Offset,
		Limit:      w.Limit,
		HasMore:    w.Limit > 0 && len(items) == w.Limit,
		NextOffset: w.Offset + len(items),
	}
	if p.HasMore {
		p.NextOffset = w.Next().Offset
	}
	return p
}
