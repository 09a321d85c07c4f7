package resource

import (
	"encoding/json"
	"fmt"
)

// Meta is the pagination block of a list response. It is absent when the request
// asked for has_pagination=false.
type Meta struct {
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	From        *int   `json:"from,omitempty"`
	To          *int   `json:"to,omitempty"`
	Path        string `json:"path,omitempty"`
}

type Links struct {
	First *string `json:"first,omitempty"`
	Last  *string `json:"last,omitempty"`
	Prev  *string `json:"prev,omitempty"`
	Next  *string `json:"next,omitempty"`
}

// Page is the list envelope.
type Page[T any] struct {
	Data  []T    `json:"data"`
	Meta  *Meta  `json:"meta,omitempty"`
	Links *Links `json:"links,omitempty"`
}

// HasNext is authoritative only through meta: without meta there is no next page.
func (p Page[T]) HasNext() bool {
	return p.Meta != nil && p.Meta.CurrentPage < p.Meta.LastPage
}

var wrapperKeys = map[string]bool{"data": true, "meta": true, "links": true, "message": true}

// decodeItem accepts both a bare object and a {"data": {...}} wrapper.
func decodeItem[T any](body []byte) (T, error) {
	var out T
	if len(body) == 0 {
		return out, nil
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err == nil {
		if data, ok := top["data"]; ok && onlyWrapperKeys(top) {
			body = data
		}
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return out, fmt.Errorf("decode item: %w", err)
	}
	return out, nil
}

func onlyWrapperKeys(top map[string]json.RawMessage) bool {
	for k := range top {
		if !wrapperKeys[k] {
			return false
		}
	}
	return true
}

func decodePage[T any](body []byte) (Page[T], error) {
	var p Page[T]
	if err := json.Unmarshal(body, &p); err != nil {
		return p, fmt.Errorf("decode page: %w", err)
	}
	if p.Data == nil {
		p.Data = []T{}
	}
	return p, nil
}
