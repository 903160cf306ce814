package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// CacheRecord is the locally persisted form of a fully loaded document.
// It is written once per completed load (from the stream or a full fetch)
// and read through at session start for network-free first paint.
type CacheRecord struct {
	// DocumentID identifies the document.
	DocumentID string

	// ContentHash locates the rendered page images for this document.
	// A record without a content hash is not servable from cache.
	ContentHash string

	// Title is the document title, if known.
	Title string

	// FlatText is the document's full text in page order.
	FlatText string

	// SerializedLayout is the JSON-encoded page array (words, figures,
	// links per page). A record without layout is not servable from cache.
	SerializedLayout []byte

	// LastAccessed is updated on every cache read, for age-based pruning.
	LastAccessed time.Time
}

// Servable reports whether the record carries enough data to render a
// document without any network call: both a serialized layout and a
// content hash must be present.
func (r *CacheRecord) Servable() bool {
	return r != nil && r.ContentHash != "" && len(r.SerializedLayout) > 0
}

// EncodeLayout serializes pages for storage in a cache record.
func EncodeLayout(pages []*Page) ([]byte, error) {
	data, err := json.Marshal(pages)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize layout: %w", err)
	}
	return data, nil
}

// DecodeLayout parses a serialized layout back into pages. A decode failure
// means the record is corrupt and must be treated as a cache miss.
func DecodeLayout(data []byte) ([]*Page, error) {
	var pages []*Page
	if err := json.Unmarshal(data, &pages); err != nil {
		return nil, fmt.Errorf("failed to parse layout: %w", err)
	}
	return pages, nil
}
