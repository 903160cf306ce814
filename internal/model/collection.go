package model

import "sort"

// PageCollection is the reconciled, duplicate-free set of pages for one
// document, kept in page_num ascending order regardless of arrival order.
//
// The collection is not safe for concurrent use. It deliberately has exactly
// one writer at a time: the active loader for the session. Concurrent access
// is serialized by the session that owns it; every other component receives
// read-only snapshots.
type PageCollection struct {
	// pages is kept sorted by PageNum.
	pages []*Page

	// byNum indexes pages by their page number for O(1) upsert lookups.
	byNum map[int]*Page
}

// NewPageCollection returns an empty collection.
func NewPageCollection() *PageCollection {
	return &PageCollection{
		pages: make([]*Page, 0),
		byNum: make(map[int]*Page),
	}
}

// NewPageCollectionFrom builds a collection from existing pages, applying
// the same upsert-by-page_num reconciliation as incremental arrival. Pages
// with a non-positive page number are ignored.
func NewPageCollectionFrom(pages []*Page) *PageCollection {
	c := NewPageCollection()
	for _, p := range pages {
		c.Upsert(p)
	}
	return c
}

// Upsert reconciles an incoming page record. If a page with the same
// page_num already exists its fields are merged (shallow overwrite);
// otherwise the page is inserted at its sorted position. This guarantees
// the collection never holds duplicate page numbers regardless of message
// ordering or retries.
//
// Returns true when the record was applied, false when it was rejected
// (nil page or non-positive page number).
func (c *PageCollection) Upsert(update *Page) bool {
	if update == nil || update.PageNum < 1 {
		return false
	}

	if existing, ok := c.byNum[update.PageNum]; ok {
		existing.Merge(update)
		return true
	}

	// Copy so later mutation of the caller's value cannot bypass Upsert.
	p := *update
	idx := sort.Search(len(c.pages), func(i int) bool {
		return c.pages[i].PageNum >= p.PageNum
	})
	c.pages = append(c.pages, nil)
	copy(c.pages[idx+1:], c.pages[idx:])
	c.pages[idx] = &p
	c.byNum[p.PageNum] = &p
	return true
}

// Get returns the page with the given number, or nil if absent.
func (c *PageCollection) Get(pageNum int) *Page {
	return c.byNum[pageNum]
}

// Len returns the number of distinct pages.
func (c *PageCollection) Len() int {
	return len(c.pages)
}

// Pages returns the pages in page_num ascending order. The slice is a copy;
// the page values are shared and must be treated as read-only by consumers.
func (c *PageCollection) Pages() []*Page {
	out := make([]*Page, len(c.pages))
	copy(out, c.pages)
	return out
}

// FlatText concatenates the stored per-page content in page order,
// separated by blank lines. Pages without content contribute nothing.
func (c *PageCollection) FlatText() string {
	var parts []string
	for _, p := range c.pages {
		if p.Content != "" {
			parts = append(parts, p.Content)
		}
	}
	return joinParagraphs(parts)
}

func joinParagraphs(parts []string) string {
	switch len(parts) {
	case 0:
		return ""
	case 1:
		return parts[0]
	}
	n := 0
	for _, p := range parts {
		n += len(p) + 2
	}
	buf := make([]byte, 0, n)
	for i, p := range parts {
		if i > 0 {
			buf = append(buf, '\n', '\n')
		}
		buf = append(buf, p...)
	}
	return string(buf)
}
