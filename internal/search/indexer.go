package search

import (
	"strings"

	"golang.org/x/text/cases"

	"github.com/hayathine/paperterrace/internal/geometry"
	"github.com/hayathine/paperterrace/internal/model"
)

// Find returns every (page_num, word_index) whose word text contains the
// term case-insensitively, ordered by (page_num asc, word_index asc).
// An empty term matches nothing.
//
// Case-insensitivity uses Unicode case folding rather than ASCII lowering,
// so querying "straße" and "STRASSE" behave consistently.
func Find(term string, pages []*model.Page) []model.SearchMatch {
	if term == "" {
		return nil
	}

	folder := cases.Fold()
	folded := folder.String(term)

	var matches []model.SearchMatch
	for _, p := range pages {
		if p == nil {
			continue
		}
		for i, w := range p.Words {
			if strings.Contains(folder.String(w.Text), folded) {
				matches = append(matches, model.SearchMatch{PageNum: p.PageNum, WordIndex: i})
			}
		}
	}
	return matches
}

// Navigator keeps an ordered match list and a current-match pointer that
// wraps modulo the match count in both directions.
type Navigator struct {
	term    string
	matches []model.SearchMatch
	idx     int
}

// NewNavigator returns a navigator with no active query.
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Set recomputes the match list for a term against a page collection and
// resets the pointer to the first match. Call it whenever the term or the
// underlying collection changes.
func (n *Navigator) Set(term string, pages []*model.Page) {
	n.term = term
	n.matches = Find(term, pages)
	n.idx = 0
}

// Term returns the active query term.
func (n *Navigator) Term() string {
	return n.term
}

// Len returns the number of matches.
func (n *Navigator) Len() int {
	return len(n.matches)
}

// Matches returns a snapshot of the ordered match list.
func (n *Navigator) Matches() []model.SearchMatch {
	out := make([]model.SearchMatch, len(n.matches))
	copy(out, n.matches)
	return out
}

// Current returns the match under the pointer. ok is false when there are
// no matches.
func (n *Navigator) Current() (match model.SearchMatch, ok bool) {
	if len(n.matches) == 0 {
		return model.SearchMatch{}, false
	}
	return n.matches[n.idx], true
}

// Next advances the pointer, wrapping past the last match to the first.
func (n *Navigator) Next() (model.SearchMatch, bool) {
	if len(n.matches) == 0 {
		return model.SearchMatch{}, false
	}
	n.idx = (n.idx + 1) % len(n.matches)
	return n.matches[n.idx], true
}

// Prev moves the pointer back, wrapping past the first match to the last.
func (n *Navigator) Prev() (model.SearchMatch, bool) {
	if len(n.matches) == 0 {
		return model.SearchMatch{}, false
	}
	n.idx = (n.idx - 1 + len(n.matches)) % len(n.matches)
	return n.matches[n.idx], true
}

// PagePlacement describes where one page sits in the scrollable area, as
// reported by the rendering layer.
type PagePlacement struct {
	// Top is the page's on-screen top offset within the scroll area.
	Top float64

	// Height is the page's rendered height.
	Height float64
}

// ScrollTarget computes the scroll offset that centers a match's word in
// the viewport. ok is false when the match does not resolve against the
// given page, which happens if the collection changed under a stale match.
func ScrollTarget(m model.SearchMatch, page *model.Page, placement PagePlacement, viewportHeight float64) (float64, bool) {
	if page == nil || page.PageNum != m.PageNum || m.WordIndex < 0 || m.WordIndex >= len(page.Words) {
		return 0, false
	}
	if page.Width <= 0 || page.Height <= 0 {
		return 0, false
	}

	norm := geometry.PixelToNormalized(page.Words[m.WordIndex].BBox, page.Width, page.Height)
	mid := geometry.Center(norm)
	return geometry.ScrollTarget(placement.Top, placement.Height, mid.Y, viewportHeight), true
}
