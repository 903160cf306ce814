package model

import (
	"fmt"
	"strings"
)

// Word is a single recognized word with its bounding box in page-pixel space.
type Word struct {
	// Text is the recognized word text.
	Text string `json:"text"`

	// BBox is the word's bounding box in page-pixel coordinates.
	BBox BBox `json:"bbox"`
}

// Line is a derived, never-persisted run of words approximating one visual
// text line. Words are ordered left to right; BBox is the coordinate-wise
// union of the member words' bboxes.
type Line struct {
	// Words are the member words in reading order.
	Words []Word `json:"words"`

	// BBox is the union of all member word bboxes.
	BBox BBox `json:"bbox"`

	// Column is the 0-based index of the detected column this line belongs to.
	Column int `json:"column"`
}

// Text returns the line's text with single spaces between words.
func (l Line) Text() string {
	parts := make([]string, len(l.Words))
	for i, w := range l.Words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

// Figure is a non-text region detected on a page, such as an embedded image
// or chart.
type Figure struct {
	// BBox is the figure's bounding box in page-pixel coordinates.
	BBox BBox `json:"bbox"`

	// Caption is the detected caption text, if any.
	Caption string `json:"caption,omitempty"`

	// URL locates the extracted figure image, if the backend rendered one.
	URL string `json:"url,omitempty"`
}

// Link is a hyperlink region detected on a page.
type Link struct {
	// BBox is the clickable region in page-pixel coordinates.
	BBox BBox `json:"bbox"`

	// URI is the link target.
	URI string `json:"uri"`
}

// Page is one analyzed document page. Instances arrive incrementally from
// the analysis feed or are synthesized from a cache record or a full fetch.
//
// Invariant: PageNum is 1-based and unique within a document, and every word
// bbox lies within [0,Width]x[0,Height].
type Page struct {
	// PageNum is the 1-based page number, unique within a document.
	PageNum int `json:"page_num"`

	// Width and Height are the pixel dimensions of the rendered page image.
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Words are the recognized words in the page's final word order.
	// Search match indices point into this slice and are frozen once the
	// page is first stored; an upsert only replaces the slice wholesale.
	Words []Word `json:"words"`

	// Figures are non-text regions detected on the page.
	Figures []Figure `json:"figures,omitempty"`

	// Links are hyperlink regions detected on the page.
	Links []Link `json:"links,omitempty"`

	// Content is the page's flat text, independent of word boxes.
	Content string `json:"content,omitempty"`
}

// Validate checks the page invariants: a positive 1-based page number,
// positive dimensions when words are present, well-formed word bboxes, and
// every word bbox within the page bounds.
func (p *Page) Validate() error {
	if p.PageNum < 1 {
		return fmt.Errorf("page_num must be 1-based, got %d", p.PageNum)
	}
	if len(p.Words) == 0 {
		return nil
	}
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("page %d: non-positive dimensions %gx%g", p.PageNum, p.Width, p.Height)
	}
	for i, w := range p.Words {
		if !w.BBox.Valid() {
			return fmt.Errorf("page %d: word %d has degenerate bbox", p.PageNum, i)
		}
		if !w.BBox.Within(p.Width, p.Height) {
			return fmt.Errorf("page %d: word %d bbox outside page bounds", p.PageNum, i)
		}
	}
	return nil
}

// Merge applies a later update for the same page number as a shallow
// overwrite: fields carried by the update replace the receiver's, fields the
// update omits are kept. Word arrays are replaced wholesale, never spliced,
// so existing word indices stay valid until a full replacement arrives.
func (p *Page) Merge(update *Page) {
	if update == nil {
		return
	}
	if update.Width > 0 {
		p.Width = update.Width
	}
	if update.Height > 0 {
		p.Height = update.Height
	}
	if update.Words != nil {
		p.Words = update.Words
	}
	if update.Figures != nil {
		p.Figures = update.Figures
	}
	if update.Links != nil {
		p.Links = update.Links
	}
	if update.Content != "" {
		p.Content = update.Content
	}
}
