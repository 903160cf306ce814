package layout

import (
	"math"
	"sort"

	"github.com/hayathine/paperterrace/internal/model"
)

const (
	// ColumnGapRatio is the fraction of the page width a horizontal gap
	// between consecutive words must exceed to start a new column.
	ColumnGapRatio = 0.1

	// LineAttachRatio is the fraction of a word's height its top edge may
	// deviate from a line's top edge and still join that line.
	LineAttachRatio = 0.4
)

// GroupLines groups a page's words into reading-order lines, per detected
// column. The input slice is not modified. Zero words yield zero lines; a
// single word yields one line containing it.
//
// Every word belongs to exactly one line per grouping pass, and every line's
// bbox is the coordinate-wise union of its members' bboxes.
func GroupLines(words []model.Word, pageWidth float64) []model.Line {
	if len(words) == 0 {
		return nil
	}

	columns := detectColumns(words, pageWidth)

	var lines []model.Line
	for col, colWords := range columns {
		colLines := clusterLines(colWords)
		for i := range colLines {
			colLines[i].Column = col
		}
		lines = append(lines, colLines...)
	}
	return lines
}

// GroupPage is a convenience wrapper grouping a page's own words against its
// own width.
func GroupPage(p *model.Page) []model.Line {
	if p == nil {
		return nil
	}
	return GroupLines(p.Words, p.Width)
}

// detectColumns splits words into columns, left to right. Words are walked
// in left-x order; a new column starts whenever the gap between a word's
// left edge and the previous word's right edge exceeds the threshold.
// A gap of exactly the threshold stays in the same column.
func detectColumns(words []model.Word, pageWidth float64) [][]model.Word {
	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BBox.X1 < sorted[j].BBox.X1
	})

	threshold := pageWidth * ColumnGapRatio

	columns := [][]model.Word{{sorted[0]}}
	prevRight := sorted[0].BBox.X2
	for _, w := range sorted[1:] {
		if w.BBox.X1-prevRight > threshold {
			columns = append(columns, nil)
		}
		last := len(columns) - 1
		columns[last] = append(columns[last], w)
		if w.BBox.X2 > prevRight {
			prevRight = w.BBox.X2
		}
	}
	return columns
}

// clusterLines groups one column's words into lines. Words are taken in
// (top-y, left-x) order; each attaches to the existing line whose top edge
// is nearest, provided the deviation is below LineAttachRatio of the word's
// height, and otherwise starts a new line. Line bboxes grow incrementally by
// union. Finished lines have their words sorted left to right.
func clusterLines(words []model.Word) []model.Line {
	sorted := make([]model.Word, len(words))
	copy(sorted, words)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].BBox.Y1 != sorted[j].BBox.Y1 {
			return sorted[i].BBox.Y1 < sorted[j].BBox.Y1
		}
		return sorted[i].BBox.X1 < sorted[j].BBox.X1
	})

	var lines []model.Line
	for _, w := range sorted {
		tolerance := w.BBox.Height() * LineAttachRatio

		best := -1
		bestDelta := math.Inf(1)
		for i := range lines {
			delta := math.Abs(w.BBox.Y1 - lines[i].BBox.Y1)
			if delta < tolerance && delta < bestDelta {
				best = i
				bestDelta = delta
			}
		}

		if best >= 0 {
			lines[best].Words = append(lines[best].Words, w)
			lines[best].BBox = lines[best].BBox.Union(w.BBox)
		} else {
			lines = append(lines, model.Line{Words: []model.Word{w}, BBox: w.BBox})
		}
	}

	for i := range lines {
		ws := lines[i].Words
		sort.SliceStable(ws, func(a, b int) bool {
			return ws[a].BBox.X1 < ws[b].BBox.X1
		})
	}
	return lines
}
