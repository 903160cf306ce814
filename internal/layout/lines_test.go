package layout

import (
	"testing"

	"github.com/hayathine/paperterrace/internal/model"
)

// word is a test helper building a word from text and box coordinates.
func word(text string, x1, y1, x2, y2 float64) model.Word {
	return model.Word{Text: text, BBox: model.BBox{X1: x1, Y1: y1, X2: x2, Y2: y2}}
}

// TestGroupLinesTwoLines tests the canonical two-line page.
func TestGroupLinesTwoLines(t *testing.T) {
	t.Parallel()

	words := []model.Word{
		word("Hello", 100, 100, 150, 120),
		word("World", 160, 100, 210, 120),
		word("Second", 100, 150, 150, 170),
		word("Line", 160, 150, 210, 170),
	}

	lines := GroupLines(words, 1000)

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if got := lines[0].Text(); got != "Hello World" {
		t.Errorf("line 0 = %q, want %q", got, "Hello World")
	}
	if got := lines[1].Text(); got != "Second Line" {
		t.Errorf("line 1 = %q, want %q", got, "Second Line")
	}
}

// TestGroupLinesEdgeCases tests degenerate inputs.
func TestGroupLinesEdgeCases(t *testing.T) {
	t.Parallel()

	t.Run("zero words yield zero lines", func(t *testing.T) {
		t.Parallel()

		if lines := GroupLines(nil, 1000); len(lines) != 0 {
			t.Errorf("got %d lines, want 0", len(lines))
		}
	})

	t.Run("single word yields one line", func(t *testing.T) {
		t.Parallel()

		lines := GroupLines([]model.Word{word("only", 10, 10, 50, 30)}, 1000)
		if len(lines) != 1 {
			t.Fatalf("got %d lines, want 1", len(lines))
		}
		if lines[0].Text() != "only" {
			t.Errorf("line text = %q, want %q", lines[0].Text(), "only")
		}
		if lines[0].BBox != (model.BBox{X1: 10, Y1: 10, X2: 50, Y2: 30}) {
			t.Errorf("line bbox = %+v, want the word's bbox", lines[0].BBox)
		}
	})

	t.Run("gap exactly at threshold stays in same column", func(t *testing.T) {
		t.Parallel()

		// Page width 1000 gives a threshold of 100; the gap is exactly 100.
		words := []model.Word{
			word("left", 0, 0, 50, 20),
			word("right", 150, 0, 200, 20),
		}
		lines := GroupLines(words, 1000)
		if len(lines) != 1 {
			t.Fatalf("got %d lines, want 1 (same column)", len(lines))
		}
		if lines[0].Text() != "left right" {
			t.Errorf("line text = %q, want %q", lines[0].Text(), "left right")
		}
	})
}

// TestGroupLinesColumns tests column detection and per-column ordering.
func TestGroupLinesColumns(t *testing.T) {
	t.Parallel()

	// Two columns on a 1000-wide page: the 200px gap between x=300 and
	// x=500 exceeds the 100px threshold.
	words := []model.Word{
		word("R1", 500, 100, 560, 120),
		word("L1", 100, 100, 160, 120),
		word("R2", 500, 150, 560, 170),
		word("L2", 100, 150, 160, 170),
	}

	lines := GroupLines(words, 1000)

	if len(lines) != 4 {
		t.Fatalf("got %d lines, want 4", len(lines))
	}

	// Left column reads before the right column, top to bottom within each.
	wantTexts := []string{"L1", "L2", "R1", "R2"}
	wantColumns := []int{0, 0, 1, 1}
	for i, line := range lines {
		if line.Text() != wantTexts[i] {
			t.Errorf("line %d = %q, want %q", i, line.Text(), wantTexts[i])
		}
		if line.Column != wantColumns[i] {
			t.Errorf("line %d column = %d, want %d", i, line.Column, wantColumns[i])
		}
	}
}

// TestGroupLinesRaggedBaseline tests that slightly offset words still join.
func TestGroupLinesRaggedBaseline(t *testing.T) {
	t.Parallel()

	// Word height 20, attach tolerance 8: a 5px offset joins, 12px does not.
	words := []model.Word{
		word("a", 10, 100, 40, 120),
		word("b", 50, 105, 80, 125),
		word("c", 10, 132, 40, 152),
	}

	lines := GroupLines(words, 1000)

	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].Text() != "a b" {
		t.Errorf("line 0 = %q, want %q", lines[0].Text(), "a b")
	}
	if lines[1].Text() != "c" {
		t.Errorf("line 1 = %q, want %q", lines[1].Text(), "c")
	}
}

// TestGroupLinesUnion tests that every line bbox contains its member words.
func TestGroupLinesUnion(t *testing.T) {
	t.Parallel()

	words := []model.Word{
		word("one", 100, 100, 150, 122),
		word("two", 160, 98, 230, 120),
		word("three", 240, 101, 320, 119),
		word("four", 100, 160, 170, 180),
	}

	lines := GroupLines(words, 1000)

	total := 0
	for i, line := range lines {
		total += len(line.Words)
		for j, w := range line.Words {
			if !line.BBox.Contains(w.BBox) {
				t.Errorf("line %d bbox %+v does not contain word %d bbox %+v", i, line.BBox, j, w.BBox)
			}
		}
	}
	if total != len(words) {
		t.Errorf("words across lines = %d, want %d (each word in exactly one line)", total, len(words))
	}
}

// TestGroupLinesIdempotent tests that regrouping lines as atomic words
// yields the same line count.
func TestGroupLinesIdempotent(t *testing.T) {
	t.Parallel()

	words := []model.Word{
		word("Hello", 100, 100, 150, 120),
		word("World", 160, 100, 210, 120),
		word("Second", 100, 150, 150, 170),
		word("Line", 160, 150, 210, 170),
		word("Third", 100, 200, 180, 220),
	}

	first := GroupLines(words, 1000)

	atoms := make([]model.Word, len(first))
	for i, line := range first {
		atoms[i] = model.Word{Text: line.Text(), BBox: line.BBox}
	}
	second := GroupLines(atoms, 1000)

	if len(second) != len(first) {
		t.Errorf("regrouped %d lines into %d, want identical count", len(first), len(second))
	}
}

// TestGroupPage tests the page-level wrapper.
func TestGroupPage(t *testing.T) {
	t.Parallel()

	if lines := GroupPage(nil); lines != nil {
		t.Errorf("GroupPage(nil) = %v, want nil", lines)
	}

	p := &model.Page{
		PageNum: 1, Width: 1000, Height: 1400,
		Words: []model.Word{word("a", 10, 10, 30, 30)},
	}
	if lines := GroupPage(p); len(lines) != 1 {
		t.Errorf("GroupPage() = %d lines, want 1", len(lines))
	}
}
