package model

import (
	"encoding/json"
	"testing"
)

// TestBBoxUnion tests coordinate-wise union of bounding boxes.
func TestBBoxUnion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		a    BBox
		b    BBox
		want BBox
	}{
		{
			name: "disjoint boxes",
			a:    BBox{X1: 0, Y1: 0, X2: 10, Y2: 10},
			b:    BBox{X1: 20, Y1: 20, X2: 30, Y2: 30},
			want: BBox{X1: 0, Y1: 0, X2: 30, Y2: 30},
		},
		{
			name: "contained box",
			a:    BBox{X1: 0, Y1: 0, X2: 100, Y2: 100},
			b:    BBox{X1: 10, Y1: 10, X2: 20, Y2: 20},
			want: BBox{X1: 0, Y1: 0, X2: 100, Y2: 100},
		},
		{
			name: "identical boxes",
			a:    BBox{X1: 5, Y1: 5, X2: 15, Y2: 15},
			b:    BBox{X1: 5, Y1: 5, X2: 15, Y2: 15},
			want: BBox{X1: 5, Y1: 5, X2: 15, Y2: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := tt.a.Union(tt.b)
			if got != tt.want {
				t.Errorf("Union() = %+v, want %+v", got, tt.want)
			}

			// Union must contain both inputs.
			if !got.Contains(tt.a) || !got.Contains(tt.b) {
				t.Errorf("Union() = %+v does not contain both inputs", got)
			}
		})
	}
}

// TestBBoxValid tests bbox validity checks.
func TestBBoxValid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		b    BBox
		want bool
	}{
		{name: "valid box", b: BBox{X1: 0, Y1: 0, X2: 1, Y2: 1}, want: true},
		{name: "zero extent", b: BBox{X1: 1, Y1: 1, X2: 1, Y2: 1}, want: false},
		{name: "inverted x", b: BBox{X1: 2, Y1: 0, X2: 1, Y2: 1}, want: false},
		{name: "inverted y", b: BBox{X1: 0, Y1: 2, X2: 1, Y2: 1}, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := tt.b.Valid(); got != tt.want {
				t.Errorf("Valid() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestBBoxJSON tests the [x1,y1,x2,y2] array wire format.
func TestBBoxJSON(t *testing.T) {
	t.Parallel()

	t.Run("marshals to array form", func(t *testing.T) {
		t.Parallel()

		data, err := json.Marshal(BBox{X1: 100, Y1: 100, X2: 150, Y2: 120})
		if err != nil {
			t.Fatalf("Marshal() error: %v", err)
		}
		if string(data) != "[100,100,150,120]" {
			t.Errorf("Marshal() = %s, want [100,100,150,120]", data)
		}
	})

	t.Run("unmarshals from array form", func(t *testing.T) {
		t.Parallel()

		var b BBox
		if err := json.Unmarshal([]byte("[1,2,3,4]"), &b); err != nil {
			t.Fatalf("Unmarshal() error: %v", err)
		}
		want := BBox{X1: 1, Y1: 2, X2: 3, Y2: 4}
		if b != want {
			t.Errorf("Unmarshal() = %+v, want %+v", b, want)
		}
	})

	t.Run("rejects object form", func(t *testing.T) {
		t.Parallel()

		var b BBox
		if err := json.Unmarshal([]byte(`{"x1":1}`), &b); err == nil {
			t.Error("expected error for object-form bbox")
		}
	})
}
