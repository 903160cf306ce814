package crop

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	// Register decoders for the page image formats the renderer emits.
	_ "image/gif"
	_ "image/jpeg"

	"golang.org/x/image/draw"

	"github.com/hayathine/paperterrace/internal/model"
)

// ErrInvalidRegion is returned when a crop region is degenerate or lies
// outside the normalized [0,1] document space.
var ErrInvalidRegion = errors.New("crop: region is empty or outside the page")

// Cropper crops and scales page image regions.
type Cropper struct {
	scaler  draw.Scaler
	padding float64
}

// Option configures a Cropper.
type Option func(*Cropper)

// WithScaler sets the interpolator used when scaling crops. The default
// is draw.CatmullRom, the highest quality kernel in x/image.
func WithScaler(s draw.Scaler) Option {
	return func(c *Cropper) {
		if s != nil {
			c.scaler = s
		}
	}
}

// WithPadding grows every crop region by the given fraction of its own
// size on each edge, clamped to the page. Figures are often annotated
// with tight boxes that clip captions; a small pad keeps them readable.
func WithPadding(fraction float64) Option {
	return func(c *Cropper) {
		if fraction > 0 {
			c.padding = fraction
		}
	}
}

// New creates a Cropper.
func New(opts ...Option) *Cropper {
	c := &Cropper{
		scaler: draw.CatmullRom,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Region crops the normalized box out of the page image. The box is
// interpreted in [0,1] document space and projected onto the image's
// pixel bounds.
func (c *Cropper) Region(img image.Image, box model.BBox) (image.Image, error) {
	if !box.Valid() {
		return nil, ErrInvalidRegion
	}
	box = c.pad(box)
	if box.X2 <= 0 || box.Y2 <= 0 || box.X1 >= 1 || box.Y1 >= 1 {
		return nil, ErrInvalidRegion
	}

	bounds := img.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	rect := image.Rect(
		bounds.Min.X+int(clamp01(box.X1)*w),
		bounds.Min.Y+int(clamp01(box.Y1)*h),
		bounds.Min.X+int(clamp01(box.X2)*w+0.5),
		bounds.Min.Y+int(clamp01(box.Y2)*h+0.5),
	)
	if rect.Empty() {
		return nil, ErrInvalidRegion
	}

	out := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Copy(out, image.Point{}, img, rect, draw.Src, nil)
	return out, nil
}

// Thumbnail crops the region and scales it to fit within maxW by maxH
// pixels, preserving aspect ratio. Regions already within the limit are
// returned at their native size.
func (c *Cropper) Thumbnail(img image.Image, box model.BBox, maxW, maxH int) (image.Image, error) {
	if maxW <= 0 || maxH <= 0 {
		return nil, fmt.Errorf("crop: invalid thumbnail limit %dx%d", maxW, maxH)
	}

	region, err := c.Region(img, box)
	if err != nil {
		return nil, err
	}

	rb := region.Bounds()
	if rb.Dx() <= maxW && rb.Dy() <= maxH {
		return region, nil
	}

	scale := min(float64(maxW)/float64(rb.Dx()), float64(maxH)/float64(rb.Dy()))
	dw := max(int(float64(rb.Dx())*scale), 1)
	dh := max(int(float64(rb.Dy())*scale), 1)

	out := image.NewRGBA(image.Rect(0, 0, dw, dh))
	c.scaler.Scale(out, out.Bounds(), region, rb, draw.Src, nil)
	return out, nil
}

// Figure crops a page figure out of its rendered page image. Figure
// boxes are stored in page-pixel coordinates, so the page's dimensions
// are needed to project them into normalized space first.
func (c *Cropper) Figure(img image.Image, page *model.Page, fig model.Figure) (image.Image, error) {
	if page == nil || page.Width <= 0 || page.Height <= 0 {
		return nil, ErrInvalidRegion
	}
	return c.Region(img, model.BBox{
		X1: fig.BBox.X1 / page.Width,
		Y1: fig.BBox.Y1 / page.Height,
		X2: fig.BBox.X2 / page.Width,
		Y2: fig.BBox.Y2 / page.Height,
	})
}

// Decode reads a page image in any registered format.
func Decode(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("failed to decode page image: %w", err)
	}
	return img, nil
}

// EncodePNG writes an image as PNG, the format figure previews use.
func EncodePNG(w io.Writer, img image.Image) error {
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("failed to encode crop: %w", err)
	}
	return nil
}

func (c *Cropper) pad(box model.BBox) model.BBox {
	if c.padding == 0 {
		return box
	}
	dx := box.Width() * c.padding
	dy := box.Height() * c.padding
	return model.BBox{
		X1: clamp01(box.X1 - dx),
		Y1: clamp01(box.Y1 - dy),
		X2: clamp01(box.X2 + dx),
		Y2: clamp01(box.Y2 + dy),
	}
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
