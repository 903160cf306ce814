package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hayathine/paperterrace/internal/cache"
	"github.com/hayathine/paperterrace/internal/config"
	"github.com/hayathine/paperterrace/internal/crop"
	"github.com/hayathine/paperterrace/internal/model"
)

// NewCropCmd creates the crop command.
func NewCropCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crop <document-id> <page-image>",
		Short: "Crop a figure or region out of a rendered page image",
		Long: `Crop cuts a region out of a rendered page image and writes it as PNG.

The region is either one of the page's detected figures, looked up in the
local cache by document id and page number, or an explicit rectangle in
normalized [0,1] page coordinates.

Examples:
  # Crop the first figure on page 3
  paperterrace crop doc-1 page-3.png --page 3 --figure 1 -o fig.png

  # Crop the top-left quarter of the page
  paperterrace crop doc-1 page-3.png --region 0,0,0.5,0.5 -o quarter.png

  # Thumbnail the crop to fit 320x240
  paperterrace crop doc-1 page-3.png --page 3 --figure 1 --max-width 320 --max-height 240`,
		Args: cobra.ExactArgs(2),
		RunE: runCropCmd,
	}

	cmd.Flags().IntP("page", "p", 0, "Page number the image renders (required with --figure)")
	cmd.Flags().Int("figure", 0, "1-based index of the page figure to crop")
	cmd.Flags().String("region", "", "Normalized crop rectangle as x1,y1,x2,y2")
	cmd.Flags().Int("max-width", 0, "Scale the crop down to fit this width (0 keeps native size)")
	cmd.Flags().Int("max-height", 0, "Scale the crop down to fit this height (0 keeps native size)")
	cmd.Flags().Float64("padding", 0, "Grow the region by this fraction of its size on each edge")
	cmd.Flags().StringP("output", "o", "crop.png", "Output PNG path")
	cmd.Flags().String("cache-dir", "", "Cache directory (default: XDG cache directory)")

	return cmd
}

// runCropCmd executes the crop command.
func runCropCmd(cmd *cobra.Command, args []string) error {
	documentID, imagePath := args[0], args[1]

	figureIndex, err := cmd.Flags().GetInt("figure")
	if err != nil {
		return err
	}
	regionSpec, err := cmd.Flags().GetString("region")
	if err != nil {
		return err
	}
	if (figureIndex > 0) == (regionSpec != "") {
		return fmt.Errorf("exactly one of --figure and --region is required")
	}

	padding, err := cmd.Flags().GetFloat64("padding")
	if err != nil {
		return err
	}
	cropper := crop.New(crop.WithPadding(padding))

	f, err := os.Open(imagePath)
	if err != nil {
		return fmt.Errorf("failed to open page image: %w", err)
	}
	defer f.Close()

	img, err := crop.Decode(f)
	if err != nil {
		return err
	}

	var out image.Image
	if figureIndex > 0 {
		out, err = cropFigure(cmd, cropper, img, documentID, figureIndex)
	} else {
		out, err = cropRegion(cmd, cropper, img, regionSpec)
	}
	if err != nil {
		return err
	}

	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if err := writePNG(outputPath, out); err != nil {
		return err
	}

	b := out.Bounds()
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %dx%d crop to %s\n", b.Dx(), b.Dy(), outputPath)
	return nil
}

// cropFigure looks the figure up in the cached layout and crops it.
func cropFigure(cmd *cobra.Command, cropper *crop.Cropper, img image.Image, documentID string, figureIndex int) (image.Image, error) {
	pageNum, err := cmd.Flags().GetInt("page")
	if err != nil {
		return nil, err
	}
	if pageNum < 1 {
		return nil, fmt.Errorf("--figure requires --page")
	}

	page, err := cachedPage(cmd, documentID, pageNum)
	if err != nil {
		return nil, err
	}
	if figureIndex > len(page.Figures) {
		return nil, fmt.Errorf("page %d has %d figure(s), no figure %d",
			pageNum, len(page.Figures), figureIndex)
	}
	fig := page.Figures[figureIndex-1]

	return thumbnailOrFull(cmd, cropper, img, page, &fig)
}

// cropRegion crops an explicit normalized rectangle.
func cropRegion(cmd *cobra.Command, cropper *crop.Cropper, img image.Image, spec string) (image.Image, error) {
	box, err := parseRegion(spec)
	if err != nil {
		return nil, err
	}

	maxW, maxH, err := thumbnailLimits(cmd)
	if err != nil {
		return nil, err
	}
	if maxW > 0 && maxH > 0 {
		return cropper.Thumbnail(img, box, maxW, maxH)
	}
	return cropper.Region(img, box)
}

// thumbnailOrFull crops a figure at native size or scaled to the
// --max-width/--max-height limits.
func thumbnailOrFull(cmd *cobra.Command, cropper *crop.Cropper, img image.Image, page *model.Page, fig *model.Figure) (image.Image, error) {
	maxW, maxH, err := thumbnailLimits(cmd)
	if err != nil {
		return nil, err
	}
	if maxW > 0 && maxH > 0 {
		if page.Width <= 0 || page.Height <= 0 {
			return nil, crop.ErrInvalidRegion
		}
		box := model.BBox{
			X1: fig.BBox.X1 / page.Width,
			Y1: fig.BBox.Y1 / page.Height,
			X2: fig.BBox.X2 / page.Width,
			Y2: fig.BBox.Y2 / page.Height,
		}
		return cropper.Thumbnail(img, box, maxW, maxH)
	}
	return cropper.Figure(img, page, *fig)
}

// thumbnailLimits reads the scaling flags. Both must be set together.
func thumbnailLimits(cmd *cobra.Command) (int, int, error) {
	maxW, err := cmd.Flags().GetInt("max-width")
	if err != nil {
		return 0, 0, err
	}
	maxH, err := cmd.Flags().GetInt("max-height")
	if err != nil {
		return 0, 0, err
	}
	if (maxW > 0) != (maxH > 0) {
		return 0, 0, fmt.Errorf("--max-width and --max-height must be set together")
	}
	return maxW, maxH, nil
}

// cachedPage loads a page's layout from the local cache.
func cachedPage(cmd *cobra.Command, documentID string, pageNum int) (*model.Page, error) {
	dir, err := cmd.Flags().GetString("cache-dir")
	if err != nil {
		return nil, err
	}
	if dir == "" {
		dir = config.XDGCacheDir()
	}

	opts := cache.DefaultOptions()
	opts.CreateIfNotExists = false
	store, err := cache.Open(dir, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache in %s: %w", dir, err)
	}
	defer store.Close()

	record, err := store.Get(cmd.Context(), documentID)
	if err != nil {
		return nil, fmt.Errorf("failed to read cache: %w", err)
	}
	if !record.Servable() {
		return nil, fmt.Errorf("document %s is not cached; run 'paperterrace load %s' first",
			documentID, documentID)
	}

	pages, err := model.DecodeLayout(record.SerializedLayout)
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		if page.PageNum == pageNum {
			return page, nil
		}
	}
	return nil, fmt.Errorf("document %s has no cached page %d", documentID, pageNum)
}

// parseRegion parses a normalized x1,y1,x2,y2 rectangle.
func parseRegion(spec string) (model.BBox, error) {
	parts := strings.Split(spec, ",")
	if len(parts) != 4 {
		return model.BBox{}, fmt.Errorf("invalid --region %q: want x1,y1,x2,y2", spec)
	}

	coords := make([]float64, 4)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return model.BBox{}, fmt.Errorf("invalid --region coordinate %q: %w", part, err)
		}
		coords[i] = v
	}

	box := model.BBox{X1: coords[0], Y1: coords[1], X2: coords[2], Y2: coords[3]}
	if !box.Valid() {
		return model.BBox{}, fmt.Errorf("invalid --region %q: coordinates must form a non-empty box", spec)
	}
	return box, nil
}

// writePNG writes the crop, creating parent directories as needed.
func writePNG(path string, img image.Image) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	return crop.EncodePNG(f, img)
}
