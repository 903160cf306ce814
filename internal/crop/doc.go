// Package crop extracts regions from rendered page images.
//
// Regions arrive as normalized bounding boxes in [0,1] document space,
// the same representation the layout data uses, and are mapped onto the
// pixel bounds of the source image at crop time. Cropped regions can be
// scaled down to thumbnail size for figure previews.
package crop
