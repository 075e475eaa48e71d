package stitcher

import (
	"fmt"
	"image"

	xdraw "golang.org/x/image/draw"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

// Extent returns the composite size for the given placements and overlaps:
// the along-axis sum of extents minus the sum of overlaps, and the cross extent.
// overlaps[0] is ignored.
func Extent(placements []Placement, overlaps []int, dir Direction, cross int) (width, height int, err error) {
	if len(placements) != len(overlaps) {
		return 0, 0, fmt.Errorf("extent: %d placements, %d overlaps", len(placements), len(overlaps))
	}
	along := 0
	for i, p := range placements {
		along += p.Along(dir)
		if i > 0 {
			along -= overlaps[i]
		}
	}
	if dir == Horizontal {
		return along, cross, nil
	}
	return cross, along, nil
}

// checkArea rejects placements whose normalized images could not all be held
// within maxArea pixels. Each image alone, and all of them abutted, must fit.
func checkArea(placements []Placement, dir Direction, cross int, maxArea int64) error {
	var along int64
	for _, p := range placements {
		if int64(p.Width)*int64(p.Height) > maxArea {
			return &LimitError{Width: p.Width, Height: p.Height, MaxArea: maxArea}
		}
		along += int64(p.Along(dir))
	}
	if along*int64(cross) > maxArea {
		if dir == Horizontal {
			return &LimitError{Width: int(along), Height: cross, MaxArea: maxArea}
		}
		return &LimitError{Width: cross, Height: int(along), MaxArea: maxArea}
	}
	return nil
}

// Composite allocates the output buffer and draws every image in order.
// The cursor along the stitch axis starts at 0, moves back by an image's
// overlap before it is drawn and forward by its full extent afterwards.
// Later images overwrite earlier ones in the shared band. Offsets of the
// placements are updated in place.
func Composite(images []*raster.Image, placements []Placement, overlaps []int, dir Direction, cross int, maxArea int64) (*raster.Image, error) {
	if len(images) != len(placements) || len(images) != len(overlaps) {
		return nil, fmt.Errorf("composite: %d images, %d placements, %d overlaps", len(images), len(placements), len(overlaps))
	}
	for i := 1; i < len(overlaps); i++ {
		if overlaps[i] < 0 || overlaps[i] >= placements[i-1].Along(dir) {
			return nil, fmt.Errorf("composite: overlap %d of image %d out of range", overlaps[i], i)
		}
	}

	width, height, err := Extent(placements, overlaps, dir, cross)
	if err != nil {
		return nil, err
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("composite: empty canvas %dx%d", width, height)
	}
	if int64(width)*int64(height) > maxArea {
		return nil, &LimitError{Width: width, Height: height, MaxArea: maxArea}
	}

	out := raster.New(width, height)
	dst := out.NRGBA()

	cursor := 0
	for i, img := range images {
		if i > 0 {
			cursor -= overlaps[i]
		}
		placements[i].Offset = cursor

		at := image.Pt(0, cursor)
		if dir == Horizontal {
			at = image.Pt(cursor, 0)
		}
		src := img.NRGBA()
		xdraw.Copy(dst, at, src, src.Bounds(), xdraw.Src, nil)

		cursor += placements[i].Along(dir)
	}

	return out, nil
}
