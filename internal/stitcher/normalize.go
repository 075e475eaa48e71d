package stitcher

import (
	"fmt"
	"math"

	"github.com/disintegration/imaging"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

// Placement describes where and at what size a source image is drawn.
type Placement struct {
	Index int `json:"index"`

	// DrawWidth and DrawHeight are the exact scaled sizes.
	DrawWidth  float64 `json:"draw_width"`
	DrawHeight float64 `json:"draw_height"`

	// Width and Height are the rasterized sizes actually drawn.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Offset is the position along the stitch axis of the image's first line.
	Offset int `json:"offset"`
}

// Along returns the rasterized extent along the stitch axis.
func (p Placement) Along(dir Direction) int {
	if dir == Horizontal {
		return p.Width
	}
	return p.Height
}

// Normalize computes the common cross extent and the draw size of every image.
// The cross extent is the largest natural height (Horizontal) or width
// (Vertical); every image is scaled by target/natural cross extent.
func Normalize(images []*raster.Image, dir Direction) (int, []Placement, error) {
	target := 0
	for i, img := range images {
		if img.Empty() {
			return 0, nil, fmt.Errorf("image %d: %w", i, ErrDegenerateImage)
		}
		target = max(target, crossExtent(img, dir))
	}

	placements := make([]Placement, len(images))
	for i, img := range images {
		// Multiply before dividing so integral results stay exact.
		scale := func(natural int) float64 {
			return float64(natural) * float64(target) / float64(crossExtent(img, dir))
		}
		p := Placement{Index: i}

		if dir == Horizontal {
			p.DrawWidth = scale(img.Width)
			p.DrawHeight = float64(target)
			p.Width = rasterExtent(p.DrawWidth)
			p.Height = target
		} else {
			p.DrawWidth = float64(target)
			p.DrawHeight = scale(img.Height)
			p.Width = target
			p.Height = rasterExtent(p.DrawHeight)
		}
		placements[i] = p
	}

	return target, placements, nil
}

func crossExtent(img *raster.Image, dir Direction) int {
	if dir == Horizontal {
		return img.Height
	}
	return img.Width
}

// rasterExtent rounds a scaled extent to whole pixels, never below one.
func rasterExtent(v float64) int {
	return max(1, int(math.Round(v)))
}

// resample returns the images at their placement sizes. Images already at
// the right size are returned as-is.
func resample(images []*raster.Image, placements []Placement, filter imaging.ResampleFilter) []*raster.Image {
	out := make([]*raster.Image, len(images))
	for i, img := range images {
		p := placements[i]
		if img.Width == p.Width && img.Height == p.Height {
			out[i] = img
			continue
		}
		out[i] = raster.FromImage(imaging.Resize(img.NRGBA(), p.Width, p.Height, filter))
	}
	return out
}
