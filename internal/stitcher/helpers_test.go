package stitcher

import (
	"math/rand"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

var (
	red   = [4]byte{255, 0, 0, 255}
	green = [4]byte{0, 255, 0, 255}
	blue  = [4]byte{0, 0, 255, 255}
)

func solidImage(w, h int, px [4]byte) *raster.Image {
	img := raster.New(w, h)
	img.Fill(px)
	return img
}

func noiseImage(w, h int, seed int64) *raster.Image {
	rng := rand.New(rand.NewSource(seed))
	img := raster.New(w, h)
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i] = byte(rng.Intn(256))
		img.Pix[i+1] = byte(rng.Intn(256))
		img.Pix[i+2] = byte(rng.Intn(256))
		img.Pix[i+3] = 255
	}
	return img
}

// copyRows copies n rows of src starting at srcY into dst starting at dstY.
// Both images must have the same width.
func copyRows(dst, src *raster.Image, dstY, srcY, n int) {
	stride := src.Width * 4
	copy(dst.Pix[dstY*stride:(dstY+n)*stride], src.Pix[srcY*stride:(srcY+n)*stride])
}

// copyCols copies n columns of src starting at srcX into dst starting at dstX.
// Both images must have the same height.
func copyCols(dst, src *raster.Image, dstX, srcX, n int) {
	for y := 0; y < src.Height; y++ {
		for x := 0; x < n; x++ {
			dst.Set(dstX+x, y, src.At(srcX+x, y))
		}
	}
}

// verticalPair returns two noise images of width w where the last band rows
// of the first equal the first band rows of the second.
func verticalPair(w, h1, h2, band int, seed int64) (*raster.Image, *raster.Image) {
	a := noiseImage(w, h1, seed)
	b := noiseImage(w, h2, seed+1)
	copyRows(b, a, 0, h1-band, band)
	return a, b
}

// horizontalPair is verticalPair along columns.
func horizontalPair(h, w1, w2, band int, seed int64) (*raster.Image, *raster.Image) {
	a := noiseImage(w1, h, seed)
	b := noiseImage(w2, h, seed+1)
	copyCols(b, a, 0, w1-band, band)
	return a, b
}

func rowIsSolid(img *raster.Image, y int, px [4]byte) bool {
	for x := 0; x < img.Width; x++ {
		if img.At(x, y) != px {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
