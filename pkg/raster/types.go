package raster

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Image holds a decoded raster as non-premultiplied RGBA bytes.
// Rows are tightly packed: Pix has length Width*Height*4.
type Image struct {
	Pix    []byte
	Width  int
	Height int
}

// New allocates a zeroed (fully transparent) image.
func New(width, height int) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Image{
		Pix:    make([]byte, width*height*4),
		Width:  width,
		Height: height,
	}
}

// FromImage copies any image.Image into an Image.
func FromImage(img image.Image) *Image {
	var n *image.NRGBA
	if src, ok := img.(*image.NRGBA); ok && src.Rect.Min == (image.Point{}) && src.Stride == src.Rect.Dx()*4 {
		n = &image.NRGBA{Pix: append([]byte(nil), src.Pix...), Stride: src.Stride, Rect: src.Rect}
	} else {
		n = imaging.Clone(img)
	}
	return &Image{
		Pix:    n.Pix,
		Width:  n.Rect.Dx(),
		Height: n.Rect.Dy(),
	}
}

// NRGBA returns an image.Image view sharing Pix.
func (m *Image) NRGBA() *image.NRGBA {
	return &image.NRGBA{
		Pix:    m.Pix,
		Stride: m.Width * 4,
		Rect:   image.Rect(0, 0, m.Width, m.Height),
	}
}

// Empty reports whether the image has no pixels.
func (m *Image) Empty() bool {
	return m == nil || m.Width <= 0 || m.Height <= 0
}

// Validate checks that Pix matches the declared dimensions.
func (m *Image) Validate() error {
	if m == nil {
		return fmt.Errorf("nil image")
	}
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("negative dimensions %dx%d", m.Width, m.Height)
	}
	if want := m.Width * m.Height * 4; len(m.Pix) != want {
		return fmt.Errorf("pixel buffer is %d bytes, want %d for %dx%d", len(m.Pix), want, m.Width, m.Height)
	}
	return nil
}

// Offset returns the index of the first byte of pixel (x, y).
func (m *Image) Offset(x, y int) int {
	return (y*m.Width + x) * 4
}

// At returns the RGBA bytes of pixel (x, y).
func (m *Image) At(x, y int) [4]byte {
	i := m.Offset(x, y)
	return [4]byte{m.Pix[i], m.Pix[i+1], m.Pix[i+2], m.Pix[i+3]}
}

// Set writes the RGBA bytes of pixel (x, y).
func (m *Image) Set(x, y int, px [4]byte) {
	i := m.Offset(x, y)
	copy(m.Pix[i:i+4], px[:])
}

// Fill paints every pixel with px.
func (m *Image) Fill(px [4]byte) {
	for i := 0; i+3 < len(m.Pix); i += 4 {
		copy(m.Pix[i:i+4], px[:])
	}
}
