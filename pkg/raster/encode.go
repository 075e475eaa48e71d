package raster

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/disintegration/imaging"
)

// Format selects the output encoding.
type Format int

// Output format constants
const (
	FormatPNG Format = iota
	FormatJPEG
)

// DefaultJPEGQuality is used when no quality is given.
const DefaultJPEGQuality = 92

// ParseFormat maps a format name to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "png":
		return FormatPNG, nil
	case "jpeg", "jpg":
		return FormatJPEG, nil
	default:
		return FormatPNG, fmt.Errorf("unknown format: %s", s)
	}
}

func (f Format) String() string {
	if f == FormatJPEG {
		return "jpeg"
	}
	return "png"
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return "png"
}

// ContentType returns the MIME type.
func (f Format) ContentType() string {
	if f == FormatJPEG {
		return "image/jpeg"
	}
	return "image/png"
}

// Encode writes img to w. Quality applies to JPEG only; values outside
// 1-100 fall back to DefaultJPEGQuality.
func Encode(w io.Writer, img *Image, format Format, quality int) error {
	if err := img.Validate(); err != nil {
		return err
	}

	switch format {
	case FormatJPEG:
		if quality < 1 || quality > 100 {
			quality = DefaultJPEGQuality
		}
		return imaging.Encode(w, img.NRGBA(), imaging.JPEG, imaging.JPEGQuality(quality))
	default:
		return imaging.Encode(w, img.NRGBA(), imaging.PNG)
	}
}

// WriteFile encodes img into filename, or to stdout when filename is empty.
// It returns the number of bytes written.
func WriteFile(filename string, img *Image, format Format, quality int) (int64, error) {
	var output io.Writer

	if filename == "" {
		output = os.Stdout
	} else {
		file, err := os.Create(filename)
		if err != nil {
			return 0, err
		}
		defer file.Close()
		output = file
	}

	cw := &countingWriter{w: output}
	if err := Encode(cw, img, format, quality); err != nil {
		return cw.n, err
	}
	return cw.n, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}

// TimestampName builds a download name of the form image-YYYY-MM-DD-HHmmss.ext.
func TimestampName(t time.Time, format Format) string {
	return fmt.Sprintf("image-%s.%s", t.Format("2006-01-02-150405"), format.Extension())
}

// FormatSize renders a byte count for humans, e.g. "1.5 KB".
func FormatSize(n int64) string {
	if n <= 0 {
		return "0 Bytes"
	}
	sizes := []string{"Bytes", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(sizes)-1 {
		v /= 1024
		i++
	}
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64) + " " + sizes[i]
}
