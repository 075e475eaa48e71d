package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	_ "golang.org/x/image/bmp"  // Register BMP format decoder
	_ "golang.org/x/image/tiff" // Register TIFF format decoder
	_ "golang.org/x/image/webp" // Register WebP format decoder
	"golang.org/x/sync/errgroup"
)

// DefaultUserAgent is sent when a Loader is created without one.
const DefaultUserAgent = "imgstitch/1.0.0"

// Default source limits
const (
	DefaultMaxSourceBytes  = 64 << 20
	DefaultMaxSourcePixels = 10000 * 10000
)

// Source names one input image. Exactly one of Data, URL or Path is used,
// checked in that order.
type Source struct {
	Name string
	Path string
	URL  string
	Data []byte
}

// ParseSource classifies a command line argument as a URL or a path.
func ParseSource(arg string) Source {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return Source{Name: arg, URL: arg}
	}
	return Source{Name: arg, Path: arg}
}

// String identifies the source in messages.
func (s Source) String() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.URL != "":
		return s.URL
	case s.Path != "":
		return s.Path
	default:
		return "inline data"
	}
}

// SourceError reports a source that could not be fetched or decoded.
type SourceError struct {
	Index      int
	Source     string
	StatusCode int
	Err        error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("image %d (%s): %v", e.Index, e.Source, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// ErrUnknownFormat is returned when the bytes match no registered decoder.
var ErrUnknownFormat = errors.New("unrecognized image format")

// ErrSourceTooLarge is returned for a source over the loader's byte or pixel limit.
var ErrSourceTooLarge = errors.New("source image too large")

// Loader fetches and decodes source images.
type Loader struct {
	client    *http.Client
	userAgent string
	headers   map[string]string
	maxBytes  int64
	maxPixels int64
}

// NewLoader creates a loader that identifies itself with userAgent.
func NewLoader(userAgent string, timeout time.Duration) *Loader {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Loader{
		client:    &http.Client{Timeout: timeout},
		userAgent: userAgent,
		maxBytes:  DefaultMaxSourceBytes,
		maxPixels: DefaultMaxSourcePixels,
	}
}

// WithLimits returns a copy of the loader that rejects sources larger than
// maxBytes encoded or maxPixels decoded. Zero or negative disables a limit.
func (l *Loader) WithLimits(maxBytes, maxPixels int64) *Loader {
	cp := *l
	cp.maxBytes = maxBytes
	cp.maxPixels = maxPixels
	return &cp
}

// WithHeaders returns a copy of the loader that adds headers to every HTTP request.
func (l *Loader) WithHeaders(headers map[string]string) *Loader {
	cp := *l
	cp.headers = headers
	return &cp
}

// Load fetches and decodes a single source.
func (l *Loader) Load(ctx context.Context, src Source) (*Image, error) {
	data, status, err := l.read(ctx, src)
	if err != nil {
		return nil, &SourceError{Source: src.String(), StatusCode: status, Err: err}
	}

	if err := l.checkPixels(data); err != nil {
		return nil, &SourceError{Source: src.String(), Err: err}
	}

	img, err := Decode(data)
	if err != nil {
		return nil, &SourceError{Source: src.String(), Err: err}
	}
	return img, nil
}

// checkPixels reads only the image header and rejects oversized rasters
// before any pixel buffer is allocated.
func (l *Loader) checkPixels(data []byte) error {
	if l.maxPixels <= 0 {
		return nil
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return ErrUnknownFormat
		}
		return fmt.Errorf("decode config: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > l.maxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSourceTooLarge, cfg.Width, cfg.Height, l.maxPixels)
	}
	return nil
}

// readLimited reads r up to the byte limit.
func (l *Loader) readLimited(r io.Reader) ([]byte, error) {
	if l.maxBytes <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, l.maxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > l.maxBytes {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrSourceTooLarge, l.maxBytes)
	}
	return data, nil
}

// LoadAll loads every source concurrently and returns the images in input
// order. The first failure cancels the remaining loads and is returned.
func (l *Loader) LoadAll(ctx context.Context, sources []Source) ([]*Image, error) {
	images := make([]*Image, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			img, err := l.Load(gctx, src)
			if err != nil {
				var se *SourceError
				if errors.As(err, &se) {
					se.Index = i
				}
				return err
			}
			images[i] = img
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return images, nil
}

func (l *Loader) read(ctx context.Context, src Source) ([]byte, int, error) {
	switch {
	case len(src.Data) > 0:
		if l.maxBytes > 0 && int64(len(src.Data)) > l.maxBytes {
			return nil, 0, fmt.Errorf("%w: %d bytes exceeds %d", ErrSourceTooLarge, len(src.Data), l.maxBytes)
		}
		return src.Data, 0, nil
	case src.URL != "":
		return l.download(ctx, src.URL)
	case src.Path != "":
		f, err := os.Open(src.Path)
		if err != nil {
			return nil, 0, err
		}
		defer f.Close()
		data, err := l.readLimited(f)
		return data, 0, err
	default:
		return nil, 0, fmt.Errorf("source has no data, url or path")
	}
}

// download fetches url with the loader's User-Agent and headers.
func (l *Loader) download(ctx context.Context, url string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}

	req.Header.Set("User-Agent", l.userAgent)
	for key, value := range l.headers {
		req.Header.Set(key, value)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	data, err := l.readLimited(resp.Body)
	return data, resp.StatusCode, err
}

// Decode detects the image format and decodes data.
func Decode(data []byte) (*Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnknownFormat
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	return FromImage(img), nil
}
