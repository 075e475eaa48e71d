package stitcher

import (
	"fmt"
	"strings"

	"github.com/disintegration/imaging"
)

// Direction selects the stitch axis.
type Direction int

// Direction constants
const (
	Horizontal Direction = iota
	Vertical
)

// ParseDirection accepts "horizontal"/"h" and "vertical"/"v".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "horizontal", "h":
		return Horizontal, nil
	case "vertical", "v":
		return Vertical, nil
	default:
		return Vertical, fmt.Errorf("unknown direction: %q", s)
	}
}

func (d Direction) String() string {
	if d == Horizontal {
		return "horizontal"
	}
	return "vertical"
}

// Options are the per-call stitch parameters.
type Options struct {
	Direction Direction
	AutoAlign bool
}

// Default tunables
const (
	DefaultMinOverlap       = 5
	DefaultSearchRatio      = 0.9
	DefaultMaxSamples       = 80
	DefaultMSEThreshold     = 2500
	DefaultMaxCompositeArea = 10000 * 10000
	DefaultFilter           = "lanczos"
)

// Config holds the empirically tuned constants of the overlap search and the
// resource limits of the compositor.
type Config struct {
	// MinOverlap is the first candidate overlap scanned, in pixels.
	MinOverlap int `mapstructure:"min-overlap"`

	// SearchRatio caps the scanned overlap as a fraction of the smaller
	// along-axis extent of the pair.
	SearchRatio float64 `mapstructure:"search-ratio"`

	// MaxSamples bounds the number of cross-axis positions compared per line.
	MaxSamples int `mapstructure:"samples"`

	// MSEThreshold rejects matches whose mean squared RGB error is higher.
	// The error of one sample is dR²+dG²+dB².
	MSEThreshold float64 `mapstructure:"threshold"`

	// MaxCompositeArea is the largest composite, in pixels, that will be allocated.
	MaxCompositeArea int64 `mapstructure:"max-area"`

	// Filter names the resampling filter used by normalization.
	Filter string `mapstructure:"filter"`
}

// DefaultConfig returns the stock tuning.
func DefaultConfig() Config {
	return Config{
		MinOverlap:       DefaultMinOverlap,
		SearchRatio:      DefaultSearchRatio,
		MaxSamples:       DefaultMaxSamples,
		MSEThreshold:     DefaultMSEThreshold,
		MaxCompositeArea: DefaultMaxCompositeArea,
		Filter:           DefaultFilter,
	}
}

// Validate reports the first tunable that is out of range.
func (c Config) Validate() error {
	if c.MinOverlap < 1 {
		return fmt.Errorf("min overlap must be at least 1, got %d", c.MinOverlap)
	}
	if c.SearchRatio <= 0 || c.SearchRatio > 1 {
		return fmt.Errorf("search ratio must be in (0, 1], got %g", c.SearchRatio)
	}
	if c.MaxSamples < 1 {
		return fmt.Errorf("samples must be at least 1, got %d", c.MaxSamples)
	}
	if c.MSEThreshold < 0 {
		return fmt.Errorf("threshold must not be negative, got %g", c.MSEThreshold)
	}
	if c.MaxCompositeArea <= 0 {
		return fmt.Errorf("max area must be positive, got %d", c.MaxCompositeArea)
	}
	if _, err := resampleFilter(c.Filter); err != nil {
		return err
	}
	return nil
}

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

func resampleFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resampling filter: %q", name)
	}
	return f, nil
}
