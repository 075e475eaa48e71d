package stitcher

import (
	"context"
	"fmt"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

// Result contains the stitching result
type Result struct {
	Composite   *raster.Image
	Direction   Direction
	CrossExtent int
	Overlaps    []int
	Estimates   []Estimate
	Placements  []Placement
}

// Stitcher performs multi-image stitching operations
type Stitcher struct {
	cfg Config
}

// New creates a new stitcher with the given tuning.
func New(cfg Config) (*Stitcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &Stitcher{cfg: cfg}, nil
}

// Config returns the tuning in use.
func (s *Stitcher) Config() Config {
	return s.cfg
}

// Stitch assembles images into one composite along opts.Direction.
//
// Input is validated before any buffer is allocated: fewer than two images
// or any zero-sized image yields an *InputError. When opts.AutoAlign is false
// no overlap search runs and the images are simply abutted. A pair without a
// confident match also falls back to abutment. The only errors after
// validation are a *LimitError, returned before any resampling when the
// normalized images abutted would exceed the area limit, and the context
// error when ctx is cancelled during the overlap search.
func (s *Stitcher) Stitch(ctx context.Context, images []*raster.Image, opts Options) (*Result, error) {
	if err := validate(images); err != nil {
		return nil, err
	}

	cross, placements, err := Normalize(images, opts.Direction)
	if err != nil {
		return nil, err
	}

	if err := checkArea(placements, opts.Direction, cross, s.cfg.MaxCompositeArea); err != nil {
		return nil, err
	}

	filter, err := resampleFilter(s.cfg.Filter)
	if err != nil {
		return nil, err
	}
	normalized := resample(images, placements, filter)

	var estimates []Estimate
	if opts.AutoAlign {
		estimates, err = DetectOverlaps(ctx, normalized, opts.Direction, s.cfg)
		if err != nil {
			return nil, fmt.Errorf("overlap search: %w", err)
		}
	} else {
		estimates = make([]Estimate, len(images))
		for i := range estimates {
			estimates[i] = noScan
		}
	}
	overlaps := Overlaps(estimates)

	composite, err := Composite(normalized, placements, overlaps, opts.Direction, cross, s.cfg.MaxCompositeArea)
	if err != nil {
		return nil, err
	}

	return &Result{
		Composite:   composite,
		Direction:   opts.Direction,
		CrossExtent: cross,
		Overlaps:    overlaps,
		Estimates:   estimates,
		Placements:  placements,
	}, nil
}

// Stitch runs the default configuration without cancellation.
func Stitch(images []*raster.Image, dir Direction, autoAlign bool) (*Result, error) {
	s := &Stitcher{cfg: DefaultConfig()}
	return s.Stitch(context.Background(), images, Options{Direction: dir, AutoAlign: autoAlign})
}

// Manifest is the serialisable summary of a Result.
type Manifest struct {
	Direction  string      `json:"direction"`
	AutoAlign  bool        `json:"auto_align"`
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Overlaps   []int       `json:"overlaps"`
	Estimates  []Estimate  `json:"estimates,omitempty"`
	Placements []Placement `json:"placements"`
}

// Manifest summarises the result for diagnostics.
func (r *Result) Manifest(autoAlign bool) Manifest {
	m := Manifest{
		Direction:  r.Direction.String(),
		AutoAlign:  autoAlign,
		Overlaps:   r.Overlaps,
		Placements: r.Placements,
	}
	if autoAlign {
		m.Estimates = r.Estimates
	}
	if r.Composite != nil {
		m.Width = r.Composite.Width
		m.Height = r.Composite.Height
	}
	return m
}
