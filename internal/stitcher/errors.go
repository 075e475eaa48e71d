package stitcher

import (
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

var (
	// ErrTooFewImages is reported when fewer than two images are given.
	ErrTooFewImages = errors.New("at least two images are required for stitching")

	// ErrDegenerateImage is reported for an image with zero width or height.
	ErrDegenerateImage = errors.New("image has zero width or height")

	// ErrCompositeTooLarge is reported when the composite would exceed the
	// configured maximum area.
	ErrCompositeTooLarge = errors.New("composite exceeds maximum area")
)

// InputError collects every problem found while validating stitch input.
type InputError struct {
	Problems []error
}

func (e *InputError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return "invalid stitch input: " + strings.Join(msgs, "; ")
}

func (e *InputError) Unwrap() []error {
	return e.Problems
}

// LimitError reports a composite that would be too large to allocate.
type LimitError struct {
	Width   int
	Height  int
	MaxArea int64
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("requested composite too large: %dx%d exceeds %d pixels", e.Width, e.Height, e.MaxArea)
}

func (e *LimitError) Unwrap() error {
	return ErrCompositeTooLarge
}

// validate checks the image list before anything is allocated.
func validate(images []*raster.Image) error {
	if len(images) < 2 {
		return &InputError{Problems: []error{fmt.Errorf("%w: got %d", ErrTooFewImages, len(images))}}
	}

	var err error
	for i, img := range images {
		if img.Empty() {
			w, h := 0, 0
			if img != nil {
				w, h = img.Width, img.Height
			}
			err = multierr.Append(err, fmt.Errorf("image %d (%dx%d): %w", i, w, h, ErrDegenerateImage))
			continue
		}
		if verr := img.Validate(); verr != nil {
			err = multierr.Append(err, fmt.Errorf("image %d: %w", i, verr))
		}
	}
	if err != nil {
		return &InputError{Problems: multierr.Errors(err)}
	}
	return nil
}
