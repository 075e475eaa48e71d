package stitcher

import (
	"context"
	"math"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

// Estimate is the overlap found between two adjacent images.
type Estimate struct {
	// Overlap is the accepted overlap in pixels; 0 when no match was confident.
	Overlap int `json:"overlap"`

	// Candidate is the best scanning offset before the threshold check.
	Candidate int `json:"candidate"`

	// Score is the mean squared RGB error at Candidate, -1 when nothing was scanned.
	Score float64 `json:"score"`

	// Limit is the exclusive upper bound of the scanned range.
	Limit int `json:"limit"`
}

// noScan is the estimate reported for pairs that were never scanned.
var noScan = Estimate{Score: -1}

// DetectOverlaps estimates the overlap of every adjacent pair of normalized
// images. The result has one entry per image; entry 0 is always zero.
// Images must already share the same cross extent.
func DetectOverlaps(ctx context.Context, images []*raster.Image, dir Direction, cfg Config) ([]Estimate, error) {
	estimates := make([]Estimate, len(images))
	if len(images) > 0 {
		estimates[0] = noScan
	}

	for i := 1; i < len(images); i++ {
		est, err := estimatePair(ctx, images[i-1], images[i], dir, cfg)
		if err != nil {
			return nil, err
		}
		estimates[i] = est
	}
	return estimates, nil
}

// estimatePair scans every candidate overlap k in [MinOverlap, limit) and
// keeps the global minimum of the sampled mean squared error. Ties keep the
// smaller k.
func estimatePair(ctx context.Context, prev, curr *raster.Image, dir Direction, cfg Config) (Estimate, error) {
	var alongPrev, alongCurr, cross int
	if dir == Horizontal {
		alongPrev, alongCurr = prev.Width, curr.Width
		cross = min(prev.Height, curr.Height)
	} else {
		alongPrev, alongCurr = prev.Height, curr.Height
		cross = min(prev.Width, curr.Width)
	}

	limit := int(cfg.SearchRatio * float64(min(alongPrev, alongCurr)))
	est := Estimate{Score: -1, Limit: limit}
	if limit <= cfg.MinOverlap || cross <= 0 {
		return est, nil
	}

	step := max(1, cross/cfg.MaxSamples)
	best := math.Inf(1)

	for k := cfg.MinOverlap; k < limit; k++ {
		if err := ctx.Err(); err != nil {
			return Estimate{}, err
		}

		var mse float64
		if dir == Horizontal {
			mse = columnError(prev, curr, k, cross, step)
		} else {
			mse = rowError(prev, curr, k, cross, step)
		}

		if mse < best {
			best = mse
			est.Candidate = k
		}
	}

	if math.IsInf(best, 1) {
		return est, nil
	}
	est.Score = best
	if best <= cfg.MSEThreshold {
		est.Overlap = est.Candidate
	}
	return est, nil
}

// rowError compares the last k rows of prev with the first k rows of curr.
func rowError(prev, curr *raster.Image, k, width, step int) float64 {
	var sum, count int64
	for y := 0; y < k; y++ {
		pRow := (prev.Height - k + y) * prev.Width * 4
		cRow := y * curr.Width * 4
		for x := 0; x < width; x += step {
			sum += pixelError(prev.Pix[pRow+x*4:], curr.Pix[cRow+x*4:])
			count++
		}
	}
	if count == 0 {
		return math.Inf(1)
	}
	return float64(sum) / float64(count)
}

// columnError compares the last k columns of prev with the first k columns of curr.
func columnError(prev, curr *raster.Image, k, height, step int) float64 {
	var sum, count int64
	for x := 0; x < k; x++ {
		px := prev.Width - k + x
		for y := 0; y < height; y += step {
			sum += pixelError(prev.Pix[prev.Offset(px, y):], curr.Pix[curr.Offset(x, y):])
			count++
		}
	}
	if count == 0 {
		return math.Inf(1)
	}
	return float64(sum) / float64(count)
}

// pixelError is dR²+dG²+dB²; alpha is ignored.
func pixelError(a, b []byte) int64 {
	dr := int64(a[0]) - int64(b[0])
	dg := int64(a[1]) - int64(b[1])
	db := int64(a[2]) - int64(b[2])
	return dr*dr + dg*dg + db*db
}

// Overlaps extracts the accepted overlaps from estimates.
func Overlaps(estimates []Estimate) []int {
	out := make([]int, len(estimates))
	for i, e := range estimates {
		out[i] = e.Overlap
	}
	return out
}
