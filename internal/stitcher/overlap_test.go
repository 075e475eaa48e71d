package stitcher

import (
	"context"
	"testing"

	"github.com/kiesman99/imgstitch/pkg/raster"
)

func TestEstimatePair_GlobalMinimum(t *testing.T) {
	// prev rows 34..39 nearly repeat rows 20..25, which makes k=6 a local
	// minimum below the threshold; the exact shared band is 20 rows.
	prev := noiseImage(16, 40, 61)
	for y := 34; y < 40; y++ {
		for x := 0; x < prev.Width; x++ {
			px := prev.At(x, y-14)
			for c := 0; c < 3; c++ {
				if px[c] > 252 {
					px[c] -= 3
				} else {
					px[c] += 3
				}
			}
			prev.Set(x, y, px)
		}
	}
	curr := noiseImage(16, 40, 62)
	copyRows(curr, prev, 0, 20, 20)

	est, err := estimatePair(context.Background(), prev, curr, Vertical, DefaultConfig())
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}

	if est.Overlap != 20 {
		t.Errorf("overlap: got %d, want 20 (score %v)", est.Overlap, est.Score)
	}
	if est.Score != 0 {
		t.Errorf("score: got %v, want 0", est.Score)
	}
}

func TestEstimatePair_ShortStrips(t *testing.T) {
	a := solidImage(20, 5, red)
	b := solidImage(20, 5, red)

	est, err := estimatePair(context.Background(), a, b, Vertical, DefaultConfig())
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}
	if est.Overlap != 0 || est.Score != -1 {
		t.Errorf("got %+v, want no scan", est)
	}
}

func TestEstimatePair_SearchLimit(t *testing.T) {
	a := solidImage(20, 100, red)
	b := solidImage(20, 40, red)

	est, err := estimatePair(context.Background(), a, b, Vertical, DefaultConfig())
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}
	if est.Limit != 36 {
		t.Errorf("limit: got %d, want 36", est.Limit)
	}
	// Identical solid strips match everywhere; ties keep the first candidate.
	if est.Overlap != DefaultMinOverlap {
		t.Errorf("overlap: got %d, want %d", est.Overlap, DefaultMinOverlap)
	}
}

func TestEstimatePair_WideImageSampled(t *testing.T) {
	a, b := verticalPair(400, 60, 60, 15, 71)

	est, err := estimatePair(context.Background(), a, b, Vertical, DefaultConfig())
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}
	if abs(est.Overlap-15) > 2 {
		t.Errorf("overlap: got %d, want 15±2", est.Overlap)
	}
}

func TestEstimatePair_ThresholdTunable(t *testing.T) {
	a, b := verticalPair(30, 40, 40, 10, 81)
	// Perturb the shared band so the best match has a small non-zero error.
	for i := 0; i < 10*30*4; i += 4 {
		b.Pix[i] ^= 4
	}

	cfg := DefaultConfig()
	est, err := estimatePair(context.Background(), a, b, Vertical, cfg)
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}
	if est.Overlap != 10 {
		t.Fatalf("overlap with default threshold: got %d, want 10", est.Overlap)
	}

	cfg.MSEThreshold = 1
	est, err = estimatePair(context.Background(), a, b, Vertical, cfg)
	if err != nil {
		t.Fatalf("estimatePair failed: %v", err)
	}
	if est.Overlap != 0 || est.Candidate != 10 {
		t.Errorf("strict threshold: got %+v, want rejected candidate 10", est)
	}
}

func TestDetectOverlaps_FirstEntryZero(t *testing.T) {
	a, b := verticalPair(24, 30, 30, 9, 91)
	_, c := verticalPair(24, 30, 30, 7, 92)
	copyRows(c, b, 0, 30-7, 7)

	estimates, err := DetectOverlaps(context.Background(), []*raster.Image{a, b, c}, Vertical, DefaultConfig())
	if err != nil {
		t.Fatalf("DetectOverlaps failed: %v", err)
	}

	got := Overlaps(estimates)
	want := []int{0, 9, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("overlap %d: got %d, want %d", i, got[i], want[i])
		}
	}
	if estimates[0].Score != -1 {
		t.Errorf("first estimate should be unscanned, got %+v", estimates[0])
	}
}
