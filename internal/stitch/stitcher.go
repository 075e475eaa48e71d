package stitch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kiesman99/imgstitch/internal/stitcher"
	"github.com/kiesman99/imgstitch/pkg/raster"
)

// Options contains everything the command line can set
type Options struct {
	Output        string
	Format        raster.Format
	Quality       int
	Direction     stitcher.Direction
	AutoAlign     bool
	WriteManifest bool
	UserAgent     string
	Timeout       time.Duration
}

// Runner loads inputs, stitches them and writes the result
type Runner struct {
	loader  *raster.Loader
	engine  *stitcher.Stitcher
	options *Options
	stderr  io.Writer
	now     func() time.Time
}

// NewRunner creates a runner. Progress lines go to stderr.
func NewRunner(opts *Options, cfg stitcher.Config, stderr io.Writer) (*Runner, error) {
	engine, err := stitcher.New(cfg)
	if err != nil {
		return nil, err
	}
	if stderr == nil {
		stderr = io.Discard
	}

	return &Runner{
		loader:  raster.NewLoader(opts.UserAgent, opts.Timeout),
		engine:  engine,
		options: opts,
		stderr:  stderr,
		now:     time.Now,
	}, nil
}

// Run stitches the images named by inputs (paths or URLs).
func (r *Runner) Run(ctx context.Context, inputs []string) error {
	if len(inputs) < 2 {
		return fmt.Errorf("at least two input images are required, got %d", len(inputs))
	}

	output, err := r.resolveOutput()
	if err != nil {
		return err
	}

	sources := make([]raster.Source, len(inputs))
	for i, in := range inputs {
		sources[i] = raster.ParseSource(in)
	}

	fmt.Fprintf(r.stderr, "==Inputs: %d\n", len(sources))
	images, err := r.loader.LoadAll(ctx, sources)
	if err != nil {
		return fmt.Errorf("failed to load images: %w", err)
	}
	for i, img := range images {
		fmt.Fprintf(r.stderr, "==Image %d: %s (%dx%d)\n", i, sources[i], img.Width, img.Height)
	}

	start := time.Now()
	result, err := r.engine.Stitch(ctx, images, stitcher.Options{
		Direction: r.options.Direction,
		AutoAlign: r.options.AutoAlign,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(r.stderr, "==Direction: %s\n", result.Direction)
	fmt.Fprintf(r.stderr, "==Cross Extent: %d\n", result.CrossExtent)
	for i := 1; i < len(result.Estimates); i++ {
		est := result.Estimates[i]
		if r.options.AutoAlign {
			fmt.Fprintf(r.stderr, "==Overlap %d-%d: %d px (best %d, mse %.2f)\n", i-1, i, est.Overlap, est.Candidate, est.Score)
		} else {
			fmt.Fprintf(r.stderr, "==Overlap %d-%d: %d px\n", i-1, i, est.Overlap)
		}
	}
	fmt.Fprintf(r.stderr, "==Composite Size: %dx%d (%.2fs)\n", result.Composite.Width, result.Composite.Height, time.Since(start).Seconds())

	n, err := raster.WriteFile(output, result.Composite, r.options.Format, r.options.Quality)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", strings.ToUpper(r.options.Format.String()), err)
	}
	if output == "" {
		fmt.Fprintf(r.stderr, "Output %s: stdout (%s)\n", strings.ToUpper(r.options.Format.String()), raster.FormatSize(n))
	} else {
		fmt.Fprintf(r.stderr, "Output %s: %s (%s)\n", strings.ToUpper(r.options.Format.String()), output, raster.FormatSize(n))
	}

	if r.options.WriteManifest {
		path, err := WriteManifest(output, result.Manifest(r.options.AutoAlign))
		if err != nil {
			return fmt.Errorf("failed to write manifest: %w", err)
		}
		fmt.Fprintf(r.stderr, "Manifest written to '%s'.\n", path)
	}

	return nil
}

// resolveOutput decides where the composite goes. A directory gets a
// timestamped file name; an empty output means stdout, which must not be a
// terminal.
func (r *Runner) resolveOutput() (string, error) {
	out := r.options.Output
	if out == "" {
		if stat, _ := os.Stdout.Stat(); stat != nil && (stat.Mode()&os.ModeCharDevice) != 0 {
			return "", fmt.Errorf("didn't specify output file and standard output is a terminal")
		}
		if r.options.WriteManifest {
			return "", fmt.Errorf("can't write a manifest when writing to stdout")
		}
		return "", nil
	}

	if strings.HasSuffix(out, string(os.PathSeparator)) {
		if err := os.MkdirAll(out, 0o755); err != nil {
			return "", err
		}
	}
	if info, err := os.Stat(out); err == nil && info.IsDir() {
		return filepath.Join(out, raster.TimestampName(r.now(), r.options.Format)), nil
	}
	return out, nil
}

// WriteManifest writes m as JSON next to output, replacing its extension
// with .json. An output already ending in .json gets <base>.manifest.json.
func WriteManifest(output string, m stitcher.Manifest) (string, error) {
	if output == "" {
		return "", fmt.Errorf("can't write a manifest when writing to stdout")
	}

	ext := filepath.Ext(output)
	path := strings.TrimSuffix(output, ext) + ".json"
	if strings.EqualFold(ext, ".json") {
		path = strings.TrimSuffix(output, ext) + ".manifest.json"
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return "", err
	}
	return path, nil
}
