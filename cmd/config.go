package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/kiesman99/imgstitch/internal/stitch"
	"github.com/kiesman99/imgstitch/internal/stitcher"
	"github.com/kiesman99/imgstitch/pkg/raster"
)

// settings is the merged view of flags, environment and config file.
type settings struct {
	Output    string          `mapstructure:"output"`
	Format    string          `mapstructure:"format"`
	Quality   int             `mapstructure:"quality"`
	Direction string          `mapstructure:"direction"`
	AutoAlign bool            `mapstructure:"auto-align"`
	Manifest  bool            `mapstructure:"manifest"`
	UserAgent string          `mapstructure:"user-agent"`
	Timeout   time.Duration   `mapstructure:"timeout"`
	Tuning    stitcher.Config `mapstructure:"tuning"`
}

func loadSettings() (*settings, error) {
	var s settings
	if err := viper.Unmarshal(&s); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &s, nil
}

// options converts the settings into runner options.
func (s *settings) options() (*stitch.Options, error) {
	format, err := raster.ParseFormat(s.Format)
	if err != nil {
		return nil, err
	}

	direction, err := stitcher.ParseDirection(s.Direction)
	if err != nil {
		return nil, err
	}

	if s.Quality < 1 || s.Quality > 100 {
		return nil, fmt.Errorf("quality must be between 1 and 100, got %d", s.Quality)
	}

	return &stitch.Options{
		Output:        s.Output,
		Format:        format,
		Quality:       s.Quality,
		Direction:     direction,
		AutoAlign:     s.AutoAlign,
		WriteManifest: s.Manifest,
		UserAgent:     s.UserAgent,
		Timeout:       s.Timeout,
	}, nil
}
