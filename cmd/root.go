package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/imgstitch/internal/stitch"
	"github.com/kiesman99/imgstitch/internal/stitcher"
	"github.com/kiesman99/imgstitch/pkg/raster"
)

const version = "1.0.0"

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:     "imgstitch [flags] <image> <image> [image...]",
	Short:   "Stitch overlapping images into one composite",
	Version: version,
	Long: `imgstitch joins two or more images side by side or top to bottom.

Inputs are local files or http(s) URLs in PNG, JPEG, GIF, BMP, TIFF or WebP
format. Every image is scaled to a common height (horizontal) or width
(vertical) and, with --auto-align, the seam between neighbours is found by
comparing the trailing edge of one image with the leading edge of the next.
The composite is written as PNG or JPEG. Optionally a JSON manifest with the
detected overlaps and placements is written next to it.

Examples:
  # Stitch three screenshots top to bottom, detecting overlaps
  imgstitch -d vertical --auto-align -o page.png top.png middle.png bottom.png

  # Join two photos left to right as JPEG into a timestamped file
  imgstitch -d horizontal -f jpeg -q 85 -o out/ left.jpg right.jpg

  # Fetch remote images and write the manifest as well
  imgstitch --auto-align -m -o strip.png https://example.com/a.png https://example.com/b.png

  # Start HTTP server
  imgstitch serve --port 8080`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			return cmd.Help()
		}
		return runStitch(cmd, args)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.imgstitch.yaml)")

	// Output options
	rootCmd.Flags().StringP("output", "o", "", "output file or directory (default: stdout)")
	rootCmd.Flags().StringP("format", "f", "png", "output format (png|jpeg)")
	rootCmd.Flags().IntP("quality", "q", raster.DefaultJPEGQuality, "JPEG quality (1-100)")
	rootCmd.Flags().BoolP("manifest", "m", false, "write a JSON manifest next to the output")

	// Layout options
	rootCmd.Flags().StringP("direction", "d", "vertical", "stitch direction (horizontal|vertical)")
	rootCmd.Flags().BoolP("auto-align", "a", false, "detect and remove overlap between neighbours")

	// HTTP options
	rootCmd.Flags().String("user-agent", raster.DefaultUserAgent, "HTTP User-Agent header")
	rootCmd.Flags().Duration("timeout", 30*time.Second, "timeout for fetching each URL")

	// Engine tuning, shared with serve
	defaults := stitcher.DefaultConfig()
	rootCmd.PersistentFlags().Int("min-overlap", defaults.MinOverlap, "smallest overlap considered, in pixels")
	rootCmd.PersistentFlags().Float64("search-ratio", defaults.SearchRatio, "largest overlap considered, as a fraction of the shorter image")
	rootCmd.PersistentFlags().Int("samples", defaults.MaxSamples, "pixels compared per line")
	rootCmd.PersistentFlags().Float64("threshold", defaults.MSEThreshold, "mean squared error above which no overlap is assumed")
	rootCmd.PersistentFlags().Int64("max-area", defaults.MaxCompositeArea, "largest composite in pixels")
	rootCmd.PersistentFlags().String("filter", defaults.Filter, "resampling filter (nearest|box|linear|catmullrom|lanczos)")

	viper.BindPFlag("output", rootCmd.Flags().Lookup("output"))
	viper.BindPFlag("format", rootCmd.Flags().Lookup("format"))
	viper.BindPFlag("quality", rootCmd.Flags().Lookup("quality"))
	viper.BindPFlag("manifest", rootCmd.Flags().Lookup("manifest"))
	viper.BindPFlag("direction", rootCmd.Flags().Lookup("direction"))
	viper.BindPFlag("auto-align", rootCmd.Flags().Lookup("auto-align"))
	viper.BindPFlag("user-agent", rootCmd.Flags().Lookup("user-agent"))
	viper.BindPFlag("timeout", rootCmd.Flags().Lookup("timeout"))
	for _, name := range []string{"min-overlap", "search-ratio", "samples", "threshold", "max-area", "filter"} {
		viper.BindPFlag("tuning."+name, rootCmd.PersistentFlags().Lookup(name))
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".imgstitch" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("yaml")
		viper.SetConfigName(".imgstitch")
	}

	// IMGSTITCH_AUTO_ALIGN, IMGSTITCH_TUNING_MIN_OVERLAP, ...
	viper.SetEnvPrefix("IMGSTITCH")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

func runStitch(cmd *cobra.Command, args []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	opts, err := s.options()
	if err != nil {
		return err
	}

	runner, err := stitch.NewRunner(opts, s.Tuning, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runner.Run(ctx, args)
}
