package cmd

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kiesman99/imgstitch/internal/server"
	"github.com/kiesman99/imgstitch/pkg/raster"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for the stitching API",
	Long: `Start an HTTP server that provides a REST API for image stitching.

Images are passed by URL or inline as base64 data. The response is the encoded
composite, or a JSON document with the composite and its manifest.

Examples:
  # Start server on default port 8080
  imgstitch serve

  # Start server on custom port
  imgstitch serve --port 3000

  # Start server with custom bind address and a stricter overlap threshold
  imgstitch serve --bind 0.0.0.0 --port 8080 --threshold 1500`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	// Server configuration
	serveCmd.Flags().StringP("bind", "b", "localhost", "bind address")
	serveCmd.Flags().IntP("port", "p", 8080, "port to listen on")
	serveCmd.Flags().Duration("timeout", 60*time.Second, "request timeout")
	serveCmd.Flags().String("user-agent", raster.DefaultUserAgent, "HTTP User-Agent header for URL sources")
	serveCmd.Flags().Int64("max-source-bytes", raster.DefaultMaxSourceBytes, "largest encoded source image in bytes")
	serveCmd.Flags().Int64("max-source-pixels", raster.DefaultMaxSourcePixels, "largest decoded source image in pixels")

	// Bind flags to viper
	viper.BindPFlag("server.bind", serveCmd.Flags().Lookup("bind"))
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.timeout", serveCmd.Flags().Lookup("timeout"))
	viper.BindPFlag("server.user-agent", serveCmd.Flags().Lookup("user-agent"))
	viper.BindPFlag("server.max-source-bytes", serveCmd.Flags().Lookup("max-source-bytes"))
	viper.BindPFlag("server.max-source-pixels", serveCmd.Flags().Lookup("max-source-pixels"))
}

func runServe(cmd *cobra.Command, args []string) error {
	bind := viper.GetString("server.bind")
	port := viper.GetInt("server.port")
	timeout := viper.GetDuration("server.timeout")

	s, err := loadSettings()
	if err != nil {
		return err
	}
	if err := s.Tuning.Validate(); err != nil {
		return fmt.Errorf("invalid tuning: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", bind, port)

	loader := raster.NewLoader(viper.GetString("server.user-agent"), timeout).
		WithLimits(viper.GetInt64("server.max-source-bytes"), viper.GetInt64("server.max-source-pixels"))
	apiServer := server.NewServer(version, s.Tuning, loader)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      server.NewRouter(apiServer, timeout),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		fmt.Fprintf(cmd.ErrOrStderr(), "\nShutting down server...\n")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
	}()

	fmt.Fprintf(cmd.ErrOrStderr(), "Starting imgstitch server on %s\n", addr)
	fmt.Fprintf(cmd.ErrOrStderr(), "Health check: http://%s%s/health\n", addr, server.BaseURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "Stitch endpoint: http://%s%s/stitch\n", addr, server.BaseURL)
	fmt.Fprintf(cmd.ErrOrStderr(), "Overlap endpoint: http://%s%s/overlaps\n", addr, server.BaseURL)

	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("server error: %v", err)
	}

	return nil
}
