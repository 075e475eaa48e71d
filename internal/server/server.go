package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/kiesman99/imgstitch/internal/api"
	"github.com/kiesman99/imgstitch/internal/stitcher"
	"github.com/kiesman99/imgstitch/pkg/raster"
)

// maxRequestBytes bounds the JSON body, which may carry base64 image data.
const maxRequestBytes = 64 << 20

// Server implements the ServerInterface from the generated API
type Server struct {
	startTime time.Time
	version   string
	cfg       stitcher.Config
	loader    *raster.Loader
}

// NewServer creates a new server instance. cfg is the base tuning that
// requests may override; loader fetches URL sources.
func NewServer(version string, cfg stitcher.Config, loader *raster.Loader) *Server {
	if loader == nil {
		loader = raster.NewLoader("", 0)
	}
	return &Server{
		startTime: time.Now(),
		version:   version,
		cfg:       cfg,
		loader:    loader,
	}
}

// GetHealth implements the health check endpoint
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	uptime := int(time.Since(s.startTime).Seconds())

	response := api.HealthResponse{
		Status:    api.Healthy,
		Timestamp: time.Now(),
		Uptime:    &uptime,
		Version:   &s.version,
	}

	writeJSON(w, http.StatusOK, response)
}

// CreateStitchedImage implements the main stitching endpoint
func (s *Server) CreateStitchedImage(w http.ResponseWriter, r *http.Request, params api.CreateStitchedImageParams) {
	requestID := uuid.NewString()

	j, ok := s.parseJob(w, r, requestID)
	if !ok {
		return
	}

	result, err := s.run(r.Context(), j)
	if err != nil {
		s.handleStitchingError(w, err, &requestID)
		return
	}

	var buf bytes.Buffer
	if err := raster.Encode(&buf, result.Composite, j.format, j.quality); err != nil {
		log.Printf("Error encoding composite %s: %v", requestID, err)
		s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
			"Failed to encode composite", &requestID, nil)
		return
	}
	log.Printf("Stitched %d images into %dx%d %s (%s) [%s]", len(j.sources),
		result.Composite.Width, result.Composite.Height, j.format,
		raster.FormatSize(int64(buf.Len())), requestID)

	if params.Manifest != nil && *params.Manifest {
		size := buf.Len()
		response := api.StitchResponse{
			ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
			MimeType:    j.format.ContentType(),
			SizeBytes:   &size,
			Manifest:    toAPIManifest(result.Manifest(j.opts.AutoAlign)),
		}
		w.Header().Set("X-Request-ID", requestID)
		writeJSON(w, http.StatusOK, response)
		return
	}

	w.Header().Set("Content-Type", j.format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Request-ID", requestID)
	w.Header().Set("X-Stitch-Overlaps", joinInts(result.Overlaps))

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing response: %v", err)
	}
}

// DetectOverlaps runs the pipeline and returns only the placement manifest.
func (s *Server) DetectOverlaps(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()

	j, ok := s.parseJob(w, r, requestID)
	if !ok {
		return
	}

	result, err := s.run(r.Context(), j)
	if err != nil {
		s.handleStitchingError(w, err, &requestID)
		return
	}

	w.Header().Set("X-Request-ID", requestID)
	writeJSON(w, http.StatusOK, toAPIManifest(result.Manifest(j.opts.AutoAlign)))
}

// job is a validated stitch request.
type job struct {
	sources []raster.Source
	headers map[string]string
	opts    stitcher.Options
	cfg     stitcher.Config
	format  raster.Format
	quality int
}

// parseJob decodes and validates the body. On failure the error response has
// already been written.
func (s *Server) parseJob(w http.ResponseWriter, r *http.Request, requestID string) (*job, bool) {
	var req api.StitchRequest
	body := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, "INVALID_JSON",
			"Invalid JSON in request body", &requestID, nil)
		return nil, false
	}

	j, err := s.convertRequest(&req)
	if err != nil {
		s.writeValidationErrorResponse(w, multierr.Errors(err), &requestID)
		return nil, false
	}
	return j, true
}

// fieldError is a validation problem attributed to a request field.
type fieldError struct {
	Field string
	Code  string
	Msg   string
}

func (e *fieldError) Error() string {
	return e.Field + ": " + e.Msg
}

func invalid(field, code, format string, args ...any) error {
	return &fieldError{Field: field, Code: code, Msg: fmt.Sprintf(format, args...)}
}

// convertRequest validates the request and converts it to stitcher input.
// Every problem found is returned, combined with multierr.
func (s *Server) convertRequest(req *api.StitchRequest) (*job, error) {
	var errs error
	j := &job{
		cfg:     s.cfg,
		format:  raster.FormatPNG,
		quality: raster.DefaultJPEGQuality,
		opts:    stitcher.Options{Direction: stitcher.Vertical, AutoAlign: true},
	}

	if len(req.Images) < 2 {
		errs = multierr.Append(errs, invalid("images", "TOO_FEW_IMAGES",
			"at least two images are required, got %d", len(req.Images)))
	}
	for i, img := range req.Images {
		field := fmt.Sprintf("images[%d]", i)
		hasURL := img.Url != nil && *img.Url != ""
		hasData := img.Data != nil && len(*img.Data) > 0
		switch {
		case hasURL && hasData:
			errs = multierr.Append(errs, invalid(field, "AMBIGUOUS_SOURCE", "set either url or data, not both"))
			continue
		case !hasURL && !hasData:
			errs = multierr.Append(errs, invalid(field, "MISSING_SOURCE", "url or data is required"))
			continue
		}

		src := raster.Source{}
		if img.Name != nil {
			src.Name = *img.Name
		}
		if hasURL {
			if !strings.HasPrefix(*img.Url, "http://") && !strings.HasPrefix(*img.Url, "https://") {
				errs = multierr.Append(errs, invalid(field+".url", "INVALID_URL", "must be an http or https URL"))
				continue
			}
			src.URL = *img.Url
		} else {
			src.Data = *img.Data
		}
		j.sources = append(j.sources, src)
	}

	if req.Direction != nil {
		dir, err := stitcher.ParseDirection(string(*req.Direction))
		if err != nil {
			errs = multierr.Append(errs, invalid("direction", "INVALID_DIRECTION", "%v", err))
		}
		j.opts.Direction = dir
	}
	if req.AutoAlign != nil {
		j.opts.AutoAlign = *req.AutoAlign
	}
	if req.Headers != nil {
		j.headers = *req.Headers
	}

	if out := req.Output; out != nil {
		if out.Format != nil {
			f, err := raster.ParseFormat(string(*out.Format))
			if err != nil {
				errs = multierr.Append(errs, invalid("output.format", "INVALID_FORMAT", "%v", err))
			}
			j.format = f
		}
		if out.Quality != nil {
			if *out.Quality < 1 || *out.Quality > 100 {
				errs = multierr.Append(errs, invalid("output.quality", "OUT_OF_RANGE",
					"must be between 1 and 100, got %d", *out.Quality))
			}
			j.quality = *out.Quality
		}
	}

	if t := req.Tuning; t != nil {
		if t.MinOverlap != nil {
			j.cfg.MinOverlap = *t.MinOverlap
		}
		if t.SearchRatio != nil {
			j.cfg.SearchRatio = float64(*t.SearchRatio)
		}
		if t.MaxSamples != nil {
			j.cfg.MaxSamples = *t.MaxSamples
		}
		if t.MseThreshold != nil {
			j.cfg.MSEThreshold = float64(*t.MseThreshold)
		}
		if err := j.cfg.Validate(); err != nil {
			errs = multierr.Append(errs, invalid("tuning", "OUT_OF_RANGE", "%v", err))
		}
	}

	if errs != nil {
		return nil, errs
	}
	return j, nil
}

// run loads the sources and stitches them.
func (s *Server) run(ctx context.Context, j *job) (*stitcher.Result, error) {
	engine, err := stitcher.New(j.cfg)
	if err != nil {
		return nil, err
	}

	loader := s.loader
	if len(j.headers) > 0 {
		loader = loader.WithHeaders(j.headers)
	}
	images, err := loader.LoadAll(ctx, j.sources)
	if err != nil {
		return nil, err
	}

	return engine.Stitch(ctx, images, j.opts)
}

// handleStitchingError handles errors from the stitching process
func (s *Server) handleStitchingError(w http.ResponseWriter, err error, requestID *string) {
	if errors.Is(err, context.DeadlineExceeded) {
		s.writeErrorResponse(w, http.StatusGatewayTimeout, "TIMEOUT",
			"Request timed out", requestID, nil)
		return
	}

	var srcErr *raster.SourceError
	if errors.As(err, &srcErr) && errors.Is(err, raster.ErrSourceTooLarge) {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "SOURCE_TOO_LARGE",
			srcErr.Error(), requestID, map[string]interface{}{
				"index":  srcErr.Index,
				"source": srcErr.Source,
			})
		return
	}
	if errors.As(err, &srcErr) {
		failed := struct {
			Error      string `json:"error"`
			Index      int    `json:"index"`
			Source     string `json:"source"`
			StatusCode *int   `json:"status_code,omitempty"`
		}{
			Error:  srcErr.Err.Error(),
			Index:  srcErr.Index,
			Source: srcErr.Source,
		}
		if srcErr.StatusCode != 0 {
			failed.StatusCode = &srcErr.StatusCode
		}

		response := api.SourceErrorResponse{
			Error:     "SOURCE_ERROR",
			Message:   fmt.Sprintf("Failed to load image %d", srcErr.Index),
			RequestId: requestID,
		}
		response.FailedSources = append(response.FailedSources, failed)

		log.Printf("Source error: %v", err)
		writeJSON(w, http.StatusBadGateway, response)
		return
	}

	var inErr *stitcher.InputError
	if errors.As(err, &inErr) {
		s.writeValidationErrorResponse(w, inErr.Problems, requestID)
		return
	}

	var limErr *stitcher.LimitError
	if errors.As(err, &limErr) {
		s.writeErrorResponse(w, http.StatusRequestEntityTooLarge, "COMPOSITE_TOO_LARGE",
			limErr.Error(), requestID, map[string]interface{}{
				"width":    limErr.Width,
				"height":   limErr.Height,
				"max_area": limErr.MaxArea,
			})
		return
	}

	log.Printf("Stitching failed: %v", err)
	s.writeErrorResponse(w, http.StatusInternalServerError, "INTERNAL_ERROR",
		"Internal server error", requestID, nil)
}

// writeErrorResponse writes a standard error response
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, errorCode, message string, requestID *string, details map[string]interface{}) {
	response := api.ErrorResponse{
		Error:     errorCode,
		Message:   message,
		RequestId: requestID,
	}

	if details != nil {
		response.Details = &details
	}

	writeJSON(w, statusCode, response)
}

// writeValidationErrorResponse writes one validation entry per problem.
func (s *Server) writeValidationErrorResponse(w http.ResponseWriter, problems []error, requestID *string) {
	response := api.ValidationErrorResponse{
		Error:     api.VALIDATIONERROR,
		Message:   fmt.Sprintf("Request has %d validation error(s)", len(problems)),
		RequestId: requestID,
	}

	for _, p := range problems {
		entry := struct {
			Code    *string `json:"code,omitempty"`
			Field   string  `json:"field"`
			Message string  `json:"message"`
		}{Field: "images", Message: p.Error()}

		var fe *fieldError
		switch {
		case errors.As(p, &fe):
			entry.Field = fe.Field
			entry.Message = fe.Msg
			entry.Code = &fe.Code
		case errors.Is(p, stitcher.ErrDegenerateImage):
			code := "DEGENERATE_IMAGE"
			entry.Code = &code
		case errors.Is(p, stitcher.ErrTooFewImages):
			code := "TOO_FEW_IMAGES"
			entry.Code = &code
		}
		response.ValidationErrors = append(response.ValidationErrors, entry)
	}

	writeJSON(w, http.StatusBadRequest, response)
}

func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func toAPIManifest(m stitcher.Manifest) api.Manifest {
	out := api.Manifest{
		Direction: m.Direction,
		AutoAlign: m.AutoAlign,
		Width:     m.Width,
		Height:    m.Height,
		Overlaps:  m.Overlaps,
	}
	for _, p := range m.Placements {
		out.Placements = append(out.Placements, api.Placement{
			Index:      p.Index,
			DrawWidth:  float32(p.DrawWidth),
			DrawHeight: float32(p.DrawHeight),
			Width:      p.Width,
			Height:     p.Height,
			Offset:     p.Offset,
		})
	}
	if len(m.Estimates) > 0 {
		estimates := make([]api.Estimate, len(m.Estimates))
		for i, e := range m.Estimates {
			estimates[i] = api.Estimate{
				Overlap:   e.Overlap,
				Candidate: e.Candidate,
				Score:     float32(e.Score),
				Limit:     e.Limit,
			}
		}
		out.Estimates = &estimates
	}
	return out
}

func joinInts(v []int) string {
	parts := make([]string, len(v))
	for i, n := range v {
		parts[i] = strconv.Itoa(n)
	}
	return strings.Join(parts, ",")
}
