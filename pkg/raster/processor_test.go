package raster

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func solidPNG(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("Failed to encode fixture: %v", err)
	}
	return buf.Bytes()
}

func TestDecode(t *testing.T) {
	data := solidPNG(t, 7, 3, color.NRGBA{10, 20, 30, 255})

	img, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if img.Width != 7 || img.Height != 3 {
		t.Errorf("dimensions: got %dx%d, want 7x3", img.Width, img.Height)
	}
	if got := img.At(6, 2); got != [4]byte{10, 20, 30, 255} {
		t.Errorf("pixel: got %v", got)
	}
	if err := img.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := Decode([]byte("definitely not an image"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestFromImage_Offset(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	src.SetNRGBA(2, 2, color.NRGBA{255, 0, 0, 255})
	sub := src.SubImage(image.Rect(2, 2, 4, 4))

	img := FromImage(sub)
	if img.Width != 2 || img.Height != 2 {
		t.Fatalf("dimensions: got %dx%d, want 2x2", img.Width, img.Height)
	}
	if got := img.At(0, 0); got != [4]byte{255, 0, 0, 255} {
		t.Errorf("pixel (0,0): got %v", got)
	}
}

func TestFromImage_Copies(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img := FromImage(src)
	img.Set(0, 0, [4]byte{1, 2, 3, 4})
	if src.Pix[0] != 0 {
		t.Error("FromImage must not alias the source buffer")
	}
}

func TestLoadAll_PreservesOrder(t *testing.T) {
	red := solidPNG(t, 4, 4, color.NRGBA{255, 0, 0, 255})
	green := solidPNG(t, 5, 4, color.NRGBA{0, 255, 0, 255})
	blue := solidPNG(t, 6, 4, color.NRGBA{0, 0, 255, 255})

	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		// Slow response so the URL source finishes last.
		time.Sleep(20 * time.Millisecond)
		w.Header().Set("Content-Type", "image/png")
		w.Write(red)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "blue.png")
	if err := os.WriteFile(path, blue, 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	loader := NewLoader("test-agent", 5*time.Second)
	images, err := loader.LoadAll(context.Background(), []Source{
		{URL: srv.URL + "/red.png"},
		{Data: green},
		ParseSource(path),
	})
	if err != nil {
		t.Fatalf("LoadAll failed: %v", err)
	}

	wantWidths := []int{4, 5, 6}
	for i, img := range images {
		if img.Width != wantWidths[i] {
			t.Errorf("image %d: width %d, want %d", i, img.Width, wantWidths[i])
		}
	}
	if gotUA != "test-agent" {
		t.Errorf("User-Agent: got %q", gotUA)
	}
}

func TestLoadAll_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	loader := NewLoader("", time.Second)
	_, err := loader.LoadAll(context.Background(), []Source{
		{Data: solidPNG(t, 2, 2, color.NRGBA{A: 255})},
		{URL: srv.URL + "/missing.png"},
	})
	if err == nil {
		t.Fatal("expected error for missing source")
	}

	var se *SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *SourceError, got %T", err)
	}
	if se.Index != 1 {
		t.Errorf("Index: got %d, want 1", se.Index)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode: got %d, want 404", se.StatusCode)
	}
}

func TestLoad_Headers(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		w.Write(solidPNG(t, 1, 1, color.NRGBA{A: 255}))
	}))
	defer srv.Close()

	loader := NewLoader("", time.Second).WithHeaders(map[string]string{"X-API-Key": "secret"})
	if _, err := loader.Load(context.Background(), Source{URL: srv.URL}); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if gotKey != "secret" {
		t.Errorf("X-API-Key: got %q", gotKey)
	}
}

func TestLoad_Limits(t *testing.T) {
	data := solidPNG(t, 20, 20, color.NRGBA{R: 9, A: 255})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "a.png")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}

	small := int64(len(data) - 1)
	tests := []struct {
		name   string
		loader *Loader
		src    Source
	}{
		{"url bytes", NewLoader("", time.Second).WithLimits(small, 0), Source{URL: srv.URL}},
		{"file bytes", NewLoader("", time.Second).WithLimits(small, 0), Source{Path: path}},
		{"inline bytes", NewLoader("", time.Second).WithLimits(small, 0), Source{Data: data}},
		{"pixels", NewLoader("", time.Second).WithLimits(0, 399), Source{Data: data}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.loader.Load(context.Background(), tt.src)
			var se *SourceError
			if !errors.As(err, &se) {
				t.Fatalf("expected *SourceError, got %v", err)
			}
			if !errors.Is(err, ErrSourceTooLarge) {
				t.Errorf("expected ErrSourceTooLarge, got %v", err)
			}
		})
	}

	// Exactly at the limits still loads.
	loader := NewLoader("", time.Second).WithLimits(int64(len(data)), 400)
	for _, src := range []Source{{URL: srv.URL}, {Path: path}, {Data: data}} {
		img, err := loader.Load(context.Background(), src)
		if err != nil {
			t.Fatalf("Load(%s) failed: %v", src, err)
		}
		if img.Width != 20 || img.Height != 20 {
			t.Errorf("Load(%s): got %dx%d", src, img.Width, img.Height)
		}
	}
}

func TestParseSource(t *testing.T) {
	tests := []struct {
		arg     string
		wantURL bool
	}{
		{"http://example.com/a.png", true},
		{"https://example.com/a.png", true},
		{"./a.png", false},
		{"/tmp/http.png", false},
	}

	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			src := ParseSource(tt.arg)
			if (src.URL != "") != tt.wantURL {
				t.Errorf("ParseSource(%q) = %+v", tt.arg, src)
			}
			if src.String() != tt.arg {
				t.Errorf("String: got %q", src.String())
			}
		})
	}
}

func TestEncode_Formats(t *testing.T) {
	img := New(8, 8)
	img.Fill([4]byte{200, 100, 50, 255})

	var pngBuf bytes.Buffer
	if err := Encode(&pngBuf, img, FormatPNG, 0); err != nil {
		t.Fatalf("PNG encode failed: %v", err)
	}
	if !bytes.HasPrefix(pngBuf.Bytes(), []byte{0x89, 0x50, 0x4E, 0x47}) {
		t.Error("PNG output lacks signature")
	}

	var jpgBuf bytes.Buffer
	if err := Encode(&jpgBuf, img, FormatJPEG, 80); err != nil {
		t.Fatalf("JPEG encode failed: %v", err)
	}
	if !bytes.HasPrefix(jpgBuf.Bytes(), []byte{0xFF, 0xD8}) {
		t.Error("JPEG output lacks SOI marker")
	}
}

func TestEncode_InvalidBuffer(t *testing.T) {
	img := &Image{Width: 2, Height: 2, Pix: make([]byte, 3)}
	if err := Encode(&bytes.Buffer{}, img, FormatPNG, 0); err == nil {
		t.Error("expected error for short pixel buffer")
	}
}

func TestWriteFile(t *testing.T) {
	img := New(3, 3)
	img.Fill([4]byte{0, 0, 0, 255})
	path := filepath.Join(t.TempDir(), "out.png")

	n, err := WriteFile(path, img, FormatPNG, 0)
	if err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != n {
		t.Errorf("reported %d bytes, file has %d", n, info.Size())
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"png", FormatPNG, false},
		{"", FormatPNG, false},
		{"JPEG", FormatJPEG, false},
		{"jpg", FormatJPEG, false},
		{"webp", FormatPNG, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTimestampName(t *testing.T) {
	ts := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	if got := TimestampName(ts, FormatJPEG); got != "image-2026-03-04-050607.jpg" {
		t.Errorf("got %q", got)
	}
	if got := TimestampName(ts, FormatPNG); !strings.HasSuffix(got, ".png") {
		t.Errorf("got %q", got)
	}
}

func TestFormatSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 Bytes"},
		{512, "512 Bytes"},
		{1024, "1 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5 MB"},
	}

	for _, tt := range tests {
		if got := FormatSize(tt.n); got != tt.want {
			t.Errorf("FormatSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
