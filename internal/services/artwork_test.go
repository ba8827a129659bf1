package services

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	tu "github.com/desertthunder/ytmp/internal/testing"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("failed to encode png: %v", err)
	}
	return buf.Bytes()
}

func TestNormalizeArtwork(t *testing.T) {
	t.Run("fits and re-encodes as jpeg", func(t *testing.T) {
		out, err := NormalizeArtwork(testPNG(t, 1200, 800), 600)
		if err != nil {
			t.Fatalf("NormalizeArtwork failed: %v", err)
		}

		cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output is not an image: %v", err)
		}
		if format != "jpeg" {
			t.Errorf("format = %s, want jpeg", format)
		}
		if cfg.Width != 600 || cfg.Height != 400 {
			t.Errorf("size = %dx%d, want 600x400", cfg.Width, cfg.Height)
		}
	})

	t.Run("small images are not enlarged", func(t *testing.T) {
		out, err := NormalizeArtwork(testPNG(t, 100, 50), 600)
		if err != nil {
			t.Fatalf("NormalizeArtwork failed: %v", err)
		}
		cfg, err := jpeg.DecodeConfig(bytes.NewReader(out))
		if err != nil {
			t.Fatalf("output is not a jpeg: %v", err)
		}
		if cfg.Width != 100 || cfg.Height != 50 {
			t.Errorf("size = %dx%d, want 100x50", cfg.Width, cfg.Height)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := NormalizeArtwork([]byte("not an image"), 600); err == nil {
			t.Error("expected a decode error")
		}
	})
}

func TestArtworkClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		client := NewArtworkClient(nil, 0, 0)
		if client.httpClient.Timeout != DefaultArtworkTimeout {
			t.Errorf("timeout = %v, want %v", client.httpClient.Timeout, DefaultArtworkTimeout)
		}
		if client.size != DefaultArtworkSize {
			t.Errorf("size = %d, want %d", client.size, DefaultArtworkSize)
		}
	})

	t.Run("Fetch", func(t *testing.T) {
		data := testPNG(t, 64, 64)
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET method, got %s", r.Method)
			}
			if r.URL.Path != "/cover.png" {
				w.WriteHeader(http.StatusNotFound)
				return
			}
			w.Header().Set("Content-Type", "image/png")
			w.Write(data)
		}))
		defer server.Close()

		client := NewArtworkClient(nil, time.Second, 600)

		out, err := client.Fetch(context.Background(), server.URL+"/cover.png")
		if err != nil {
			t.Fatalf("Fetch failed: %v", err)
		}
		if DetectImageFormat(out) != "image/jpeg" {
			t.Errorf("expected jpeg output, got %s", DetectImageFormat(out))
		}

		_, err = client.Fetch(context.Background(), server.URL+"/missing.png")
		if !errors.Is(err, ErrArtworkRequest) {
			t.Errorf("expected ErrArtworkRequest for 404, got %v", err)
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		httpClient := &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("network down"))}
		client := NewArtworkClient(httpClient, time.Second, 600)

		if _, err := client.Fetch(context.Background(), "http://example.com/a.jpg"); !errors.Is(err, ErrArtworkRequest) {
			t.Errorf("expected ErrArtworkRequest, got %v", err)
		}
	})

	t.Run("Body Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: make(http.Header)}
		httpClient := &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}
		client := NewArtworkClient(httpClient, time.Second, 600)

		if _, err := client.Fetch(context.Background(), "http://example.com/a.jpg"); err == nil {
			t.Error("expected an error when the body cannot be read")
		}
	})
}

func TestDetectImageFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{name: "png", data: []byte{0x89, 'P', 'N', 'G', 0x0d}, want: "image/png"},
		{name: "gif", data: []byte("GIF89a"), want: "image/gif"},
		{name: "webp", data: []byte("RIFF\x00\x00\x00\x00WEBPVP8 "), want: "image/webp"},
		{name: "jpeg", data: []byte{0xff, 0xd8, 0xff}, want: "image/jpeg"},
		{name: "short", data: []byte{1}, want: "image/jpeg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectImageFormat(tt.data); got != tt.want {
				t.Errorf("DetectImageFormat() = %s, want %s", got, tt.want)
			}
		})
	}
}
