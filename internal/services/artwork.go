package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp"
)

const (
	DefaultArtworkSize    = 600
	DefaultArtworkTimeout = 30 * time.Second
	maxArtworkBytes       = 20 << 20
)

// ArtworkClient downloads cover images over HTTP and re-encodes them as JPEG.
type ArtworkClient struct {
	httpClient *http.Client
	size       int
}

// NewArtworkClient creates an artwork client. A nil client gets one with timeout; size bounds
// the longest edge of the stored image.
func NewArtworkClient(client *http.Client, timeout time.Duration, size int) *ArtworkClient {
	if timeout <= 0 {
		timeout = DefaultArtworkTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	if size <= 0 {
		size = DefaultArtworkSize
	}

	return &ArtworkClient{httpClient: client, size: size}
}

// Fetch performs a GET request for url and returns the normalised image.
func (a *ArtworkClient) Fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArtworkRequest, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrArtworkRequest, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxArtworkBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return NormalizeArtwork(body, a.size)
}

// NormalizeArtwork decodes any supported image (JPEG, PNG, GIF, BMP, TIFF, WebP), fits it
// within size x size and encodes it as JPEG.
func NormalizeArtwork(data []byte, size int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode artwork: %w", err)
	}
	if size > 0 {
		img = imaging.Fit(img, size, size, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		return nil, fmt.Errorf("failed to encode artwork: %w", err)
	}
	return buf.Bytes(), nil
}
