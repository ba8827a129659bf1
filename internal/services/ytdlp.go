package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmp/internal/shared"
	"github.com/lrstanley/go-ytdlp"
)

const watchURL = "https://www.youtube.com/watch?v="

// AudioExtensions are the files a fetch may produce.
var AudioExtensions = []string{".mp3", ".m4a", ".flac", ".ogg", ".opus", ".wav", ".aac", ".webm"}

// YtdlpFetcher downloads audio with the yt-dlp binary.
type YtdlpFetcher struct {
	format      string
	audioFormat string
	retries     int
	proxy       string
	logger      *log.Logger
}

func NewYtdlpFetcher(config shared.DownloadConfig, logger *log.Logger) *YtdlpFetcher {
	return &YtdlpFetcher{
		format:      config.Format,
		audioFormat: config.AudioFormat,
		retries:     config.Retries,
		proxy:       config.Proxy,
		logger:      logger,
	}
}

// Fetch runs one yt-dlp invocation. Retrying is left to yt-dlp's own retry flag.
func (y *YtdlpFetcher) Fetch(ctx context.Context, req FetchRequest) (string, error) {
	if req.RemoteID == "" {
		return "", fmt.Errorf("%w: remote id", shared.ErrMissingArgument)
	}
	if err := os.MkdirAll(filepath.Dir(req.OutputBase), 0755); err != nil {
		return "", fmt.Errorf("failed to create download directory: %w", err)
	}

	dl := ytdlp.New().
		ForceOverwrites().
		NoPlaylist().
		Quiet().
		NoWarnings().
		Retries(strconv.Itoa(y.retries)).
		Output(req.OutputBase + ".%(ext)s")

	if y.format != "" {
		dl.Format(y.format)
	}
	if y.audioFormat != "" {
		dl.ExtractAudio().AudioFormat(y.audioFormat)
	}
	if y.proxy != "" {
		dl.Proxy(y.proxy)
	}
	if req.Progress != nil {
		dl.ProgressFunc(500*time.Millisecond, func(update ytdlp.ProgressUpdate) {
			if update.TotalBytes > 0 {
				req.Progress(float64(update.DownloadedBytes) / float64(update.TotalBytes) * 100)
			}
		})
	}

	url := VideoURL(req.RemoteID)
	y.logger.Debug("starting yt-dlp", "url", url, "output", req.OutputBase)

	res, err := dl.Run(ctx, url)
	if err != nil {
		stderr := ""
		if res != nil {
			stderr = res.Stderr
		}
		if IsFormatUnavailable(err.Error()) || IsFormatUnavailable(stderr) {
			return "", fmt.Errorf("%w: %s", ErrFormatUnavailable, req.RemoteID)
		}
		return "", fmt.Errorf("yt-dlp failed for %s: %w", req.RemoteID, err)
	}

	if path, ok := FindOutput(req.OutputBase, y.audioFormat); ok {
		return path, nil
	}

	info, err := res.GetExtractedInfo()
	if err == nil && len(info) > 0 && info[0].Filename != nil {
		if path := *info[0].Filename; shared.FileExists(path) {
			return path, nil
		}
	}
	return "", fmt.Errorf("yt-dlp reported success but no audio file was written for %s", req.RemoteID)
}

// VideoURL turns a bare video id into a watch URL. Full URLs pass through.
func VideoURL(remoteID string) string {
	if strings.Contains(remoteID, "://") {
		return remoteID
	}
	return watchURL + remoteID
}

// IsFormatUnavailable reports whether yt-dlp output says the requested format does not exist.
func IsFormatUnavailable(output string) bool {
	return strings.Contains(strings.ToLower(output), "requested format is not available")
}

// FindOutput locates the audio file written for base, preferring the configured audio format.
func FindOutput(base, preferred string) (string, bool) {
	if preferred != "" {
		if p := base + "." + strings.TrimPrefix(preferred, "."); shared.FileExists(p) {
			return p, true
		}
	}
	for _, ext := range AudioExtensions {
		if p := base + ext; shared.FileExists(p) {
			return p, true
		}
	}
	return "", false
}
