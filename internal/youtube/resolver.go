// Package youtube resolves remote YouTube URLs to local video files using
// the yt-dlp CLI.
package youtube

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidURL marks a URL that is not a recognizable YouTube video link.
// Download and IO failures are reported as ordinary wrapped errors.
var ErrInvalidURL = errors.New("invalid YouTube URL")

var videoIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?:watch\?v=)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:embed/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:youtu\.be/)([0-9A-Za-z_-]{11})`),
	regexp.MustCompile(`(?:shorts/)([0-9A-Za-z_-]{11})`),
}

// ExtractVideoID pulls the 11-character video id out of the common YouTube
// URL forms. Returns "" when no id is found.
func ExtractVideoID(url string) string {
	for _, pattern := range videoIDPatterns {
		if m := pattern.FindStringSubmatch(url); m != nil {
			return m[1]
		}
	}
	return ""
}

// IsValidURL reports whether a video id can be extracted from the URL.
func IsValidURL(url string) bool {
	return url != "" && ExtractVideoID(url) != ""
}

type Resolver struct {
	ytdlpPath   string
	downloadDir string
	logger      *zap.Logger
}

func NewResolver(ytdlpBin, downloadDir string, logger *zap.Logger) (*Resolver, error) {
	path, err := exec.LookPath(ytdlpBin)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", ytdlpBin, err)
	}
	if err := os.MkdirAll(downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}
	return &Resolver{ytdlpPath: path, downloadDir: downloadDir, logger: logger}, nil
}

// Download fetches the video into the staging directory and returns the
// local path. An unrecognized URL fails with ErrInvalidURL before any IO.
func (r *Resolver) Download(ctx context.Context, url string) (string, error) {
	if !IsValidURL(url) {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, url)
	}

	outputPath := filepath.Join(r.downloadDir, uuid.New().String()+".mp4")

	cmd := exec.CommandContext(ctx, r.ytdlpPath,
		"-f", "best[ext=mp4]",
		"-o", outputPath,
		"--no-warnings",
		"--quiet",
		url,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	r.logger.Info("downloading video", zap.String("url", url))
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("yt-dlp failed: %w: %s", err, stderr.String())
	}

	if _, err := os.Stat(outputPath); err != nil {
		return "", fmt.Errorf("download completed but file not found: %w", err)
	}
	return outputPath, nil
}
