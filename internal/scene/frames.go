package scene

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"go.uber.org/zap"
)

// FrameExtractor writes one representative frame per scene into the session
// directory, taken at the temporal midpoint of the scene's range.
type FrameExtractor struct {
	ffmpegPath string
	logger     *zap.Logger
}

func NewFrameExtractor(logger *zap.Logger) (*FrameExtractor, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	return &FrameExtractor{ffmpegPath: ffmpegPath, logger: logger}, nil
}

// ExtractRepresentative seeks to the midpoint of a scene and writes a single
// jpeg named after the scene number into outputDir.
func (fe *FrameExtractor) ExtractRepresentative(ctx context.Context, videoPath, outputDir string, sceneNumber int, r Range) error {
	midpoint := (r.Start + r.End) / 2
	outputPath := filepath.Join(outputDir, frameCandidates(sceneNumber)[0])

	cmd := exec.CommandContext(ctx, fe.ffmpegPath,
		"-ss", fmt.Sprintf("%.3f", midpoint),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to extract frame for scene %d at %.3fs: %w: %s",
			sceneNumber, midpoint, err, stderr.String())
	}
	return nil
}

// frameCandidates lists the filenames a scene's frame may have been written
// under, primary convention first. Extraction backends disagree on zero
// padding, so resolution tries each in order.
func frameCandidates(sceneNumber int) []string {
	return []string{
		fmt.Sprintf("scene_%03d.jpg", sceneNumber),
		fmt.Sprintf("scene_%d.jpg", sceneNumber),
	}
}

// resolveFrame returns the first existing candidate for a scene's frame, or
// ok=false when none exists.
func resolveFrame(outputDir string, sceneNumber int) (path, filename string, ok bool) {
	for _, name := range frameCandidates(sceneNumber) {
		candidate := filepath.Join(outputDir, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, name, true
		}
	}
	return "", "", false
}
