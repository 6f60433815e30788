// Package scene implements the segmentation engine: boundary detection over
// the decoded frame stream, representative frame extraction and assembly of
// the per-session metadata record.
package scene

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"os/exec"

	"go.uber.org/zap"
)

// Detector finds content-change boundaries by comparing successive frames'
// color histograms. ffmpeg decodes the video to a downscaled raw RGB stream;
// a frame whose histogram correlation with the previous frame drops below
// the threshold starts a new scene.
type Detector struct {
	ffmpegPath     string
	threshold      float64
	minSceneFrames int
	width          int
	height         int
	logger         *zap.Logger
}

type DetectorConfig struct {
	// Threshold is the correlation cutoff in [0,1]; lower is more sensitive.
	Threshold      float64
	MinSceneFrames int
	Width          int
	Height         int
}

func NewDetector(cfg DetectorConfig, logger *zap.Logger) (*Detector, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}

	if cfg.Threshold <= 0 || cfg.Threshold >= 1 {
		cfg.Threshold = 0.5
	}
	if cfg.MinSceneFrames < 1 {
		cfg.MinSceneFrames = 1
	}
	if cfg.Width <= 0 {
		cfg.Width = 160
	}
	if cfg.Height <= 0 {
		cfg.Height = 90
	}

	return &Detector{
		ffmpegPath:     ffmpegPath,
		threshold:      cfg.Threshold,
		minSceneFrames: cfg.MinSceneFrames,
		width:          cfg.Width,
		height:         cfg.Height,
		logger:         logger,
	}, nil
}

// DetectBoundaries returns the ordered frame indices that start each scene.
// Index 0 is always present.
func (d *Detector) DetectBoundaries(ctx context.Context, videoPath string) ([]int, error) {
	cmd := exec.CommandContext(ctx, d.ffmpegPath,
		"-i", videoPath,
		"-vf", fmt.Sprintf("scale=%d:%d", d.width, d.height),
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-v", "error",
		"-",
	)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open ffmpeg pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	boundaries, scanErr := d.scanBoundaries(bufio.NewReaderSize(stdout, 1<<20))

	waitErr := cmd.Wait()
	if scanErr != nil {
		return nil, scanErr
	}
	if waitErr != nil {
		return nil, fmt.Errorf("ffmpeg decode failed: %w", waitErr)
	}

	d.logger.Debug("boundary scan complete",
		zap.String("video", videoPath), zap.Int("boundaries", len(boundaries)))
	return boundaries, nil
}

// scanBoundaries consumes a raw rgb24 stream, one width*height*3 chunk per
// frame. Boundaries closer than minSceneFrames to the previous one are
// skipped so no scene ends up shorter than one frame.
func (d *Detector) scanBoundaries(r io.Reader) ([]int, error) {
	frameSize := d.width * d.height * 3
	frame := make([]byte, frameSize)

	var prev []float64
	boundaries := []int{0}
	lastBoundary := 0

	for frameIndex := 0; ; frameIndex++ {
		_, err := io.ReadFull(r, frame)
		if err == io.EOF {
			break
		}
		if err == io.ErrUnexpectedEOF {
			// Trailing partial frame, tolerated.
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed reading frame stream: %w", err)
		}

		hist := histogramRGB(frame)
		if prev != nil {
			if correlation(prev, hist) < d.threshold &&
				frameIndex-lastBoundary >= d.minSceneFrames {
				boundaries = append(boundaries, frameIndex)
				lastBoundary = frameIndex
			}
		}
		prev = hist
	}

	return boundaries, nil
}

const histBins = 16

// histogramRGB computes a joint 16x16x16 color histogram over an rgb24 frame.
func histogramRGB(frame []byte) []float64 {
	hist := make([]float64, histBins*histBins*histBins)
	for i := 0; i+2 < len(frame); i += 3 {
		r := frame[i] >> 4
		g := frame[i+1] >> 4
		b := frame[i+2] >> 4
		hist[int(r)*histBins*histBins+int(g)*histBins+int(b)]++
	}
	return hist
}

// correlation is the Pearson correlation of two histograms, the same
// comparison OpenCV calls HISTCMP_CORREL. Two flat histograms compare as 1.
func correlation(a, b []float64) float64 {
	n := float64(len(a))

	var sumA, sumB float64
	for i := range a {
		sumA += a[i]
		sumB += b[i]
	}
	meanA := sumA / n
	meanB := sumB / n

	var num, denA, denB float64
	for i := range a {
		da := a[i] - meanA
		db := b[i] - meanB
		num += da * db
		denA += da * da
		denB += db * db
	}

	if denA == 0 || denB == 0 {
		if denA == denB {
			return 1
		}
		return 0
	}
	return num / math.Sqrt(denA*denB)
}
