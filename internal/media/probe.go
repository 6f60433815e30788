// Package media wraps ffprobe for reading basic stream properties of a video.
package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrVideoUnreadable marks a video that cannot be opened or decoded.
var ErrVideoUnreadable = errors.New("video unreadable")

type ProbeInfo struct {
	Duration   float64
	FPS        float64
	FrameCount int
	Width      int
	Height     int
}

type Prober struct {
	ffprobePath string
}

func NewProber() (*Prober, error) {
	path, err := exec.LookPath("ffprobe")
	if err != nil {
		return nil, fmt.Errorf("ffprobe not found in PATH: %w", err)
	}
	return &Prober{ffprobePath: path}, nil
}

type probeOutput struct {
	Streams []struct {
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		FrameRate string `json:"r_frame_rate"`
		NbFrames  string `json:"nb_frames"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads duration, frame rate and frame count of the first video stream.
// Any ffprobe failure is reported as ErrVideoUnreadable.
func (p *Prober) Probe(ctx context.Context, videoPath string) (*ProbeInfo, error) {
	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrVideoUnreadable, err)
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height,r_frame_rate,nb_frames",
		"-show_entries", "format=duration",
		"-of", "json",
		videoPath,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: ffprobe: %v: %s", ErrVideoUnreadable, err, stderr.String())
	}

	var out probeOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		return nil, fmt.Errorf("%w: parse ffprobe output: %v", ErrVideoUnreadable, err)
	}
	if len(out.Streams) == 0 {
		return nil, fmt.Errorf("%w: no video stream in %s", ErrVideoUnreadable, videoPath)
	}

	stream := out.Streams[0]

	fps, err := parseFrameRate(stream.FrameRate)
	if err != nil || fps <= 0 {
		return nil, fmt.Errorf("%w: invalid frame rate %q", ErrVideoUnreadable, stream.FrameRate)
	}

	duration, err := strconv.ParseFloat(out.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return nil, fmt.Errorf("%w: invalid duration %q", ErrVideoUnreadable, out.Format.Duration)
	}

	frameCount := 0
	if stream.NbFrames != "" {
		frameCount, _ = strconv.Atoi(stream.NbFrames)
	}
	if frameCount <= 0 {
		// Some containers omit nb_frames; derive it.
		frameCount = int(duration * fps)
	}

	return &ProbeInfo{
		Duration:   duration,
		FPS:        fps,
		FrameCount: frameCount,
		Width:      stream.Width,
		Height:     stream.Height,
	}, nil
}

// parseFrameRate handles ffprobe's fractional rate format, e.g. "30000/1001".
func parseFrameRate(s string) (float64, error) {
	parts := strings.SplitN(s, "/", 2)
	if len(parts) == 2 {
		num, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			return 0, err
		}
		den, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return 0, err
		}
		if den == 0 {
			return 0, fmt.Errorf("zero denominator in frame rate %q", s)
		}
		return num / den, nil
	}
	return strconv.ParseFloat(s, 64)
}
