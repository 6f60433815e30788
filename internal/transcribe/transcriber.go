// Package transcribe extracts a video's audio track, transcribes it with
// the whisper CLI and maps transcript segments onto scene time ranges.
package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Range is one scene's (start, end) span in seconds.
type Range struct {
	Start float64
	End   float64
}

// Segment is one timed transcript chunk from whisper.
type Segment struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

type whisperOutput struct {
	Text     string    `json:"text"`
	Segments []Segment `json:"segments"`
}

type Transcriber struct {
	ffmpegPath string
	whisperBin string
	model      string
	logger     *zap.Logger
}

func NewTranscriber(whisperBin, model string, logger *zap.Logger) (*Transcriber, error) {
	ffmpegPath, err := exec.LookPath("ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found in PATH: %w", err)
	}
	whisperPath, err := exec.LookPath(whisperBin)
	if err != nil {
		return nil, fmt.Errorf("%s not found in PATH: %w", whisperBin, err)
	}
	return &Transcriber{
		ffmpegPath: ffmpegPath,
		whisperBin: whisperPath,
		model:      model,
		logger:     logger,
	}, nil
}

// ExtractAudio writes the video's audio track as mono 16 kHz wav next to the
// video and returns its path.
func (t *Transcriber) ExtractAudio(ctx context.Context, videoPath string) (string, error) {
	audioPath := strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".wav"

	cmd := exec.CommandContext(ctx, t.ffmpegPath,
		"-i", videoPath,
		"-vn",
		"-ar", "16000",
		"-ac", "1",
		"-y",
		audioPath,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("audio extraction failed: %w: %s", err, stderr.String())
	}
	return audioPath, nil
}

// Transcribe runs whisper over an audio file and parses its JSON output.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath string) ([]Segment, error) {
	outputDir := filepath.Dir(audioPath)

	cmd := exec.CommandContext(ctx, t.whisperBin,
		audioPath,
		"--model", t.model,
		"--output_format", "json",
		"--output_dir", outputDir,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("whisper failed: %w: %s", err, stderr.String())
	}

	// Whisper writes <audio base>.json into the output dir.
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))
	jsonPath := filepath.Join(outputDir, base+".json")

	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("whisper output not found: %w", err)
	}
	return parseWhisperJSON(data)
}

func parseWhisperJSON(data []byte) ([]Segment, error) {
	var out whisperOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to parse whisper output: %w", err)
	}
	return out.Segments, nil
}

// SceneTranscripts returns one transcript per scene range, built by joining
// all segments that overlap the range.
func (t *Transcriber) SceneTranscripts(ctx context.Context, videoPath string, ranges []Range) ([]string, error) {
	audioPath, err := t.ExtractAudio(ctx, videoPath)
	if err != nil {
		return nil, err
	}

	segments, err := t.Transcribe(ctx, audioPath)
	if err != nil {
		return nil, err
	}

	t.logger.Info("transcription complete",
		zap.String("video", videoPath), zap.Int("segments", len(segments)))
	return MapSegments(segments, ranges), nil
}

// MapSegments assigns segments to ranges by overlap: a segment belongs to
// every range it touches.
func MapSegments(segments []Segment, ranges []Range) []string {
	transcripts := make([]string, len(ranges))
	for i, r := range ranges {
		var parts []string
		for _, seg := range segments {
			if seg.Start <= r.End && seg.End >= r.Start {
				parts = append(parts, strings.TrimSpace(seg.Text))
			}
		}
		transcripts[i] = strings.Join(parts, " ")
	}
	return transcripts
}
