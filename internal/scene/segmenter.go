package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scene2story/scene2story/internal/media"
	"github.com/scene2story/scene2story/internal/metrics"
	"github.com/scene2story/scene2story/internal/session"
)

// VideoProber reads basic stream properties of a video.
type VideoProber interface {
	Probe(ctx context.Context, videoPath string) (*media.ProbeInfo, error)
}

// BoundaryDetector finds the frame indices that start each scene.
type BoundaryDetector interface {
	DetectBoundaries(ctx context.Context, videoPath string) ([]int, error)
}

// FrameWriter persists one representative frame for a scene range.
type FrameWriter interface {
	ExtractRepresentative(ctx context.Context, videoPath, outputDir string, sceneNumber int, r Range) error
}

// Segmenter runs boundary detection, frame extraction and the initial
// metadata write for one video.
type Segmenter struct {
	prober    VideoProber
	detector  BoundaryDetector
	extractor FrameWriter
	store     *session.Store
	logger    *zap.Logger
}

func NewSegmenter(prober VideoProber, detector BoundaryDetector, extractor FrameWriter, store *session.Store, logger *zap.Logger) *Segmenter {
	return &Segmenter{
		prober:    prober,
		detector:  detector,
		extractor: extractor,
		store:     store,
		logger:    logger,
	}
}

// Segment produces an ordered, contiguous set of scenes for a video, each
// backed by an existing representative frame, and persists the session
// metadata before returning. If the video cannot be decoded no session
// directory survives the call.
func (s *Segmenter) Segment(ctx context.Context, videoPath, videoName string) (*session.Metadata, error) {
	if videoName == "" {
		base := filepath.Base(videoPath)
		videoName = strings.TrimSuffix(base, filepath.Ext(base))
	}

	// Probe before allocating anything so an unreadable video leaves no
	// partial session behind.
	info, err := s.prober.Probe(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", videoPath, err)
	}

	sessionPath, err := s.store.Create(videoName)
	if err != nil {
		return nil, fmt.Errorf("segment %s: %w", videoPath, err)
	}

	meta, err := s.segmentInto(ctx, videoPath, videoName, sessionPath, info)
	if err != nil {
		if rmErr := os.RemoveAll(sessionPath); rmErr != nil {
			s.logger.Warn("failed to clean up session after error",
				zap.String("session", sessionPath), zap.Error(rmErr))
		}
		return nil, err
	}
	return meta, nil
}

func (s *Segmenter) segmentInto(ctx context.Context, videoPath, videoName, sessionPath string, info *media.ProbeInfo) (*session.Metadata, error) {
	boundaries, err := s.detector.DetectBoundaries(ctx, videoPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", media.ErrVideoUnreadable, err)
	}

	ranges := boundariesToRanges(boundaries, info.FrameCount, info.FPS)
	if len(ranges) == 0 {
		// Detection degraded: treat the whole video as one scene.
		duration := float64(info.FrameCount) / info.FPS
		ranges = []Range{{Start: 0, End: duration}}
		s.logger.Warn("no scene boundaries found, using whole video as one scene",
			zap.String("video", videoPath), zap.Float64("duration", duration))
	}

	scenes := make([]session.Scene, 0, len(ranges))
	for i, r := range ranges {
		sceneNumber := i + 1
		if err := s.extractor.ExtractRepresentative(ctx, videoPath, sessionPath, sceneNumber, r); err != nil {
			s.logger.Warn("frame extraction failed",
				zap.Int("scene", sceneNumber), zap.Error(err))
		}

		framePath, frameFilename, ok := resolveFrame(sessionPath, sceneNumber)
		if !ok {
			s.logger.Warn("dropping scene without representative frame",
				zap.Int("scene", sceneNumber), zap.String("session", sessionPath))
			continue
		}

		scenes = append(scenes, session.Scene{
			SceneNumber:   len(scenes) + 1,
			StartTime:     r.Start,
			EndTime:       r.End,
			Duration:      r.End - r.Start,
			FramePath:     framePath,
			FrameFilename: frameFilename,
		})
	}

	metrics.ScenesDetectedTotal.Add(float64(len(scenes)))
	metrics.FramesExtractedTotal.Add(float64(len(scenes)))

	meta := &session.Metadata{
		VideoPath:           videoPath,
		VideoName:           videoName,
		SessionPath:         sessionPath,
		ProcessingTimestamp: time.Now().Format(time.RFC3339),
		Scenes:              scenes,
	}

	if err := s.store.Write(meta); err != nil {
		return nil, fmt.Errorf("failed to persist session metadata: %w", err)
	}

	s.logger.Info("segmentation complete",
		zap.String("video", videoPath),
		zap.String("session", sessionPath),
		zap.Int("scenes", len(scenes)))
	return meta, nil
}
