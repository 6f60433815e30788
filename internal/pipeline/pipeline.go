// Package pipeline orchestrates one end-to-end processing run: resolve the
// source video, segment it into scenes, then enrich the session record with
// transcripts, captions and a rendered storyboard. Segmentation failures are
// fatal to the run; every enrichment stage degrades gracefully and the
// record is re-persisted after each write-worthy step.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/scene2story/scene2story/internal/database"
	"github.com/scene2story/scene2story/internal/metrics"
	"github.com/scene2story/scene2story/internal/session"
	"github.com/scene2story/scene2story/internal/storage"
	"github.com/scene2story/scene2story/internal/transcribe"
)

// Segmenter produces the initial session record for a video.
type Segmenter interface {
	Segment(ctx context.Context, videoPath, videoName string) (*session.Metadata, error)
}

// SceneTranscriber maps scene time ranges to transcript text.
type SceneTranscriber interface {
	SceneTranscripts(ctx context.Context, videoPath string, ranges []transcribe.Range) ([]string, error)
}

// FrameCaptioner describes one frame image.
type FrameCaptioner interface {
	CaptionFrame(ctx context.Context, imagePath string) (string, error)
}

// CaptionEnhancer merges transcript and visual caption per scene.
type CaptionEnhancer interface {
	EnhanceScenes(scenes []session.Scene) []session.Scene
}

// Renderer composes enriched scenes into a storyboard image.
type Renderer interface {
	Generate(scenes []session.Scene, outputPath string) (string, error)
}

// Downloader resolves a remote URL to a staged local file.
type Downloader interface {
	Download(ctx context.Context, url string) (string, error)
}

// StageStatus records the outcome of one enrichment stage.
type StageStatus struct {
	Stage string `json:"stage"`
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// Result is what a completed run hands back to the API layer.
type Result struct {
	RunID    string            `json:"run_id"`
	Metadata *session.Metadata `json:"scene_metadata"`
	Stages   []StageStatus     `json:"stages"`
}

type Pipeline struct {
	staging     *storage.Staging
	store       *session.Store
	segmenter   Segmenter
	downloader  Downloader
	transcriber SceneTranscriber
	captioner   FrameCaptioner
	enhancer    CaptionEnhancer
	renderer    Renderer
	runs        *database.RunRepository
	logger      *zap.Logger
}

// Config carries the collaborators into New. Transcriber, Captioner and
// Renderer may be nil; the matching stage is then skipped with a recorded
// failure instead of aborting the run.
type Config struct {
	Staging     *storage.Staging
	Store       *session.Store
	Segmenter   Segmenter
	Downloader  Downloader
	Transcriber SceneTranscriber
	Captioner   FrameCaptioner
	Enhancer    CaptionEnhancer
	Renderer    Renderer
	Runs        *database.RunRepository
	Logger      *zap.Logger
}

func New(cfg Config) *Pipeline {
	return &Pipeline{
		staging:     cfg.Staging,
		store:       cfg.Store,
		segmenter:   cfg.Segmenter,
		downloader:  cfg.Downloader,
		transcriber: cfg.Transcriber,
		captioner:   cfg.Captioner,
		enhancer:    cfg.Enhancer,
		renderer:    cfg.Renderer,
		runs:        cfg.Runs,
		logger:      cfg.Logger,
	}
}

// ProcessUpload stages an uploaded video and runs the full pipeline on it.
func (p *Pipeline) ProcessUpload(ctx context.Context, file io.Reader, filename, videoName string) (*Result, error) {
	stagedPath, err := p.staging.SaveUpload(file, filename)
	if err != nil {
		return nil, fmt.Errorf("failed to stage upload: %w", err)
	}

	if videoName == "" {
		videoName = strings.TrimSuffix(filename, filepath.Ext(filename))
	}
	return p.process(ctx, stagedPath, videoName, "upload")
}

// ProcessYouTube downloads a remote video and runs the full pipeline on it.
func (p *Pipeline) ProcessYouTube(ctx context.Context, url, videoName string) (*Result, error) {
	if p.downloader == nil {
		return nil, fmt.Errorf("youtube downloader not configured")
	}
	stagedPath, err := p.downloader.Download(ctx, url)
	if err != nil {
		return nil, err
	}
	return p.process(ctx, stagedPath, videoName, "youtube")
}

func (p *Pipeline) process(ctx context.Context, stagedPath, videoName, source string) (*Result, error) {
	run := database.NewRun(videoName, source)
	if err := p.runs.Insert(run); err != nil {
		p.logger.Warn("failed to journal run", zap.Error(err))
	}
	p.setRunStatus(run, database.RunStatusProcessing, "")

	segStart := time.Now()
	meta, err := p.segmenter.Segment(ctx, stagedPath, videoName)
	metrics.StageDuration.WithLabelValues("segment").Observe(time.Since(segStart).Seconds())
	if err != nil {
		p.setRunStatus(run, database.RunStatusFailed, err.Error())
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		if rmErr := p.staging.Remove(stagedPath); rmErr != nil {
			p.logger.Warn("failed to remove staged video", zap.Error(rmErr))
		}
		return nil, err
	}

	run.SessionID = filepath.Base(meta.SessionPath)
	log := p.logger.With(zap.String("session", run.SessionID))

	// The session directory owns the video from here on; frame paths in the
	// record already point inside it.
	finalPath, err := p.staging.MoveIntoSession(stagedPath, meta.SessionPath)
	if err != nil {
		log.Warn("could not move video into session, keeping staged path", zap.Error(err))
	} else {
		meta.VideoPath = finalPath
	}
	if err := p.store.Write(meta); err != nil {
		log.Warn("failed to re-persist metadata after move", zap.Error(err))
	}

	stages := p.enrich(ctx, meta, log)

	if err := p.store.Write(meta); err != nil {
		p.setRunStatus(run, database.RunStatusFailed, err.Error())
		metrics.RunsTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to persist enriched metadata: %w", err)
	}

	p.setRunStatus(run, database.RunStatusCompleted, "")
	metrics.RunsTotal.WithLabelValues("completed").Inc()
	log.Info("run completed", zap.Int("scenes", meta.TotalScenes))

	return &Result{RunID: run.ID, Metadata: meta, Stages: stages}, nil
}

// enrich runs the transcript, caption, enhancement and storyboard stages.
// Each failure is recorded and substituted with a visible placeholder; none
// aborts the run. No stage is retried.
func (p *Pipeline) enrich(ctx context.Context, meta *session.Metadata, log *zap.Logger) []StageStatus {
	var stages []StageStatus

	stages = append(stages, p.runStage("transcribe", log, func() error {
		if p.transcriber == nil {
			return fmt.Errorf("transcriber not configured")
		}
		ranges := make([]transcribe.Range, len(meta.Scenes))
		for i, sc := range meta.Scenes {
			ranges[i] = transcribe.Range{Start: sc.StartTime, End: sc.EndTime}
		}
		transcripts, err := p.transcriber.SceneTranscripts(ctx, meta.VideoPath, ranges)
		if err != nil {
			for i := range meta.Scenes {
				meta.Scenes[i].Transcript = fmt.Sprintf("[Transcription failed: %v]", err)
			}
			return err
		}
		for i := range meta.Scenes {
			if i < len(transcripts) {
				meta.Scenes[i].Transcript = transcripts[i]
			}
		}
		return nil
	}))

	stages = append(stages, p.runStage("caption", log, func() error {
		if p.captioner == nil {
			return fmt.Errorf("captioner not configured")
		}
		var firstErr error
		for i := range meta.Scenes {
			caption, err := p.captioner.CaptionFrame(ctx, meta.Scenes[i].FramePath)
			if err != nil {
				meta.Scenes[i].Caption = fmt.Sprintf("[Captioning failed: %v]", err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			meta.Scenes[i].Caption = caption
		}
		return firstErr
	}))

	stages = append(stages, p.runStage("enhance", log, func() error {
		if p.enhancer == nil {
			return fmt.Errorf("enhancer not configured")
		}
		meta.Scenes = p.enhancer.EnhanceScenes(meta.Scenes)
		return nil
	}))

	stages = append(stages, p.runStage("storyboard", log, func() error {
		if p.renderer == nil {
			return fmt.Errorf("renderer not configured")
		}
		outputPath := filepath.Join(meta.SessionPath, session.StoryboardFilename())
		storyboardPath, err := p.renderer.Generate(meta.Scenes, outputPath)
		if err != nil {
			return err
		}
		meta.StoryboardPath = storyboardPath
		return nil
	}))

	return stages
}

func (p *Pipeline) runStage(name string, log *zap.Logger, fn func() error) StageStatus {
	start := time.Now()
	err := fn()
	metrics.StageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	if err != nil {
		log.Warn("stage degraded", zap.String("stage", name), zap.Error(err))
		return StageStatus{Stage: name, OK: false, Error: err.Error()}
	}
	return StageStatus{Stage: name, OK: true}
}

func (p *Pipeline) setRunStatus(run *database.Run, status, errMsg string) {
	run.Status = status
	run.ErrorMessage = errMsg
	if err := p.runs.Update(run); err != nil {
		p.logger.Warn("failed to update run journal", zap.Error(err))
	}
}

// RegenerateStoryboard re-renders the storyboard for an existing session
// from its persisted record.
func (p *Pipeline) RegenerateStoryboard(sessionID string) (*session.Metadata, error) {
	meta, err := p.store.ReadByID(sessionID)
	if err != nil {
		return nil, err
	}
	if p.renderer == nil {
		return nil, fmt.Errorf("renderer not configured")
	}

	outputPath := filepath.Join(meta.SessionPath, session.StoryboardFilename())
	storyboardPath, err := p.renderer.Generate(meta.Scenes, outputPath)
	if err != nil {
		return nil, fmt.Errorf("storyboard generation failed: %w", err)
	}

	meta.StoryboardPath = storyboardPath
	if err := p.store.Write(meta); err != nil {
		return nil, err
	}
	return meta, nil
}
