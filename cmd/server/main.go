package main

import (
	"fmt"
	"net/http"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/scene2story/scene2story/internal/api"
	"github.com/scene2story/scene2story/internal/caption"
	"github.com/scene2story/scene2story/internal/config"
	"github.com/scene2story/scene2story/internal/database"
	"github.com/scene2story/scene2story/internal/logging"
	"github.com/scene2story/scene2story/internal/media"
	"github.com/scene2story/scene2story/internal/pipeline"
	"github.com/scene2story/scene2story/internal/scene"
	"github.com/scene2story/scene2story/internal/session"
	"github.com/scene2story/scene2story/internal/storage"
	"github.com/scene2story/scene2story/internal/storyboard"
	"github.com/scene2story/scene2story/internal/transcribe"
	"github.com/scene2story/scene2story/internal/youtube"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to build logger: %v", err))
	}
	defer logger.Sync()

	db, err := database.NewDB(cfg.DBPath)
	if err != nil {
		logger.Fatal("failed to open database", zap.Error(err))
	}
	defer db.Close()
	runs := database.NewRunRepository(db)

	store, err := session.NewStore(cfg.ScenesDir, logger)
	if err != nil {
		logger.Fatal("failed to init session store", zap.Error(err))
	}

	staging, err := storage.NewStaging(cfg.UploadDir)
	if err != nil {
		logger.Fatal("failed to init upload staging", zap.Error(err))
	}

	prober, err := media.NewProber()
	if err != nil {
		logger.Fatal("ffprobe not found", zap.Error(err))
	}

	detector, err := scene.NewDetector(scene.DetectorConfig{
		Threshold:      cfg.SceneThreshold,
		MinSceneFrames: cfg.MinSceneFrames,
		Width:          cfg.DetectWidth,
		Height:         cfg.DetectHeight,
	}, logger)
	if err != nil {
		logger.Fatal("failed to init scene detector", zap.Error(err))
	}

	extractor, err := scene.NewFrameExtractor(logger)
	if err != nil {
		logger.Fatal("ffmpeg not found", zap.Error(err))
	}

	segmenter := scene.NewSegmenter(prober, detector, extractor, store, logger)

	pipelineCfg := pipeline.Config{
		Staging:   staging,
		Store:     store,
		Segmenter: segmenter,
		Enhancer:  caption.NewEnhancer(),
		Renderer:  storyboard.NewGenerator(cfg.StoryboardMaxWidth, logger),
		Runs:      runs,
		Logger:    logger,
	}

	// Optional collaborators. The pipeline records a failed stage for any
	// that are missing instead of refusing to start.
	if cfg.OpenAIAPIKey != "" {
		pipelineCfg.Captioner = caption.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	} else {
		logger.Warn("OPENAI_API_KEY not set, frame captioning disabled")
	}

	if transcriber, err := transcribe.NewTranscriber(cfg.WhisperBin, cfg.WhisperModel, logger); err != nil {
		logger.Warn("whisper not found, transcription disabled", zap.Error(err))
	} else {
		pipelineCfg.Transcriber = transcriber
	}

	if resolver, err := youtube.NewResolver(cfg.YTDLPBin, staging.BasePath(), logger); err != nil {
		logger.Warn("yt-dlp not found, YouTube processing disabled", zap.Error(err))
	} else {
		pipelineCfg.Downloader = resolver
	}

	p := pipeline.New(pipelineCfg)

	app := &api.App{
		Processor:     p,
		Store:         store,
		MaxUploadSize: cfg.MaxUploadSize,
		Logger:        logger,
	}
	router := api.NewRouter(app, cfg.CORSOrigins)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logger.Info("server starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
