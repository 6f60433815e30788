package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/scene2story/scene2story/internal/media"
	"github.com/scene2story/scene2story/internal/pipeline"
	"github.com/scene2story/scene2story/internal/session"
	"github.com/scene2story/scene2story/internal/storage"
	"github.com/scene2story/scene2story/internal/youtube"
)

// Processor is the slice of the pipeline the handlers need.
type Processor interface {
	ProcessUpload(ctx context.Context, file io.Reader, filename, videoName string) (*pipeline.Result, error)
	ProcessYouTube(ctx context.Context, url, videoName string) (*pipeline.Result, error)
	RegenerateStoryboard(sessionID string) (*session.Metadata, error)
}

type App struct {
	Processor     Processor
	Store         *session.Store
	MaxUploadSize int64
	Logger        *zap.Logger
}

func HealthHandler(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (app *App) ProcessUploadHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, app.MaxUploadSize)

	if err := r.ParseMultipartForm(app.MaxUploadSize); err != nil {
		respondError(w, http.StatusRequestEntityTooLarge, "File too large")
		return
	}

	file, header, err := r.FormFile("video")
	if err != nil {
		respondError(w, http.StatusBadRequest, "Missing video file")
		return
	}
	defer file.Close()

	if !storage.IsValidVideoFilename(header.Filename) {
		respondError(w, http.StatusBadRequest, "Unsupported video format")
		return
	}

	videoName := r.FormValue("video_name")

	result, err := app.Processor.ProcessUpload(r.Context(), file, header.Filename, videoName)
	if err != nil {
		app.respondProcessingError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

type youtubeRequest struct {
	YouTubeURL string `json:"youtube_url"`
	VideoName  string `json:"video_name"`
}

func (app *App) ProcessYouTubeHandler(w http.ResponseWriter, r *http.Request) {
	var req youtubeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !youtube.IsValidURL(req.YouTubeURL) {
		respondError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}

	result, err := app.Processor.ProcessYouTube(r.Context(), req.YouTubeURL, req.VideoName)
	if err != nil {
		app.respondProcessingError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (app *App) ListSessionsHandler(w http.ResponseWriter, r *http.Request) {
	summaries, err := app.Store.List()
	if err != nil {
		app.Logger.Error("failed to list sessions", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"sessions": summaries,
		"total":    len(summaries),
	})
}

func (app *App) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	meta, err := app.Store.ReadByID(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		app.Logger.Error("failed to read session", zap.String("session", sessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Failed to read session")
		return
	}

	respondJSON(w, http.StatusOK, meta)
}

func (app *App) GenerateStoryboardHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	meta, err := app.Processor.RegenerateStoryboard(sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		app.Logger.Error("storyboard generation failed", zap.String("session", sessionID), zap.Error(err))
		respondError(w, http.StatusInternalServerError, "Storyboard generation failed")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"session_id":      sessionID,
		"storyboard_path": meta.StoryboardPath,
	})
}

func (app *App) ServeStoryboardHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	dir, err := app.Store.SessionDir(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	path := filepath.Join(dir, session.StoryboardFilename())
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "Storyboard not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

func (app *App) ServeFrameHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	filename := chi.URLParam(r, "filename")

	if filename == "" || strings.ContainsAny(filename, "/\\") ||
		strings.Contains(filename, "..") || !strings.HasSuffix(filename, ".jpg") {
		respondError(w, http.StatusBadRequest, "Invalid frame filename")
		return
	}

	dir, err := app.Store.SessionDir(sessionID)
	if err != nil {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}

	path := filepath.Join(dir, filename)
	if _, err := os.Stat(path); err != nil {
		respondError(w, http.StatusNotFound, "Frame not found")
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	http.ServeFile(w, r, path)
}

// respondProcessingError maps pipeline failures onto HTTP statuses. An
// unreadable source video is the caller's fault; everything else is ours.
func (app *App) respondProcessingError(w http.ResponseWriter, err error) {
	if errors.Is(err, media.ErrVideoUnreadable) {
		respondError(w, http.StatusBadRequest, "Could not read the video file")
		return
	}
	if errors.Is(err, youtube.ErrInvalidURL) {
		respondError(w, http.StatusBadRequest, "Invalid YouTube URL")
		return
	}
	app.Logger.Error("processing failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "Video processing failed")
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
