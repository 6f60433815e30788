// Package session persists per-run scene metadata on the filesystem. Each
// processing run gets its own directory under the scenes root, holding the
// representative frames, the source video and a metadata.json record.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionNotFound marks a missing session directory or record file.
var ErrSessionNotFound = errors.New("session not found")

const (
	metadataFilename   = "metadata.json"
	storyboardFilename = "storyboard.jpg"
	maxSlugLen         = 20
)

type Store struct {
	rootDir string
	logger  *zap.Logger
}

func NewStore(rootDir string, logger *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(rootDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scenes directory: %w", err)
	}
	return &Store{rootDir: rootDir, logger: logger}, nil
}

// Create allocates a fresh session directory. The identifier embeds a
// timestamp, a sanitized slug of the video name and a random suffix, so
// repeated runs with the same name in the same second never collide.
func (s *Store) Create(videoName string) (string, error) {
	timestamp := time.Now().Format("20060102_150405")
	suffix := strings.SplitN(uuid.New().String(), "-", 2)[0]

	sessionID := fmt.Sprintf("%s_%s_%s", timestamp, Slugify(videoName, maxSlugLen), suffix)
	sessionPath := filepath.Join(s.rootDir, sessionID)

	if err := os.MkdirAll(sessionPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create session directory: %w", err)
	}
	return sessionPath, nil
}

// Write replaces the session's metadata.json with the full record. Last
// write wins; TotalScenes is forced in sync with the scene list before
// serializing.
func (s *Store) Write(meta *Metadata) error {
	meta.TotalScenes = len(meta.Scenes)

	data, err := json.MarshalIndent(meta, "", "    ")
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	path := filepath.Join(meta.SessionPath, metadataFilename)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metadata: %w", err)
	}
	return nil
}

// Read loads the metadata record from a session directory.
func (s *Store) Read(sessionPath string) (*Metadata, error) {
	info, err := os.Stat(sessionPath)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, sessionPath)
	}

	data, err := os.ReadFile(filepath.Join(sessionPath, metadataFilename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: no metadata in %s", ErrSessionNotFound, sessionPath)
		}
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	return &meta, nil
}

// ReadByID resolves a session id against the scenes root, rejecting ids that
// would escape it.
func (s *Store) ReadByID(sessionID string) (*Metadata, error) {
	path, err := s.SessionDir(sessionID)
	if err != nil {
		return nil, err
	}
	return s.Read(path)
}

// SessionDir maps a session id to its directory path.
func (s *Store) SessionDir(sessionID string) (string, error) {
	cleaned := filepath.Clean(sessionID)
	if cleaned != sessionID || strings.ContainsAny(sessionID, "/\\") || sessionID == "." || sessionID == ".." {
		return "", fmt.Errorf("%w: invalid session id %q", ErrSessionNotFound, sessionID)
	}
	return filepath.Join(s.rootDir, sessionID), nil
}

// List scans the scenes root and summarizes every directory with a readable
// record. Directories with missing or malformed metadata are skipped.
func (s *Store) List() ([]Summary, error) {
	entries, err := os.ReadDir(s.rootDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Summary{}, nil
		}
		return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
	}

	summaries := make([]Summary, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		sessionPath := filepath.Join(s.rootDir, entry.Name())
		meta, err := s.Read(sessionPath)
		if err != nil {
			s.logger.Debug("skipping unreadable session",
				zap.String("session", entry.Name()), zap.Error(err))
			continue
		}

		_, sbErr := os.Stat(filepath.Join(sessionPath, storyboardFilename))

		summaries = append(summaries, Summary{
			SessionID:           entry.Name(),
			VideoName:           meta.VideoName,
			TotalScenes:         meta.TotalScenes,
			ProcessingTimestamp: meta.ProcessingTimestamp,
			SessionPath:         sessionPath,
			HasStoryboard:       sbErr == nil,
		})
	}
	return summaries, nil
}

// StoryboardFilename is the fixed artifact name looked for by List.
func StoryboardFilename() string { return storyboardFilename }
