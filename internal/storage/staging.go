// Package storage manages the staging area incoming videos land in before
// segmentation moves them into their session directory.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

var validVideoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
	".wmv": true,
}

// IsValidVideoFilename reports whether the filename carries a supported
// video extension.
func IsValidVideoFilename(filename string) bool {
	return validVideoExtensions[strings.ToLower(filepath.Ext(filename))]
}

type Staging struct {
	basePath string
}

func NewStaging(basePath string) (*Staging, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	return &Staging{basePath: basePath}, nil
}

func (s *Staging) BasePath() string {
	return s.basePath
}

// SaveUpload streams an incoming file into the staging area under a unique
// name, keeping the original extension. Returns the full path.
func (s *Staging) SaveUpload(r io.Reader, originalFilename string) (string, error) {
	ext := filepath.Ext(originalFilename)
	if ext == "" {
		ext = ".mp4"
	}

	fullPath := filepath.Join(s.basePath, uuid.New().String()+ext)

	dst, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, r); err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	return fullPath, nil
}

// MoveIntoSession relocates a staged video into its session directory and
// returns the new path.
func (s *Staging) MoveIntoSession(stagedPath, sessionPath string) (string, error) {
	finalPath := filepath.Join(sessionPath, filepath.Base(stagedPath))
	if err := os.Rename(stagedPath, finalPath); err != nil {
		return "", fmt.Errorf("failed to move video into session: %w", err)
	}
	return finalPath, nil
}

// Remove deletes a staged file, guarding against paths outside the staging
// area.
func (s *Staging) Remove(path string) error {
	cleanPath := filepath.Clean(path)
	if !strings.HasPrefix(cleanPath, filepath.Clean(s.basePath)+string(os.PathSeparator)) {
		return fmt.Errorf("invalid path")
	}
	if err := os.Remove(cleanPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
