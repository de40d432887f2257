package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/garyjia/travel-approval/internal/application/port"
	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9._\-]`)

// LocalFileStorage implements port.ExportStorage on the local filesystem.
// Names are flattened into baseDir; subdirectories are never created from user input.
type LocalFileStorage struct {
	baseDir string
	logger  *zap.Logger
}

// NewLocalFileStorage creates a new LocalFileStorage
func NewLocalFileStorage(baseDir string, logger *zap.Logger) *LocalFileStorage {
	return &LocalFileStorage{
		baseDir: baseDir,
		logger:  logger,
	}
}

// Save writes content under name, replacing any existing file
func (s *LocalFileStorage) Save(ctx context.Context, name string, content []byte) (string, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.baseDir, 0755); err != nil {
		s.logger.Error("Failed to create export directory",
			zap.String("path", s.baseDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	// write then rename so readers never see a partial workbook
	tmp := fullPath + ".tmp"
	if err := os.WriteFile(tmp, content, 0644); err != nil {
		s.logger.Error("Failed to write file",
			zap.String("path", tmp),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("File saved successfully",
		zap.String("path", fullPath),
		zap.Int("size", len(content)))

	return fullPath, nil
}

// Read returns the content stored under name
func (s *LocalFileStorage) Read(ctx context.Context, name string) ([]byte, error) {
	fullPath, err := s.resolve(name)
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(fullPath)
	if err != nil {
		s.logger.Error("Failed to read file",
			zap.String("path", fullPath),
			zap.Error(err))
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return content, nil
}

// Exists reports whether name is stored
func (s *LocalFileStorage) Exists(ctx context.Context, name string) bool {
	fullPath, err := s.resolve(name)
	if err != nil {
		return false
	}
	_, err = os.Stat(fullPath)
	return err == nil
}

// Delete removes name. Missing files are not an error.
func (s *LocalFileStorage) Delete(ctx context.Context, name string) error {
	fullPath, err := s.resolve(name)
	if err != nil {
		return err
	}

	if err := os.Remove(fullPath); err != nil && !os.IsNotExist(err) {
		s.logger.Error("Failed to delete file",
			zap.String("path", fullPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// SanitizeName returns a filesystem-safe file name
func SanitizeName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	return unsafeNameChars.ReplaceAllString(name, "")
}

// resolve maps name to a path that cannot leave baseDir
func (s *LocalFileStorage) resolve(name string) (string, error) {
	safe := SanitizeName(name)
	if safe == "" {
		return "", fmt.Errorf("invalid file name %q", name)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}
	absPath := filepath.Join(absBase, safe)
	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes base directory: %s", name)
	}
	return absPath, nil
}

var _ port.ExportStorage = (*LocalFileStorage)(nil)
