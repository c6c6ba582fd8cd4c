package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/devnet-dashboard-backend/interfaces"
)

// FileBackend implements a state backend using the local file system.
// Every key is stored as a file below the base directory.
type FileBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileBackend creates a new file state backend using the specified base directory.
// The directory is created if it doesn't exist.
func NewFileBackend(baseDir string, log *slog.Logger) (*FileBackend, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	return &FileBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// Fetch retrieves data from the file system by its key.
// Returns ErrContentNotFound if the file doesn't exist.
func (b *FileBackend) Fetch(ctx context.Context, key interfaces.StateKey) ([]byte, error) {
	filePath := b.getFilePath(key)

	data, err := os.ReadFile(filePath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, interfaces.ErrContentNotFound
	} else if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	b.log.Debug("Fetched state from file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return data, nil
}

// Store writes data to the file system. The write goes through a temporary
// file and a rename so readers never observe a partial value.
func (b *FileBackend) Store(ctx context.Context, key interfaces.StateKey, data []byte) error {
	filePath := b.getFilePath(key)

	if err := os.MkdirAll(filepath.Dir(filePath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(filePath), ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filePath); err != nil {
		return fmt.Errorf("failed to replace file: %w", err)
	}

	b.log.Debug("Stored state in file",
		slog.String("path", filePath),
		slog.Int("size", len(data)))

	return nil
}

// Delete removes the file backing key.
func (b *FileBackend) Delete(ctx context.Context, key interfaces.StateKey) error {
	err := os.Remove(b.getFilePath(key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Available checks if the file backend is accessible by verifying the base directory exists.
func (b *FileBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File backend unavailable", "err", err)
		return false
	}
	return true
}

// Name returns a unique identifier for this state backend.
func (b *FileBackend) Name() string {
	return fmt.Sprintf("file-%s", filepath.Base(b.baseDir))
}

// LocationURI returns the URI that identifies this state backend.
func (b *FileBackend) LocationURI() string {
	return b.locationURI
}

func (b *FileBackend) getFilePath(key interfaces.StateKey) string {
	return filepath.Join(b.baseDir, filepath.FromSlash(key.String())+".json")
}
