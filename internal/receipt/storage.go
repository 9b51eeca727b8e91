package receipt

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	unprocessedDir = "unprocessed"
	processedDir   = "processed"
)

// Storage defines the interface for file storage operations
type Storage interface {
	// Save saves a file into the unprocessed folder and returns its relative path
	Save(filename string, data []byte) (string, error)

	// Get retrieves a file by relative path
	Get(path string) ([]byte, error)

	// Delete removes a file
	Delete(path string) error

	// MoveToProcessed moves a file into the processed folder and returns its new relative path
	MoveToProcessed(path string) (string, error)

	// Path resolves a relative path to a filesystem path
	Path(path string) string
}

// LocalStorage implements the Storage interface using local filesystem
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a new LocalStorage instance
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	for _, dir := range []string{unprocessedDir, processedDir} {
		if err := os.MkdirAll(filepath.Join(basePath, dir), 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	return &LocalStorage{
		basePath: basePath,
	}, nil
}

// Save saves a file to the unprocessed folder
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	rel := filepath.Join(unprocessedDir, filepath.Base(filename))
	if err := os.WriteFile(l.Path(rel), data, 0644); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return rel, nil
}

// Get retrieves a file from local storage
func (l *LocalStorage) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(l.Path(path))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a file from local storage
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(l.Path(path)); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}

// MoveToProcessed renames a file into the processed folder
func (l *LocalStorage) MoveToProcessed(path string) (string, error) {
	rel := filepath.Join(processedDir, filepath.Base(path))
	if err := os.Rename(l.Path(path), l.Path(rel)); err != nil {
		return "", fmt.Errorf("moving file to processed: %w", err)
	}
	return rel, nil
}

// Path joins a relative path onto the storage root
func (l *LocalStorage) Path(path string) string {
	return filepath.Join(l.basePath, path)
}
