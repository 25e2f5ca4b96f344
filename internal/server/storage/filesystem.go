package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Store holds the raw transcripts behind each analysis.
type Store interface {
	Save(analysisID string, data io.Reader) (int64, error)
	GetPath(analysisID string) (string, error)
	Load(analysisID string) (string, error)
	Delete(analysisID string) error
	EnsureDir() error
}

// FileSystemStore stores transcripts on the local filesystem.
type FileSystemStore struct {
	basePath string
}

// NewFileSystemStore creates a new filesystem storage backend.
func NewFileSystemStore(basePath string) *FileSystemStore {
	return &FileSystemStore{basePath: basePath}
}

// EnsureDir creates the storage directory if it doesn't exist.
func (fs *FileSystemStore) EnsureDir() error {
	if err := os.MkdirAll(fs.basePath, 0755); err != nil {
		return fmt.Errorf("failed to create storage directory %s: %w", fs.basePath, err)
	}
	return nil
}

// Save writes data from a reader to a file named {analysisID}.log.
// Returns the number of bytes written.
func (fs *FileSystemStore) Save(analysisID string, data io.Reader) (int64, error) {
	filePath := fs.filePath(analysisID)

	file, err := os.Create(filePath)
	if err != nil {
		return 0, fmt.Errorf("failed to create file %s: %w", filePath, err)
	}
	defer file.Close()

	n, err := io.Copy(file, data)
	if err != nil {
		// Clean up partial file on error
		os.Remove(filePath)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}

	return n, nil
}

// GetPath returns the path to a stored transcript.
// Returns an error if the file does not exist.
func (fs *FileSystemStore) GetPath(analysisID string) (string, error) {
	filePath := fs.filePath(analysisID)

	if _, err := os.Stat(filePath); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("transcript not found for analysis %s", analysisID)
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}

	return filePath, nil
}

// Load reads a stored transcript back into memory.
func (fs *FileSystemStore) Load(analysisID string) (string, error) {
	filePath, err := fs.GetPath(analysisID)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read transcript %s: %w", filePath, err)
	}
	return string(data), nil
}

// Delete removes the stored transcript for an analysis.
func (fs *FileSystemStore) Delete(analysisID string) error {
	filePath := fs.filePath(analysisID)
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file %s: %w", filePath, err)
	}
	return nil
}

func (fs *FileSystemStore) filePath(analysisID string) string {
	return filepath.Join(fs.basePath, analysisID+".log")
}
