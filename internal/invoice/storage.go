package invoice

import (
	"fmt"
	"os"
	"path/filepath"
)

// Storage is the archive for original uploaded invoice PDFs.
type Storage interface {
	// Save stores a PDF and returns the name it is kept under
	Save(filename string, data []byte) (string, error)

	// Get retrieves a stored PDF by the name Save returned
	Get(path string) ([]byte, error)

	// Delete removes a stored PDF
	Delete(path string) error
}

// LocalStorage keeps invoice PDFs in a single flat directory. Names are
// reduced to their base element so a crafted upload name cannot reach
// outside the directory, and writes go through a temp file and rename so a
// crash never leaves a half-written PDF under a final name.
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates a LocalStorage rooted at basePath, creating the
// directory if needed.
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("creating storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

// Save stores a PDF and returns the flattened name it is kept under.
func (l *LocalStorage) Save(filename string, data []byte) (string, error) {
	name := filepath.Base(filename)

	tmp, err := os.CreateTemp(l.basePath, ".upload-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("writing file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(l.basePath, name)); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("storing file: %w", err)
	}
	return name, nil
}

// Get retrieves a stored PDF.
func (l *LocalStorage) Get(path string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(l.basePath, filepath.Base(path)))
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}
	return data, nil
}

// Delete removes a stored PDF.
func (l *LocalStorage) Delete(path string) error {
	if err := os.Remove(filepath.Join(l.basePath, filepath.Base(path))); err != nil {
		return fmt.Errorf("deleting file: %w", err)
	}
	return nil
}
