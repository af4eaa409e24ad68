package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// FileSystem owns the directory exports are written to.
// Files live flat at {baseDir}/{name}.
type FileSystem struct {
	baseDir string
}

// NewFileSystem creates a new FileSystem storage, ensuring the base directory exists.
func NewFileSystem(baseDir string) (*FileSystem, error) {
	if err := os.MkdirAll(baseDir, 0755); err != nil {
		return nil, fmt.Errorf("creating export directory: %w", err)
	}
	return &FileSystem{baseDir: baseDir}, nil
}

// Path returns where a file called name is stored. Directory components in
// name are dropped so callers can't escape baseDir.
func (fs *FileSystem) Path(name string) string {
	return filepath.Join(fs.baseDir, filepath.Base(name))
}

// Create opens name for writing, truncating any previous export.
func (fs *FileSystem) Create(name string) (*os.File, error) {
	f, err := os.Create(fs.Path(name))
	if err != nil {
		return nil, fmt.Errorf("creating export file: %w", err)
	}
	return f, nil
}

func (fs *FileSystem) Read(name string) ([]byte, error) {
	data, err := os.ReadFile(fs.Path(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("export file not found: %s", name)
		}
		return nil, fmt.Errorf("reading export file: %w", err)
	}
	return data, nil
}

func (fs *FileSystem) Exists(name string) bool {
	_, err := os.Stat(fs.Path(name))
	return err == nil
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug turns free text such as a market topic or URL into a file name stem:
// "Conversational AI (EU)" becomes "conversational-ai-eu".
func Slug(s string) string {
	slug := strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if slug == "" {
		return "export"
	}
	return slug
}
