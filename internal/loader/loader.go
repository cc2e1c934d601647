// Package loader reads configuration documents from disk.
package loader

import (
	"fmt"
	"os"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/tree"
)

// FileLoader loads YAML documents from the local filesystem.
type FileLoader struct{}

// New returns a FileLoader.
func New() *FileLoader {
	return &FileLoader{}
}

// Load reads and parses the YAML document at path.
func (l *FileLoader) Load(path string) (tree.Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return tree.Mapping{}, fmt.Errorf("read file: %w", err)
	}

	doc, err := tree.Parse(data)
	if err != nil {
		return tree.Mapping{}, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// Exists reports whether path names an existing regular file.
func (l *FileLoader) Exists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
