// Package registry enumerates the packages installed on a site. Packages are
// reported in a stable order; configuration overrides are applied in that
// order.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	// ErrDuplicatePackage indicates two packages share the same key.
	ErrDuplicatePackage = errors.New("duplicate package key")
	// ErrInvalidPackage indicates a package entry without key or path.
	ErrInvalidPackage = errors.New("package requires a key and a path")
)

// Package describes one installed package.
type Package struct {
	// Key is the unique package key, e.g. "fluid_styleguide".
	Key string
	// Namespace keys the per-package component assets.
	Namespace string
	// Path is the absolute root directory of the package.
	Path string
}

// Registry exposes the active packages of a site.
type Registry interface {
	ActivePackages() ([]Package, error)
	Package(key string) (Package, bool)
}

// Static is an in-memory registry with a fixed package order.
type Static struct {
	packages []Package
	byKey    map[string]int
}

// NewStatic validates packages and returns a registry preserving their order.
func NewStatic(packages ...Package) (*Static, error) {
	s := &Static{
		packages: make([]Package, 0, len(packages)),
		byKey:    make(map[string]int, len(packages)),
	}
	for _, pkg := range packages {
		if strings.TrimSpace(pkg.Key) == "" || strings.TrimSpace(pkg.Path) == "" {
			return nil, fmt.Errorf("%w: %+v", ErrInvalidPackage, pkg)
		}
		if _, exists := s.byKey[pkg.Key]; exists {
			return nil, fmt.Errorf("%w: %s", ErrDuplicatePackage, pkg.Key)
		}
		if pkg.Namespace == "" {
			pkg.Namespace = pkg.Key
		}
		s.byKey[pkg.Key] = len(s.packages)
		s.packages = append(s.packages, pkg)
	}
	return s, nil
}

// ActivePackages returns a copy of the registered packages in order.
func (s *Static) ActivePackages() ([]Package, error) {
	out := make([]Package, len(s.packages))
	copy(out, s.packages)
	return out, nil
}

// Package looks up a package by key.
func (s *Static) Package(key string) (Package, bool) {
	idx, ok := s.byKey[key]
	if !ok {
		return Package{}, false
	}
	return s.packages[idx], true
}

type manifest struct {
	Packages []manifestPackage `yaml:"packages"`
}

type manifestPackage struct {
	Key       string `yaml:"key"`
	Namespace string `yaml:"namespace"`
	Path      string `yaml:"path"`
}

// LoadManifest reads a YAML package manifest. Relative package paths are
// resolved against root.
func LoadManifest(path, root string) (*Static, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}

	packages := make([]Package, 0, len(m.Packages))
	for _, entry := range m.Packages {
		pkgPath := strings.TrimSpace(entry.Path)
		if pkgPath != "" && !filepath.IsAbs(pkgPath) {
			pkgPath = filepath.Join(root, pkgPath)
		}
		if pkgPath != "" {
			if pkgPath, err = filepath.Abs(pkgPath); err != nil {
				return nil, fmt.Errorf("resolve package path %q: %w", entry.Path, err)
			}
		}
		packages = append(packages, Package{
			Key:       strings.TrimSpace(entry.Key),
			Namespace: strings.TrimSpace(entry.Namespace),
			Path:      pkgPath,
		})
	}

	return NewStatic(packages...)
}

// ScanDirectory registers every sub-directory of dir as a package keyed by
// its directory name, in lexical order.
func ScanDirectory(dir string) (*Static, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve packages directory: %w", err)
	}

	entries, err := os.ReadDir(abs)
	if err != nil {
		return nil, fmt.Errorf("read packages directory: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() && !strings.HasPrefix(entry.Name(), ".") {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	packages := make([]Package, 0, len(names))
	for _, name := range names {
		packages = append(packages, Package{Key: name, Path: filepath.Join(abs, name)})
	}
	return NewStatic(packages...)
}
