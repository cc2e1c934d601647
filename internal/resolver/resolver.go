// Package resolver turns asset and template identifiers into filesystem
// paths. Identifiers are either package references ("EXT:<key>/<path>"),
// absolute paths inside the site root, or paths relative to the site root.
package resolver

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/registry"
)

const packagePrefix = "EXT:"

var (
	// ErrUnresolvable indicates an identifier that cannot map to a path.
	ErrUnresolvable = errors.New("identifier cannot be resolved")
	// ErrNotFound indicates a resolvable identifier whose file does not exist.
	ErrNotFound = errors.New("file does not exist")
)

// PackageLookup finds installed packages by key.
type PackageLookup interface {
	Package(key string) (registry.Package, bool)
}

// Resolver resolves identifiers against a site root and package registry.
type Resolver struct {
	root     string
	packages PackageLookup
}

// New creates a Resolver rooted at root.
func New(root string, packages PackageLookup) (*Resolver, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve site root: %w", err)
	}
	return &Resolver{root: abs, packages: packages}, nil
}

// Root returns the absolute site root.
func (r *Resolver) Root() string {
	return r.root
}

// Absolute maps identifier to an absolute path without touching the
// filesystem.
func (r *Resolver) Absolute(identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", fmt.Errorf("%w: empty identifier", ErrUnresolvable)
	}

	if strings.HasPrefix(identifier, packagePrefix) {
		return r.packagePath(identifier)
	}

	if filepath.IsAbs(identifier) {
		path := filepath.Clean(identifier)
		if !within(r.root, path) {
			return "", fmt.Errorf("%w: %s is outside the site root", ErrUnresolvable, identifier)
		}
		return path, nil
	}

	path := filepath.Join(r.root, filepath.FromSlash(identifier))
	if !within(r.root, path) {
		return "", fmt.Errorf("%w: %s escapes the site root", ErrUnresolvable, identifier)
	}
	return path, nil
}

// Resolve maps identifier to the absolute path of an existing file.
func (r *Resolver) Resolve(identifier string) (string, error) {
	path, err := r.Absolute(identifier)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrNotFound, identifier)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", ErrNotFound, identifier)
	}
	return path, nil
}

// Relative returns abs as a slash-separated path relative to the site root.
// The root itself yields "".
func (r *Resolver) Relative(abs string) (string, error) {
	return relativeTo(r.root, abs)
}

// StripPrefix returns path relative to prefix, slash separated and with a
// leading slash.
func StripPrefix(prefix, path string) (string, error) {
	rel, err := relativeTo(prefix, path)
	if err != nil {
		return "", err
	}
	return "/" + rel, nil
}

func (r *Resolver) packagePath(identifier string) (string, error) {
	rest := strings.TrimPrefix(identifier, packagePrefix)
	key, relative, _ := strings.Cut(rest, "/")
	if key == "" || r.packages == nil {
		return "", fmt.Errorf("%w: %s", ErrUnresolvable, identifier)
	}

	pkg, ok := r.packages.Package(key)
	if !ok {
		return "", fmt.Errorf("%w: package %q is not installed", ErrUnresolvable, key)
	}

	path := filepath.Join(pkg.Path, filepath.FromSlash(relative))
	if !within(pkg.Path, path) {
		return "", fmt.Errorf("%w: %s escapes package %q", ErrUnresolvable, identifier, key)
	}
	return path, nil
}

func relativeTo(base, path string) (string, error) {
	if !within(base, path) {
		return "", fmt.Errorf("%w: %s is outside %s", ErrUnresolvable, path, base)
	}
	rel, err := filepath.Rel(base, path)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnresolvable, err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

func within(base, path string) bool {
	rel, err := filepath.Rel(filepath.Clean(base), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
