// Package site describes the public site a styleguide is rendered for: its
// base URL and the filesystem roots local assets are published from.
package site

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// ErrInvalidBaseURL indicates a base URL that is not an absolute http(s) URL.
var ErrInvalidBaseURL = errors.New("site base URL must be an absolute http or https URL")

// Site holds the request-independent parts of the current site.
type Site struct {
	// Base is the public base URL, e.g. https://example.com/styleguide/.
	Base *url.URL
	// Root is the public filesystem path local assets are made relative to.
	Root string
	// DocumentRoot is stripped from the branding logo path.
	DocumentRoot string
}

// New validates the inputs and returns a Site. An empty documentRoot defaults
// to root.
func New(baseURL, root, documentRoot string) (Site, error) {
	base, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return Site{}, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	scheme := strings.ToLower(base.Scheme)
	if (scheme != "http" && scheme != "https") || base.Host == "" {
		return Site{}, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}
	base.RawQuery = ""
	base.Fragment = ""

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return Site{}, fmt.Errorf("resolve site root: %w", err)
	}

	absDocRoot := absRoot
	if strings.TrimSpace(documentRoot) != "" {
		if absDocRoot, err = filepath.Abs(documentRoot); err != nil {
			return Site{}, fmt.Errorf("resolve document root: %w", err)
		}
	}

	return Site{Base: base, Root: absRoot, DocumentRoot: absDocRoot}, nil
}

// URLFor appends a site-relative, slash-separated path to the base path.
// Query and fragment of the base are dropped.
func (s Site) URLFor(relative string) *url.URL {
	u := *s.Base
	u.RawQuery = ""
	u.Fragment = ""
	u.RawPath = ""

	basePath := strings.TrimSuffix(u.Path, "/")
	u.Path = basePath + "/" + strings.TrimPrefix(relative, "/")
	return &u
}
