package styleguide

import (
	"fmt"
	"path"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/registry"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/site"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/tree"
)

const (
	// BasePackageKey is the package shipping the default configuration.
	BasePackageKey = "fluid_styleguide"
	// ConfigurationFile is the package-relative location of a configuration document.
	ConfigurationFile = "Configuration/Yaml/FluidStyleguide.yaml"
	// RootKey wraps all settings inside a configuration document.
	RootKey = "FluidStyleguide"
	// DefaultComponentContext means "no context restriction".
	DefaultComponentContext = "|"
)

// Loader reads configuration documents.
type Loader interface {
	Load(path string) (tree.Mapping, error)
	Exists(path string) bool
}

// PackageSource lists the active packages in override order.
type PackageSource interface {
	ActivePackages() ([]registry.Package, error)
}

// Resolver maps identifiers to filesystem paths.
type Resolver interface {
	// Absolute maps an identifier to a path without checking existence.
	Absolute(identifier string) (string, error)
	// Resolve maps an identifier to the path of an existing file.
	Resolve(identifier string) (string, error)
	// Relative makes an absolute path relative to the site root.
	Relative(abs string) (string, error)
}

// Manager loads, merges and serves the styleguide configuration.
type Manager struct {
	loader   Loader
	packages PackageSource
	resolver Resolver
	site     site.Site

	baseConfiguration string
	logger            *zap.Logger
	clock             func() time.Time

	reloadMu sync.Mutex
	current  atomic.Pointer[Snapshot]
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for load events and dropped assets.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(m *Manager) {
		m.clock = clock
	}
}

// WithBaseConfiguration overrides the identifier of the default document.
// The given document replaces the one shipped by the fluid_styleguide
// package, which is then not applied at all. A package whose own document is
// the base is skipped during the package walk.
func WithBaseConfiguration(identifier string) Option {
	return func(m *Manager) {
		m.baseConfiguration = identifier
	}
}

// New constructs a Manager and performs the initial load. It fails when the
// base configuration cannot be loaded.
func New(loader Loader, packages PackageSource, resolver Resolver, s site.Site, opts ...Option) (*Manager, error) {
	m := &Manager{
		loader:            loader,
		packages:          packages,
		resolver:          resolver,
		site:              s,
		baseConfiguration: "EXT:" + path.Join(BasePackageKey, ConfigurationFile),
		logger:            zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load rebuilds the configuration from all sources and swaps it in. On
// failure the previous snapshot stays visible.
func (m *Manager) Load() error {
	m.reloadMu.Lock()
	defer m.reloadMu.Unlock()

	snap, err := m.build()
	if err != nil {
		return err
	}
	m.current.Store(snap)

	m.logger.Info("styleguide configuration loaded",
		zap.Strings("sources", snap.sources),
		zap.Int("diagnostics", len(snap.diagnostics)),
	)
	return nil
}

// Snapshot returns the configuration currently in effect.
func (m *Manager) Snapshot() *Snapshot {
	return m.current.Load()
}

func (m *Manager) build() (*Snapshot, error) {
	basePath, err := m.resolver.Absolute(m.baseConfiguration)
	if err != nil {
		return nil, fmt.Errorf("resolve base configuration: %w", err)
	}

	doc, err := m.loader.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("load base configuration: %w", err)
	}

	rootValue, _ := doc.Get(RootKey)
	merged, ok := rootValue.Mapping()
	if !ok {
		return nil, fmt.Errorf("%w: %s has no %q section", ErrMissingConfiguration, basePath, RootKey)
	}
	sources := []string{basePath}

	packages, err := m.packages.ActivePackages()
	if err != nil {
		return nil, fmt.Errorf("list active packages: %w", err)
	}

	overrides := make([]tree.Mapping, 0, len(packages))
	for _, pkg := range packages {
		overridePath := filepath.Join(pkg.Path, filepath.FromSlash(ConfigurationFile))
		if pkg.Key == BasePackageKey || filepath.Clean(overridePath) == filepath.Clean(basePath) {
			continue
		}
		if !m.loader.Exists(overridePath) {
			continue
		}

		override, err := m.loader.Load(overridePath)
		if err != nil {
			return nil, fmt.Errorf("load configuration of package %q: %w", pkg.Key, err)
		}

		overrides = append(overrides, override.LookupMapping(RootKey))
		sources = append(sources, overridePath)
		m.logger.Debug("applying package configuration",
			zap.String("package", pkg.Key),
			zap.String("path", overridePath),
		)
	}
	merged = tree.MergeAll(merged, overrides...)

	post := &postProcessor{resolver: m.resolver, site: m.site, logger: m.logger}
	merged = post.sanitizeAssets(merged)
	merged = filterBreakpoints(merged)
	logo := post.brandingLogo(merged)

	return &Snapshot{
		configuration: merged,
		logo:          logo,
		diagnostics:   post.diagnostics,
		sources:       sources,
		loadedAt:      m.clock(),
	}, nil
}

// Configuration returns the merged and post-processed configuration tree.
func (m *Manager) Configuration() tree.Mapping { return m.Snapshot().Configuration() }

// Features returns every configured feature flag with its effective state.
func (m *Manager) Features() map[string]bool { return m.Snapshot().Features() }

// IsFeatureEnabled reports whether feature is configured with a truthy value.
func (m *Manager) IsFeatureEnabled(feature string) bool {
	return m.Snapshot().IsFeatureEnabled(feature)
}

// ComponentContext returns the configured component context.
func (m *Manager) ComponentContext() string { return m.Snapshot().ComponentContext() }

// GlobalCSS returns the sanitized global stylesheet URLs.
func (m *Manager) GlobalCSS() []string { return m.Snapshot().GlobalCSS() }

// GlobalJavascript returns the sanitized global script URLs.
func (m *Manager) GlobalJavascript() []string { return m.Snapshot().GlobalJavascript() }

// CSSForPackage returns the sanitized stylesheet URLs of a package namespace.
func (m *Manager) CSSForPackage(namespace string) []string {
	return m.Snapshot().CSSForPackage(namespace)
}

// JavascriptForPackage returns the sanitized script URLs of a package namespace.
func (m *Manager) JavascriptForPackage(namespace string) []string {
	return m.Snapshot().JavascriptForPackage(namespace)
}

// ResponsiveBreakpoints returns the non-empty breakpoints in document order.
func (m *Manager) ResponsiveBreakpoints() []Breakpoint {
	return m.Snapshot().ResponsiveBreakpoints()
}

// TemplateRootPaths returns the Fluid template root paths.
func (m *Manager) TemplateRootPaths() []string { return m.Snapshot().TemplateRootPaths() }

// PartialRootPaths returns the Fluid partial root paths.
func (m *Manager) PartialRootPaths() []string { return m.Snapshot().PartialRootPaths() }

// LayoutRootPaths returns the Fluid layout root paths.
func (m *Manager) LayoutRootPaths() []string { return m.Snapshot().LayoutRootPaths() }

// BrandingLogo returns the document-root relative logo path.
func (m *Manager) BrandingLogo() string { return m.Snapshot().BrandingLogo() }

// BrandingBodyBackground returns the configured body background.
func (m *Manager) BrandingBodyBackground() string {
	return m.Snapshot().BrandingBodyBackground()
}

// BrandingHeaderBackground returns the configured header background.
func (m *Manager) BrandingHeaderBackground() string {
	return m.Snapshot().BrandingHeaderBackground()
}
