package application

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/api"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/config"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/loader"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/registry"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/resolver"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/site"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/styleguide"
)

// App encapsulates the application dependencies and HTTP server.
type App struct {
	manager *styleguide.Manager
	handler *api.Handler
	router  http.Handler
	logger  *zap.Logger
	server  *http.Server
}

// New initializes the application with all dependencies from the provided configuration.
func New(cfg config.Config, logger *zap.Logger) (*App, error) {
	manager, err := NewManager(cfg, logger)
	if err != nil {
		return nil, err
	}

	handler := api.NewHandler(manager)
	apiRouter := api.NewRouter(handler, logger,
		api.WithLogging(cfg.EnableRequestLogging),
		api.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	staticRoot := ""
	if cfg.ServeSiteRoot {
		staticRoot = cfg.SiteRoot
	}
	rootHandler, err := BuildRootHandler(apiRouter, staticRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP handler: %w", err)
	}

	return &App{
		manager: manager,
		handler: handler,
		router:  apiRouter,
		logger:  logger,
		server:  NewServer(cfg, rootHandler),
	}, nil
}

// NewManager wires the package registry, site, resolver and loader and
// performs the initial configuration load.
func NewManager(cfg config.Config, logger *zap.Logger) (*styleguide.Manager, error) {
	packages, err := buildRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build package registry: %w", err)
	}

	s, err := site.New(cfg.SiteBaseURL, cfg.SiteRoot, cfg.DocumentRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to configure site: %w", err)
	}

	res, err := resolver.New(s.Root, packages)
	if err != nil {
		return nil, fmt.Errorf("failed to build resolver: %w", err)
	}

	opts := []styleguide.Option{styleguide.WithLogger(logger)}
	if cfg.BaseConfiguration != "" {
		opts = append(opts, styleguide.WithBaseConfiguration(cfg.BaseConfiguration))
	}

	manager, err := styleguide.New(loader.New(), packages, res, s, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load styleguide configuration: %w", err)
	}
	return manager, nil
}

// buildRegistry prefers an explicit manifest and falls back to scanning the
// packages directory. Relative locations are taken from the site root.
func buildRegistry(cfg config.Config) (*registry.Static, error) {
	if cfg.PackagesManifest != "" {
		return registry.LoadManifest(sitePath(cfg.SiteRoot, cfg.PackagesManifest), cfg.SiteRoot)
	}
	return registry.ScanDirectory(sitePath(cfg.SiteRoot, cfg.PackagesDir))
}

func sitePath(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}

// BuildRootHandler routes API requests to apiHandler. When staticRoot is set
// the remaining paths are served from it, which makes published asset URLs
// reachable during development.
func BuildRootHandler(apiHandler http.Handler, staticRoot string) (http.Handler, error) {
	mux := http.NewServeMux()
	mux.Handle("/api/", apiHandler)

	if staticRoot == "" {
		mux.Handle("/", http.NotFoundHandler())
		return mux, nil
	}

	info, err := os.Stat(staticRoot)
	if err != nil {
		return nil, fmt.Errorf("static root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("static root %s is not a directory", staticRoot)
	}
	mux.Handle("/", http.FileServer(http.Dir(staticRoot)))

	return mux, nil
}

// NewServer creates and configures an HTTP server from the provided configuration.
func NewServer(cfg config.Config, handler http.Handler) *http.Server {
	addr := cfg.Port
	if !strings.Contains(addr, ":") {
		addr = ":" + addr
	}

	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
	}
}

// Start starts the HTTP server in a goroutine and logs the listening address.
func (a *App) Start() error {
	go func() {
		a.logger.Info("server listening", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Fatal("server error", zap.Error(err))
		}
	}()
	return nil
}

// Server returns the HTTP server instance for shutdown handling.
func (a *App) Server() *http.Server {
	return a.server
}

// Manager returns the configuration manager backing the API.
func (a *App) Manager() *styleguide.Manager {
	return a.manager
}
