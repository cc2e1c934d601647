package application

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/config"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/styleguide"
)

const baseDocument = `
FluidStyleguide:
  Features:
    ZoomSlider: true
  ComponentAssets:
    Global:
      Css: EXT:fluid_styleguide/Resources/Public/Css/Styleguide.css
  ResponsiveBreakpoints:
    Mobile: 400px
`

const siteDocument = `
FluidStyleguide:
  Features:
    ZoomSlider: false
`

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create directory: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", rel, err)
	}
}

func newSiteRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, root, "packages/fluid_styleguide/"+styleguide.ConfigurationFile, baseDocument)
	writeFile(t, root, "packages/fluid_styleguide/Resources/Public/Css/Styleguide.css", "body{}")
	writeFile(t, root, "packages/site/"+styleguide.ConfigurationFile, siteDocument)
	return root
}

func TestNewInitializesDependencies(t *testing.T) {
	cfg := baseTestConfig(t, ":8085")
	logger := zaptest.NewLogger(t)

	app, err := New(cfg, logger)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if app.server == nil || app.router == nil || app.handler == nil || app.manager == nil {
		t.Fatalf("expected server, router, handler, and manager to be initialized")
	}
	if app.Server() != app.server {
		t.Fatalf("Server accessor did not return underlying instance")
	}
	if app.Manager() != app.manager {
		t.Fatalf("Manager accessor did not return underlying instance")
	}
	if app.Manager().IsFeatureEnabled("ZoomSlider") {
		t.Fatalf("expected site package to disable ZoomSlider")
	}
	want := []string{"http://localhost:8080/packages/fluid_styleguide/Resources/Public/Css/Styleguide.css"}
	if got := app.Manager().GlobalCSS(); !slices.Equal(got, want) {
		t.Fatalf("expected global css %v, got %v", want, got)
	}
}

func TestNewManagerUsesManifest(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	writeFile(t, cfg.SiteRoot, "packages.yaml", `
packages:
  - key: fluid_styleguide
    path: packages/fluid_styleguide
`)
	cfg.PackagesManifest = "packages.yaml"

	manager, err := NewManager(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	if !manager.IsFeatureEnabled("ZoomSlider") {
		t.Fatalf("expected site package to be ignored when absent from the manifest")
	}
}

func TestNewManagerBaseConfigurationOverride(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	writeFile(t, cfg.SiteRoot, "config/base.yaml", "FluidStyleguide:\n  ComponentContext: '<main>|</main>'\n")
	cfg.BaseConfiguration = "config/base.yaml"

	manager, err := NewManager(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewManager returned error: %v", err)
	}
	if got := manager.ComponentContext(); got != "<main>|</main>" {
		t.Fatalf("expected overridden base configuration, got %q", got)
	}
}

func TestNewReturnsErrorForMissingPackagesDirectory(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	cfg.PackagesDir = "does-not-exist"

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing packages directory")
	}
}

func TestNewReturnsErrorForMissingBaseConfiguration(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	if err := os.Remove(filepath.Join(cfg.SiteRoot, "packages", "fluid_styleguide", filepath.FromSlash(styleguide.ConfigurationFile))); err != nil {
		t.Fatalf("remove base configuration: %v", err)
	}

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for missing base configuration")
	}
}

func TestNewReturnsErrorForInvalidBaseURL(t *testing.T) {
	cfg := baseTestConfig(t, ":0")
	cfg.SiteBaseURL = "ftp://example.com/"

	if _, err := New(cfg, zaptest.NewLogger(t)); err == nil {
		t.Fatalf("expected error for invalid base url")
	}
}

func TestNewServerAppliesConfig(t *testing.T) {
	cfg := baseTestConfig(t, "9090")
	handler := http.NewServeMux()

	server := NewServer(cfg, handler)
	if server.Addr != ":9090" {
		t.Fatalf("expected address :9090, got %s", server.Addr)
	}
	if server.Handler != handler {
		t.Fatalf("expected handler to be applied")
	}
	if server.ReadHeaderTimeout != cfg.ReadHeaderTimeout ||
		server.WriteTimeout != cfg.WriteTimeout ||
		server.IdleTimeout != cfg.IdleTimeout {
		t.Fatalf("server timeouts do not match configuration")
	}
}

func TestBuildRootHandlerServesSiteRoot(t *testing.T) {
	root := newSiteRoot(t)
	api := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	handler, err := BuildRootHandler(api, root)
	if err != nil {
		t.Fatalf("BuildRootHandler returned error: %v", err)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/packages/fluid_styleguide/Resources/Public/Css/Styleguide.css", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "body{}" {
		t.Fatalf("expected static asset, got %d %q", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusTeapot {
		t.Fatalf("expected api handler to receive /api traffic, got %d", rec.Code)
	}
}

func TestBuildRootHandlerRejectsMissingStaticRoot(t *testing.T) {
	api := http.NotFoundHandler()
	if _, err := BuildRootHandler(api, filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing static root")
	}
}

func baseTestConfig(t *testing.T, port string) config.Config {
	t.Helper()
	return config.Config{
		Port:                 port,
		ShutdownGracePeriod:  50 * time.Millisecond,
		ReadHeaderTimeout:    20 * time.Millisecond,
		WriteTimeout:         30 * time.Millisecond,
		IdleTimeout:          40 * time.Millisecond,
		EnableRequestLogging: false,
		RateLimitRPS:         0,
		RateLimitBurst:       0,
		SiteBaseURL:          "http://localhost:8080/",
		SiteRoot:             newSiteRoot(t),
		PackagesDir:          "packages",
	}
}
