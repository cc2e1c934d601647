package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/application"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/config"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/styleguide"
)

const baseDocument = `
FluidStyleguide:
  Features:
    ZoomSlider: true
    CodeQualityCheck: true
  ComponentContext: '|'
  ComponentAssets:
    Global:
      Css: EXT:fluid_styleguide/Resources/Public/Css/Styleguide.css
      Javascript: []
  ResponsiveBreakpoints:
    Mobile: 400px
    Tablet: 800px
  Fluid:
    TemplateRootPaths:
      - EXT:fluid_styleguide/Resources/Private/Templates
`

const sitePackageDocument = `
FluidStyleguide:
  Features:
    CodeQualityCheck: false
  ComponentAssets:
    Packages:
      Vendor\Site:
        Css:
          - EXT:site/Resources/Public/Css/Components.css
          - https://cdn.example/fonts.css
          - EXT:site/Resources/Public/Css/Missing.css
  ResponsiveBreakpoints:
    Tablet: ~
  Fluid:
    TemplateRootPaths:
      - EXT:site/Resources/Private/Templates
`

type fixture struct {
	root   string
	server *httptest.Server
}

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

func newFixture(t *testing.T) *fixture {
	t.Helper()

	root := t.TempDir()
	writeFile(t, root, "packages/fluid_styleguide/"+styleguide.ConfigurationFile, baseDocument)
	writeFile(t, root, "packages/fluid_styleguide/Resources/Public/Css/Styleguide.css", "")
	writeFile(t, root, "packages/site/"+styleguide.ConfigurationFile, sitePackageDocument)
	writeFile(t, root, "packages/site/Resources/Public/Css/Components.css", ".c{}")

	cfg := config.Config{
		Port:                 "0",
		EnableRequestLogging: true,
		SiteBaseURL:          "https://styleguide.example/",
		SiteRoot:             root,
		PackagesDir:          "packages",
		ServeSiteRoot:        true,
	}
	app, err := application.New(cfg, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("application.New returned error: %v", err)
	}

	server := httptest.NewServer(app.Server().Handler)
	t.Cleanup(server.Close)
	return &fixture{root: root, server: server}
}

func (f *fixture) do(t *testing.T, method, target string, out any) int {
	t.Helper()

	req, err := http.NewRequest(method, f.server.URL+target, bytes.NewReader(nil))
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	resp, err := f.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, target, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode response: %v", method, target, err)
		}
	}
	return resp.StatusCode
}

func TestIntegrationFlow(t *testing.T) {
	f := newFixture(t)

	if code := f.do(t, http.MethodGet, "/api/health", nil); code != http.StatusOK {
		t.Fatalf("expected 200 from health, got %d", code)
	}

	var features struct {
		Features map[string]bool `json:"features"`
	}
	f.do(t, http.MethodGet, "/api/features", &features)
	if !features.Features["ZoomSlider"] || features.Features["CodeQualityCheck"] {
		t.Fatalf("unexpected features %v", features.Features)
	}

	var assets struct {
		CSS []string `json:"css"`
	}
	f.do(t, http.MethodGet, "/api/assets/Vendor%5CSite", &assets)
	wantCSS := []string{
		"https://styleguide.example/packages/site/Resources/Public/Css/Components.css",
		"https://cdn.example/fonts.css",
	}
	if !slices.Equal(assets.CSS, wantCSS) {
		t.Fatalf("expected package css %v, got %v", wantCSS, assets.CSS)
	}

	var breakpoints struct {
		Breakpoints []styleguide.Breakpoint `json:"breakpoints"`
	}
	f.do(t, http.MethodGet, "/api/breakpoints", &breakpoints)
	if len(breakpoints.Breakpoints) != 1 || breakpoints.Breakpoints[0].Name != "Mobile" {
		t.Fatalf("expected only the Mobile breakpoint, got %v", breakpoints.Breakpoints)
	}

	var fluid struct {
		TemplateRootPaths []string `json:"templateRootPaths"`
	}
	f.do(t, http.MethodGet, "/api/fluid", &fluid)
	if want := []string{"EXT:site/Resources/Private/Templates"}; !slices.Equal(fluid.TemplateRootPaths, want) {
		t.Fatalf("expected template paths to be replaced, got %v", fluid.TemplateRootPaths)
	}

	var diagnostics struct {
		Diagnostics []styleguide.Diagnostic `json:"diagnostics"`
	}
	f.do(t, http.MethodGet, "/api/diagnostics", &diagnostics)
	if len(diagnostics.Diagnostics) != 1 || diagnostics.Diagnostics[0].Asset != "EXT:site/Resources/Public/Css/Missing.css" {
		t.Fatalf("expected one diagnostic for the missing stylesheet, got %v", diagnostics.Diagnostics)
	}

	if code := f.do(t, http.MethodGet, "/packages/site/Resources/Public/Css/Components.css", nil); code != http.StatusOK {
		t.Fatalf("expected published asset to be served, got %d", code)
	}
}

func TestIntegrationReloadPicksUpChanges(t *testing.T) {
	f := newFixture(t)

	writeFile(t, f.root, "packages/site/"+styleguide.ConfigurationFile, "FluidStyleguide:\n  ComponentContext: '<div class=\"site\">|</div>'\n")

	if code := f.do(t, http.MethodPost, "/api/reload", nil); code != http.StatusOK {
		t.Fatalf("expected 200 from reload, got %d", code)
	}

	var ctx struct {
		ComponentContext string `json:"componentContext"`
	}
	f.do(t, http.MethodGet, "/api/component-context", &ctx)
	if ctx.ComponentContext != `<div class="site">|</div>` {
		t.Fatalf("expected reloaded component context, got %q", ctx.ComponentContext)
	}

	writeFile(t, f.root, "packages/site/"+styleguide.ConfigurationFile, "FluidStyleguide: [broken")
	if code := f.do(t, http.MethodPost, "/api/reload", nil); code != http.StatusInternalServerError {
		t.Fatalf("expected 500 from failing reload, got %d", code)
	}

	f.do(t, http.MethodGet, "/api/component-context", &ctx)
	if ctx.ComponentContext != `<div class="site">|</div>` {
		t.Fatalf("expected previous configuration to stay in effect, got %q", ctx.ComponentContext)
	}
}
