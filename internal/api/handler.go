package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/styleguide"
)

type contextKey string

const requestIDContextKey contextKey = "requestID"

// Configuration is the styleguide configuration served by the handlers.
type Configuration interface {
	Snapshot() *styleguide.Snapshot
	Load() error
}

// Handler exposes the styleguide configuration over HTTP.
type Handler struct {
	config Configuration
	clock  func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// NewHandler constructs a Handler serving config.
func NewHandler(config Configuration, opts ...HandlerOption) *Handler {
	h := &Handler{
		config: config,
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	_ = r
	resp := healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
		LoadedAt:  h.config.Snapshot().LoadedAt(),
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleConfiguration(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, h.config.Snapshot().Configuration())
}

func (h *Handler) handleFeatures(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, featuresResponse{Features: h.config.Snapshot().Features()})
}

func (h *Handler) handleFeature(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	writeJSON(w, http.StatusOK, featureResponse{
		Feature: name,
		Enabled: h.config.Snapshot().IsFeatureEnabled(name),
	})
}

func (h *Handler) handleComponentContext(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, componentContextResponse{ComponentContext: h.config.Snapshot().ComponentContext()})
}

func (h *Handler) handleGlobalAssets(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.config.Snapshot()
	writeJSON(w, http.StatusOK, assetsResponse{
		CSS:        snap.GlobalCSS(),
		Javascript: snap.GlobalJavascript(),
	})
}

func (h *Handler) handlePackageAssets(w http.ResponseWriter, r *http.Request) {
	namespace := r.PathValue("namespace")
	snap := h.config.Snapshot()
	writeJSON(w, http.StatusOK, assetsResponse{
		Namespace:  namespace,
		CSS:        snap.CSSForPackage(namespace),
		Javascript: snap.JavascriptForPackage(namespace),
	})
}

func (h *Handler) handleBreakpoints(w http.ResponseWriter, r *http.Request) {
	_ = r
	writeJSON(w, http.StatusOK, breakpointsResponse{Breakpoints: h.config.Snapshot().ResponsiveBreakpoints()})
}

func (h *Handler) handleFluid(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.config.Snapshot()
	writeJSON(w, http.StatusOK, fluidResponse{
		TemplateRootPaths: snap.TemplateRootPaths(),
		PartialRootPaths:  snap.PartialRootPaths(),
		LayoutRootPaths:   snap.LayoutRootPaths(),
	})
}

func (h *Handler) handleBranding(w http.ResponseWriter, r *http.Request) {
	_ = r
	snap := h.config.Snapshot()
	writeJSON(w, http.StatusOK, brandingResponse{
		Logo:             snap.BrandingLogo(),
		BodyBackground:   snap.BrandingBodyBackground(),
		HeaderBackground: snap.BrandingHeaderBackground(),
	})
}

func (h *Handler) handleDiagnostics(w http.ResponseWriter, r *http.Request) {
	_ = r
	diagnostics := h.config.Snapshot().Diagnostics()
	if diagnostics == nil {
		diagnostics = []styleguide.Diagnostic{}
	}
	writeJSON(w, http.StatusOK, diagnosticsResponse{Diagnostics: diagnostics})
}

func (h *Handler) handleReload(w http.ResponseWriter, r *http.Request) {
	_ = r
	if err := h.config.Load(); err != nil {
		writeError(w, http.StatusInternalServerError, "Reload failed", err.Error(),
			"the previous configuration is still in effect")
		return
	}

	snap := h.config.Snapshot()
	writeJSON(w, http.StatusOK, reloadResponse{
		LoadedAt:    snap.LoadedAt(),
		Sources:     snap.Sources(),
		Diagnostics: len(snap.Diagnostics()),
		Message:     "Configuration reloaded successfully",
	})
}

func requestIDFromContext(ctx context.Context) string {
	if v := ctx.Value(requestIDContextKey); v != nil {
		if id, ok := v.(string); ok {
			return id
		}
	}
	return ""
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	LoadedAt  time.Time `json:"loadedAt"`
}

type featuresResponse struct {
	Features map[string]bool `json:"features"`
}

type featureResponse struct {
	Feature string `json:"feature"`
	Enabled bool   `json:"enabled"`
}

type componentContextResponse struct {
	ComponentContext string `json:"componentContext"`
}

type assetsResponse struct {
	Namespace  string   `json:"namespace,omitempty"`
	CSS        []string `json:"css"`
	Javascript []string `json:"javascript"`
}

type breakpointsResponse struct {
	Breakpoints []styleguide.Breakpoint `json:"breakpoints"`
}

type fluidResponse struct {
	TemplateRootPaths []string `json:"templateRootPaths"`
	PartialRootPaths  []string `json:"partialRootPaths"`
	LayoutRootPaths   []string `json:"layoutRootPaths"`
}

type brandingResponse struct {
	Logo             string `json:"logo"`
	BodyBackground   string `json:"bodyBackground"`
	HeaderBackground string `json:"headerBackground"`
}

type diagnosticsResponse struct {
	Diagnostics []styleguide.Diagnostic `json:"diagnostics"`
}

type reloadResponse struct {
	LoadedAt    time.Time `json:"loadedAt"`
	Sources     []string  `json:"sources"`
	Diagnostics int       `json:"diagnostics"`
	Message     string    `json:"message"`
}

type errorResponse struct {
	Error      string `json:"error"`
	Details    string `json:"details,omitempty"`
	Suggestion string `json:"suggestion,omitempty"`
}

// writeJSON encodes payload before touching the response, so an encoding
// failure still yields a 500 with an error body.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		if _, isError := payload.(errorResponse); isError {
			http.Error(w, "Internal error", http.StatusInternalServerError)
			return
		}
		writeError(w, http.StatusInternalServerError, "Encoding failed", err.Error(),
			"configuration values must be representable in JSON (no .inf or .nan)")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, _ = w.Write(append(data, '\n'))
}

func writeError(w http.ResponseWriter, status int, message, details string, suggestion ...string) {
	resp := errorResponse{
		Error:   message,
		Details: details,
	}
	if len(suggestion) > 0 {
		resp.Suggestion = suggestion[0]
	}
	writeJSON(w, status, resp)
}
