package styleguide

import (
	"time"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/tree"
)

// Breakpoint is a named responsive breakpoint such as {"Tablet", "800px"}.
type Breakpoint struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Snapshot is one immutable result of loading the configuration. Accessors
// never fail: missing keys yield empty values or documented defaults.
type Snapshot struct {
	configuration tree.Mapping
	logo          string
	diagnostics   []Diagnostic
	sources       []string
	loadedAt      time.Time
}

// Configuration returns the merged and post-processed configuration tree.
func (s *Snapshot) Configuration() tree.Mapping {
	return s.configuration
}

// Sources lists the merged documents, base document first.
func (s *Snapshot) Sources() []string {
	return append([]string(nil), s.sources...)
}

// Diagnostics lists the assets dropped while loading.
func (s *Snapshot) Diagnostics() []Diagnostic {
	return append([]Diagnostic(nil), s.diagnostics...)
}

// LoadedAt reports when the snapshot was built.
func (s *Snapshot) LoadedAt() time.Time {
	return s.loadedAt
}

// Features maps every configured feature flag to its truthiness.
func (s *Snapshot) Features() map[string]bool {
	features := s.configuration.LookupMapping("Features")
	out := make(map[string]bool, features.Len())
	for _, name := range features.Keys() {
		v, _ := features.Get(name)
		out[name] = v.Truthy()
	}
	return out
}

// IsFeatureEnabled reports whether feature is configured with a truthy value.
func (s *Snapshot) IsFeatureEnabled(feature string) bool {
	v, ok := s.configuration.Lookup("Features", feature)
	return ok && v.Truthy()
}

// ComponentContext returns the wrapper markup, "|" when unset.
func (s *Snapshot) ComponentContext() string {
	v, ok := s.configuration.Get("ComponentContext")
	if !ok || v.IsNull() {
		return DefaultComponentContext
	}
	return v.String()
}

// GlobalCSS returns the sanitized global stylesheet URLs.
func (s *Snapshot) GlobalCSS() []string {
	return s.strings("ComponentAssets", "Global", "Css")
}

// GlobalJavascript returns the sanitized global script URLs.
func (s *Snapshot) GlobalJavascript() []string {
	return s.strings("ComponentAssets", "Global", "Javascript")
}

// CSSForPackage returns the sanitized stylesheet URLs of namespace.
func (s *Snapshot) CSSForPackage(namespace string) []string {
	return s.strings("ComponentAssets", "Packages", namespace, "Css")
}

// JavascriptForPackage returns the sanitized script URLs of namespace.
func (s *Snapshot) JavascriptForPackage(namespace string) []string {
	return s.strings("ComponentAssets", "Packages", namespace, "Javascript")
}

// PackageNamespaces lists the namespaces with package specific assets.
func (s *Snapshot) PackageNamespaces() []string {
	return s.configuration.LookupMapping("ComponentAssets", "Packages").Keys()
}

// ResponsiveBreakpoints returns the non-empty breakpoints in document order.
func (s *Snapshot) ResponsiveBreakpoints() []Breakpoint {
	breakpoints := s.configuration.LookupMapping("ResponsiveBreakpoints")
	out := make([]Breakpoint, 0, breakpoints.Len())
	for _, name := range breakpoints.Keys() {
		v, _ := breakpoints.Get(name)
		out = append(out, Breakpoint{Name: name, Value: v.String()})
	}
	return out
}

// TemplateRootPaths returns the Fluid template root paths.
func (s *Snapshot) TemplateRootPaths() []string {
	return s.strings("Fluid", "TemplateRootPaths")
}

// PartialRootPaths returns the Fluid partial root paths.
func (s *Snapshot) PartialRootPaths() []string {
	return s.strings("Fluid", "PartialRootPaths")
}

// LayoutRootPaths returns the Fluid layout root paths.
func (s *Snapshot) LayoutRootPaths() []string {
	return s.strings("Fluid", "LayoutRootPaths")
}

// BrandingLogo returns the logo path relative to the document root, with a
// leading slash, or "" when no logo is configured.
func (s *Snapshot) BrandingLogo() string {
	return s.logo
}

// BrandingBodyBackground returns the configured body background.
func (s *Snapshot) BrandingBodyBackground() string {
	return s.string("Branding", "BodyBackground")
}

// BrandingHeaderBackground returns the configured header background.
func (s *Snapshot) BrandingHeaderBackground() string {
	return s.string("Branding", "HeaderBackground")
}

func (s *Snapshot) strings(path ...string) []string {
	v, ok := s.configuration.Lookup(path...)
	if !ok {
		return []string{}
	}
	return v.Strings()
}

func (s *Snapshot) string(path ...string) string {
	v, _ := s.configuration.Lookup(path...)
	return v.String()
}
