package styleguide

import (
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/resolver"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/site"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/tree"
)

// Diagnostic records a configured asset that was dropped during loading.
type Diagnostic struct {
	Section string `json:"section"`
	Asset   string `json:"asset"`
	Reason  string `json:"reason"`
}

var assetKinds = []string{"Css", "Javascript"}

type postProcessor struct {
	resolver    Resolver
	site        site.Site
	logger      *zap.Logger
	diagnostics []Diagnostic
}

// sanitizeAssets rewrites the global and per-package asset lists. Missing
// global lists become empty lists.
func (p *postProcessor) sanitizeAssets(cfg tree.Mapping) tree.Mapping {
	for _, kind := range assetKinds {
		v, _ := cfg.Lookup("ComponentAssets", "Global", kind)
		cfg = cfg.WithPath(
			tree.StringList(p.sanitize("ComponentAssets.Global."+kind, v)...),
			"ComponentAssets", "Global", kind,
		)
	}

	if _, ok := cfg.Lookup("ComponentAssets", "Packages"); !ok {
		return cfg
	}

	packages := cfg.LookupMapping("ComponentAssets", "Packages")
	sanitized := tree.NewMapping()
	for _, namespace := range packages.Keys() {
		v, _ := packages.Get(namespace)
		assets, _ := v.Mapping()
		for _, kind := range assetKinds {
			list, _ := assets.Get(kind)
			section := "ComponentAssets.Packages." + namespace + "." + kind
			assets = assets.With(kind, tree.StringList(p.sanitize(section, list)...))
		}
		sanitized = sanitized.With(namespace, tree.Map(assets))
	}
	return cfg.WithPath(tree.Map(sanitized), "ComponentAssets", "Packages")
}

// sanitize turns one asset list into URLs. A single string counts as a
// one-element list, keyed lists contribute their values in order and any
// other type yields an empty list. Remote URLs pass through untouched; local
// entries that cannot be resolved to an existing file are dropped.
func (p *postProcessor) sanitize(section string, v tree.Value) []string {
	var entries []tree.Value
	switch v.Kind() {
	case tree.KindScalar:
		if raw, _ := v.Scalar(); isString(raw) {
			entries = []tree.Value{v}
		}
	case tree.KindList:
		entries, _ = v.List()
	case tree.KindMapping:
		m, _ := v.Mapping()
		entries = m.Values()
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		raw, _ := entry.Scalar()
		asset, ok := raw.(string)
		if !ok {
			p.drop(section, entry.String(), "asset entry is not a string")
			continue
		}

		if isRemoteURI(asset) {
			out = append(out, asset)
			continue
		}

		local, err := p.localURL(asset)
		if err != nil {
			p.drop(section, asset, err.Error())
			continue
		}
		out = append(out, local)
	}
	return out
}

func (p *postProcessor) localURL(asset string) (string, error) {
	abs, err := p.resolver.Resolve(asset)
	if err != nil {
		return "", err
	}
	rel, err := p.resolver.Relative(abs)
	if err != nil {
		return "", err
	}
	return p.site.URLFor(rel).String(), nil
}

func (p *postProcessor) brandingLogo(cfg tree.Mapping) string {
	v, ok := cfg.Lookup("Branding", "Logo")
	if !ok || !v.Truthy() {
		return ""
	}

	abs, err := p.resolver.Absolute(v.String())
	if err != nil {
		p.drop("Branding.Logo", v.String(), err.Error())
		return ""
	}
	logo, err := resolver.StripPrefix(p.site.DocumentRoot, abs)
	if err != nil {
		p.drop("Branding.Logo", v.String(), err.Error())
		return ""
	}
	return logo
}

func (p *postProcessor) drop(section, asset, reason string) {
	p.diagnostics = append(p.diagnostics, Diagnostic{Section: section, Asset: asset, Reason: reason})
	p.logger.Warn("dropped styleguide asset",
		zap.String("section", section),
		zap.String("asset", asset),
		zap.String("reason", reason),
	)
}

// filterBreakpoints keeps only breakpoints with a truthy value.
func filterBreakpoints(cfg tree.Mapping) tree.Mapping {
	v, ok := cfg.Get("ResponsiveBreakpoints")
	if !ok {
		return cfg
	}
	breakpoints, _ := v.Mapping()
	return cfg.With("ResponsiveBreakpoints", tree.Map(breakpoints.Filter(func(_ string, v tree.Value) bool {
		return v.Truthy()
	})))
}

// isRemoteURI reports whether uri carries an http or https scheme. URLs that
// net/url rejects, such as a bad escape or port, still count as remote when
// their scheme matches.
func isRemoteURI(uri string) bool {
	scheme := ""
	if u, err := url.Parse(uri); err == nil {
		scheme = u.Scheme
	} else if before, _, found := strings.Cut(uri, ":"); found {
		scheme = before
	}
	scheme = strings.ToLower(scheme)
	return scheme == "http" || scheme == "https"
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}
