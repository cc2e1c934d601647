package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	defaultSiteBaseURL    = "http://localhost:8080/"
	defaultSiteRoot       = "."
	defaultPackagesDir    = "packages"
	defaultLogLevel       = "info"
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > Environment variables > YAML config > Defaults
type Config struct {
	Port                 string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	LogLevel             string

	// SiteBaseURL is the public URL local assets are published under.
	SiteBaseURL string
	// SiteRoot is the public filesystem root of the site.
	SiteRoot string
	// DocumentRoot is stripped from the branding logo; defaults to SiteRoot.
	DocumentRoot string
	// PackagesManifest lists installed packages; when empty PackagesDir is scanned.
	PackagesManifest string
	PackagesDir      string
	// BaseConfiguration overrides the location of the default styleguide document.
	BaseConfiguration string
	// ServeSiteRoot exposes SiteRoot as static files next to the API.
	ServeSiteRoot bool
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	LogLevel             string        `yaml:"log_level"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Site                 yamlSite      `yaml:"site"`
	Packages             yamlPackages  `yaml:"packages"`
}

type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlSite struct {
	BaseURL      string `yaml:"base_url"`
	Root         string `yaml:"root"`
	DocumentRoot string `yaml:"document_root"`
	Serve        *bool  `yaml:"serve"`
}

type yamlPackages struct {
	Manifest          string `yaml:"manifest"`
	Directory         string `yaml:"directory"`
	BaseConfiguration string `yaml:"base_configuration"`
}

// envConfig is populated from environment variables.
type envConfig struct {
	Port                 string        `env:"PORT"`
	ShutdownGracePeriod  time.Duration `env:"SHUTDOWN_GRACE_PERIOD"`
	ReadHeaderTimeout    time.Duration `env:"READ_HEADER_TIMEOUT"`
	WriteTimeout         time.Duration `env:"WRITE_TIMEOUT"`
	IdleTimeout          time.Duration `env:"IDLE_TIMEOUT"`
	EnableRequestLogging *bool         `env:"ENABLE_REQUEST_LOGGING"`
	RateLimitRPS         *float64      `env:"RATE_LIMIT_RPS"`
	RateLimitBurst       *int          `env:"RATE_LIMIT_BURST"`
	LogLevel             string        `env:"LOG_LEVEL"`

	SiteBaseURL       string `env:"STYLEGUIDE_SITE_BASE_URL"`
	SiteRoot          string `env:"STYLEGUIDE_SITE_ROOT"`
	DocumentRoot      string `env:"STYLEGUIDE_DOCUMENT_ROOT"`
	PackagesManifest  string `env:"STYLEGUIDE_PACKAGES_MANIFEST"`
	PackagesDir       string `env:"STYLEGUIDE_PACKAGES_DIR"`
	BaseConfiguration string `env:"STYLEGUIDE_BASE_CONFIGURATION"`
	ServeSiteRoot     *bool  `env:"STYLEGUIDE_SERVE_SITE_ROOT"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile       string
	Port             *string
	RateLimitRPS     *float64
	RateLimitBurst   *int
	LogLevel         *string
	SiteBaseURL      *string
	SiteRoot         *string
	DocumentRoot     *string
	PackagesManifest *string
	PackagesDir      *string
	ServeSiteRoot    *bool
}

// layer is one configuration source. Values are merged over lower layers
// where non-zero; optional fields are applied whenever they are set, so that
// zero or false can override a default.
type layer struct {
	values   Config
	optional optionalValues
}

type optionalValues struct {
	EnableRequestLogging *bool
	RateLimitRPS         *float64
	RateLimitBurst       *int
	ServeSiteRoot        *bool
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > Environment variables > YAML config > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()
	layers := make([]layer, 0, 3)

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		fileLayer, err := yamlLayer(yamlCfg)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		layers = append(layers, fileLayer)
	}

	envLayer, err := loadEnv()
	if err != nil {
		return Config{}, err
	}
	layers = append(layers, envLayer)

	if overrides != nil {
		layers = append(layers, cliLayer(overrides))
	}

	for _, l := range layers {
		if err := l.applyTo(&cfg); err != nil {
			return Config{}, err
		}
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		LogLevel:             defaultLogLevel,
		SiteBaseURL:          defaultSiteBaseURL,
		SiteRoot:             defaultSiteRoot,
		PackagesDir:          defaultPackagesDir,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// yamlLayer converts the YAML file structure into a configuration layer.
func yamlLayer(yamlCfg *yamlConfig) (layer, error) {
	l := layer{
		values: Config{
			Port:              strings.TrimSpace(yamlCfg.Port),
			LogLevel:          strings.TrimSpace(yamlCfg.LogLevel),
			SiteBaseURL:       strings.TrimSpace(yamlCfg.Site.BaseURL),
			SiteRoot:          strings.TrimSpace(yamlCfg.Site.Root),
			DocumentRoot:      strings.TrimSpace(yamlCfg.Site.DocumentRoot),
			PackagesManifest:  strings.TrimSpace(yamlCfg.Packages.Manifest),
			PackagesDir:       strings.TrimSpace(yamlCfg.Packages.Directory),
			BaseConfiguration: strings.TrimSpace(yamlCfg.Packages.BaseConfiguration),
		},
		optional: optionalValues{
			EnableRequestLogging: yamlCfg.EnableRequestLogging,
			RateLimitRPS:         yamlCfg.RateLimit.RPS,
			RateLimitBurst:       yamlCfg.RateLimit.Burst,
			ServeSiteRoot:        yamlCfg.Site.Serve,
		},
	}

	durations := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &l.values.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &l.values.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &l.values.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &l.values.IdleTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return layer{}, fmt.Errorf("parse %s: %w", d.name, err)
		}
		*d.dst = parsed
	}

	return l, nil
}

// loadEnv reads the environment variable layer.
func loadEnv() (layer, error) {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return layer{}, fmt.Errorf("parse environment: %w", err)
	}

	return layer{
		values: Config{
			Port:                strings.TrimSpace(e.Port),
			LogLevel:            strings.TrimSpace(e.LogLevel),
			ShutdownGracePeriod: e.ShutdownGracePeriod,
			ReadHeaderTimeout:   e.ReadHeaderTimeout,
			WriteTimeout:        e.WriteTimeout,
			IdleTimeout:         e.IdleTimeout,
			SiteBaseURL:         strings.TrimSpace(e.SiteBaseURL),
			SiteRoot:            strings.TrimSpace(e.SiteRoot),
			DocumentRoot:        strings.TrimSpace(e.DocumentRoot),
			PackagesManifest:    strings.TrimSpace(e.PackagesManifest),
			PackagesDir:         strings.TrimSpace(e.PackagesDir),
			BaseConfiguration:   strings.TrimSpace(e.BaseConfiguration),
		},
		optional: optionalValues{
			EnableRequestLogging: e.EnableRequestLogging,
			RateLimitRPS:         e.RateLimitRPS,
			RateLimitBurst:       e.RateLimitBurst,
			ServeSiteRoot:        e.ServeSiteRoot,
		},
	}, nil
}

// cliLayer converts command-line flag overrides into a configuration layer.
func cliLayer(overrides *CLIOverrides) layer {
	return layer{
		values: Config{
			Port:             deref(overrides.Port),
			LogLevel:         deref(overrides.LogLevel),
			SiteBaseURL:      deref(overrides.SiteBaseURL),
			SiteRoot:         deref(overrides.SiteRoot),
			DocumentRoot:     deref(overrides.DocumentRoot),
			PackagesManifest: deref(overrides.PackagesManifest),
			PackagesDir:      deref(overrides.PackagesDir),
		},
		optional: optionalValues{
			RateLimitRPS:   overrides.RateLimitRPS,
			RateLimitBurst: overrides.RateLimitBurst,
			ServeSiteRoot:  overrides.ServeSiteRoot,
		},
	}
}

func (l layer) applyTo(cfg *Config) error {
	if err := mergo.Merge(cfg, l.values, mergo.WithOverride); err != nil {
		return fmt.Errorf("merge configuration: %w", err)
	}

	if v := l.optional.EnableRequestLogging; v != nil {
		cfg.EnableRequestLogging = *v
	}
	if v := l.optional.RateLimitRPS; v != nil && *v >= 0 {
		cfg.RateLimitRPS = *v
	}
	if v := l.optional.RateLimitBurst; v != nil && *v >= 0 {
		cfg.RateLimitBurst = *v
	}
	if v := l.optional.ServeSiteRoot; v != nil {
		cfg.ServeSiteRoot = *v
	}
	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return fmt.Errorf("port cannot be empty")
	}
	if strings.TrimSpace(cfg.SiteBaseURL) == "" {
		return fmt.Errorf("site base URL cannot be empty")
	}
	if strings.TrimSpace(cfg.SiteRoot) == "" {
		return fmt.Errorf("site root cannot be empty")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
