package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/fluid-styleguide-config/internal/application"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/config"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/logging"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/styleguide"
	"github.com/eugenenazirov/fluid-styleguide-config/internal/tree"
)

var signalNotify = signal.Notify

func main() {
	kingpinApp := kingpin.New("styleguide-config", "Fluid Styleguide configuration - merges package overrides and serves the result")
	configFile := kingpinApp.Flag("config", "Path to YAML configuration file").String()
	port := kingpinApp.Flag("port", "HTTP port exposed by the service").String()
	logLevel := kingpinApp.Flag("log-level", "Log level (debug, info, warn, error)").String()
	rateLimitRPSFlag := kingpinApp.Flag("rate-limit-rps", "Requests per second allowed (set 0 to disable)").Default("-1").Float64()
	rateLimitBurstFlag := kingpinApp.Flag("rate-limit-burst", "Burst capacity for rate limiter (set 0 to disable)").Default("-1").Int()
	baseURL := kingpinApp.Flag("base-url", "Public base URL local assets are published under").String()
	siteRoot := kingpinApp.Flag("site-root", "Public filesystem root of the site").String()
	documentRoot := kingpinApp.Flag("document-root", "Document root stripped from the branding logo").String()
	manifest := kingpinApp.Flag("packages-manifest", "YAML manifest listing installed packages").String()
	packagesDir := kingpinApp.Flag("packages-dir", "Directory scanned for packages when no manifest is given").String()
	serveSiteRoot := kingpinApp.Flag("serve-site-root", "Serve the site root as static files next to the API").Bool()

	serveCmd := kingpinApp.Command("serve", "Run the configuration HTTP API").Default()
	dumpCmd := kingpinApp.Command("dump", "Print the merged configuration and exit")
	dumpFormat := dumpCmd.Flag("format", "Output format").Default("yaml").Enum("yaml", "json")

	command := kingpin.MustParse(kingpinApp.Parse(os.Args[1:]))

	overrides := &config.CLIOverrides{
		ConfigFile: *configFile,
	}
	overrides.Port = nonEmpty(port)
	overrides.LogLevel = nonEmpty(logLevel)
	overrides.SiteBaseURL = nonEmpty(baseURL)
	overrides.SiteRoot = nonEmpty(siteRoot)
	overrides.DocumentRoot = nonEmpty(documentRoot)
	overrides.PackagesManifest = nonEmpty(manifest)
	overrides.PackagesDir = nonEmpty(packagesDir)

	if *rateLimitRPSFlag >= 0 {
		overrides.RateLimitRPS = rateLimitRPSFlag
	}

	if *rateLimitBurstFlag >= 0 {
		overrides.RateLimitBurst = rateLimitBurstFlag
	}

	if *serveSiteRoot {
		overrides.ServeSiteRoot = serveSiteRoot
	}

	cfg, err := config.Load(overrides)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer func() {
		_ = logger.Sync()
	}()

	switch command {
	case dumpCmd.FullCommand():
		manager, err := application.NewManager(cfg, logger)
		if err != nil {
			logger.Fatal("failed to load configuration", zap.Error(err))
		}
		if err := dump(os.Stdout, manager.Snapshot(), *dumpFormat); err != nil {
			logger.Fatal("failed to dump configuration", zap.Error(err))
		}
	case serveCmd.FullCommand():
		app, err := application.New(cfg, logger)
		if err != nil {
			logger.Fatal("failed to initialize application", zap.Error(err))
		}

		if err := app.Start(); err != nil {
			logger.Fatal("failed to start server", zap.Error(err))
		}

		shutdown(app.Server(), cfg.ShutdownGracePeriod, logger)
	}
}

func nonEmpty(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}

// dump writes the merged configuration wrapped in its root key, so the output
// can be used as a configuration document itself.
func dump(w io.Writer, snap *styleguide.Snapshot, format string) error {
	doc := tree.NewMapping().With(styleguide.RootKey, tree.Map(snap.Configuration()))

	switch format {
	case "json":
		data, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		data = append(data, '\n')
		_, err = w.Write(data)
		return err
	case "yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported format %q", format)
	}
}

func shutdown(server *http.Server, timeout time.Duration, logger *zap.Logger) {
	quit := make(chan os.Signal, 1)
	signalNotify(quit, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	<-quit
	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Warn("graceful shutdown failed", zap.Error(err))
		if closeErr := server.Close(); closeErr != nil {
			logger.Error("forced close failed", zap.Error(closeErr))
		}
	}
}
