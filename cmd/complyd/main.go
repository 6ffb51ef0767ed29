// Complyd is a compliance gate evaluation and correction daemon.
//
// This binary starts the complyd HTTP server with full service
// initialization, including the pattern catalogue, gate orchestrator,
// correction synthesizer, and the optional semantic collaborator client.
//
// Configuration is loaded from a YAML file plus COMPLYD_* environment
// variables. See internal/config for details.
//
// Usage:
//
//	# Start the daemon
//	complyd -config /etc/complyd/config.yaml
//
//	# Configure via environment
//	COMPLYD_SERVER_PORT=9070 complyd -config config.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/complyd/internal/catalogue"
	"github.com/fyrsmithlabs/complyd/internal/compliance"
	"github.com/fyrsmithlabs/complyd/internal/config"
	"github.com/fyrsmithlabs/complyd/internal/gate"
	httpapi "github.com/fyrsmithlabs/complyd/internal/http"
	"github.com/fyrsmithlabs/complyd/internal/logging"
	"github.com/fyrsmithlabs/complyd/internal/metrics"
	"github.com/fyrsmithlabs/complyd/internal/orchestrator"
	"github.com/fyrsmithlabs/complyd/internal/semantic"
	"github.com/fyrsmithlabs/complyd/internal/synthesis"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "path to the config file")
	flag.Parse()
	args := flag.Args()

	if len(args) > 0 {
		switch args[0] {
		case "version":
			printVersion()
			os.Exit(0)
		default:
			fmt.Fprintf(os.Stderr, "Unknown command: %s\n", args[0])
			fmt.Fprintf(os.Stderr, "\nUsage:\n")
			fmt.Fprintf(os.Stderr, "  complyd            Start the complyd daemon\n")
			fmt.Fprintf(os.Stderr, "  complyd version    Show version information\n")
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		log.Printf("Received signal %v, shutting down gracefully...", sig)
		cancel()
	}()

	if err := run(ctx, *configPath); err != nil {
		log.Fatalf("Server error: %v", err)
	}

	log.Println("Server shutdown complete")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("complyd by Fyrsmith Labs\n")
	fmt.Printf("Version:    %s\n", version)
	fmt.Printf("Commit:     %s\n", gitCommit)
	fmt.Printf("Build Date: %s\n", buildDate)
}

// run starts the complyd server and blocks until context cancellation.
//
// This function initializes all dependencies and services:
//  1. Loads and validates configuration
//  2. Initializes the structured logger
//  3. Loads the pattern catalogue and starts the hot-reload watcher
//  4. Builds the gate registry (built-in plus config-defined gates)
//  5. Wires the orchestrator, synthesizer, and compliance service
//  6. Starts the HTTP server
//  7. Performs graceful shutdown on context cancellation
func run(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync() // Best-effort sync on shutdown
	}()

	logger.Info("Starting complyd",
		zap.Int("port", cfg.Server.Port),
		zap.String("catalogue", cfg.Catalogue.Path),
		zap.Duration("shutdown_timeout", cfg.Server.ShutdownTimeout))

	m := metrics.New()

	// Load the catalogue and start the hot-reload watcher.
	cat, err := catalogue.LoadFile(cfg.Catalogue.Path)
	if err != nil {
		return fmt.Errorf("failed to load catalogue: %w", err)
	}
	store, err := catalogue.NewStore(cat)
	if err != nil {
		return fmt.Errorf("failed to create catalogue store: %w", err)
	}

	logger.Info("Catalogue loaded",
		zap.String("version", cat.Version()),
		zap.Int("patterns", cat.Len()),
		zap.Int("config_gates", len(cat.GateSpecs())))

	if cfg.Catalogue.WatchReload {
		watcher, err := catalogue.NewWatcher(cfg.Catalogue.Path, store, logger)
		if err != nil {
			return fmt.Errorf("failed to create catalogue watcher: %w", err)
		}
		watcher.OnSwap = func(old, next *catalogue.Catalogue) {
			m.CatalogueReloadsTotal.WithLabelValues("success").Inc()
		}
		watcher.OnError = func(err error) {
			m.CatalogueReloadsTotal.WithLabelValues("rejected").Inc()
		}
		go func() {
			if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("catalogue watcher stopped", zap.Error(err))
			}
		}()
	}

	// Gate registry: built-in gates plus gates defined in the catalogue.
	// Pattern changes take effect on reload; gate definitions are read at
	// startup and need a restart to change.
	registry := gate.NewRegistry()
	if err := registry.RegisterAll(gate.DefaultGates()); err != nil {
		return fmt.Errorf("failed to register built-in gates: %w", err)
	}
	configGates, err := compliance.GatesFromCatalogue(cat.GateSpecs())
	if err != nil {
		return fmt.Errorf("failed to build catalogue gates: %w", err)
	}
	if err := registry.RegisterAll(configGates); err != nil {
		return fmt.Errorf("failed to register catalogue gates: %w", err)
	}

	logger.Info("Gate registry built",
		zap.Int("gates", registry.Len()),
		zap.Strings("modules", registry.Modules()))

	orch, err := orchestrator.New(registry, orchestrator.Config{
		MaxConcurrent: cfg.Orchestrator.MaxConcurrent,
		GateTimeout:   cfg.Orchestrator.GateTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("failed to create orchestrator: %w", err)
	}
	orch.SetMetrics(m)

	synth := synthesis.New(logger)
	synth.SetMetrics(m)

	var annotator semantic.Annotator
	if cfg.Semantic.Enabled {
		client, err := semantic.NewClient(semantic.Config{
			BaseURL:           cfg.Semantic.BaseURL,
			Timeout:           cfg.Semantic.Timeout,
			RequestsPerSecond: cfg.Semantic.RequestsPerSecond,
			CacheTTL:          cfg.Semantic.CacheTTL,
			CacheMaxEntries:   cfg.Semantic.CacheMaxEntries,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create semantic client: %w", err)
		}
		annotator = client
		logger.Info("Semantic collaborator enabled",
			zap.String("base_url", cfg.Semantic.BaseURL),
			zap.Duration("timeout", cfg.Semantic.Timeout))
	}

	service, err := compliance.New(store, orch, synth, annotator, logger)
	if err != nil {
		return fmt.Errorf("failed to create compliance service: %w", err)
	}
	service.SetMetrics(m)

	srv, err := httpapi.NewServer(service, logger, &httpapi.Config{
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	})
	if err != nil {
		return fmt.Errorf("failed to create http server: %w", err)
	}

	logger.Info("Server configured",
		zap.String("health_endpoint", fmt.Sprintf("http://%s:%d/health", cfg.Server.Host, cfg.Server.Port)),
		zap.String("api_prefix", "/api/v1"),
		zap.String("metrics_endpoint", "/metrics"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
