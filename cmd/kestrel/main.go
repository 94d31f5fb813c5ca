// Kestrel - Retail event automation that deploys in 60 seconds.
// Copyright (c) 2025 opensource.retail
// Licensed under the Apache License 2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/opensource-retail/kestrel/internal/analytics"
	"github.com/opensource-retail/kestrel/internal/api"
	"github.com/opensource-retail/kestrel/internal/bus"
	"github.com/opensource-retail/kestrel/internal/cache"
	"github.com/opensource-retail/kestrel/internal/domain"
	"github.com/opensource-retail/kestrel/internal/repository"
	"github.com/opensource-retail/kestrel/internal/rules"
	"github.com/opensource-retail/kestrel/internal/segment"
	"github.com/opensource-retail/kestrel/internal/worker"
)

// Version information (set via ldflags)
var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	// Initialize structured logger
	logLevel := slog.LevelInfo
	if os.Getenv("KESTREL_DEBUG") == "true" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Log startup
	slog.Info("starting kestrel",
		"version", Version,
		"commit", Commit,
		"build_date", BuildDate,
	)

	// Load configuration
	base := domain.DefaultConfig()

	// Check for Pro tier via environment
	if os.Getenv("KESTREL_TIER") == "pro" {
		base = domain.ProConfig()
		slog.Info("running in Pro tier mode")
	}

	cfg, err := domain.LoadConfig(*configPath, base)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("configuration loaded",
		"tier", cfg.Tier,
		"repository", cfg.Repository.Driver,
		"cache", cfg.Cache.Type,
		"eventbus", cfg.EventBus.Type,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigCh
		slog.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Initialize Repository
	repo, err := repository.New(cfg.Repository)
	if err != nil {
		slog.Error("failed to initialize repository", "error", err)
		os.Exit(1)
	}
	defer repo.Close()
	slog.Info("repository initialized", "driver", cfg.Repository.Driver)

	// Initialize Cache
	cacheImpl, err := cache.New(cfg.Cache)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer cacheImpl.Close()
	slog.Info("cache initialized", "type", cfg.Cache.Type)

	// Initialize EventBus
	busImpl, err := bus.New(cfg.EventBus)
	if err != nil {
		slog.Error("failed to initialize event bus", "error", err)
		os.Exit(1)
	}
	defer busImpl.Close()
	slog.Info("event bus initialized", "type", cfg.EventBus.Type)

	// Initialize Rule Registry with seed rules
	registry, err := rules.NewRegistry()
	if err != nil {
		slog.Error("failed to initialize rule registry", "error", err)
		os.Exit(1)
	}
	for _, rule := range rules.DefaultRules() {
		if err := registry.Register(rule); err != nil {
			slog.Error("failed to register seed rule", "rule", rule.ID, "error", err)
			os.Exit(1)
		}
	}
	slog.Info("rule registry initialized", "rules_count", registry.Count())

	// Initialize Action Dispatcher with built-in handlers
	dispatcher := rules.NewDispatcher()
	handlers := &rules.Handlers{
		Repo:  repo,
		Cache: cacheImpl,
		Bus:   busImpl,
	}
	handlers.RegisterDefaults(dispatcher)
	slog.Info("action dispatcher initialized")

	// Initialize Rule Engine
	engine := rules.NewEngine(registry, dispatcher)

	// Initialize Segmentation Service
	segmentSvc := segment.NewService(repo, cacheImpl)
	slog.Info("segmentation service initialized")

	// Initialize Analytics Processor
	processor := analytics.NewProcessor()
	slog.Info("analytics processor initialized")

	// Initialize async Worker (Pro tier)
	var asyncWorker *worker.Worker
	if cfg.Tier == domain.TierPro || os.Getenv("KESTREL_ASYNC_WORKER") == "true" {
		asyncWorker = worker.NewWorker(busImpl, repo, cacheImpl, engine)

		// Orgs to process (comma-separated, empty = global subscription)
		var orgIDs []string
		if envOrgs := os.Getenv("KESTREL_ORGS"); envOrgs != "" {
			for _, id := range strings.Split(envOrgs, ",") {
				if id = strings.TrimSpace(id); id != "" {
					orgIDs = append(orgIDs, id)
				}
			}
		}

		workerCfg := worker.Config{
			OrgIDs:      orgIDs,
			WorkerCount: 5,
		}

		if err := asyncWorker.Start(workerCfg); err != nil {
			slog.Error("failed to start async worker", "error", err)
		} else {
			slog.Info("async worker started", "org_count", len(orgIDs))
		}
	}

	// Initialize Server
	srv := api.NewServer(cfg.Server, repo, cacheImpl, busImpl, engine, segmentSvc, processor, Version)

	// Start Server in goroutine
	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("kestrel is ready",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
	)

	printBanner(cfg, Version)

	// Wait for shutdown signal
	<-ctx.Done()
	slog.Info("shutting down...")

	// Stop async worker first
	if asyncWorker != nil {
		if err := asyncWorker.Stop(); err != nil {
			slog.Error("failed to stop async worker", "error", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("kestrel shutdown complete")
}

func printBanner(cfg *domain.Config, version string) {
	fmt.Println()
	fmt.Println("  ╔═══════════════════════════════════════════╗")
	fmt.Println("  ║               🪶 KESTREL                  ║")
	fmt.Println("  ║      Retail Event Automation Engine       ║")
	fmt.Println("  ║       Every event, acted on.              ║")
	fmt.Println("  ╚═══════════════════════════════════════════╝")
	fmt.Println()
	fmt.Printf("  Version:  %s\n", version)
	fmt.Printf("  Tier:     %s\n", cfg.Tier)
	fmt.Printf("  Server:   http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()
	fmt.Println("  Endpoints:")
	fmt.Println("    POST /events                  - Process a webhook event")
	fmt.Println("    GET  /results/{id}            - Get engine result by ID")
	fmt.Println("    POST /transactions            - Record a transaction")
	fmt.Println("    GET  /transactions/{id}       - Get transaction by ID")
	fmt.Println("    GET  /segments                - RFM customer segments")
	fmt.Println("    GET  /analytics/sales         - Sales report")
	fmt.Println("    GET  /rules                   - List all rules")
	fmt.Println("    POST /rules                   - Create or replace a rule")
	fmt.Println("    POST /rules/{event}/enable    - Enable a rule")
	fmt.Println("    POST /rules/{event}/disable   - Disable a rule")
	fmt.Println("    DELETE /rules/{event}         - Delete a rule")
	fmt.Println("    GET  /health                  - Health check")
	fmt.Println()
}
