package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jobsift/jobsift/app/adapter"
	"github.com/jobsift/jobsift/app/api"
	"github.com/jobsift/jobsift/app/cfg"
	"github.com/jobsift/jobsift/app/database"
	"github.com/jobsift/jobsift/app/discovery"
	"github.com/jobsift/jobsift/app/importer"
	"github.com/jobsift/jobsift/app/policy"
	"github.com/jobsift/jobsift/app/registry"
	"github.com/jobsift/jobsift/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	logLevel := slog.LevelInfo
	if appCfg.Debug {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))

	slog.Info("Starting JobSift", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		slog.Error("Failed to open database", "path", appCfg.DBPath, "error", err)
		os.Exit(1)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("Database ready", "schema_version", version, "dirty", dirty)

	policies, err := policy.NewLoader(appCfg.PolicyDir).Load()
	if err != nil {
		slog.Error("Failed to load policies", "dir", appCfg.PolicyDir, "error", err)
		os.Exit(1)
	}

	sourceRepo := database.NewSourceRepository(db)
	taskRepo := database.NewTaskRepository(db)
	jobRepo := database.NewJobRepository(db)
	auditRepo := database.NewAuditRepository(db)
	runRepo := database.NewRunRepository(db)
	candidateRepo := database.NewCandidateRepository(db)

	// A run left 'running' by a previous process would block StartRun's
	// conditional insert forever.
	if abandoned, err := runRepo.ResetAbandonedRuns(); err != nil {
		slog.Error("Failed to reset abandoned runs", "error", err)
		os.Exit(1)
	} else if abandoned > 0 {
		slog.Warn("Abandoned runs failed over", "count", abandoned)
	}

	httpClient := &http.Client{Timeout: time.Duration(appCfg.RequestTimeout) * time.Second}
	requestTimeout := time.Duration(appCfg.RequestTimeout) * time.Second

	atsAdapter := adapter.NewATSAdapter(appCfg.ATSEndpoint, httpClient, appCfg.UserAgent, requestTimeout)
	socialAdapter := adapter.NewSocialAdapter(appCfg.ActorEndpoint, appCfg.ActorToken,
		httpClient, appCfg.UserAgent, requestTimeout)

	adapters := adapter.NewRegistry()
	adapters.Register(database.SourceTypeATS, atsAdapter)
	adapters.Register(database.SourceTypeSocial, socialAdapter)

	engine := importer.NewEngine(jobRepo, auditRepo, policies)
	runner := tasks.NewRunner(adapters, engine, sourceRepo, taskRepo)

	worker := tasks.NewWorker(runner, taskRepo)
	worker.Start()
	defer worker.Stop()

	scorer := registry.NewScorer(sourceRepo, auditRepo)
	scheduler := tasks.NewScheduler(sourceRepo, taskRepo, scorer, auditRepo, jobRepo)
	if err := scheduler.Start(); err != nil {
		slog.Error("Failed to start scheduler", "error", err)
		os.Exit(1)
	}
	defer scheduler.Stop()

	bulkService := registry.NewService(sourceRepo)
	runAllService := registry.NewRunAllService(sourceRepo, runRepo, runner,
		time.Duration(appCfg.InterSourceDelay)*time.Second)
	discoveryService := discovery.NewService(appCfg.DiscoveryURL, httpClient, appCfg.UserAgent,
		runRepo, candidateRepo, sourceRepo, atsAdapter)

	handler := api.NewHandler(sourceRepo, taskRepo, jobRepo, auditRepo,
		runner, scheduler, scorer, bulkService, runAllService, discoveryService)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("HTTP server listening", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig.String())
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	}
}
