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

	"github.com/lysyi3m/watchdoc/app/api"
	"github.com/lysyi3m/watchdoc/app/browseruse"
	"github.com/lysyi3m/watchdoc/app/cfg"
	"github.com/lysyi3m/watchdoc/app/content"
	"github.com/lysyi3m/watchdoc/app/database"
	"github.com/lysyi3m/watchdoc/app/notify"
	"github.com/lysyi3m/watchdoc/app/scanner"
	"github.com/lysyi3m/watchdoc/app/tasks"
	"github.com/lysyi3m/watchdoc/app/watchlist"
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
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	slog.Info("Starting WatchDoc server", "version", appCfg.Version)

	db, err := database.NewConnection(
		appCfg.DBHost, appCfg.DBPort, appCfg.DBUser,
		appCfg.DBPassword, appCfg.DBName)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("Connected to database")

	if err := database.RunMigrations(db); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	docRepo := database.NewDocumentRepository(db)
	scanRepo := database.NewScanRepository(db)

	watchlistCache := watchlist.NewCache(appCfg.WatchlistDir)
	if err := watchlistCache.Run(); err != nil {
		slog.Warn("Failed to load watchlist", "dir", appCfg.WatchlistDir, "error", err)
	}
	slog.Info("Watchlist loaded", "definitions", watchlistCache.Count())

	extractor := content.NewExtractor(appCfg.UserAgent)

	// Voice alerts are optional: when Vapi is not configured the server runs
	// without them.
	var alerter scanner.Alerter
	var caller api.GeneralCaller
	notifyClient, err := notify.NewClient(notify.Options{
		APIKey:              appCfg.VapiAPIKey,
		BaseURL:             appCfg.VapiBaseURL,
		PhoneNumber:         appCfg.VapiPhoneNumber,
		PhoneNumberID:       appCfg.VapiPhoneNumberID,
		CriticalAssistantID: appCfg.VapiCriticalAssistantID,
		GeneralAssistantID:  appCfg.VapiGeneralAssistantID,
	})
	if err != nil {
		slog.Warn("Voice alerts disabled", "error", err)
	} else {
		alerter = notifyClient
		caller = notifyClient
	}

	// The comparison gateway is built per scan request. Construction fails
	// when the Browser Use API key is missing; scan endpoints and scheduled
	// scans report that while the rest of the server keeps working.
	newScanner := func() (*scanner.Scanner, error) {
		gateway, err := browseruse.NewClient(browseruse.Options{
			APIKey:       appCfg.BrowserUseAPIKey,
			BaseURL:      appCfg.BrowserUseBaseURL,
			Model:        appCfg.BrowserUseModel,
			PollInterval: time.Duration(appCfg.BrowserUsePollInterval) * time.Second,
			Timeout:      time.Duration(appCfg.BrowserUseTimeout) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		return scanner.NewScanner(scanRepo, gateway, extractor, alerter, appCfg.WorkerCount), nil
	}

	slog.Info("Starting background scheduler", "workers", appCfg.WorkerCount)
	scheduler := tasks.NewScheduler(watchlistCache, docRepo, scanRepo,
		func() (tasks.DocumentScanner, error) {
			s, err := newScanner()
			if err != nil {
				return nil, err
			}
			return s, nil
		})
	scheduler.Start()
	defer scheduler.Stop()

	apiHandler := api.NewHandler(docRepo, scanRepo,
		func() (api.ScanRunner, error) {
			s, err := newScanner()
			if err != nil {
				return nil, err
			}
			return s, nil
		},
		caller, watchlistCache, appCfg.Version)
	server := api.NewServer(apiHandler, appCfg.APIAccessKey)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
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

	// Scheduler is stopped via defer
	slog.Info("Shutdown complete")
}
