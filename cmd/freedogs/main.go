package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"jordanella.com/freedogs-go/internal/accounts"
	"jordanella.com/freedogs-go/internal/api"
	"jordanella.com/freedogs-go/internal/bot"
	"jordanella.com/freedogs-go/internal/config"
	"jordanella.com/freedogs-go/internal/database"
	"jordanella.com/freedogs-go/internal/game"
	"jordanella.com/freedogs-go/internal/logging"
	"jordanella.com/freedogs-go/internal/proxypool"
	"jordanella.com/freedogs-go/internal/tasks"
	"jordanella.com/freedogs-go/internal/tokens"
)

const configPath = "config.ini"

// YAML configs are picked up when present, otherwise config.ini is used (and created)
var yamlConfigPaths = []string{"config.yaml", "config.yml"}

func main() {
	os.Exit(run())
}

func run() int {
	cfg, created, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	logger := logging.New("freedogs", logging.Options{
		Level: logging.ParseLevel(cfg.LogLevel),
		File:  cfg.LogFile,
	})
	defer logger.Sync()

	if created {
		logger.Infof("No configuration found, wrote defaults to %s", configPath)
	}

	loaded, err := accounts.LoadFromFile(cfg.DataFile)
	if err != nil {
		logger.Error(fmt.Sprintf("Cannot read account file %s", cfg.DataFile), err)
		return 1
	}
	for _, skipped := range loaded.Skipped {
		logger.Warnf("Skipping %s line %d: %v", cfg.DataFile, skipped.Line, skipped.Err)
	}
	if loaded.Duplicates > 0 {
		logger.Warnf("Ignored %d duplicate accounts", loaded.Duplicates)
	}
	if len(loaded.Accounts) == 0 {
		logger.Error(fmt.Sprintf("No usable accounts in %s", cfg.DataFile), nil)
		return 1
	}
	logger.Infof("Loaded %d accounts", len(loaded.Accounts))

	proxies, badProxies, err := proxypool.LoadFromFile(cfg.ProxyFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warnf("Proxy file %s not found, running without proxies", cfg.ProxyFile)
	case err != nil:
		logger.Error(fmt.Sprintf("Cannot read proxy file %s", cfg.ProxyFile), err)
		return 1
	default:
		for _, line := range badProxies {
			logger.Warnf("Skipping invalid proxy line: %s", line)
		}
		logger.Infof("Loaded %d proxies", len(proxies))
	}

	store, err := tokens.OpenStore(cfg.TokenFile)
	if err != nil {
		logger.Error(fmt.Sprintf("Cannot read token file %s", cfg.TokenFile), err)
		return 1
	}

	var recorder bot.Recorder
	if cfg.DatabaseFile != "" {
		db, err := openHistory(cfg.DatabaseFile, logger.Named("database"))
		if err != nil {
			logger.Error("Cannot open run history database", err)
			return 1
		}
		defer db.Close()
		recorder = db
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := bot.NewMetrics(registry)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.MetricsAddr != "" {
		srv := serveMetrics(cfg.MetricsAddr, registry, logger.Named("metrics"))
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()
	}

	apiLogger := logger.Named("api")
	headers := api.HeaderProfile{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Origin:         cfg.Origin,
	}

	scheduler, err := bot.NewScheduler(bot.Options{
		Accounts: loaded.Accounts,
		Proxies:  proxypool.NewAssigner(proxies),
		Tokens:   tokens.NewLifecycle(store, logger.Named("tokens"), nil),
		NewBackend: func(p *proxypool.Proxy) (bot.Backend, error) {
			client, err := api.NewClient(api.Options{
				BaseURL:        cfg.BaseURL,
				InvitationCode: cfg.InvitationCode,
				Headers:        headers,
				Proxy:          p,
				Timeout:        cfg.RequestTimeout(),
				Logger:         apiLogger,
			})
			if err != nil {
				return nil, err
			}
			return client, nil
		},
		Session:      game.NewSession(cfg.ChecksumSalt, int64(cfg.MaxClicksToday), logger.Named("game")),
		Tasks:        tasks.NewRunner(cfg.TaskDelay(), bot.Sleep, logger.Named("tasks")),
		Recorder:     recorder,
		Metrics:      metrics,
		Logger:       logger.Named("bot"),
		Countdown:    os.Stdout,
		AccountDelay: cfg.AccountDelay(),
		CycleDelay:   cfg.CycleDelay(),
	})
	if err != nil {
		logger.Error("Cannot start scheduler", err)
		return 1
	}

	if err := scheduler.Run(ctx); err != nil {
		logger.Error("Scheduler failed", err)
		return 1
	}
	return 0
}

func loadConfig() (*config.Config, bool, error) {
	for _, path := range yamlConfigPaths {
		if _, err := os.Stat(path); err == nil {
			cfg, err := config.Load(path)
			return cfg, false, err
		}
	}
	return config.LoadOrCreate(configPath)
}

func openHistory(path string, logger *logging.Logger) (*database.DB, error) {
	db, err := database.Open(path)
	if err != nil {
		return nil, err
	}
	db.SetLogger(logger)

	if err := db.RunMigrations(); err != nil {
		db.Close()
		return nil, err
	}

	if stats, err := db.GetStats(); err == nil {
		logger.InfoWithContext("Run history opened", map[string]interface{}{
			"path":     path,
			"cycles":   stats["cycle_runs"],
			"outcomes": stats["account_outcomes"],
		})
	}
	return db, nil
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Infof("Serving metrics on %s/metrics", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Metrics listener stopped", err)
		}
	}()
	return srv
}
