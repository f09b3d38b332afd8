package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rewired-gh/evsignal/internal/analysis"
	"github.com/rewired-gh/evsignal/internal/apifootball"
	"github.com/rewired-gh/evsignal/internal/bankroll"
	"github.com/rewired-gh/evsignal/internal/config"
	"github.com/rewired-gh/evsignal/internal/logger"
	"github.com/rewired-gh/evsignal/internal/server"
	"github.com/rewired-gh/evsignal/internal/session"
	"github.com/rewired-gh/evsignal/internal/telegram"
	"github.com/rewired-gh/evsignal/internal/value"
)

var configPath = flag.String("config", "configs/config.yaml", "Path to configuration file")

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Setup logging with level support
	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	logger.Info("Configuration loaded from %s", *configPath)

	// Pricing engine
	evaluator := value.NewEvaluator(value.NewClassifier(cfg.Value.Thresholds), cfg.Value.KellyCap)

	allocator, err := bankroll.NewAllocator(cfg.ProfileTable())
	if err != nil {
		logger.Fatal("Invalid bankroll profiles: %v", err)
	}

	// Initialize API-Football client
	if cfg.APIFootball.APIKey == "" {
		logger.Warn("apifootball.api_key is empty, statistics requests will be rejected")
	}
	stats := apifootball.NewClient(
		cfg.APIFootball.BaseURL,
		cfg.APIFootball.APIKey,
		cfg.APIFootball.Timeout,
		apifootball.ClientConfig{
			MaxRetries:     cfg.APIFootball.MaxRetries,
			RetryDelayBase: cfg.APIFootball.RetryDelayBase,
			LeagueID:       cfg.APIFootball.LeagueID,
			Season:         cfg.APIFootball.Season,
		},
	)

	analyzer := analysis.New(stats, evaluator, analysis.Options{
		MaxGoals:    cfg.Model.MaxGoals,
		RateFloor:   cfg.Model.RateFloor,
		DefaultRate: cfg.Model.DefaultRate,
		Lines:       cfg.Model.Lines,
	})

	// Initialize session store
	sessions := session.New(allocator, cfg.Session.MaxSessions, cfg.Session.MaxBetsPerSlip, cfg.Session.TTL)

	// Initialize Telegram client
	var notifier server.Notifier
	if cfg.Telegram.Enabled {
		telegramClient, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Telegram.MaxRetries, cfg.Telegram.RetryDelayBase)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram client: %v", err)
		}
		notifier = telegramClient
		logger.Info("Telegram client initialized successfully")
	} else {
		logger.Debug("Telegram notifications disabled")
	}

	handler := server.NewHandler(analyzer, evaluator, sessions, notifier, cfg.DefaultProfile())
	srv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: handler.Routes(server.Options{
			AllowedOrigins: cfg.Server.AllowedOrigins,
			RequestTimeout: cfg.Server.RequestTimeout,
		}),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		logger.Info("Shutdown signal received, cleaning up...")
		cancel()
	}()

	go func() {
		logger.Info("Listening on %s (league %d, season %d, max goals %d, lines %v)",
			cfg.Server.Addr, cfg.APIFootball.LeagueID, cfg.APIFootball.Season, cfg.Model.MaxGoals, cfg.Model.Lines)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server error: %v", err)
		}
	}()

	ticker := time.NewTicker(cfg.Session.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Shutdown error: %v", err)
			}
			shutdownCancel()
			logger.Info("Service stopped")
			return

		case <-ticker.C:
			if n := sessions.ExpireIdle(); n > 0 {
				logger.Info("Expired %d idle sessions, %d active", n, sessions.Count())
			}
		}
	}
}
