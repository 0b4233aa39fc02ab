package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"canchapp/internal/api"
	"canchapp/internal/audit"
	"canchapp/internal/auth"
	"canchapp/internal/config"
	"canchapp/internal/database"
	"canchapp/internal/events"
	"canchapp/internal/google"
	"canchapp/internal/metrics"
	"canchapp/internal/reminders"
	"canchapp/internal/service"
)

func main() {
	_ = godotenv.Load()

	// Initialize logger
	output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	logger := zerolog.New(output).With().Timestamp().Logger()

	cfg, err := config.Load(os.Getenv("CANCHAPP_CONFIG_PATH"))
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("open db error")
	}
	defer db.Close()

	if cfg.Redis.Address == "" {
		logger.Fatal().Msg("set redis.address in config")
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	sessions := auth.NewSessionStore(rdb, cfg.SessionTTL())

	bus := events.NewEventBus()
	auditLogger := logger.With().Str("component", "audit").Logger()
	recorder := audit.NewRecorder(db, &auditLogger)
	recorder.Attach(bus)

	serviceLogger := logger.With().Str("component", "service").Logger()
	core := service.NewReservationService(db, bus, cfg.CancelLeadMinutes(), &serviceLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Monitoring.HealthCheckPort == 0 {
		cfg.Monitoring.HealthCheckPort = 8090
	}
	go startHealthServer(ctx, cfg.Monitoring.HealthCheckPort, db, rdb, &logger)

	if cfg.Monitoring.PrometheusEnabled {
		if cfg.Monitoring.PrometheusPort == 0 {
			cfg.Monitoring.PrometheusPort = 9090
		}
		metrics.Register()
		go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, &logger)
	}

	go recorder.Run(ctx, cfg.AuditRetention(), cfg.Audit.ExportDir)

	if cfg.Backup.Enabled {
		backupLogger := logger.With().Str("component", "backup").Logger()
		backup := database.NewBackupService(db.Path(), cfg.Backup.Path, cfg.BackupInterval(), cfg.Backup.RetentionDays, &backupLogger)
		go backup.Run(ctx)
	}

	if cfg.Reminders.Enabled {
		if cfg.Telegram.BotToken == "" {
			logger.Fatal().Msg("reminders need telegram.bot_token in config")
		}
		notifier, err := reminders.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.Debug)
		if err != nil {
			logger.Fatal().Err(err).Msg("telegram notifier error")
		}
		reminderLogger := logger.With().Str("component", "reminders").Logger()
		sender := reminders.NewSender(db, notifier, cfg.ReminderRate(), &reminderLogger)
		go reminders.NewScheduler(sender, cfg.ReminderSendHour(), &reminderLogger).Run(ctx)
	}

	if cfg.Sheets.Enabled {
		sheetsLogger := logger.With().Str("component", "sheets").Logger()
		sheetsSvc, err := google.NewSheetsService(ctx, cfg.Sheets.CredentialsFile, cfg.Sheets.SpreadsheetID, cfg.Sheets.SheetName, db, &sheetsLogger)
		if err != nil {
			logger.Fatal().Err(err).Msg("sheets service error")
		}
		go sheetsSvc.Run(ctx, cfg.SheetsSyncInterval(), 30)
	}

	apiLogger := logger.With().Str("component", "api").Logger()
	server := api.NewHTTPServer(core, sessions, db, cfg.Server.Managers, cfg.ServerPort(), &apiLogger)
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctxShutdown)
	}()

	logger.Info().Msg("canchapp server started")
	if err := server.Start(); err != nil {
		logger.Fatal().Err(err).Msg("API server error")
	}
}

func startHealthServer(ctx context.Context, port int, db *database.DB, rdb *redis.Client, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		ctxPing, cancel := context.WithTimeout(ctx, time.Second)
		defer cancel()
		if err := db.PingContext(ctxPing); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		if err := rdb.Ping(ctxPing).Err(); err != nil {
			http.Error(w, "redis not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("health server error")
	}
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
