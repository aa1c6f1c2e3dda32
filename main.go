package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"room-monitor/internal/alerting/application"
	"room-monitor/internal/alerting/notify"
	"room-monitor/internal/config"
	"room-monitor/internal/logstore"
	"room-monitor/internal/monitor"
	"room-monitor/internal/observability/metrics"
	"room-monitor/internal/sensing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	configPath := flag.String("config", envDefault("MONITOR_CONFIG", "config.yaml"), "path to the monitor configuration file")
	flag.Parse()

	logger := log.New(os.Stdout, "", log.LstdFlags)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("configuration error: %v", err)
	}

	metrics.Init()

	sensor, err := sensing.OpenSHT4x(cfg.I2CBus)
	if err != nil {
		logger.Fatalf("sensor init error: %v", err)
	}
	defer sensor.Close()
	reader, err := sensing.NewBoundedReader(sensor, cfg.SensorTimeout)
	if err != nil {
		logger.Fatalf("sensor init error: %v", err)
	}

	channel, err := buildChannel(cfg)
	if err != nil {
		logger.Fatalf("alert channel error: %v", err)
	}
	notifier, err := application.NewNotifier(channel, nil, cfg.Room,
		application.WithCooldown(cfg.Cooldown),
		application.WithSendTimeout(cfg.SendTimeout),
		application.WithLogger(logger),
	)
	if err != nil {
		logger.Fatalf("notifier error: %v", err)
	}

	store, closeStore, err := buildStore(cfg, logger)
	if err != nil {
		logger.Fatalf("log store error: %v", err)
	}
	defer closeStore()

	loop, err := monitor.New(reader, cfg.TempRange, cfg.HumidityRange, notifier, store, cfg.Interval, logger)
	if err != nil {
		logger.Fatalf("monitor error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	opsServer := &http.Server{Addr: cfg.HTTPAddr, Handler: mux}
	go func() {
		if err := opsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Printf("ops server error: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Printf("monitoring room %s every %v (log root %s)", cfg.Room, cfg.Interval, cfg.LogRoot)
	err = loop.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = opsServer.Shutdown(shutdownCtx)

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatalf("monitor stopped: %v", err)
	}
	logger.Println("monitor stopped")
}

func buildChannel(cfg config.Config) (notify.Channel, error) {
	var channels []notify.Channel
	if cfg.SendGridAPIKey != "" {
		email, err := notify.NewEmailChannel(cfg.SendGridAPIKey, cfg.Sender, cfg.Receivers)
		if err != nil {
			return nil, err
		}
		channels = append(channels, email)
	}
	if cfg.WebhookURL != "" {
		webhook, err := notify.NewWebhookChannel(cfg.WebhookURL)
		if err != nil {
			return nil, err
		}
		channels = append(channels, webhook)
	}
	if len(channels) == 1 {
		return channels[0], nil
	}
	return notify.NewMultiChannel(channels...), nil
}

func buildStore(cfg config.Config, logger *log.Logger) (logstore.Store, func(), error) {
	fileStore, err := logstore.NewFileStore(cfg.LogRoot)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DatabaseURL == "" {
		return fileStore, func() { fileStore.Close() }, nil
	}

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		fileStore.Close()
		return nil, nil, err
	}
	if err := db.Ping(); err != nil {
		fileStore.Close()
		db.Close()
		return nil, nil, err
	}
	pgStore, err := logstore.NewPostgresStore(db)
	if err != nil {
		fileStore.Close()
		db.Close()
		return nil, nil, err
	}
	if err := pgStore.EnsureSchema(context.Background()); err != nil {
		fileStore.Close()
		db.Close()
		return nil, nil, err
	}
	logger.Printf("mirroring log records to postgres")

	closer := func() {
		fileStore.Close()
		db.Close()
	}
	return logstore.NewMultiStore(fileStore, pgStore), closer, nil
}

func envDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
