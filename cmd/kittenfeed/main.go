package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"

	"kittenfeed/internal/adapter/advice"
	adapthttp "kittenfeed/internal/adapter/http"
	"kittenfeed/internal/adapter/memory"
	"kittenfeed/internal/adapter/mongo"
	"kittenfeed/internal/adapter/postgres"
	"kittenfeed/internal/adapter/redis"
	"kittenfeed/internal/adapter/telegram"
	"kittenfeed/internal/app"
	"kittenfeed/internal/config"
	"kittenfeed/internal/domain"
	"kittenfeed/internal/logger"
	"kittenfeed/internal/metrics"
	"kittenfeed/internal/scheduler"
)

type command string

const (
	commandServe       command = "serve"
	commandMigrate     command = "migrate"
	commandHealthcheck command = "healthcheck"
)

// parseCommand returns the subcommand in args; anything unknown serves.
func parseCommand(args []string) command {
	if len(args) == 0 {
		return commandServe
	}
	switch command(args[0]) {
	case commandMigrate:
		return commandMigrate
	case commandHealthcheck:
		return commandHealthcheck
	default:
		return commandServe
	}
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		logrus.WithError(err).Fatal("kittenfeed exited")
	}
}

func run(args []string) error {
	cmd := parseCommand(args)

	// healthcheck runs inside minimal containers and only needs ADDR.
	if cmd == commandHealthcheck {
		return runHealthcheck(healthURL(os.Getenv("ADDR")))
	}

	if err := config.LoadDotEnv(); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	log := logger.New(os.Stdout, cfg.LogLevel)

	if cmd == commandMigrate {
		return runMigrate(cfg, log)
	}
	return runServe(cfg, log)
}

func runServe(cfg *config.Config, log *logrus.Logger) error {
	store, closeStore, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()
	log.WithField("store", cfg.Store).Info("state store ready")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.NewCollector(reg)

	states := app.NewStateService(store, cfg.Profile).WithRecorder(collector)
	summaries := app.NewSummaryService(states, cfg.Location)

	var provider domain.AdviceProvider
	if cfg.AdviceBaseURL != "" {
		provider = advice.NewClient(cfg.AdviceBaseURL, cfg.AdviceAPIKey, cfg.AdviceModel, cfg.AdviceRateLimit)
	}
	adviceSvc := app.NewAdviceService(summaries, provider, advice.Static{}, cfg.AdviceCacheTTL, log).WithRecorder(collector)

	notifier := telegram.New(cfg.TelegramBotToken, log)
	if !notifier.Enabled() {
		log.Warn("TELEGRAM_BOT_TOKEN not set; reminders are only logged")
	}
	reminders := app.NewReminderService(summaries, notifier, cfg.ReminderAfter, log).WithRecorder(collector)

	sched, err := scheduler.New(log)
	if err != nil {
		return err
	}
	err = sched.Every("feeding-reminders", cfg.ReminderPollInterval, func(ctx context.Context) error {
		n, err := reminders.Check(ctx, time.Now())
		if n > 0 {
			log.WithField("sent", n).Info("feeding reminders sent")
		}
		return err
	})
	if err != nil {
		return err
	}

	srv := adapthttp.New(states, summaries, adviceSvc, adapthttp.Options{
		WebDir:             cfg.WebDir,
		CORSAllowedOrigin:  cfg.CORSAllowedOrigin,
		RateLimitPerMinute: cfg.RateLimitPerMin,
		Logger:             log,
		Metrics:            collector,
		Gatherer:           reg,
	})
	defer srv.Close()

	httpServer := &http.Server{
		Addr:              cfg.Addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	sched.Start()

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", cfg.Addr).Info("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("shutting down")
	case err := <-errCh:
		if err != nil {
			_ = sched.Shutdown()
			return fmt.Errorf("http server: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.WithError(err).Error("http shutdown")
	}
	if err := sched.Shutdown(); err != nil {
		log.WithError(err).Error("scheduler shutdown")
	}
	log.Info("stopped")
	return nil
}

// openStore opens the configured state store and returns its closer.
func openStore(cfg *config.Config) (domain.StateRepository, func(), error) {
	switch cfg.Store {
	case config.StorePostgres:
		db, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		return db, func() { _ = db.Close() }, nil
	case config.StoreRedis:
		s, err := redis.Open(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("open redis: %w", err)
		}
		return s, func() { _ = s.Close() }, nil
	case config.StoreMongo:
		s, err := mongo.Open(cfg.MongoURL, cfg.MongoDB)
		if err != nil {
			return nil, nil, fmt.Errorf("open mongo: %w", err)
		}
		return s, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = s.Close(ctx)
		}, nil
	default:
		return memory.New(), func() {}, nil
	}
}

func runMigrate(cfg *config.Config, log *logrus.Logger) error {
	if cfg.DatabaseURL == "" {
		return errors.New("migrate: DATABASE_URL is required")
	}
	log.Info("running database migrations")
	if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	log.Info("database migrations completed")
	return nil
}

// healthURL maps a listen address such as ":8080" to the local health
// endpoint.
func healthURL(addr string) string {
	if addr == "" {
		addr = ":8080"
	}
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		host, port = "", "8080"
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port) + "/api/health"
}

func runHealthcheck(url string) error {
	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
