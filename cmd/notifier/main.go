package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news_notifier/internal/bot"
	"news_notifier/internal/config"
	"news_notifier/internal/dispatch"
	"news_notifier/internal/scheduler"
	"news_notifier/internal/storage"
	"news_notifier/internal/targeting"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogLevel)

	if dir := filepath.Dir(cfg.DatabasePath); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			log.Error("create data directory", "path", dir, "error", err)
			os.Exit(1)
		}
	}

	store, err := storage.NewSQLite(cfg.DatabasePath)
	if err != nil {
		log.Error("open database", "path", cfg.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer func() { _ = store.Close() }()

	engine := targeting.New(store, log)
	sched := scheduler.New(store, engine, dispatch.NewLog(log), cfg.Feeds, log)
	sched.SetTickInterval(cfg.CheckInterval)
	sched.SetBatchSize(cfg.BatchSize)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var wg sync.WaitGroup

	if cfg.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              cfg.MetricsAddr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info("serving metrics", "addr", cfg.MetricsAddr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error("metrics server", "error", err)
			}
		}()
		go func() {
			<-ctx.Done()
			shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
			defer stop()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	if cfg.TelegramBotToken != "" {
		b, err := bot.New(cfg.TelegramBotToken, store, cfg, log)
		if err != nil {
			log.Error("create bot", "error", err)
			os.Exit(1)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.Run(ctx)
		}()
	} else {
		log.Info("TELEGRAM_BOT_TOKEN not set, preference bot disabled")
	}

	log.Info("starting notifier", "feeds", len(cfg.Feeds), "interval", cfg.CheckInterval)

	sched.Run(ctx)
	wg.Wait()

	log.Info("notifier stopped")
}

func metricsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLogLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
