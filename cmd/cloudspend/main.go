package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"cloudspend/internal/amqp"
	"cloudspend/internal/config"
	apphttp "cloudspend/internal/http"
	"cloudspend/internal/loader"
	"cloudspend/internal/storage"
	"cloudspend/internal/store"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()

	sources := loader.DefaultSources()
	if cfg.Sources != "" {
		parsed, err := loader.ParseSources(cfg.Sources)
		if err != nil {
			logger.Error("Invalid SOURCES configuration", "error", err)
			os.Exit(1)
		}
		sources = parsed
	}

	ldr := loader.New(cfg.DataDir, sources, logger)
	st := store.New()

	records, err := ldr.Load(ctx)
	if err != nil {
		logger.Error("Failed to load source data", "error", err)
		os.Exit(1)
	}
	st.SetInitial(records)

	// The SQLite mirror restores an uploaded set across restarts.
	var mirror apphttp.Mirror
	if cfg.DataBackend == "sqlite" {
		sqliteMirror, err := storage.NewSQLiteMirror(cfg.SQLiteDBPath)
		if err != nil {
			logger.Error("Failed to open SQLite mirror", "error", err, "path", cfg.SQLiteDBPath)
			os.Exit(1)
		}
		defer sqliteMirror.Close()
		mirror = sqliteMirror

		mirrored, err := sqliteMirror.LoadSet(ctx)
		if err != nil {
			logger.Error("Failed to restore mirrored set", "error", err)
			os.Exit(1)
		}
		if len(mirrored) > 0 {
			st.Replace(mirrored)
			logger.Info("Restored uploaded set from SQLite", "records", len(mirrored))
		}
	}

	var events apphttp.EventPublisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Events are best effort; the API works without a broker.
			logger.Warn("Failed to connect to AMQP, events disabled", "error", err)
		} else {
			defer client.Close()
			events = client
			logger.Info("AMQP event publishing enabled", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Deps{
		Store:          st,
		Loader:         ldr,
		Mirror:         mirror,
		Events:         events,
		MaxUploadBytes: cfg.MaxUploadBytes,
		CacheSize:      cfg.CacheSize,
		CacheTTL:       cfg.CacheTTL,
	})

	srv.ReadTimeout = 30 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting cloudspend server",
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
		"backend", cfg.DataBackend,
		"records", st.Len())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-runCtx.Done()
	logger.Info("Server stopped gracefully")
}

func logLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
