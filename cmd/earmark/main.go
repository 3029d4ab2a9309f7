// Command earmark is the voice-driven task capture server. It reads
// line-delimited transcripts on stdin (the capture collaborator's feed),
// turns task-like utterances into drafts, and serves diagnostics on HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mwalther/earmark/internal/app"
	"github.com/mwalther/earmark/internal/config"
	"github.com/mwalther/earmark/internal/observe"
)

// version is stamped by the build.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	// ── CLI flags ──────────────────────────────────────────────────────────────
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration file")
	watch := flag.Bool("watch", false, "reload tunable settings when the config file changes")
	flag.Parse()

	// ── Load configuration ────────────────────────────────────────────────────
	cfg, err := config.Load(*configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg = config.Default()
			fmt.Fprintf(os.Stderr, "earmark: config file %q not found, using defaults\n", *configPath)
		} else {
			fmt.Fprintf(os.Stderr, "earmark: %v\n", err)
			return 1
		}
	}

	// ── Logger ────────────────────────────────────────────────────────────────
	slog.SetDefault(newLogger(cfg.Server.LogLevel))

	slog.Info("earmark starting",
		"version", version,
		"config", *configPath,
		"listen_addr", cfg.Server.ListenAddr,
		"data_dir", cfg.Storage.DataDir,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Signal context ────────────────────────────────────────────────────────
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ── Telemetry ─────────────────────────────────────────────────────────────
	shutdownTelemetry, err := observe.InitProvider(ctx, observe.ProviderConfig{
		ServiceName:    "earmark",
		ServiceVersion: version,
	})
	if err != nil {
		slog.Error("failed to initialise telemetry", "err", err)
		return 1
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(flushCtx); err != nil {
			slog.Warn("telemetry shutdown error", "err", err)
		}
	}()

	// ── Application ───────────────────────────────────────────────────────────
	application, err := app.New(ctx, cfg, app.WithTranscriptSource(os.Stdin))
	if err != nil {
		slog.Error("failed to initialise application", "err", err)
		return 1
	}

	// ── Config watcher (optional) ─────────────────────────────────────────────
	if *watch {
		watcher, err := config.NewWatcher(*configPath, func(old, new *config.Config) {
			applyConfigChange(application, old, new)
		})
		if err != nil {
			slog.Warn("config watcher unavailable", "err", err)
		} else {
			defer watcher.Stop()
		}
	}

	slog.Info("server ready — press Ctrl+C to shut down")

	if err := application.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run error", "err", err)
		return 1
	}

	// ── Graceful shutdown ─────────────────────────────────────────────────────
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := application.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "err", err)
		return 1
	}
	slog.Info("goodbye")
	return 0
}

// applyConfigChange hot-applies what it can from a config reload and
// flags the rest as restart-only.
func applyConfigChange(application *app.App, old, new *config.Config) {
	d := config.Diff(old, new)
	if !d.HasChanges() {
		return
	}
	if d.LogLevelChanged {
		slog.SetDefault(newLogger(d.NewLogLevel))
		slog.Info("log level changed", "level", d.NewLogLevel)
	}
	if d.IntentThresholdChanged || d.VerifyThresholdChanged || d.ConfidenceFloorChanged {
		application.Pipeline().SetThresholds(
			new.Intent.Threshold,
			new.Capture.VerifyThreshold,
			new.Capture.ConfidenceFloor,
		)
		slog.Info("pipeline thresholds changed",
			"intent", new.Intent.Threshold,
			"verify", new.Capture.VerifyThreshold,
			"confidence_floor", new.Capture.ConfidenceFloor,
		)
	}
	if d.LexiconChanged || d.StorageChanged {
		slog.Warn("config change requires a restart to take effect",
			"lexicon_changed", d.LexiconChanged,
			"storage_changed", d.StorageChanged,
		)
	}
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
