// Package app wires all Earmark subsystems into a running application.
//
// The App struct owns the full lifecycle: New creates and connects all
// subsystems, Run executes the serving loops, and Shutdown tears
// everything down in order.
//
// For testing, inject doubles via functional options (WithVerifier,
// WithStore, etc.). When an option is not provided, New creates real
// implementations from the config.
package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/mwalther/earmark/internal/config"
	"github.com/mwalther/earmark/internal/draft"
	"github.com/mwalther/earmark/internal/health"
	"github.com/mwalther/earmark/internal/intent"
	"github.com/mwalther/earmark/internal/lexicon"
	"github.com/mwalther/earmark/internal/observe"
	"github.com/mwalther/earmark/internal/pipeline"
	"github.com/mwalther/earmark/internal/speaker"
	"github.com/mwalther/earmark/internal/status"
)

// retentionSweepInterval is how often the draft store re-applies its
// retention window while the process runs.
const retentionSweepInterval = time.Hour

// App owns all subsystem lifetimes and orchestrates the capture pipeline.
type App struct {
	cfg *config.Config

	center   *status.Center
	store    *draft.Store
	verifier pipeline.Verifier
	lexicon  *lexicon.Manager
	pipe     *pipeline.Pipeline
	metrics  *observe.Metrics

	srv         *http.Server
	transcripts io.Reader

	// closers are called in order during Shutdown.
	closers []func() error

	stopOnce sync.Once
}

// Option is a functional option for New. Use these to inject test doubles.
type Option func(*App)

// WithVerifier injects a speaker verifier instead of creating an engine
// from the config paths.
func WithVerifier(v pipeline.Verifier) Option {
	return func(a *App) { a.verifier = v }
}

// WithStore injects a draft store instead of creating one from config.
func WithStore(s *draft.Store) Option {
	return func(a *App) { a.store = s }
}

// WithMetrics injects a Metrics instance instead of using the global one.
func WithMetrics(m *observe.Metrics) Option {
	return func(a *App) { a.metrics = m }
}

// WithTranscriptSource attaches a line-delimited transcript reader that
// Run feeds through the pipeline. This is how a capture collaborator (or
// a terminal, in development) hands utterances to the app.
func WithTranscriptSource(r io.Reader) Option {
	return func(a *App) { a.transcripts = r }
}

// New creates an App by wiring all subsystems together.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	a := &App{
		cfg:    cfg,
		center: status.NewCenter(),
	}
	for _, o := range opts {
		o(a)
	}
	a.center.Publish(status.StateLoading, "initialising")

	// ── 1. Storage ───────────────────────────────────────────────────────
	if err := os.MkdirAll(cfg.Storage.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("app: create data dir %q: %w", cfg.Storage.DataDir, err)
	}
	if a.metrics == nil {
		a.metrics = observe.DefaultMetrics()
	}
	if a.store == nil {
		a.store = draft.NewStore(cfg.Storage.DraftsPath(),
			draft.WithAccumulationFunc(func(int) {
				a.metrics.RecordAccumulationSignal(context.Background())
			}),
		)
	}

	// ── 2. Speaker engine ────────────────────────────────────────────────
	if a.verifier == nil {
		a.verifier = speaker.NewEngine(cfg.Storage.ProfilePath())
	}

	// ── 3. Lexicon feedback ──────────────────────────────────────────────
	a.lexicon = lexicon.NewManager(cfg.Storage.LexiconPath(), cfg.Storage.HintsPath())

	// ── 4. Recognizer + pipeline ─────────────────────────────────────────
	lex := intent.DefaultLexicon()
	if cfg.Intent.LexiconFile != "" {
		loaded, err := intent.LoadLexicon(cfg.Intent.LexiconFile)
		if err != nil {
			slog.Warn("app: lexicon override unusable, using built-in tables",
				"path", cfg.Intent.LexiconFile, "err", err)
		} else {
			lex = loaded
		}
	}
	a.pipe = pipeline.New(pipeline.Config{
		Recognizer:      intent.NewRecognizer(lex),
		Verifier:        a.verifier,
		Store:           a.store,
		Center:          a.center,
		Metrics:         a.metrics,
		IntentThreshold: cfg.Intent.Threshold,
		VerifyThreshold: cfg.Capture.VerifyThreshold,
		ConfidenceFloor: cfg.Capture.ConfidenceFloor,
	})

	// ── 5. Diagnostics server ────────────────────────────────────────────
	a.srv = a.buildServer()
	a.closers = append(a.closers, func() error {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	a.center.Publish(status.StateReady, "listening")
	return a, nil
}

// buildServer assembles the /healthz, /readyz, and /metrics mux.
func (a *App) buildServer() *http.Server {
	mux := http.NewServeMux()
	health.New(
		health.StorageDir(a.cfg.Storage.DataDir),
		health.Listener(func() bool {
			s := a.center.Current().State
			return s == status.StateReady || s == status.StateRecognizing
		}),
	).Register(mux)
	mux.Handle("GET /metrics", promhttp.Handler())

	return &http.Server{
		Addr:              a.cfg.Server.ListenAddr,
		Handler:           observe.Middleware(a.metrics)(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Status returns the listener status center.
func (a *App) Status() *status.Center { return a.center }

// Drafts returns the draft store.
func (a *App) Drafts() *draft.Store { return a.store }

// Pipeline returns the capture pipeline.
func (a *App) Pipeline() *pipeline.Pipeline { return a.pipe }

// ConfirmDraft marks the draft as processed and feeds its cleaned text
// back into the lexicon so the speech engine recognizes it better next
// time. Unknown ids only mark (a no-op) and feed nothing back.
func (a *App) ConfirmDraft(ctx context.Context, id string) {
	for _, d := range a.store.GetAllDrafts() {
		if d.ID != id {
			continue
		}
		a.store.MarkAsProcessed(id)
		a.lexicon.RecordConfirmedPhrase(d.CleanedText)
		a.metrics.RecordConfirmedPhrase(ctx)
		return
	}
	slog.Debug("app: confirm for unknown draft id", "id", id)
}

// Run executes the serving loops until ctx is cancelled: the diagnostics
// HTTP server, the periodic retention sweep, and (when configured) the
// transcript source feed.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("diagnostics server listening", "addr", a.srv.Addr)
		if err := a.srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("app: serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		ticker := time.NewTicker(retentionSweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				a.store.Refresh()
			}
		}
	})

	if a.transcripts != nil {
		g.Go(func() error {
			return a.feedTranscripts(ctx)
		})
	}

	return g.Wait()
}

// feedTranscripts reads line-delimited utterances from the transcript
// source and runs each through the pipeline until EOF or cancellation.
func (a *App) feedTranscripts(ctx context.Context) error {
	scanner := bufio.NewScanner(a.transcripts)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		text := scanner.Text()
		if text == "" {
			continue
		}
		res, err := a.pipe.Process(ctx, pipeline.Utterance{
			Text:   text,
			At:     time.Now(),
			Source: draft.SourceManual,
		})
		if err != nil {
			slog.Warn("app: process utterance", "err", err)
			continue
		}
		slog.Debug("app: utterance processed", "outcome", res.Outcome)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("app: transcript source: %w", err)
	}
	return nil
}

// Shutdown tears down all subsystems in order. It respects the context
// deadline: if ctx expires before all closers finish, remaining closers
// are skipped and the context error is returned.
func (a *App) Shutdown(ctx context.Context) error {
	var shutdownErr error
	a.stopOnce.Do(func() {
		slog.Info("shutting down", "closers", len(a.closers))
		a.center.Publish(status.StateUnavailable, "shutting down")

		for i, closer := range a.closers {
			select {
			case <-ctx.Done():
				slog.Warn("shutdown deadline exceeded", "remaining", len(a.closers)-i)
				shutdownErr = ctx.Err()
				return
			default:
			}
			if err := closer(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Warn("closer error", "index", i, "err", err)
			}
		}

		slog.Info("shutdown complete")
	})
	return shutdownErr
}
