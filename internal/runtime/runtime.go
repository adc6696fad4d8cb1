package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonallabs/tonal-core/internal/affect"
	"github.com/tonallabs/tonal-core/internal/bus"
	"github.com/tonallabs/tonal-core/internal/config"
	"github.com/tonallabs/tonal-core/internal/eventstore"
	"github.com/tonallabs/tonal-core/internal/listen"
	"github.com/tonallabs/tonal-core/internal/natsserver"
	"github.com/tonallabs/tonal-core/internal/punct"
	"github.com/tonallabs/tonal-core/internal/session"
)

// Runtime wires the daemon together: telemetry, the message bus, the event
// store, the recognition/affect/punctuation backends, and the session
// service, plus the HTTP health surface.
type Runtime struct {
	cfg         config.Config
	logger      *slog.Logger
	httpServer  *http.Server
	tracerClose func(context.Context) error
	ready       atomic.Bool
	wg          sync.WaitGroup
}

func New(cfg config.Config, logger *slog.Logger) *Runtime {
	return &Runtime{
		cfg:    cfg,
		logger: logger,
	}
}

func (r *Runtime) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	shutdownTelemetry, metricsHandler, err := setupTelemetry(r.cfg, r.logger)
	if err != nil {
		return fmt.Errorf("failed to setup telemetry: %w", err)
	}
	r.tracerClose = shutdownTelemetry

	embedded, err := natsserver.Start(r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to start embedded bus: %w", err)
	}
	defer embedded.Shutdown()

	busClient, err := bus.Connect(ctx, r.cfg.Bus, r.logger)
	if err != nil {
		return fmt.Errorf("failed to connect to bus: %w", err)
	}
	defer busClient.Close()

	store, err := eventstore.Open(ctx, r.cfg.EventStore, r.logger)
	if err != nil {
		return fmt.Errorf("failed to open event store: %w", err)
	}
	defer store.Close()

	source, err := buildSource(r.cfg.Recognizer)
	if err != nil {
		return fmt.Errorf("failed to initialize recognizer: %w", err)
	}

	classifier, err := buildClassifier(r.cfg.Affect)
	if err != nil {
		return fmt.Errorf("failed to initialize affect classifier: %w", err)
	}
	analyzer := affect.NewAnalyzer(classifier, r.logger)

	// Punctuation is fail-open: a backend that cannot be built degrades to
	// the trim-and-terminate fallback instead of blocking startup.
	backend, err := buildPunctBackend(r.cfg.Punctuation)
	if err != nil {
		r.logger.Warn("punctuation backend unavailable, using fallback", slog.String("error", err.Error()))
		backend = nil
	}
	restorer := punct.NewRestorer(backend, r.logger)

	svc := session.NewService(ctx, r.cfg, busClient, source, restorer, analyzer, store, r.logger)
	if err := svc.Start(); err != nil {
		return fmt.Errorf("failed to start session service: %w", err)
	}
	defer svc.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", r.handleHealth)
	mux.HandleFunc("/readyz", r.handleReady)
	if metricsHandler != nil {
		mux.Handle("/metrics", metricsHandler)
	}

	addr := fmt.Sprintf("%s:%d", r.cfg.HTTP.Bind, r.cfg.HTTP.Port)
	r.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			r.logger.Error("http server failed", slog.String("error", err.Error()))
		}
	}()

	r.ready.Store(true)
	r.logger.Info("runtime started",
		slog.String("addr", addr),
		slog.String("recognizer", r.cfg.Recognizer.Mode),
		slog.String("affect", r.cfg.Affect.Mode),
		slog.String("punctuation", r.cfg.Punctuation.Mode))

	<-ctx.Done()
	r.ready.Store(false)
	r.logger.Info("runtime stopping")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	if err := r.httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Error("http shutdown error", slog.String("error", err.Error()))
	}
	r.wg.Wait()

	if r.tracerClose != nil {
		if err := r.tracerClose(shutdownCtx); err != nil {
			r.logger.Error("telemetry shutdown error", slog.String("error", err.Error()))
		}
	}

	return nil
}

func buildSource(cfg config.RecognizerConfig) (listen.Source, error) {
	switch cfg.Mode {
	case "exec":
		return listen.NewExecSource(cfg)
	default:
		return listen.NewMockSource(), nil
	}
}

func buildClassifier(cfg config.AffectConfig) (affect.Classifier, error) {
	switch cfg.Mode {
	case "exec":
		return affect.NewExecClassifier(cfg)
	case "http":
		return affect.NewHTTPClassifier(cfg), nil
	default:
		return affect.NewMockClassifier(), nil
	}
}

func buildPunctBackend(cfg config.PunctuationConfig) (punct.Backend, error) {
	switch cfg.Mode {
	case "exec":
		return punct.NewExecBackend(cfg)
	case "http":
		return punct.NewHTTPBackend(cfg), nil
	default:
		return punct.NewMockBackend(), nil
	}
}

func (r *Runtime) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (r *Runtime) handleReady(w http.ResponseWriter, _ *http.Request) {
	if r.ready.Load() {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	_, _ = w.Write([]byte("not ready"))
}
