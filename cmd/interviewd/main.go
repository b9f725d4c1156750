package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/prepwise/interviewd/internal/dotenv"
	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/ai/gemini"
	"github.com/prepwise/interviewd/pkg/engine/convo"
	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/engine/voice"
	"github.com/prepwise/interviewd/pkg/gateway/config"
	"github.com/prepwise/interviewd/pkg/gateway/handlers"
	gatewayserver "github.com/prepwise/interviewd/pkg/gateway/server"
	"github.com/prepwise/interviewd/pkg/storage/memory"
	"github.com/prepwise/interviewd/pkg/storage/postgres"
)

type serverDeps struct {
	loadConfig   func() (config.Config, error)
	buildEngine  func(context.Context, config.Config, *slog.Logger) (handlers.InterviewEngine, func(), error)
	newGateway   func(config.Config, handlers.InterviewEngine, *slog.Logger) *gatewayserver.Server
	signalNotify func(chan<- os.Signal, ...os.Signal)
	signalStop   func(chan<- os.Signal)
}

func defaultServerDeps() serverDeps {
	return serverDeps{
		loadConfig:   config.LoadFromEnv,
		buildEngine:  buildEngine,
		newGateway:   gatewayserver.New,
		signalNotify: func(c chan<- os.Signal, sig ...os.Signal) { signal.Notify(c, sig...) },
		signalStop:   signal.Stop,
	}
}

// buildEngine assembles the interview engine from config: Gemini credentials
// behind the rotating orchestrator, a Redis or in-process conversation store,
// and a Postgres or in-process session store.
func buildEngine(ctx context.Context, cfg config.Config, logger *slog.Logger) (handlers.InterviewEngine, func(), error) {
	clients := make([]ai.Client, 0, len(cfg.GeminiAPIKeys))
	var first *gemini.Client
	for _, key := range cfg.GeminiAPIKeys {
		gc, err := gemini.New(ctx, key, gemini.WithDefaultModel(cfg.Model))
		if err != nil {
			return nil, nil, fmt.Errorf("gemini client: %w", err)
		}
		if first == nil {
			first = gc
		}
		clients = append(clients, gc)
	}
	orch, err := ai.NewOrchestrator(clients, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("orchestrator: %w", err)
	}

	var backend convo.Backend
	var closers []func()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		closers = append(closers, func() { _ = rdb.Close() })
		backend = convo.NewRedisBackend(rdb, cfg.ConvoTTL)
		logger.Info("conversation store", "backend", "redis", "addr", cfg.RedisAddr)
	} else {
		backend = convo.NewMemoryBackend()
		logger.Info("conversation store", "backend", "memory")
	}
	convoStore := convo.NewStore(backend, orch, cfg.Model, logger)

	var store interview.Store
	if cfg.PostgresDSN != "" {
		pg, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			for _, c := range closers {
				c()
			}
			return nil, nil, fmt.Errorf("postgres: %w", err)
		}
		closers = append(closers, pg.Close)
		store = pg
		logger.Info("session store", "backend", "postgres")
	} else {
		store = memory.New()
		logger.Info("session store", "backend", "memory")
	}

	analyzer := voice.NewAnalyzer(gemini.NewTranscriber(first, cfg.Model))

	eng := interview.NewEngine(store, convoStore, logger,
		interview.WithDefaultTotalQuestions(cfg.DefaultTotalQuestions),
		interview.WithAnalyzer(analyzer),
	)
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	return eng, cleanup, nil
}

func buildHTTPServer(cfg config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		ReadTimeout:       cfg.ReadTimeout,
	}
}

func runServer(ctx context.Context, logger *slog.Logger, deps serverDeps) error {
	if deps.loadConfig == nil || deps.buildEngine == nil || deps.newGateway == nil {
		return errors.New("missing build dependency")
	}
	if deps.signalNotify == nil || deps.signalStop == nil {
		return errors.New("missing signal dependency")
	}
	if logger == nil {
		logger = slog.Default()
	}

	cfg, err := deps.loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	engine, cleanup, err := deps.buildEngine(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("build engine: %w", err)
	}
	defer cleanup()

	gw := deps.newGateway(cfg, engine, logger)
	httpSrv := buildHTTPServer(cfg, gw.Handler())

	logger.Info("starting interviewd", "addr", cfg.Addr, "auth_mode", cfg.AuthMode, "model", cfg.Model)

	listenErrCh := make(chan error, 1)
	go func() {
		err := httpSrv.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			listenErrCh <- err
			return
		}
		listenErrCh <- nil
	}()

	sigCh := make(chan os.Signal, 1)
	deps.signalNotify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer deps.signalStop(sigCh)

	select {
	case err := <-listenErrCh:
		if err != nil {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	}

	gw.SetDraining()
	gw.WarnLiveSessionsDraining()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer shutdownCancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}

	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer waitCancel()
	if !gw.WaitLiveSessions(waitCtx) {
		gw.CancelLiveSessions()
	}

	if err := <-listenErrCh; err != nil {
		return fmt.Errorf("serve: %w", err)
	}

	logger.Info("interviewd stopped")
	return nil
}

func runMain(ctx context.Context, stderr io.Writer, deps serverDeps) int {
	if stderr == nil {
		stderr = os.Stderr
	}
	logger := slog.New(slog.NewTextHandler(stderr, nil))

	if err := dotenv.LoadFile(".env"); err != nil {
		fmt.Fprintf(stderr, "interviewd: %v\n", err)
		return 1
	}

	if err := runServer(ctx, logger, deps); err != nil {
		fmt.Fprintf(stderr, "interviewd: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(runMain(context.Background(), os.Stderr, defaultServerDeps()))
}
