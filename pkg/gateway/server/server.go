// Package server wires the REST and live routes behind the middleware chain.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prepwise/interviewd/pkg/gateway/config"
	"github.com/prepwise/interviewd/pkg/gateway/handlers"
	"github.com/prepwise/interviewd/pkg/gateway/lifecycle"
	"github.com/prepwise/interviewd/pkg/gateway/live/sessions"
	"github.com/prepwise/interviewd/pkg/gateway/mw"
)

type Server struct {
	cfg    config.Config
	logger *slog.Logger
	mux    *http.ServeMux

	engine    handlers.InterviewEngine
	lifecycle *lifecycle.Lifecycle
	live      *sessions.Tracker
}

func New(cfg config.Config, engine handlers.InterviewEngine, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger,
		mux:       http.NewServeMux(),
		engine:    engine,
		lifecycle: &lifecycle.Lifecycle{},
		live:      sessions.NewTracker(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.Handle("GET /healthz", handlers.HealthHandler{})
	s.mux.Handle("GET /readyz", handlers.ReadyHandler{Config: s.cfg, Lifecycle: s.lifecycle})

	s.mux.Handle("POST /v1/interviews", handlers.StartHandler{Config: s.cfg, Engine: s.engine, Logger: s.logger})
	s.mux.Handle("POST /v1/interviews/{id}/answer", handlers.AnswerHandler{Config: s.cfg, Engine: s.engine, Logger: s.logger})
	s.mux.Handle("POST /v1/interviews/{id}/end", handlers.EndHandler{Engine: s.engine, Logger: s.logger})
	s.mux.Handle("GET /v1/interviews/{id}/status", handlers.StatusHandler{Engine: s.engine, Logger: s.logger})
	s.mux.Handle("POST /v1/interviews/{id}/pause", handlers.PauseHandler{Engine: s.engine, Logger: s.logger})
	s.mux.Handle("POST /v1/interviews/{id}/resume", handlers.ResumeHandler{Engine: s.engine, Logger: s.logger})

	s.mux.Handle("GET /v1/interviews/live", handlers.LiveHandler{
		Config:       s.cfg,
		Engine:       s.engine,
		Logger:       s.logger,
		Lifecycle:    s.lifecycle,
		LiveSessions: s.live,
	})

	s.mux.Handle("/", handlers.NotFoundHandler{})
}

func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	h = mw.Auth(s.cfg, h)
	h = mw.Recover(s.logger, h)
	h = mw.AccessLog(s.logger, h)
	h = mw.RequestID(h)
	return h
}

// SetDraining flips the server into drain mode: readiness fails and new live
// connections are refused. In-flight requests and connections continue.
func (s *Server) SetDraining() {
	s.lifecycle.SetDraining(true)
}

func (s *Server) IsDraining() bool { return s.lifecycle.IsDraining() }

// WarnLiveSessionsDraining notifies every open live connection that the server
// is about to stop.
func (s *Server) WarnLiveSessionsDraining() int {
	return s.live.WarnAll("draining", "server is shutting down")
}

// WaitLiveSessions blocks until every live connection has closed or ctx
// expires. It reports whether all connections finished.
func (s *Server) WaitLiveSessions(ctx context.Context) bool {
	return s.live.Wait(ctx)
}

// CancelLiveSessions force-cancels any live connections still open.
func (s *Server) CancelLiveSessions() int {
	return s.live.CancelAll()
}
