package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/gateway/config"
	"github.com/prepwise/interviewd/pkg/gateway/lifecycle"
	"github.com/prepwise/interviewd/pkg/gateway/live/session"
	"github.com/prepwise/interviewd/pkg/gateway/live/sessions"
	"github.com/prepwise/interviewd/pkg/gateway/mw"
)

// LiveHandler handles GET /v1/interviews/live websocket connections.
type LiveHandler struct {
	Config       config.Config
	Engine       session.Engine
	Logger       *slog.Logger
	Lifecycle    *lifecycle.Lifecycle
	LiveSessions *sessions.Tracker
}

func (h LiveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if r.Method != http.MethodGet {
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrInvalidRequest, Message: "method not allowed", Code: "method_not_allowed",
		}, http.StatusMethodNotAllowed)
		return
	}
	if h.Lifecycle.IsDraining() {
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrOverloaded, Message: "server is draining", Code: "draining",
		}, http.StatusServiceUnavailable)
		return
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure.
		return
	}
	defer conn.Close()

	live := session.New(conn, h.Engine, ownerFrom(r), session.Config{
		MaxJSONMessageBytes: h.Config.LiveMaxJSONMessageBytes,
		MaxAudioBytes:       h.Config.LiveMaxAudioBytes,
		HandshakeTimeout:    h.Config.LiveHandshakeTimeout,
		WriteTimeout:        h.Config.LiveWSWriteTimeout,
		PingInterval:        h.Config.LiveWSPingInterval,
	}, h.Logger)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	unregister := h.LiveSessions.Register(reqID, sessions.Handle{
		Cancel: cancel,
		Warn:   live.Warn,
	})
	defer unregister()

	if err := live.Run(ctx); err != nil && h.Logger != nil {
		h.Logger.Warn("live session ended", "request_id", reqID, "session_id", live.SessionID(), "error", err)
	}
}
