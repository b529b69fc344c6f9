package ws

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/trackly/trackly-api/internal/handler/stream"
	"github.com/trackly/trackly-api/internal/service"
)

const writeWait = 10 * time.Second

type WSHandler struct {
	logger   *slog.Logger
	authn    service.Authenticator
	session  *stream.Session
	upgrader websocket.Upgrader
}

func NewWSHandler(logger *slog.Logger, authn service.Authenticator, session *stream.Session) *WSHandler {
	return &WSHandler{
		logger:  logger,
		authn:   authn,
		session: session,
		upgrader: websocket.Upgrader{
			// Credentials travel in the query string, not in cookies.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

func (h *WSHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// 1. AUTHENTICATE before the upgrade so a bad token gets a plain 401.
	identity, ok := stream.Authorize(w, r, h.authn)
	if !ok {
		return
	}

	// 2. UPGRADE TO WEBSOCKET
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("[WS] upgrade failed", slog.Any("err", err))
		return
	}
	defer conn.Close()

	// 3. READER: the stream is push-only, reads exist to notice the close.
	ctx, cancel := context.WithCancelCause(r.Context())
	defer cancel(nil)
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel(err)
				return
			}
		}
	}()

	// 4. PUMP
	err = h.session.Run(ctx, identity, &sink{conn: conn})

	code, text := websocket.CloseNormalClosure, ""
	if errors.Is(err, stream.ErrClosedByServer) {
		code, text = websocket.CloseGoingAway, "session closed by server"
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text), time.Now().Add(writeWait))
}

type sink struct {
	conn *websocket.Conn
}

func (s *sink) Send(frame []byte) error {
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Flush is a no-op: every WriteMessage is a complete frame on the wire.
func (s *sink) Flush() error { return nil }
