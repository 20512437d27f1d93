package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/MrWong99/elephantmem/internal/observe"
)

// writeTimeout bounds a single frame write.
const writeTimeout = 5 * time.Second

// handleStatsStream upgrades to a WebSocket and sends a stats frame right
// away and then every stats interval until the client goes away. Messages
// from the client are discarded.
func (s *Server) handleStatsStream(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		observe.Logger(r.Context()).Debug("stats stream: accept failed", "err", err)
		return
	}
	defer conn.CloseNow()

	ctx := conn.CloseRead(r.Context())
	err = s.streamStats(ctx, conn)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		conn.Close(websocket.StatusNormalClosure, "")
	case websocket.CloseStatus(err) != -1:
		// Client closed the connection.
	default:
		slog.Debug("stats stream ended", "err", err)
		conn.Close(websocket.StatusInternalError, "stream failed")
	}
}

func (s *Server) streamStats(ctx context.Context, conn *websocket.Conn) error {
	interval := s.backend.StatsInterval()
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		wctx, cancel := context.WithTimeout(ctx, writeTimeout)
		err := wsjson.Write(wctx, conn, s.backend.Frame())
		cancel()
		if err != nil {
			return err
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
		if d := s.backend.StatsInterval(); d != interval {
			interval = d
			t.Reset(interval)
		}
	}
}
