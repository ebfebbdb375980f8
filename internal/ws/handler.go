package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/DoyleJ11/domain-race-backend/internal/engine"
	"github.com/DoyleJ11/domain-race-backend/internal/hub"
	"github.com/DoyleJ11/domain-race-backend/internal/types"
)

const writeTimeout = 3 * time.Second

// Handler serves /ws/{room}/{username}. Each connection joins the room as one
// player until the socket closes.
func Handler(h *hub.Hub, logger *zap.Logger, originPatterns []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "room")))
		name := strings.TrimSpace(chi.URLParam(r, "username"))
		if code == "" || name == "" {
			http.Error(w, "missing room or username", http.StatusBadRequest)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns: originPatterns,
		})
		if err != nil {
			logger.Debug("websocket accept failed", zap.Error(err))
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		sess, err := h.Connect(code, name)
		if err != nil {
			logger.Warn("connect failed", zap.String("room", code), zap.Error(err))
			conn.Close(websocket.StatusTryAgainLater, types.ErrorText(engine.ErrRoomNotFound))
			return
		}
		log := logger.With(zap.String("room", code), zap.String("conn", sess.ConnID))
		defer h.Disconnect(sess.ConnID)

		// Writer goroutine
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for payload := range sess.Outbox {
				if err := write(writeCtx, conn, payload); err != nil {
					log.Debug("write failed", zap.Error(err))
					break
				}
			}
			// Outbox closed: dropped as slow, room reaped, or we left.
			conn.CloseNow()
		}()

		readLoop(r.Context(), conn, sess, log)
	}
}

// readLoop feeds client frames into the room until the socket fails. A panic
// is logged and ends only this connection.
func readLoop(ctx context.Context, conn *websocket.Conn, sess hub.Session, log *zap.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("connection loop panicked", zap.Any("panic", r))
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			// Treat clean close/going-away as normal:
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				log.Debug("read ended", zap.Error(err))
			}
			return
		}

		cmd, err := types.Decode(data)
		if err != nil {
			_ = write(ctx, conn, types.ErrorMessage(err))
			continue
		}

		// Classified rejections are delivered through the outbox by the room.
		err = sess.Lobby.Do(sess.ConnID, cmd)
		if errors.Is(err, engine.ErrRoomNotFound) {
			_ = write(ctx, conn, types.ErrorMessage(err))
			return
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, payload []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
