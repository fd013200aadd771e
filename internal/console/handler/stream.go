package handler

import (
	"net/http"
	"time"

	"github.com/cjaisingh/awip-mission-control-sub000/internal/infra"
	"github.com/cjaisingh/awip-mission-control-sub000/internal/store"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const maxReadSize = 512

// StateWatcher: подписка на изменения Store.
type StateWatcher interface {
	Snapshot() store.State
	Watch(fn func(store.State)) (cancel func())
}

// StreamHandler отдает клиенту снапшот Store при подключении и после каждого изменения.
// Медленный клиент получает только последнее состояние: промежуточные пропускаются.
type StreamHandler struct {
	watcher  StateWatcher
	cfg      infra.StreamConfig
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewStreamHandler(w StateWatcher, cfg infra.StreamConfig, logger *zap.Logger) *StreamHandler {
	return &StreamHandler{
		watcher: w,
		cfg:     cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		logger: logger.Named("stream"),
	}
}

// Serve: GET /api/v1/stream
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.String("remote", r.RemoteAddr), zap.Error(err))
		return
	}
	defer conn.Close()

	updates := make(chan store.State, 1)
	push := func(st store.State) {
		select {
		case updates <- st:
			return
		default:
		}
		// буфер занят: выкидываем устаревшее состояние
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- st:
		default:
		}
	}
	cancel := h.watcher.Watch(push)
	defer cancel()
	push(h.watcher.Snapshot())

	closed := make(chan struct{})
	go h.readPump(conn, closed)

	ticker := time.NewTicker(h.cfg.PingInterval)
	defer ticker.Stop()

	h.logger.Debug("stream client connected", zap.String("remote", r.RemoteAddr))
	for {
		select {
		case <-closed:
			h.logger.Debug("stream client disconnected", zap.String("remote", r.RemoteAddr))
			return
		case <-r.Context().Done():
			return
		case st := <-updates:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteJSON(st); err != nil {
				h.logger.Debug("stream write failed", zap.Error(err))
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(h.cfg.WriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump обрабатывает pong и close; входящие сообщения игнорируются.
func (h *StreamHandler) readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(maxReadSize)
	conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.cfg.PongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
