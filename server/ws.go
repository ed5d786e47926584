package server

import (
	"context"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// WebSocketListener accepts one long-lived connection per client and
// produces one Session per connection, so subscribe calls and their
// resulting push notifications work end-to-end.
type WebSocketListener struct {
	cfg     WebSocketConfig
	handler *Handler
	srv     *http.Server
	conns   atomic.Int64
	log     *zap.Logger
}

// NewWebSocketListener builds a WebSocket listener bound to cfg.Addr. A
// nil logger is replaced with a no-op logger.
func NewWebSocketListener(cfg WebSocketConfig, handler *Handler, logger *zap.Logger) *WebSocketListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &WebSocketListener{cfg: cfg, handler: handler, log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.acceptConn)
	l.srv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return l
}

func (l *WebSocketListener) ListenAndServe() error { return l.srv.ListenAndServe() }

func (l *WebSocketListener) Shutdown(ctx context.Context) error { return l.srv.Shutdown(ctx) }

func (l *WebSocketListener) acceptConn(w http.ResponseWriter, r *http.Request) {
	if l.cfg.MaxConnections > 0 && l.conns.Load() >= int64(l.cfg.MaxConnections) {
		http.Error(w, "too many connections", http.StatusServiceUnavailable)
		return
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		l.log.Warn("accept error", zap.Error(err))
		return
	}
	l.conns.Add(1)
	defer l.conns.Add(-1)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	writerCh := make(chan []byte, 64)
	sess := session.New(func(frame []byte) error {
		select {
		case writerCh <- frame:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	defer sess.Close()

	go func() {
		for {
			select {
			case frame, ok := <-writerCh:
				if !ok {
					return
				}
				if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			break
		}
		response, ok := l.handler.HandleFrame(ctx, data, sess)
		if !ok {
			continue
		}
		select {
		case writerCh <- response:
		case <-ctx.Done():
		}
	}

	_ = conn.Close(websocket.StatusNormalClosure, "")
}
