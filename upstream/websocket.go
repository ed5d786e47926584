package upstream

import (
	"context"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// WebSocket is an upstream Transport backed by a WebSocket connection.
type WebSocket struct {
	base
	ctx    context.Context
	cancel context.CancelFunc
	conn   *websocket.Conn
}

// NewWebSocket dials url and starts the reader/writer goroutines. The
// returned Transport is ready to use once this call returns. A nil logger
// is replaced with a no-op logger.
func NewWebSocket(ctx context.Context, url string, logger *zap.Logger) (*WebSocket, error) {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.SetReadLimit(32 << 20)

	wctx, cancel := context.WithCancel(ctx)
	w := &WebSocket{
		base:   newBase(logger),
		ctx:    wctx,
		cancel: cancel,
		conn:   conn,
	}
	go w.readerRoutine()
	go w.writerRoutine()
	go w.contextHandlerRoutine()
	return w, nil
}

func (w *WebSocket) readerRoutine() {
	defer w.Close()
	for {
		_, data, err := w.conn.Read(w.ctx)
		if err != nil {
			if w.ctx.Err() == nil {
				w.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		w.shared.Dispatch(data)
	}
}

func (w *WebSocket) writerRoutine() {
	for {
		select {
		case frame, ok := <-w.writerCh:
			if !ok {
				return
			}
			if err := w.conn.Write(w.ctx, websocket.MessageText, frame); err != nil {
				w.log.Warn("websocket write error", zap.Error(err))
				w.Close()
				return
			}
		case <-w.ctx.Done():
			return
		}
	}
}

func (w *WebSocket) contextHandlerRoutine() {
	<-w.ctx.Done()
	_ = w.conn.Close(websocket.StatusNormalClosure, "")
}

func (w *WebSocket) Send(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error) {
	return w.send(ctx, method, params)
}

func (w *WebSocket) Subscribe(ctx context.Context, sess *session.Session, sub Descriptor, params jsonrpc.Params) ([]byte, error) {
	return w.subscribe(ctx, sess, sub, params, w.send)
}

func (w *WebSocket) Unsubscribe(ctx context.Context, sub Descriptor, params jsonrpc.Params) ([]byte, error) {
	return w.unsubscribe(ctx, sub, params, w.send)
}

func (w *WebSocket) Close() error {
	w.close()
	w.cancel()
	return nil
}
