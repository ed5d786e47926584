package upstream

import (
	"context"
	"encoding/json"
	"net"

	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// IPC is an upstream Transport backed by a Unix-domain socket, newline
// framed via an encoding/json stream.
type IPC struct {
	base
	ctx    context.Context
	cancel context.CancelFunc
	conn   net.Conn
	dec    *json.Decoder
	enc    *json.Encoder
}

// NewIPC dials the Unix socket at path and starts the reader/writer
// goroutines. A nil logger is replaced with a no-op logger.
func NewIPC(ctx context.Context, path string, logger *zap.Logger) (*IPC, error) {
	conn, err := (&net.Dialer{}).DialContext(ctx, "unix", path)
	if err != nil {
		return nil, err
	}

	ictx, cancel := context.WithCancel(ctx)
	i := &IPC{
		base:   newBase(logger),
		ctx:    ictx,
		cancel: cancel,
		conn:   conn,
		dec:    json.NewDecoder(conn),
		enc:    json.NewEncoder(conn),
	}
	go i.readerRoutine()
	go i.writerRoutine()
	go i.contextHandlerRoutine()
	return i, nil
}

func (i *IPC) readerRoutine() {
	defer i.Close()
	for {
		var raw json.RawMessage
		if err := i.dec.Decode(&raw); err != nil {
			if i.ctx.Err() == nil {
				i.log.Warn("ipc read error", zap.Error(err))
			}
			return
		}
		i.shared.Dispatch(raw)
	}
}

func (i *IPC) writerRoutine() {
	for {
		select {
		case frame, ok := <-i.writerCh:
			if !ok {
				return
			}
			if err := i.enc.Encode(json.RawMessage(frame)); err != nil {
				i.log.Warn("ipc write error", zap.Error(err))
				i.Close()
				return
			}
		case <-i.ctx.Done():
			return
		}
	}
}

func (i *IPC) contextHandlerRoutine() {
	<-i.ctx.Done()
	_ = i.conn.Close()
}

func (i *IPC) Send(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error) {
	return i.send(ctx, method, params)
}

func (i *IPC) Subscribe(ctx context.Context, sess *session.Session, sub Descriptor, params jsonrpc.Params) ([]byte, error) {
	return i.subscribe(ctx, sess, sub, params, i.send)
}

func (i *IPC) Unsubscribe(ctx context.Context, sub Descriptor, params jsonrpc.Params) ([]byte, error) {
	return i.unsubscribe(ctx, sub, params, i.send)
}

func (i *IPC) Close() error {
	i.close()
	i.cancel()
	return nil
}
