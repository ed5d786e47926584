package server

import (
	"bufio"
	"context"
	"net"

	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// TCPListener accepts plain TCP connections framed by a single delimiter
// byte (no length prefix), producing one Session per connection.
type TCPListener struct {
	cfg     TCPConfig
	handler *Handler
	ln      net.Listener
	log     *zap.Logger
}

// NewTCPListener binds cfg.Addr. Call Serve to start accepting. A nil
// logger is replaced with a no-op logger.
func NewTCPListener(cfg TCPConfig, handler *Handler, logger *zap.Logger) (*TCPListener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, err
	}
	return &TCPListener{cfg: cfg, handler: handler, ln: ln, log: logger}, nil
}

// Serve accepts connections until the listener is closed.
func (l *TCPListener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}
		go serveDelimitedConn(conn, l.cfg.Delimiter, l.handler, l.log)
	}
}

// Close stops accepting new connections.
func (l *TCPListener) Close() error { return l.ln.Close() }

// serveDelimitedConn drives one accepted connection (TCP or IPC): frames
// are split on delim, each frame runs through the handler, and any
// notification pushes the session receives are written back as additional
// delimited frames.
func serveDelimitedConn(conn net.Conn, delim byte, handler *Handler, logger *zap.Logger) {
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
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
				if _, err := conn.Write(append(frame, delim)); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	scanner.Split(splitOnByte(delim))
	for scanner.Scan() {
		frame := append([]byte(nil), scanner.Bytes()...)
		response, ok := handler.HandleFrame(ctx, frame, sess)
		if !ok {
			continue
		}
		select {
		case writerCh <- response:
		case <-ctx.Done():
			return
		}
	}
	if err := scanner.Err(); err != nil {
		logger.Warn("read error", zap.Error(err))
	}
}

func splitOnByte(delim byte) func(data []byte, atEOF bool) (advance int, token []byte, err error) {
	return func(data []byte, atEOF bool) (advance int, token []byte, err error) {
		if atEOF && len(data) == 0 {
			return 0, nil, nil
		}
		for i, b := range data {
			if b == delim {
				return i + 1, data[:i], nil
			}
		}
		if atEOF {
			return len(data), data, nil
		}
		return 0, nil, nil
	}
}
