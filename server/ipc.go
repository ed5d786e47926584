package server

import (
	"net"
	"os"

	"go.uber.org/zap"
)

// IPCListener accepts connections on a Unix-domain socket, framed the same
// way as TCPListener (delimiter-separated, default newline).
type IPCListener struct {
	cfg     IPCConfig
	handler *Handler
	ln      net.Listener
	log     *zap.Logger
}

// NewIPCListener removes any stale socket file at cfg.Path and binds a new
// one. Call Serve to start accepting. A nil logger is replaced with a
// no-op logger.
func NewIPCListener(cfg IPCConfig, handler *Handler, logger *zap.Logger) (*IPCListener, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	_ = os.Remove(cfg.Path)
	ln, err := net.Listen("unix", cfg.Path)
	if err != nil {
		return nil, err
	}
	return &IPCListener{cfg: cfg, handler: handler, ln: ln, log: logger}, nil
}

// Serve accepts connections until the listener is closed.
func (l *IPCListener) Serve() error {
	for {
		conn, err := l.ln.Accept()
		if err != nil {
			return err
		}
		go serveDelimitedConn(conn, l.cfg.Delimiter, l.handler, l.log)
	}
}

// Close stops accepting new connections and removes the socket file.
func (l *IPCListener) Close() error {
	err := l.ln.Close()
	_ = os.Remove(l.cfg.Path)
	return err
}
