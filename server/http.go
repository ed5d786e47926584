package server

import (
	"context"
	"io"
	"net/http"

	"go.uber.org/zap"
)

// HTTPListener serves one JSON-RPC call per POST request. It produces no
// Session: subscribe calls fail with a protocol error, same as any other
// upstream call whose result the passthrough middleware cannot satisfy.
type HTTPListener struct {
	cfg     HTTPConfig
	handler *Handler
	srv     *http.Server
	sem     chan struct{}
	log     *zap.Logger
}

// NewHTTPListener builds an HTTP listener bound to cfg.Addr, limiting
// concurrent request handling to cfg.Workers. A nil logger is replaced
// with a no-op logger.
func NewHTTPListener(cfg HTTPConfig, handler *Handler, logger *zap.Logger) *HTTPListener {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &HTTPListener{cfg: cfg, handler: handler, sem: make(chan struct{}, cfg.Workers), log: logger}
	mux := http.NewServeMux()
	mux.HandleFunc("/", l.serveCall)
	l.srv = &http.Server{Addr: cfg.Addr, Handler: mux}
	return l
}

// ListenAndServe blocks serving HTTP requests until the server is shut down.
func (l *HTTPListener) ListenAndServe() error {
	return l.srv.ListenAndServe()
}

// Shutdown gracefully stops the listener.
func (l *HTTPListener) Shutdown(ctx context.Context) error {
	return l.srv.Shutdown(ctx)
}

func (l *HTTPListener) serveCall(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	l.sem <- struct{}{}
	defer func() { <-l.sem }()

	r.Body = http.MaxBytesReader(w, r.Body, l.cfg.MaxBodyBytes)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}

	response, ok := l.handler.HandleFrame(r.Context(), body, nil)
	if !ok {
		// A notification produces no output; JSON-RPC over HTTP still
		// needs some response to close out the request.
		w.WriteHeader(http.StatusNoContent)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write(response); err != nil {
		l.log.Warn("write error", zap.Error(err))
	}
}
