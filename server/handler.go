// Package server implements the proxy's four client-facing listeners —
// HTTP, WebSocket, TCP (line-delimited), and Unix-domain IPC — each of
// which decodes incoming JSON-RPC frames, threads them through the shared
// middleware pipeline, and writes back whatever output (if any) results.
package server

import (
	"context"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/middleware"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// Handler threads one decoded frame through the middleware pipeline and
// re-encodes whatever output results. It is shared by every listener.
type Handler struct {
	Pipeline *middleware.Pipeline
}

// HandleFrame decodes frame as a JSON-RPC call, runs it through the
// pipeline, and returns the encoded response frame. ok is false when the
// call was a notification (or otherwise produced no output), in which case
// nothing should be written back to the client.
func (h *Handler) HandleFrame(ctx context.Context, frame []byte, sess *session.Session) (response []byte, ok bool) {
	call := jsonrpc.DecodeCall(frame)
	out, hasOutput := h.Pipeline.Handle(ctx, call, sess)
	if !hasOutput {
		return nil, false
	}
	encoded, err := jsonrpc.EncodeOutput(out)
	if err != nil {
		return nil, false
	}
	return encoded, true
}
