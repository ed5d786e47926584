// Package middleware implements the proxy's fixed four-stage request
// pipeline — permissioning, response cache, the chain-specific signing
// extension, and the passthrough terminator — plus the harness that
// threads a call through them in order.
package middleware

import (
	"context"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// Next invokes the remainder of the pipeline. The bool result is false when
// the call produced no output: a Notification (per JSON-RPC), or a call
// that no stage answered, e.g. because its upstream leg failed.
type Next func(ctx context.Context, call jsonrpc.Call, sess *session.Session) (jsonrpc.Output, bool)

// Middleware is one stage of the pipeline. It either answers the call
// itself or delegates to next — and may inspect/transform what next
// returns before passing it back up.
type Middleware interface {
	OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, next Next) (jsonrpc.Output, bool)
}

// MiddlewareFunc adapts a plain function to Middleware.
type MiddlewareFunc func(ctx context.Context, call jsonrpc.Call, sess *session.Session, next Next) (jsonrpc.Output, bool)

func (f MiddlewareFunc) OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, next Next) (jsonrpc.Output, bool) {
	return f(ctx, call, sess, next)
}

// Pipeline composes an ordered chain of Middleware. The last stage given to
// New should be a terminator that never calls next.
type Pipeline struct {
	stages []Middleware
}

// New builds a Pipeline from stages in application order (e.g.
// permissioning, cache, signing extension, passthrough).
func New(stages ...Middleware) *Pipeline {
	return &Pipeline{stages: stages}
}

// Handle threads call through every stage in order, starting from the
// first.
func (p *Pipeline) Handle(ctx context.Context, call jsonrpc.Call, sess *session.Session) (jsonrpc.Output, bool) {
	return p.chain(0)(ctx, call, sess)
}

func (p *Pipeline) chain(i int) Next {
	if i >= len(p.stages) {
		return func(ctx context.Context, call jsonrpc.Call, sess *session.Session) (jsonrpc.Output, bool) {
			return nil, false
		}
	}
	stage := p.stages[i]
	next := p.chain(i + 1)
	return func(ctx context.Context, call jsonrpc.Call, sess *session.Session) (jsonrpc.Output, bool) {
		return stage.OnCall(ctx, call, sess, next)
	}
}
