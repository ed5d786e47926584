package middleware

import (
	"context"

	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
	"github.com/rpcproxy/jsonrpc-proxy/upstream"
)

// Passthrough is the pipeline's terminator: it classifies every call that
// survives the earlier stages as a plain call, a subscribe, or an
// unsubscribe (by method name against the configured subscription
// descriptors) and routes it to the matching upstream transport operation.
// It never calls next.
type Passthrough struct {
	transport   upstream.Transport
	subscribe   map[string]upstream.Descriptor
	unsubscribe map[string]upstream.Descriptor
	log         *zap.Logger
}

// NewPassthrough builds a Passthrough terminator over transport, indexing
// descriptors by their subscribe/unsubscribe method names. A nil logger is
// replaced with a no-op logger.
func NewPassthrough(transport upstream.Transport, descriptors []upstream.Descriptor, logger *zap.Logger) *Passthrough {
	if logger == nil {
		logger = zap.NewNop()
	}
	p := &Passthrough{
		transport:   transport,
		subscribe:   make(map[string]upstream.Descriptor),
		unsubscribe: make(map[string]upstream.Descriptor),
		log:         logger,
	}
	for _, d := range descriptors {
		p.subscribe[d.Subscribe] = d
		p.unsubscribe[d.Unsubscribe] = d
	}
	return p
}

func (p *Passthrough) OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, _ Next) (jsonrpc.Output, bool) {
	switch c := call.(type) {
	case jsonrpc.MethodCall:
		return p.handleMethodCall(ctx, c, sess)
	case jsonrpc.Notification:
		if _, err := p.transport.Send(ctx, c.Method, c.Params); err != nil {
			p.log.Warn("notification failed upstream", zap.String("method", c.Method), zap.Error(err))
		}
		return nil, false
	default:
		return nil, false
	}
}

func contains(m map[string]upstream.Descriptor, method string) bool {
	_, ok := m[method]
	return ok
}

func (p *Passthrough) handleMethodCall(ctx context.Context, mc jsonrpc.MethodCall, sess *session.Session) (jsonrpc.Output, bool) {
	var (
		frame []byte
		err   error
	)
	switch {
	case contains(p.subscribe, mc.Method):
		frame, err = p.transport.Subscribe(ctx, sess, p.subscribe[mc.Method], mc.Params)
	case contains(p.unsubscribe, mc.Method):
		frame, err = p.transport.Unsubscribe(ctx, p.unsubscribe[mc.Method], mc.Params)
	default:
		frame, err = p.transport.Send(ctx, mc.Method, mc.Params)
	}
	if err != nil {
		p.log.Warn("call failed upstream", zap.String("method", mc.Method), zap.Error(err))
		return nil, false
	}

	out, err := jsonrpc.DecodeOutput(frame)
	if err != nil {
		p.log.Warn("call produced an unparseable upstream frame", zap.String("method", mc.Method), zap.Error(err))
		return nil, false
	}
	switch o := out.(type) {
	case jsonrpc.Success:
		return jsonrpc.Success{ID: mc.ID, Result: o.Result}, true
	case jsonrpc.Failure:
		return jsonrpc.Failure{ID: mc.ID, Error: o.Error}, true
	default:
		return nil, false
	}
}
