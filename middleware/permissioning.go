package middleware

import (
	"context"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// Access is a method's allow/deny policy.
type Access int

const (
	Deny Access = iota
	Allow
)

// Permissioning enforces a static allow/deny policy over method names: a
// base policy, with per-method overrides.
type Permissioning struct {
	Base      Access
	Overrides map[string]Access
}

// NewPermissioning builds a Permissioning middleware with base as the
// default policy and no overrides.
func NewPermissioning(base Access) *Permissioning {
	return &Permissioning{Base: base, Overrides: make(map[string]Access)}
}

// Allow sets method's policy to Allow.
func (p *Permissioning) Allow(method string) { p.Overrides[method] = Allow }

// Deny sets method's policy to Deny.
func (p *Permissioning) Deny(method string) { p.Overrides[method] = Deny }

func (p *Permissioning) access(method string) Access {
	if a, ok := p.Overrides[method]; ok {
		return a
	}
	return p.Base
}

func (p *Permissioning) OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, next Next) (jsonrpc.Output, bool) {
	mc, ok := call.(jsonrpc.MethodCall)
	if !ok {
		// Notifications and invalid calls are evaluated against the base
		// policy only; a deny produces no output, since JSON-RPC gives a
		// notification no reply regardless.
		if p.Base == Deny {
			return nil, false
		}
		return next(ctx, call, sess)
	}

	if p.access(mc.Method) == Deny {
		return jsonrpc.Failure{ID: mc.ID, Error: jsonrpc.PermissionDenied()}, true
	}
	return next(ctx, call, sess)
}
