package upstream

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// DefaultCallTimeout bounds how long Send/Subscribe/Unsubscribe wait for a
// matching response before giving up. The correlation table itself has no
// timeout (per the proxy's design notes, an upstream that never replies
// leaks the pending entry until the connection dies); this is a caller-side
// deadline layered on top so one stuck call cannot hang a client forever.
const DefaultCallTimeout = 30 * time.Second

// ErrTransportClosed is returned by Send/Subscribe/Unsubscribe once the
// upstream connection has gone away.
var ErrTransportClosed = errors.New("upstream: transport closed")

// Descriptor names the three methods that make up one subscription family:
// the subscribe method, the unsubscribe method, and the method name
// upstream uses on push frames belonging to it.
type Descriptor struct {
	Subscribe    string
	Unsubscribe  string
	Notification string
}

// Transport is a live connection to the upstream JSON-RPC endpoint.
type Transport interface {
	// Send performs a plain call and returns the raw response frame.
	Send(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error)

	// Subscribe issues a subscribe call bound to sess: once upstream
	// returns a subscription id, further notifications are delivered to
	// sess, and closing sess triggers an automatic unsubscribe.
	Subscribe(ctx context.Context, sess *session.Session, sub Descriptor, params jsonrpc.Params) ([]byte, error)

	// Unsubscribe cancels a subscription. params must carry the
	// subscription id as its first positional argument.
	Unsubscribe(ctx context.Context, sub Descriptor, params jsonrpc.Params) ([]byte, error)

	// Close tears down the connection and abandons every pending call.
	Close() error
}

// base implements the id-allocation, pending-table, and writer-channel
// bookkeeping shared by every concrete transport. WebSocket and IPC embed
// it and only supply how a frame actually reaches the wire.
type base struct {
	shared   *Shared
	writerCh chan []byte
	nextID   atomic.Uint64
	closed   atomic.Bool
	log      *zap.Logger
}

func newBase(logger *zap.Logger) base {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := base{
		shared:   NewShared(logger),
		writerCh: make(chan []byte, 256),
		log:      logger,
	}
	// The proxy's internal request-id counter is seeded at 1, distinct
	// from any client-supplied id space (client ids are never reused
	// upstream).
	b.nextID.Store(0)
	return b
}

func (b *base) allocID() uint64 {
	return b.nextID.Add(1)
}

func (b *base) write(frame []byte) error {
	if b.closed.Load() {
		return ErrTransportClosed
	}
	// The writer channel is logically unbounded: callers are expected to
	// block here only under extreme backlog, never under normal load.
	b.writerCh <- frame
	return nil
}

func (b *base) await(ctx context.Context, ch chan []byte) ([]byte, error) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultCallTimeout)
		defer cancel()
	}
	select {
	case frame, ok := <-ch:
		if !ok {
			return nil, ErrTransportClosed
		}
		return frame, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (b *base) send(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error) {
	id := b.allocID()
	ch := b.shared.AddPending(id, Regular)
	frame, err := encodeRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	if err := b.write(frame); err != nil {
		return nil, err
	}
	return b.await(ctx, ch)
}

func (b *base) subscribe(ctx context.Context, sess *session.Session, sub Descriptor, params jsonrpc.Params, resend func(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error)) ([]byte, error) {
	if sess == nil {
		return nil, errors.New("upstream: subscribe requires a client session")
	}
	id := b.allocID()
	unsubscribe := func(subID string) {
		uctx, cancel := context.WithTimeout(context.Background(), DefaultCallTimeout)
		defer cancel()
		unsubParams, _ := jsonrpc.PositionalParams(subID)
		_, _ = resend(uctx, sub.Unsubscribe, unsubParams)
	}
	ch := b.shared.AddPendingSubscribe(id, sess, unsubscribe)
	frame, err := encodeRequest(id, sub.Subscribe, params)
	if err != nil {
		return nil, err
	}
	if err := b.write(frame); err != nil {
		return nil, err
	}
	return b.await(ctx, ch)
}

func (b *base) unsubscribe(ctx context.Context, sub Descriptor, params jsonrpc.Params, send func(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error)) ([]byte, error) {
	if len(params.Positional) > 0 {
		var subID string
		if err := unmarshalFirst(params.Positional[0], &subID); err == nil {
			b.shared.RemoveSubscription(subID)
		}
	}
	return send(ctx, sub.Unsubscribe, params)
}

func (b *base) close() {
	if b.closed.CompareAndSwap(false, true) {
		b.shared.AbandonAll()
	}
}
