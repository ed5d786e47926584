// Package upstream maintains one persistent framed connection to a single
// upstream JSON-RPC endpoint and multiplexes it across many concurrent
// callers: the Shared correlation table matches inbound response frames to
// outstanding requests by id, and routes inbound notification frames to the
// client session that owns the matching subscription.
package upstream

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/session"
)

// PendingKind discriminates what should happen once a pending request's
// response arrives.
type PendingKind int

const (
	// Regular is a plain call: the raw response frame is simply delivered
	// to the waiting sink.
	Regular PendingKind = iota
	// Subscribe additionally registers the response's result (the new
	// subscription id) against Session, and arms Unsubscribe on the
	// session's close hooks.
	Subscribe
)

// pending is one outstanding request awaiting a response frame.
type pending struct {
	sink chan []byte
	kind PendingKind

	// Only meaningful when kind == Subscribe.
	session     *session.Session
	unsubscribe func(subID string)
}

// DispatchResult is the outcome of routing one inbound frame.
type DispatchResult int

const (
	DispatchUnknown DispatchResult = iota
	DispatchSessionGone
	DispatchOK
	DispatchSendError
)

// Shared is the correlation table shared by every caller of one upstream
// connection. It owns the pending-request map and the subscription-id to
// session map described by the proxy's Pub/Sub contract.
type Shared struct {
	mu      sync.Mutex
	pending map[uint64]*pending

	subMu sync.RWMutex
	subs  map[string]*session.Session

	log *zap.Logger
}

// NewShared constructs an empty correlation table. A nil logger is
// replaced with a no-op logger.
func NewShared(logger *zap.Logger) *Shared {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Shared{
		pending: make(map[uint64]*pending),
		subs:    make(map[string]*session.Session),
		log:     logger,
	}
}

// AddPending registers id as awaiting a response and returns the channel
// that will receive the raw response frame exactly once.
func (s *Shared) AddPending(id uint64, kind PendingKind) chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.pending[id] = &pending{sink: ch, kind: kind}
	s.mu.Unlock()
	return ch
}

// AddPendingSubscribe registers id as awaiting a subscribe response. Once
// the response arrives and its result is parsed as a subscription id,
// sess is registered under that id and unsubscribe is armed on the
// session's close hooks.
func (s *Shared) AddPendingSubscribe(id uint64, sess *session.Session, unsubscribe func(subID string)) chan []byte {
	ch := make(chan []byte, 1)
	s.mu.Lock()
	s.pending[id] = &pending{sink: ch, kind: Subscribe, session: sess, unsubscribe: unsubscribe}
	s.mu.Unlock()
	return ch
}

// removePending atomically takes and deletes the pending entry for id.
func (s *Shared) removePending(id uint64) (*pending, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.pending[id]
	if ok {
		delete(s.pending, id)
	}
	return p, ok
}

// AbandonAll resolves every outstanding pending entry with a nil frame (the
// sentinel for "transport gone") and clears the table. Called when the
// upstream connection is torn down.
func (s *Shared) AbandonAll() {
	s.mu.Lock()
	pendings := s.pending
	s.pending = make(map[uint64]*pending)
	s.mu.Unlock()
	for _, p := range pendings {
		close(p.sink)
	}
}

// AddSubscription registers sess under subID and arms unsubscribe on the
// session's close hooks, so that closing the client connection triggers
// exactly one upstream unsubscribe call.
func (s *Shared) AddSubscription(subID string, sess *session.Session, unsubscribe func(subID string)) {
	s.subMu.Lock()
	s.subs[subID] = sess
	s.subMu.Unlock()
	sess.OnClose(func() {
		s.RemoveSubscription(subID)
		unsubscribe(subID)
	})
}

// RemoveSubscription deletes the subscription entry for subID. Idempotent.
func (s *Shared) RemoveSubscription(subID string) {
	s.subMu.Lock()
	delete(s.subs, subID)
	s.subMu.Unlock()
}

// NotifySubscription delivers payload to the session registered under
// subID, if any.
func (s *Shared) NotifySubscription(subID string, payload []byte) DispatchResult {
	s.subMu.RLock()
	sess, ok := s.subs[subID]
	s.subMu.RUnlock()
	if !ok {
		return DispatchUnknown
	}
	if sess.Closed() {
		return DispatchSessionGone
	}
	if err := sess.Send(payload); err != nil {
		return DispatchSendError
	}
	return DispatchOK
}

type peekFrame struct {
	ID     *uint64 `json:"id"`
	Params struct {
		Subscription json.RawMessage `json:"subscription"`
	} `json:"params"`
}

// Dispatch routes one inbound upstream frame: it is either a subscription
// push, a response to a pending request, or neither (logged and dropped).
// This is the proxy's response-or-subscription discrimination algorithm: it
// only ever decodes the minimal fields needed to decide, never the whole
// envelope.
func (s *Shared) Dispatch(frame []byte) {
	var pf peekFrame
	if err := json.Unmarshal(frame, &pf); err != nil {
		s.log.Warn("dropping unparseable frame", zap.Error(err))
		return
	}

	if len(pf.Params.Subscription) > 0 {
		subID := scalarKey(pf.Params.Subscription)
		switch s.NotifySubscription(subID, frame) {
		case DispatchUnknown:
			s.log.Warn("notification for unknown subscription", zap.String("subscription", subID))
		case DispatchSessionGone:
			s.log.Warn("notification for subscription but session is gone", zap.String("subscription", subID))
		case DispatchSendError:
			s.log.Warn("failed to deliver notification for subscription", zap.String("subscription", subID))
		}
		return
	}

	if pf.ID == nil {
		s.log.Warn("dropping frame with no id and no subscription")
		return
	}

	p, ok := s.removePending(*pf.ID)
	if !ok {
		s.log.Warn("dropping frame for unknown pending id", zap.Uint64("id", *pf.ID))
		return
	}

	if p.kind == Subscribe {
		if subID, ok := peekResult(frame); ok {
			s.AddSubscription(subID, p.session, p.unsubscribe)
		}
	}

	p.sink <- frame
	close(p.sink)
}

type peekResultFrame struct {
	Result json.RawMessage `json:"result"`
}

// peekResult extracts the string form of a response's "result" field,
// used to read the subscription id a subscribe call resolves to.
func peekResult(frame []byte) (string, bool) {
	var rf peekResultFrame
	if err := json.Unmarshal(frame, &rf); err != nil || len(rf.Result) == 0 {
		return "", false
	}
	return scalarKey(rf.Result), true
}

// scalarKey normalizes a raw JSON scalar (a quoted string or a bare
// number) into the same map key regardless of which form upstream used: a
// subscription id registered from a subscribe response's "result" field
// must match the key extracted from that same id appearing in
// "params.subscription" on later notification frames.
func scalarKey(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}
