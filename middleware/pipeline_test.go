package middleware

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/session"
	"github.com/rpcproxy/jsonrpc-proxy/upstream"
)

// fakeTransport is a minimal upstream.Transport stand-in: it answers every
// Send with a canned frame and records what it was asked to do.
type fakeTransport struct {
	sent        []string
	respond     []byte
	subscribeID string
}

func (f *fakeTransport) Send(ctx context.Context, method string, params jsonrpc.Params) ([]byte, error) {
	f.sent = append(f.sent, method)
	return f.respond, nil
}

func (f *fakeTransport) Subscribe(ctx context.Context, sess *session.Session, sub upstream.Descriptor, params jsonrpc.Params) ([]byte, error) {
	f.sent = append(f.sent, sub.Subscribe)
	return []byte(`{"jsonrpc":"2.0","id":1,"result":"` + f.subscribeID + `"}`), nil
}

func (f *fakeTransport) Unsubscribe(ctx context.Context, sub upstream.Descriptor, params jsonrpc.Params) ([]byte, error) {
	f.sent = append(f.sent, sub.Unsubscribe)
	return []byte(`{"jsonrpc":"2.0","id":1,"result":true}`), nil
}

func (f *fakeTransport) Close() error { return nil }

func Test_Pipeline_DenyShortCircuitsBeforePassthrough(t *testing.T) {
	perm := NewPermissioning(Deny)
	transport := &fakeTransport{respond: []byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`)}
	pass := NewPassthrough(transport, nil, nil)
	p := New(perm, pass)

	call := jsonrpc.MethodCall{ID: jsonrpc.NumberID(1), Method: "eth_sendTransaction"}
	out, ok := p.Handle(context.Background(), call, nil)

	require.True(t, ok)
	_, isFailure := out.(jsonrpc.Failure)
	assert.True(t, isFailure)
	assert.Empty(t, transport.sent)
}

func Test_Pipeline_AllowedCallReachesPassthrough(t *testing.T) {
	perm := NewPermissioning(Allow)
	transport := &fakeTransport{respond: []byte(`{"jsonrpc":"2.0","id":1,"result":"0x1"}`)}
	pass := NewPassthrough(transport, nil, nil)
	p := New(perm, pass)

	call := jsonrpc.MethodCall{ID: jsonrpc.NumberID(1), Method: "eth_blockNumber"}
	out, ok := p.Handle(context.Background(), call, nil)

	require.True(t, ok)
	success, isSuccess := out.(jsonrpc.Success)
	require.True(t, isSuccess)
	assert.JSONEq(t, `"0x1"`, string(success.Result))
	assert.Equal(t, []string{"eth_blockNumber"}, transport.sent)
}

func Test_Passthrough_SubscribeRoutesToSubscribeMethod(t *testing.T) {
	transport := &fakeTransport{subscribeID: "0xabc"}
	descriptors := []upstream.Descriptor{{Subscribe: "eth_subscribe", Unsubscribe: "eth_unsubscribe", Notification: "eth_subscription"}}
	pass := NewPassthrough(transport, descriptors, nil)

	sess := session.New(func([]byte) error { return nil })
	call := jsonrpc.MethodCall{ID: jsonrpc.NumberID(1), Method: "eth_subscribe"}
	out, ok := pass.OnCall(context.Background(), call, sess, nil)

	require.True(t, ok)
	success := out.(jsonrpc.Success)
	assert.JSONEq(t, `"0xabc"`, string(success.Result))
	assert.Equal(t, []string{"eth_subscribe"}, transport.sent)
}

func Test_Passthrough_NotificationProducesNoOutput(t *testing.T) {
	transport := &fakeTransport{}
	pass := NewPassthrough(transport, nil, nil)

	n := jsonrpc.Notification{Method: "eth_subscription"}
	out, ok := pass.OnCall(context.Background(), n, nil, nil)

	assert.False(t, ok)
	assert.Nil(t, out)
	assert.Equal(t, []string{"eth_subscription"}, transport.sent)
}
