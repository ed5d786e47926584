package jsonrpc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_DecodeCall_MethodCall(t *testing.T) {
	call := DecodeCall([]byte(`{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}`))
	mc, ok := call.(MethodCall)
	require.True(t, ok)
	assert.Equal(t, NumberID(1), mc.ID)
	assert.Equal(t, "eth_blockNumber", mc.Method)
}

func Test_DecodeCall_Notification(t *testing.T) {
	call := DecodeCall([]byte(`{"jsonrpc":"2.0","method":"eth_subscription","params":{"subscription":"0xabc","result":"0x1"}}`))
	n, ok := call.(Notification)
	require.True(t, ok)
	assert.Equal(t, "eth_subscription", n.Method)
}

func Test_DecodeCall_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"wrong version", `{"jsonrpc":"1.0","id":1,"method":"foo","params":[]}`},
		{"missing method", `{"jsonrpc":"2.0","id":1,"params":[]}`},
		{"not json", `not json at all`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			call := DecodeCall([]byte(tt.data))
			_, ok := call.(InvalidCall)
			assert.True(t, ok)
		})
	}
}

func Test_DecodeCall_StringID(t *testing.T) {
	call := DecodeCall([]byte(`{"jsonrpc":"2.0","id":"abc","method":"eth_blockNumber","params":[]}`))
	mc, ok := call.(MethodCall)
	require.True(t, ok)
	assert.Equal(t, StringID("abc"), mc.ID)
}
