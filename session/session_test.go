package session

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_Session_SendAfterClose(t *testing.T) {
	var sent [][]byte
	s := New(func(frame []byte) error {
		sent = append(sent, frame)
		return nil
	})

	require.NoError(t, s.Send([]byte("hello")))
	assert.False(t, s.Closed())

	s.Close()
	assert.True(t, s.Closed())

	err := s.Send([]byte("world"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.Len(t, sent, 1)
}

func Test_Session_CloseIsIdempotentAndRunsHooksOnce(t *testing.T) {
	s := New(func(frame []byte) error { return nil })

	calls := 0
	s.OnClose(func() { calls++ })
	s.OnClose(func() { calls++ })

	s.Close()
	s.Close()
	s.Close()

	assert.Equal(t, 2, calls)
}

func Test_Session_OnCloseAfterAlreadyClosedRunsImmediately(t *testing.T) {
	s := New(func(frame []byte) error { return nil })
	s.Close()

	ran := false
	s.OnClose(func() { ran = true })
	assert.True(t, ran)
}

func Test_Session_Metadata(t *testing.T) {
	s := New(func(frame []byte) error { return nil })

	_, ok := s.Get("missing")
	assert.False(t, ok)

	s.Set("subs", []string{"0xabc"})
	v, ok := s.Get("subs")
	require.True(t, ok)
	assert.Equal(t, []string{"0xabc"}, v)
}
