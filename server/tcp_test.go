package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rpcproxy/jsonrpc-proxy/middleware"
)

func Test_SplitOnByte_SplitsMultipleFrames(t *testing.T) {
	scanner := bufio.NewScanner(strings.NewReader("one\ntwo\nthree"))
	scanner.Split(splitOnByte('\n'))

	var tokens []string
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, []string{"one", "two", "three"}, tokens)
}

func Test_ServeDelimitedConn_RoundTripsOneCall(t *testing.T) {
	h := &Handler{Pipeline: middleware.New(middleware.MiddlewareFunc(terminal))}
	server, client := net.Pipe()
	defer client.Close()

	go serveDelimitedConn(server, '\n', h, zap.NewNop())

	_, err := client.Write([]byte(`{"jsonrpc":"2.0","id":1,"method":"eth_blockNumber","params":[]}` + "\n"))
	require.NoError(t, err)

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Contains(t, line, `"0x1"`)
}
