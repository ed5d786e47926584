package server

import "time"

// HTTPConfig configures the HTTP listener. HTTP produces no Session:
// subscribe calls made over it fail for lack of a notification sink.
type HTTPConfig struct {
	Addr         string
	Workers      int
	MaxBodyBytes int64
}

// DefaultHTTPConfig matches the proxy's documented defaults: bind
// 127.0.0.1:9934, 4 worker threads, 5 MiB max body.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{Addr: "127.0.0.1:9934", Workers: 4, MaxBodyBytes: 5 << 20}
}

// WebSocketConfig configures the WebSocket listener.
type WebSocketConfig struct {
	Addr           string
	MaxConnections int
}

// DefaultWebSocketConfig matches the proxy's documented defaults: bind
// 127.0.0.1:9945, max 100 connections.
func DefaultWebSocketConfig() WebSocketConfig {
	return WebSocketConfig{Addr: "127.0.0.1:9945", MaxConnections: 100}
}

// TCPConfig configures the line-delimited TCP listener.
type TCPConfig struct {
	Addr      string
	Delimiter byte
}

// DefaultTCPConfig matches the proxy's documented defaults: bind
// 127.0.0.1:9955, newline-delimited frames.
func DefaultTCPConfig() TCPConfig {
	return TCPConfig{Addr: "127.0.0.1:9955", Delimiter: '\n'}
}

// IPCConfig configures the Unix-domain socket listener.
type IPCConfig struct {
	Path      string
	Delimiter byte
}

// DefaultIPCConfig matches the proxy's documented default path.
func DefaultIPCConfig() IPCConfig {
	return IPCConfig{Path: "./jsonrpc.ipc", Delimiter: '\n'}
}

// shutdownGrace is a 5s grace period for in-flight requests during a
// graceful stop. No listener in this package applies it; cmd/rpcproxy
// passes its own 5s deadline to Shutdown.
const shutdownGrace = 5 * time.Second
