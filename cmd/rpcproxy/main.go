// Command rpcproxy runs the JSON-RPC reverse proxy: it terminates client
// connections over HTTP, WebSocket, TCP, and Unix-domain IPC, forwards
// requests to a single upstream JSON-RPC endpoint, and applies response
// caching, permissioning, and (optionally) local transaction signing.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rpcproxy/jsonrpc-proxy/middleware"
	"github.com/rpcproxy/jsonrpc-proxy/server"
	"github.com/rpcproxy/jsonrpc-proxy/signing"
	"github.com/rpcproxy/jsonrpc-proxy/upstream"
)

func main() {
	var (
		upstreamWS  = flag.String("upstream-ws", "", "upstream WebSocket URL, e.g. ws://127.0.0.1:9944")
		upstreamIPC = flag.String("upstream-ipc", "/var/tmp/parity.ipc", "upstream Unix-domain socket path")

		httpAddr = flag.String("http-addr", server.DefaultHTTPConfig().Addr, "HTTP listener bind address")
		wsAddr   = flag.String("ws-addr", server.DefaultWebSocketConfig().Addr, "WebSocket listener bind address")
		tcpAddr  = flag.String("tcp-addr", server.DefaultTCPConfig().Addr, "TCP listener bind address")
		ipcPath  = flag.String("ipc-path", server.DefaultIPCConfig().Path, "IPC listener socket path")

		cacheConfigPath      = flag.String("cache-config", "", "path to the cache methods JSON config")
		permissionConfigPath = flag.String("permission-config", "", "path to the permissioning rules JSON config")
		pubsubConfigPath     = flag.String("pubsub-config", "", "path to the upstream pub/sub method list JSON config")

		keyfile    = flag.String("keyfile", "", "V3 keyfile to sign transactions with (disabled if empty)")
		passphrase = flag.String("passphrase", "", "keyfile passphrase")
	)
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, logger, config{
		upstreamWS:  *upstreamWS,
		upstreamIPC: *upstreamIPC,

		httpAddr: *httpAddr,
		wsAddr:   *wsAddr,
		tcpAddr:  *tcpAddr,
		ipcPath:  *ipcPath,

		cacheConfigPath:      *cacheConfigPath,
		permissionConfigPath: *permissionConfigPath,
		pubsubConfigPath:     *pubsubConfigPath,

		keyfile:    *keyfile,
		passphrase: *passphrase,
	}); err != nil {
		logger.Fatal("rpcproxy exited", zap.Error(err))
	}
}

type config struct {
	upstreamWS  string
	upstreamIPC string

	httpAddr string
	wsAddr   string
	tcpAddr  string
	ipcPath  string

	cacheConfigPath      string
	permissionConfigPath string
	pubsubConfigPath     string

	keyfile    string
	passphrase string
}

func run(ctx context.Context, logger *zap.Logger, cfg config) error {
	transport, err := dialUpstream(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer transport.Close()

	descriptors := upstream.DefaultDescriptors()
	if cfg.pubsubConfigPath != "" {
		data, err := os.ReadFile(cfg.pubsubConfigPath)
		if err != nil {
			return err
		}
		descriptors, err = upstream.LoadDescriptors(data)
		if err != nil {
			return err
		}
	}

	permissioning := middleware.NewPermissioning(middleware.Allow)
	if cfg.permissionConfigPath != "" {
		data, err := os.ReadFile(cfg.permissionConfigPath)
		if err != nil {
			return err
		}
		permissioning, err = middleware.LoadPermissioning(data)
		if err != nil {
			return err
		}
	}

	cache := middleware.NewCache()
	if cfg.cacheConfigPath != "" {
		data, err := os.ReadFile(cfg.cacheConfigPath)
		if err != nil {
			return err
		}
		if err := middleware.LoadCacheMethods(data, cache); err != nil {
			return err
		}
	}

	stages := []middleware.Middleware{permissioning, cache}
	if cfg.keyfile != "" {
		key, err := signing.Load(signing.Config{Keyfile: cfg.keyfile, Passphrase: cfg.passphrase})
		if err != nil {
			// Keyfile decrypt failure aborts process start.
			return err
		}
		logger.Info("signing middleware active", zap.String("address", key.Address().String()))
		stages = append(stages, signing.New(key, transport))
	}
	stages = append(stages, middleware.NewPassthrough(transport, descriptors, logger))

	handler := &server.Handler{Pipeline: middleware.New(stages...)}

	httpListener := server.NewHTTPListener(server.HTTPConfig{Addr: cfg.httpAddr, Workers: 4, MaxBodyBytes: 5 << 20}, handler, logger)
	wsListener := server.NewWebSocketListener(server.WebSocketConfig{Addr: cfg.wsAddr, MaxConnections: 100}, handler, logger)
	tcpListener, err := server.NewTCPListener(server.TCPConfig{Addr: cfg.tcpAddr, Delimiter: '\n'}, handler, logger)
	if err != nil {
		return err
	}
	ipcListener, err := server.NewIPCListener(server.IPCConfig{Path: cfg.ipcPath, Delimiter: '\n'}, handler, logger)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return httpListener.ListenAndServe() })
	g.Go(func() error { return wsListener.ListenAndServe() })
	g.Go(func() error { return tcpListener.Serve() })
	g.Go(func() error { return ipcListener.Serve() })

	<-gctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = httpListener.Shutdown(shutdownCtx)
	_ = wsListener.Shutdown(shutdownCtx)
	_ = tcpListener.Close()
	_ = ipcListener.Close()

	_ = g.Wait()
	return nil
}

func dialUpstream(ctx context.Context, cfg config, logger *zap.Logger) (upstream.Transport, error) {
	if cfg.upstreamWS != "" {
		return upstream.NewWebSocket(ctx, cfg.upstreamWS, logger)
	}
	return upstream.NewIPC(ctx, cfg.upstreamIPC, logger)
}
