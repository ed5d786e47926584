package signing

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/rpcproxy/jsonrpc-proxy/hexutil"
	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
	"github.com/rpcproxy/jsonrpc-proxy/middleware"
	"github.com/rpcproxy/jsonrpc-proxy/session"
	"github.com/rpcproxy/jsonrpc-proxy/types"
	"github.com/rpcproxy/jsonrpc-proxy/upstream"
)

// Middleware replaces client-initiated eth_sendTransaction / parity_postTransaction
// with a locally signed eth_sendRawTransaction, and advertises the local
// account in eth_accounts responses. It is only ever installed when the
// proxy was started with a keyfile and password; when absent, every call
// passes straight through the surrounding pipeline untouched.
type Middleware struct {
	key       *Key
	transport upstream.Transport

	// gate serialises compose-then-sign flows so that concurrent
	// eth_sendTransaction calls never race on the upstream-assigned
	// nonce: each holder awaits the previous holder's completion before
	// issuing its own parity_composeTransaction + eth_chainId pair, and
	// signals its own completion once its whole flow, including the
	// eth_sendRawTransaction call, has returned.
	gateMu sync.Mutex
	gate   chan struct{}
}

// New builds the signing middleware for the given local key, talking to
// transport for composeTransaction/chainId/sendRawTransaction.
func New(key *Key, transport upstream.Transport) *Middleware {
	return &Middleware{key: key, transport: transport}
}

func (m *Middleware) acquire(ctx context.Context) func() {
	m.gateMu.Lock()
	prev := m.gate
	mine := make(chan struct{})
	m.gate = mine
	m.gateMu.Unlock()

	if prev != nil {
		select {
		case <-prev:
		case <-ctx.Done():
		}
	}
	return func() { close(mine) }
}

func (m *Middleware) OnCall(ctx context.Context, call jsonrpc.Call, sess *session.Session, next middleware.Next) (jsonrpc.Output, bool) {
	mc, ok := call.(jsonrpc.MethodCall)
	if !ok {
		return next(ctx, call, sess)
	}

	switch mc.Method {
	case "eth_accounts":
		return m.handleAccounts(ctx, mc, sess, next)
	case "eth_sendTransaction", "parity_postTransaction":
		return m.handleSendTransaction(ctx, mc)
	default:
		return next(ctx, call, sess)
	}
}

// handleAccounts forwards unchanged and, on the response, prepends the
// local address to the result array whenever the result is an array.
// This is an unconditional prepend: it never checks whether the address
// is already present, so a duplicate can appear (see DESIGN.md).
func (m *Middleware) handleAccounts(ctx context.Context, mc jsonrpc.MethodCall, sess *session.Session, next middleware.Next) (jsonrpc.Output, bool) {
	out, hasOutput := next(ctx, mc, sess)
	success, ok := out.(jsonrpc.Success)
	if !ok {
		return out, hasOutput
	}

	var accounts []json.RawMessage
	if err := json.Unmarshal(success.Result, &accounts); err != nil {
		// Result was not an array; preserve all other fields untouched.
		return out, hasOutput
	}
	localAddr, err := json.Marshal(m.key.Address())
	if err != nil {
		return out, hasOutput
	}
	accounts = append([]json.RawMessage{localAddr}, accounts...)
	result, err := json.Marshal(accounts)
	if err != nil {
		return out, hasOutput
	}
	return jsonrpc.Success{ID: mc.ID, Result: result}, true
}

func constructionFailure(id jsonrpc.ID) jsonrpc.Output {
	return jsonrpc.Failure{ID: id, Error: jsonrpc.NewError(jsonrpc.ErrCodeSigning, "Unable to construct transaction")}
}

func invalidFromFailure(id jsonrpc.ID) jsonrpc.Output {
	return jsonrpc.Failure{ID: id, Error: jsonrpc.NewError(jsonrpc.ErrCodeSigning, `Invalid "from" address`)}
}

func (m *Middleware) handleSendTransaction(ctx context.Context, mc jsonrpc.MethodCall) (jsonrpc.Output, bool) {
	release := m.acquire(ctx)
	defer release()

	// parity_composeTransaction and eth_chainId are independent upstream
	// calls; issue them concurrently and wait for both to land.
	var (
		composeFrame, chainIDFrame []byte
		composeErr, chainIDErr     error
		wg                         sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		composeFrame, composeErr = m.transport.Send(ctx, "parity_composeTransaction", mc.Params)
	}()
	go func() {
		defer wg.Done()
		chainIDFrame, chainIDErr = m.transport.Send(ctx, "eth_chainId", jsonrpc.Params{})
	}()
	wg.Wait()
	if composeErr != nil || chainIDErr != nil {
		return constructionFailure(mc.ID), true
	}

	composeOut, err := jsonrpc.DecodeOutput(composeFrame)
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	if failure, ok := composeOut.(jsonrpc.Failure); ok {
		return jsonrpc.Failure{ID: mc.ID, Error: failure.Error}, true
	}
	composeSuccess, ok := composeOut.(jsonrpc.Success)
	if !ok {
		return constructionFailure(mc.ID), true
	}

	var tx types.Transaction
	if err := json.Unmarshal(composeSuccess.Result, &tx); err != nil {
		return constructionFailure(mc.ID), true
	}

	chainIDOut, err := jsonrpc.DecodeOutput(chainIDFrame)
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	if failure, ok := chainIDOut.(jsonrpc.Failure); ok {
		return jsonrpc.Failure{ID: mc.ID, Error: failure.Error}, true
	}
	chainIDSuccess, ok := chainIDOut.(jsonrpc.Success)
	if !ok {
		return constructionFailure(mc.ID), true
	}
	var chainIDHex string
	if err := json.Unmarshal(chainIDSuccess.Result, &chainIDHex); err != nil {
		return constructionFailure(mc.ID), true
	}
	chainID, err := hexutil.HexToBigInt(chainIDHex)
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	tx.ChainID = chainID

	if tx.From == nil || *tx.From != m.key.Address() {
		return invalidFromFailure(mc.ID), true
	}

	if err := m.key.SignTransaction(&tx); err != nil {
		return constructionFailure(mc.ID), true
	}

	raw, err := tx.EncodeRLP()
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	params, err := jsonrpc.PositionalParams(hexutil.BytesToHex(raw))
	if err != nil {
		return constructionFailure(mc.ID), true
	}

	rawTxFrame, err := m.transport.Send(ctx, "eth_sendRawTransaction", params)
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	out, err := jsonrpc.DecodeOutput(rawTxFrame)
	if err != nil {
		return constructionFailure(mc.ID), true
	}
	switch o := out.(type) {
	case jsonrpc.Success:
		return jsonrpc.Success{ID: mc.ID, Result: o.Result}, true
	case jsonrpc.Failure:
		return jsonrpc.Failure{ID: mc.ID, Error: o.Error}, true
	default:
		return constructionFailure(mc.ID), true
	}
}
