package upstream

import (
	"encoding/json"

	"github.com/rpcproxy/jsonrpc-proxy/jsonrpc"
)

type requestFrame struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Method  string        `json:"method"`
	Params  requestParams `json:"params"`
}

type requestParams struct {
	positional []json.RawMessage
	named      map[string]json.RawMessage
}

func (p requestParams) MarshalJSON() ([]byte, error) {
	if p.named != nil {
		return json.Marshal(p.named)
	}
	if p.positional != nil {
		return json.Marshal(p.positional)
	}
	return []byte("[]"), nil
}

func encodeRequest(id uint64, method string, params jsonrpc.Params) ([]byte, error) {
	return json.Marshal(requestFrame{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  requestParams{positional: params.Positional, named: params.Named},
	})
}

func unmarshalFirst(raw json.RawMessage, v any) error {
	return json.Unmarshal(raw, v)
}
