// Package jsonrpc implements the wire data model of JSON-RPC 2.0: request
// ids, call variants (method call, notification, invalid), parameters, and
// successful/failed outputs, plus the small amount of partial decoding the
// proxy needs before it knows which concrete type to parse a frame into.
package jsonrpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// ID is a JSON-RPC request id: a string, a number, or null/absent. Num is
// only meaningful when Kind is IDKindNumber, and Str only when Kind is
// IDKindString.
type ID struct {
	Kind IDKind
	Num  int64
	Str  string
}

// IDKind discriminates the representation stored in an ID.
type IDKind int

const (
	IDKindNone IDKind = iota
	IDKindNumber
	IDKindString
)

// NumberID builds a numeric request id.
func NumberID(n int64) ID { return ID{Kind: IDKindNumber, Num: n} }

// StringID builds a string request id.
func StringID(s string) ID { return ID{Kind: IDKindString, Str: s} }

// IsNone reports whether the id is absent (as on a notification).
func (id ID) IsNone() bool { return id.Kind == IDKindNone }

func (id ID) String() string {
	switch id.Kind {
	case IDKindNumber:
		return fmt.Sprintf("%d", id.Num)
	case IDKindString:
		return id.Str
	default:
		return "<none>"
	}
}

func (id ID) MarshalJSON() ([]byte, error) {
	switch id.Kind {
	case IDKindNumber:
		return json.Marshal(id.Num)
	case IDKindString:
		return json.Marshal(id.Str)
	default:
		return []byte("null"), nil
	}
}

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) || len(data) == 0 {
		*id = ID{Kind: IDKindNone}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID{Kind: IDKindString, Str: s}
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid request id: %w", err)
	}
	*id = ID{Kind: IDKindNumber, Num: n}
	return nil
}
