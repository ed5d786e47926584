package jsonrpc

import "encoding/json"

// The proxy often needs a single field out of an upstream frame before it
// knows which concrete shape to parse the rest into — is this a
// subscription push, a call response, or neither? The Peek* helpers decode
// only that field, leaving the rest of the frame untouched.

type peekMethod struct {
	Method string `json:"method"`
}

// PeekMethod returns the "method" field of a frame, or "" if absent. Used to
// recognize upstream subscription notifications (conventionally
// "eth_subscription" or similar), which carry a method but no id.
func PeekMethod(data []byte) string {
	var p peekMethod
	_ = json.Unmarshal(data, &p)
	return p.Method
}

type peekID struct {
	ID *ID `json:"id"`
}

// PeekID returns the "id" field of a frame. A nil return means the field
// was absent or null, which — combined with a non-empty PeekMethod — marks
// the frame as a notification rather than a call response.
func PeekID(data []byte) *ID {
	var p peekID
	if err := json.Unmarshal(data, &p); err != nil {
		return nil
	}
	return p.ID
}

type peekSubscriptionParams struct {
	Params struct {
		Subscription string          `json:"subscription"`
		Result       json.RawMessage `json:"result"`
	} `json:"params"`
}

// SubscriptionPush is the decoded params of an upstream subscription
// notification frame.
type SubscriptionPush struct {
	Subscription string
	Result       json.RawMessage
}

// PeekSubscriptionPush decodes a frame's subscription id and result payload
// without needing to know the notification's outer method name in advance.
func PeekSubscriptionPush(data []byte) (SubscriptionPush, bool) {
	var p peekSubscriptionParams
	if err := json.Unmarshal(data, &p); err != nil {
		return SubscriptionPush{}, false
	}
	if p.Params.Subscription == "" {
		return SubscriptionPush{}, false
	}
	return SubscriptionPush{Subscription: p.Params.Subscription, Result: p.Params.Result}, true
}

// IsNotification reports whether a decoded frame looks like a push rather
// than a reply to a call: it has a method and either no id or a null id.
func IsNotification(data []byte) bool {
	return PeekMethod(data) != "" && PeekID(data) == nil
}
