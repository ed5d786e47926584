package upstream

import "encoding/json"

// LoadDescriptors parses the upstream pub/sub method list configuration
// file: a JSON array of {"subscribe","unsubscribe","notification"} objects,
// one per subscription family the proxy recognizes (e.g. eth_subscribe /
// eth_unsubscribe / eth_subscription).
func LoadDescriptors(data []byte) ([]Descriptor, error) {
	var raw []struct {
		Subscribe    string `json:"subscribe"`
		Unsubscribe  string `json:"unsubscribe"`
		Notification string `json:"notification"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	out := make([]Descriptor, 0, len(raw))
	for _, r := range raw {
		out = append(out, Descriptor{
			Subscribe:    r.Subscribe,
			Unsubscribe:  r.Unsubscribe,
			Notification: r.Notification,
		})
	}
	return out, nil
}

// DefaultDescriptors returns the standard Ethereum-style pub/sub method
// family used when no configuration file overrides it.
func DefaultDescriptors() []Descriptor {
	return []Descriptor{
		{Subscribe: "eth_subscribe", Unsubscribe: "eth_unsubscribe", Notification: "eth_subscription"},
		{Subscribe: "parity_subscribe", Unsubscribe: "parity_unsubscribe", Notification: "parity_subscription"},
	}
}
