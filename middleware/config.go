package middleware

import (
	"encoding/json"
	"fmt"
	"time"
)

// LoadPermissioning parses the permissioning rules configuration file:
// {"base":"allow"|"deny","overrides":{"method":"allow"|"deny",...}}.
func LoadPermissioning(data []byte) (*Permissioning, error) {
	var raw struct {
		Base      string            `json:"base"`
		Overrides map[string]string `json:"overrides"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	base, err := parseAccess(raw.Base)
	if err != nil {
		return nil, err
	}
	p := NewPermissioning(base)
	for method, v := range raw.Overrides {
		access, err := parseAccess(v)
		if err != nil {
			return nil, err
		}
		p.Overrides[method] = access
	}
	return p, nil
}

func parseAccess(s string) (Access, error) {
	switch s {
	case "", "allow":
		return Allow, nil
	case "deny":
		return Deny, nil
	default:
		return Allow, fmt.Errorf("unknown access policy %q", s)
	}
}

// LoadCacheMethods parses the cache methods configuration file:
// [{"method":"eth_blockNumber","ttl_seconds":3}, ...] and registers each
// entry on cache.
func LoadCacheMethods(data []byte, cache *Cache) error {
	var raw []struct {
		Method     string `json:"method"`
		TTLSeconds int64  `json:"ttl_seconds"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for _, r := range raw {
		cache.Register(r.Method, time.Duration(r.TTLSeconds)*time.Second)
	}
	return nil
}
