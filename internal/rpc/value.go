package rpc

import "fmt"

// The helpers below pull typed values out of decoded params/result trees.
// go-msgpack decodes into interface{} using int64/uint64/float64/string/
// []byte/[]interface{}/map[interface{}]interface{}, so every dispatcher
// method parameter parse goes through one of these instead of repeating
// type switches inline.

// Uint extracts params[i] as a non-negative integer.
func Uint(params []interface{}, i int) (uint64, error) {
	if i >= len(params) {
		return 0, fmt.Errorf("rpc: missing param %d", i)
	}
	switch n := params[i].(type) {
	case uint64:
		return n, nil
	case int64:
		if n < 0 {
			return 0, fmt.Errorf("rpc: param %d is negative", i)
		}
		return uint64(n), nil
	case float64:
		if n < 0 {
			return 0, fmt.Errorf("rpc: param %d is negative", i)
		}
		return uint64(n), nil
	default:
		return 0, fmt.Errorf("rpc: param %d is not an integer (got %T)", i, params[i])
	}
}

// UintOr is Uint with a default when the param is absent.
func UintOr(params []interface{}, i int, def uint64) uint64 {
	v, err := Uint(params, i)
	if err != nil {
		return def
	}
	return v
}

// Bytes extracts params[i] as a binary blob or UTF-8 string.
func Bytes(params []interface{}, i int) ([]byte, error) {
	if i >= len(params) {
		return nil, fmt.Errorf("rpc: missing param %d", i)
	}
	switch b := params[i].(type) {
	case []byte:
		return b, nil
	case string:
		return []byte(b), nil
	default:
		return nil, fmt.Errorf("rpc: param %d is not bytes (got %T)", i, params[i])
	}
}

// StringMap extracts params[i] as a string-keyed map, accepting both
// map[string]interface{} and msgpack's generic map[interface{}]interface{}.
func StringMap(params []interface{}, i int) (map[string]interface{}, error) {
	if i >= len(params) {
		return nil, fmt.Errorf("rpc: missing param %d", i)
	}
	switch m := params[i].(type) {
	case map[string]interface{}:
		return m, nil
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(m))
		for k, v := range m {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("rpc: param %d has non-string key %T", i, k)
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("rpc: param %d is not a map (got %T)", i, params[i])
	}
}

// MapString extracts m[key] as a string, returning ok=false if absent or
// of the wrong type.
func MapString(m map[string]interface{}, key string) (string, bool) {
	v, found := m[key]
	if !found {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// MapBool extracts m[key] as a bool, defaulting to false when absent.
func MapBool(m map[string]interface{}, key string) bool {
	v, found := m[key]
	if !found {
		return false
	}
	b, _ := v.(bool)
	return b
}
