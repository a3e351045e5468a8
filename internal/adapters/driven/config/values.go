// Package config holds helpers shared by the ConfigStore adapters.
package config

// TOML decodes integers as int64 and floats as float64; the memory store
// keeps whatever Go type was passed to Set. These helpers accept both.

// AsString returns v as a string, or "" when v is not one.
func AsString(v any) string {
	s, _ := v.(string)
	return s
}

// AsInt returns v as an int. Floats are truncated; other types give 0.
func AsInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	default:
		return 0
	}
}

// AsFloat returns v as a float64. Integers are widened; other types give 0.
func AsFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}
