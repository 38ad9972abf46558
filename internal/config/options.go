package config

import "strings"

// Options is a loosely typed option bag decoded from JSON config sections.
//
// Typed getters never fail: a missing or mistyped value yields the provided
// default. This keeps config handling lenient in the same way parser options
// are handled throughout the pipeline.
type Options map[string]any

// Any returns the raw value or nil when absent.
func (o Options) Any(key string) any {
	if o == nil {
		return nil
	}
	return o[key]
}

// String returns a string option, trimmed, or def when absent/mistyped.
func (o Options) String(key, def string) string {
	v, ok := o[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok {
		return def
	}
	return strings.TrimSpace(s)
}

// Bool returns a bool option or def when absent/mistyped.
func (o Options) Bool(key string, def bool) bool {
	v, ok := o[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

// Int returns an int option or def when absent/mistyped.
// JSON numbers decode as float64, so both int and float64 are accepted.
func (o Options) Int(key string, def int) int {
	v, ok := o[key]
	if !ok {
		return def
	}
	switch t := v.(type) {
	case int:
		return t
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return def
	}
}

// Rune returns the first rune of a string option, or def when absent/empty.
// The value is not trimmed so whitespace delimiters like "\t" survive.
func (o Options) Rune(key string, def rune) rune {
	v, ok := o[key]
	if !ok {
		return def
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return def
	}
	return []rune(s)[0]
}

// StringMap returns a map[string]string option, converting map[string]any
// values element-wise. Non-string elements are dropped.
func (o Options) StringMap(key string) map[string]string {
	out := map[string]string{}
	v, ok := o[key]
	if !ok {
		return out
	}
	switch m := v.(type) {
	case map[string]string:
		for k, s := range m {
			out[k] = s
		}
	case map[string]any:
		for k, raw := range m {
			if s, ok := raw.(string); ok {
				out[k] = s
			}
		}
	}
	return out
}
