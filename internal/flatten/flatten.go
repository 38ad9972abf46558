// Package flatten converts nested JSON values into single-level key/value
// records. The path to each scalar is encoded into its key: object members
// join with the field delimiter, array elements with the index delimiter.
//
//	{"user":{"city":"NYC"}}  ->  user__city = "NYC"
//	{"tags":["a","b"]}       ->  tags_0 = "a", tags_1 = "b"
//
// Flattening is lossy by design: the hierarchy is not reconstructible.
package flatten

import (
	"encoding/json"
	"fmt"
	"sort"

	"flattab/internal/jsonval"
)

// Default delimiters. Callers may retarget both via Config without touching
// the algorithm.
const (
	DefaultFieldDelimiter = "__"
	DefaultIndexDelimiter = "_"
)

// Config carries the flattening delimiters. An explicit value passed at
// construction, never process-wide state, so differently configured runs
// cannot interfere.
type Config struct {
	// FieldDelimiter joins nested object keys. Default "__".
	FieldDelimiter string
	// IndexDelimiter joins array indices. Default "_".
	IndexDelimiter string
}

func (c Config) withDefaults() Config {
	if c.FieldDelimiter == "" {
		c.FieldDelimiter = DefaultFieldDelimiter
	}
	if c.IndexDelimiter == "" {
		c.IndexDelimiter = DefaultIndexDelimiter
	}
	return c
}

// Record is one flattened record. Key order is first-appearance document
// order, which downstream schema collection relies on for deterministic
// column ordering.
type Record struct {
	keys []string
	vals map[string]any
}

// NewRecord returns an empty record.
func NewRecord() *Record {
	return &Record{vals: make(map[string]any)}
}

// Set stores v under key. It returns true when key already existed; the new
// value replaces the old one (last-write-wins) and the key keeps its
// original position.
func (r *Record) Set(key string, v any) (replaced bool) {
	if _, ok := r.vals[key]; ok {
		r.vals[key] = v
		return true
	}
	r.keys = append(r.keys, key)
	r.vals[key] = v
	return false
}

// Get returns the value for key and whether it is present.
func (r *Record) Get(key string) (any, bool) {
	v, ok := r.vals[key]
	return v, ok
}

// Keys returns the key order. The slice is shared; callers must not mutate it.
func (r *Record) Keys() []string { return r.keys }

// Len returns the number of keys.
func (r *Record) Len() int { return len(r.keys) }

// Collision reports a flattened key that was produced by more than one
// distinct path within a single record, e.g. a literal field "user__name"
// next to a nested {"user":{"name":...}}. The later path wins.
type Collision struct {
	Key string
}

// Flattener maps one parsed JSON value to a Record. It is pure and total:
// it holds no state between calls and never fails, since the input is
// already parsed JSON.
type Flattener struct {
	cfg Config
}

// New returns a Flattener for the given delimiters.
func New(cfg Config) *Flattener {
	return &Flattener{cfg: cfg.withDefaults()}
}

// Flatten maps v to a flat Record plus any key collisions encountered.
//
// Rules:
//   - objects recurse with prefix + FieldDelimiter + key
//   - arrays recurse with prefix + IndexDelimiter + index
//   - scalars (string, number, bool, null) emit prefix -> value, type-preserved
//   - empty objects and arrays contribute no keys
//   - anything that cannot be recursed is serialized to canonical JSON text
//     and emitted as a single scalar, never dropped
//
// A non-object root emits a single entry under the empty-prefix key "".
func (f *Flattener) Flatten(v any) (*Record, []Collision) {
	rec := NewRecord()
	var cols []Collision
	f.walk("", v, rec, &cols)
	return rec, cols
}

func (f *Flattener) walk(prefix string, v any, rec *Record, cols *[]Collision) {
	switch t := v.(type) {
	case *jsonval.Object:
		for _, k := range t.Keys {
			child, _ := t.Get(k)
			f.walk(f.joinField(prefix, k), child, rec, cols)
		}

	case map[string]any:
		// Unordered maps can still arrive from callers that decode with
		// encoding/json directly; sort keys so output stays deterministic.
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			f.walk(f.joinField(prefix, k), t[k], rec, cols)
		}

	case []any:
		for i, child := range t {
			f.walk(f.joinIndex(prefix, i), child, rec, cols)
		}

	case nil, string, json.Number, bool, float64, int, int64:
		f.emit(prefix, t, rec, cols)

	default:
		// Not recursable and not a known scalar: keep the value as its
		// canonical serialized form rather than dropping it.
		f.emit(prefix, canonicalText(t), rec, cols)
	}
}

func (f *Flattener) emit(key string, v any, rec *Record, cols *[]Collision) {
	if rec.Set(key, v) {
		*cols = append(*cols, Collision{Key: key})
	}
}

func (f *Flattener) joinField(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + f.cfg.FieldDelimiter + key
}

func (f *Flattener) joinIndex(prefix string, i int) string {
	return fmt.Sprintf("%s%s%d", prefix, f.cfg.IndexDelimiter, i)
}

func canonicalText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
