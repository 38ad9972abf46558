// Package storage defines the backend-agnostic sink interface and the
// registry that backend packages register into from init().
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
)

// Config selects and connects a backend.
type Config struct {
	Kind string
	DSN  string
}

// Repository is the sink contract for one flat table.
//
// The interface is intentionally minimal: the pipeline produces exactly one
// rectangular table per run, replaces any previous table of the same name,
// and bulk-inserts rows. Each backend implements these semantics its own way.
type Repository interface {
	// Close releases backend resources. Call once at shutdown.
	Close()

	// ReplaceTable drops any existing table of this name and creates a fresh
	// one with the given columns, all text-typed. Columns must be sanitized
	// identifiers; callers own that contract.
	ReplaceTable(ctx context.Context, table string, columns []string) error

	// InsertRows bulk-inserts rows aligned with columns and reports how many
	// landed. Values must already be textified (nil or string).
	InsertRows(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)
}

type factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
// Call from an init() in the backend package. Registering the same kind
// twice panics, to fail fast on ambiguous backend selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("storage: Register called with empty kind")
	}
	if f == nil {
		panic("storage: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("storage: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Repository using the registered backend factory.
func New(ctx context.Context, cfg Config) (Repository, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("storage: missing storage.kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// Textify converts a cell value into the form every backend stores: nil for
// absent values, a string for everything else. Column types are text across
// backends, so numbers and booleans keep their JSON lexical form and
// composite leftovers serialize as JSON.
func Textify(v any) any {
	switch t := v.(type) {
	case nil:
		return nil
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		enc, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(enc)
	}
}

// TextifyRow textifies every cell in place-compatible copy.
func TextifyRow(row []any) []any {
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = Textify(v)
	}
	return out
}
