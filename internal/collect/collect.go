// Package collect performs field discovery over a JSONL source: every line
// is parsed and flattened, and the union of flattened keys becomes the
// table schema. One bad line never aborts the pass.
package collect

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"unicode/utf8"

	"flattab/internal/flatten"
	"flattab/internal/jsonval"
)

const defaultMaxLineBytes = 1 << 20

// SkippedLine records one input line that could not be ingested. Skips are
// counted and reportable, never fatal.
type SkippedLine struct {
	Line   int
	Raw    string
	Reason string
}

// KeyCollision ties a flattened-key collision to the input line it occurred on.
type KeyCollision struct {
	Line int
	Key  string
}

// Options configures a Collector.
type Options struct {
	// Flatten carries the delimiter configuration.
	Flatten flatten.Config

	// AllowScalarRoots accepts lines whose root is valid JSON but not an
	// object (e.g. a bare number). When false (default) such lines are
	// counted as skipped, matching the upstream object-per-line contract.
	AllowScalarRoots bool

	// MaxLineBytes bounds a single line. Default 1 MiB.
	MaxLineBytes int

	// Logf is the warning diagnostic seam. Defaults to log.Printf.
	Logf func(format string, a ...any)
}

// Collector runs collection passes over a line-delimited source.
type Collector struct {
	f   *flatten.Flattener
	opt Options
}

// New returns a Collector for the given options.
func New(opt Options) *Collector {
	if opt.MaxLineBytes <= 0 {
		opt.MaxLineBytes = defaultMaxLineBytes
	}
	if opt.Logf == nil {
		opt.Logf = log.Printf
	}
	return &Collector{
		f:   flatten.New(opt.Flatten),
		opt: opt,
	}
}

// Result is the output of a buffered collection pass.
type Result struct {
	// Schema is frozen before return; materialization relies on it never
	// growing afterwards.
	Schema *Schema

	// Records holds one flattened record per successfully parsed line, in
	// input order.
	Records []*flatten.Record

	// Skipped lists lines dropped due to parse or policy failures.
	Skipped []SkippedLine

	// Collisions lists flattened-key collisions (last-write-wins applied).
	Collisions []KeyCollision

	// Lines counts non-blank input lines, valid or not. The caller reports
	// "len(Records) of Lines processed, len(Skipped) skipped".
	Lines int
}

// Collect runs one buffered pass: every valid line is flattened, buffered,
// and unioned into the schema. The returned Schema is frozen.
//
// Zero valid lines is a valid result (empty schema, no records), not an
// error; only a failure to read the source itself is returned as an error.
func (c *Collector) Collect(ctx context.Context, r io.Reader) (Result, error) {
	var res Result
	builder := NewSchemaBuilder()

	skipped, lines, err := c.each(ctx, r, func(line int, rec *flatten.Record, cols []flatten.Collision) error {
		for _, k := range rec.Keys() {
			builder.Add(k)
		}
		for _, col := range cols {
			res.Collisions = append(res.Collisions, KeyCollision{Line: line, Key: col.Key})
			c.opt.Logf("collect: line %d: key collision on %q (last value wins)", line, col.Key)
		}
		res.Records = append(res.Records, rec)
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	res.Schema = builder.Freeze()
	res.Skipped = skipped
	res.Lines = lines
	return res, nil
}

// CollectSchema runs a schema-only pass, for the two-pass strategy that
// trades a second read of the source for not buffering flattened records.
func (c *Collector) CollectSchema(ctx context.Context, r io.Reader) (*Schema, []SkippedLine, error) {
	builder := NewSchemaBuilder()

	skipped, _, err := c.each(ctx, r, func(line int, rec *flatten.Record, cols []flatten.Collision) error {
		for _, k := range rec.Keys() {
			builder.Add(k)
		}
		for _, col := range cols {
			c.opt.Logf("collect: line %d: key collision on %q (last value wins)", line, col.Key)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return builder.Freeze(), skipped, nil
}

// Each streams flattened records to fn without buffering them. Used as the
// second pass of the two-pass strategy, after the schema is frozen.
func (c *Collector) Each(ctx context.Context, r io.Reader, fn func(line int, rec *flatten.Record) error) ([]SkippedLine, error) {
	skipped, _, err := c.each(ctx, r, func(line int, rec *flatten.Record, _ []flatten.Collision) error {
		return fn(line, rec)
	})
	return skipped, err
}

// each is the single shared line loop. Line numbers are 1-based and count
// every physical line, so skip diagnostics point at the real location.
func (c *Collector) each(
	ctx context.Context,
	r io.Reader,
	fn func(line int, rec *flatten.Record, cols []flatten.Collision) error,
) (skipped []SkippedLine, nonBlank int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), c.opt.MaxLineBytes)

	skip := func(line int, raw, reason string) {
		skipped = append(skipped, SkippedLine{Line: line, Raw: raw, Reason: reason})
		c.opt.Logf("collect: line %d skipped: %s", line, reason)
	}

	line := 0
	for sc.Scan() {
		line++

		select {
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		default:
		}

		raw := sc.Text()
		if strings.TrimSpace(raw) == "" {
			// Blank lines are not an error and not counted as processed.
			continue
		}
		nonBlank++

		if !utf8.ValidString(raw) {
			// Undecodable text is treated exactly like malformed JSON.
			skip(line, raw, "invalid text encoding")
			continue
		}

		v, derr := jsonval.Decode([]byte(raw))
		if derr != nil {
			skip(line, raw, fmt.Sprintf("malformed JSON: %v", derr))
			continue
		}

		if _, ok := v.(*jsonval.Object); !ok && !c.opt.AllowScalarRoots {
			skip(line, raw, fmt.Sprintf("expected JSON object, got %s", jsonTypeName(v)))
			continue
		}

		rec, cols := c.f.Flatten(v)
		if err := fn(line, rec, cols); err != nil {
			return nil, 0, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, 0, fmt.Errorf("read source: %w", err)
	}
	return skipped, nonBlank, nil
}

func jsonTypeName(v any) string {
	switch v.(type) {
	case *jsonval.Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	case nil:
		return "null"
	default:
		return "number"
	}
}
