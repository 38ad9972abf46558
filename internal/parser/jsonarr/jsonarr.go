// Package jsonarr ingests whole-document JSON: a root array of objects, or an
// envelope object whose first array-of-objects field carries the records.
// Each record flattens through the same path as JSONL lines, so both formats
// produce identical schemas for identical data.
package jsonarr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"

	"flattab/internal/collect"
	"flattab/internal/flatten"
	"flattab/internal/jsonval"
)

// ErrNoRecords reports a JSON document with no usable array of objects.
var ErrNoRecords = errors.New("jsonarr: document contains no array of objects")

// Options configures a Parser.
type Options struct {
	// Flatten carries the delimiter configuration.
	Flatten flatten.Config

	// Logf is the warning diagnostic seam. Defaults to log.Printf.
	Logf func(format string, a ...any)
}

// Parser converts one JSON document into flattened records.
type Parser struct {
	f   *flatten.Flattener
	opt Options
}

// New returns a Parser for the given options.
func New(opt Options) *Parser {
	if opt.Logf == nil {
		opt.Logf = log.Printf
	}
	return &Parser{
		f:   flatten.New(opt.Flatten),
		opt: opt,
	}
}

// Parse reads one JSON document from r. Line numbers in the result are
// 1-based element indexes within the record array. Non-object elements are
// skipped, not fatal; a document with no array of objects at all is an error
// because nothing tabular can come of it.
func (p *Parser) Parse(ctx context.Context, r io.Reader) (collect.Result, error) {
	if err := ctx.Err(); err != nil {
		return collect.Result{}, err
	}

	dec := json.NewDecoder(r)
	dec.UseNumber()

	root, err := jsonval.DecodeNext(dec)
	if err != nil {
		return collect.Result{}, fmt.Errorf("jsonarr: decode document: %w", err)
	}

	elems, err := recordArray(root)
	if err != nil {
		return collect.Result{}, err
	}

	var res collect.Result
	builder := collect.NewSchemaBuilder()

	for i, elem := range elems {
		n := i + 1
		if elem == nil {
			// Null elements drop silently, like blank JSONL lines.
			continue
		}
		res.Lines++

		obj, ok := elem.(*jsonval.Object)
		if !ok {
			res.Skipped = append(res.Skipped, collect.SkippedLine{
				Line:   n,
				Reason: fmt.Sprintf("array element is not an object (got %s)", typeName(elem)),
			})
			p.opt.Logf("jsonarr: element %d skipped: not an object", n)
			continue
		}

		rec, cols := p.f.Flatten(obj)
		for _, k := range rec.Keys() {
			builder.Add(k)
		}
		for _, c := range cols {
			res.Collisions = append(res.Collisions, collect.KeyCollision{Line: n, Key: c.Key})
			p.opt.Logf("jsonarr: element %d: key collision on %q (last value wins)", n, c.Key)
		}
		res.Records = append(res.Records, rec)
	}

	res.Schema = builder.Freeze()
	return res, nil
}

// recordArray locates the record array: the root itself, or the first
// array-valued field of an envelope object that holds at least one object.
func recordArray(root any) ([]any, error) {
	switch t := root.(type) {
	case []any:
		return t, nil
	case *jsonval.Object:
		for _, k := range t.Keys {
			v, _ := t.Get(k)
			arr, ok := v.([]any)
			if !ok {
				continue
			}
			if hasObjectElement(arr) {
				return arr, nil
			}
		}
		return nil, ErrNoRecords
	default:
		return nil, fmt.Errorf("jsonarr: unsupported root %T (want array or object)", root)
	}
}

func hasObjectElement(arr []any) bool {
	for _, v := range arr {
		if _, ok := v.(*jsonval.Object); ok {
			return true
		}
	}
	return false
}

func typeName(v any) string {
	switch v.(type) {
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}
