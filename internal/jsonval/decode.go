// Package jsonval decodes JSON values while preserving object key order.
//
// encoding/json decodes objects into map[string]any, which loses document
// order. Column ordering downstream is first-appearance order, so the decoder
// here walks tokens and records keys in the order they appear. Numbers are
// kept as json.Number to avoid lossy float64 round-trips.
package jsonval

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Object is a JSON object with stable key order.
//
// Keys holds first-appearance document order. A duplicated key within the
// same object keeps its original position and takes the later value
// (last-write-wins), matching encoding/json behavior.
type Object struct {
	Keys   []string
	Values map[string]any
}

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return &Object{Values: make(map[string]any)}
}

// Set stores v under k, appending k to the key order on first sight.
func (o *Object) Set(k string, v any) {
	if _, ok := o.Values[k]; !ok {
		o.Keys = append(o.Keys, k)
	}
	o.Values[k] = v
}

// Get returns the value for k and whether it exists.
func (o *Object) Get(k string) (any, bool) {
	v, ok := o.Values[k]
	return v, ok
}

// Len returns the number of distinct keys.
func (o *Object) Len() int { return len(o.Keys) }

// Decode parses exactly one JSON value from data and fails on trailing
// non-whitespace content. It returns one of:
//
//	*Object, []any, string, json.Number, bool, nil
func Decode(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	v, err := DecodeNext(dec)
	if err != nil {
		return nil, err
	}

	// A JSONL line must be a single self-contained value.
	if tok, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, fmt.Errorf("jsonval: trailing content: %w", err)
		}
		return nil, fmt.Errorf("jsonval: trailing content after value: %v", tok)
	}
	return v, nil
}

// DecodeNext parses the next JSON value from dec, preserving object key
// order. The decoder should have UseNumber enabled; Decode sets it up.
func DecodeNext(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return valueFromFirstToken(dec, tok)
}

// valueFromFirstToken builds a value for the current JSON token, consuming
// nested tokens for composites. Mirrors the shape of a streaming decoder:
// the first token decides scalar vs object vs array.
func valueFromFirstToken(dec *json.Decoder, tok json.Token) (any, error) {
	d, ok := tok.(json.Delim)
	if !ok {
		// Scalar token: string, json.Number, bool, or nil.
		return tok, nil
	}

	switch d {
	case '{':
		obj := NewObject()
		for dec.More() {
			kt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("jsonval: read object key: %w", err)
			}
			k, ok := kt.(string)
			if !ok {
				return nil, fmt.Errorf("jsonval: object key not a string (got %T)", kt)
			}
			vt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("jsonval: read object value token: %w", err)
			}
			v, err := valueFromFirstToken(dec, vt)
			if err != nil {
				return nil, err
			}
			obj.Set(k, v)
		}
		end, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonval: read object end: %w", err)
		}
		if end != json.Delim('}') {
			return nil, fmt.Errorf("jsonval: expected '}', got %v", end)
		}
		return obj, nil

	case '[':
		arr := []any{}
		for dec.More() {
			vt, err := dec.Token()
			if err != nil {
				return nil, fmt.Errorf("jsonval: read array value token: %w", err)
			}
			v, err := valueFromFirstToken(dec, vt)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		end, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("jsonval: read array end: %w", err)
		}
		if end != json.Delim(']') {
			return nil, fmt.Errorf("jsonval: expected ']', got %v", end)
		}
		return arr, nil

	default:
		return nil, fmt.Errorf("jsonval: unexpected delimiter %q", d)
	}
}
