package jsonval

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestDecode_PreservesObjectKeyOrder(t *testing.T) {
	// Key order must follow the document, not lexicographic order.
	// "zeta" precedes "alpha" here on purpose.
	v, err := Decode([]byte(`{"zeta":1,"alpha":{"m":2,"b":3},"tags":["x","y"]}`))
	if err != nil {
		t.Fatalf("Decode() err=%v, want nil", err)
	}
	obj, ok := v.(*Object)
	if !ok {
		t.Fatalf("Decode() type=%T, want *Object", v)
	}
	if got, want := obj.Keys, []string{"zeta", "alpha", "tags"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys=%v, want %v", got, want)
	}

	nested, _ := obj.Get("alpha")
	nobj, ok := nested.(*Object)
	if !ok {
		t.Fatalf("alpha type=%T, want *Object", nested)
	}
	if got, want := nobj.Keys, []string{"m", "b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("alpha.Keys=%v, want %v", got, want)
	}
}

func TestDecode_ScalarTypes(t *testing.T) {
	tests := []struct {
		in   string
		want any
	}{
		{`"s"`, "s"},
		{`42`, json.Number("42")},
		{`4.5`, json.Number("4.5")},
		{`true`, true},
		{`null`, nil},
	}
	for _, tc := range tests {
		v, err := Decode([]byte(tc.in))
		if err != nil {
			t.Fatalf("Decode(%s) err=%v, want nil", tc.in, err)
		}
		if !reflect.DeepEqual(v, tc.want) {
			t.Fatalf("Decode(%s)=%#v, want %#v", tc.in, v, tc.want)
		}
	}
}

func TestDecode_DuplicateKeyLastWriteWins(t *testing.T) {
	v, err := Decode([]byte(`{"a":1,"a":2}`))
	if err != nil {
		t.Fatalf("Decode() err=%v, want nil", err)
	}
	obj := v.(*Object)
	if got, want := obj.Keys, []string{"a"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("Keys=%v, want %v", got, want)
	}
	got, _ := obj.Get("a")
	if got != json.Number("2") {
		t.Fatalf("a=%v, want 2", got)
	}
}

func TestDecode_RejectsMalformedAndTrailing(t *testing.T) {
	for _, in := range []string{`{"a":`, `not json`, `{"a":1} extra`, `1 2`, ``} {
		if _, err := Decode([]byte(in)); err == nil {
			t.Fatalf("Decode(%q) err=nil, want error", in)
		}
	}
}

func TestDecode_EmptyContainers(t *testing.T) {
	v, err := Decode([]byte(`{"o":{},"a":[]}`))
	if err != nil {
		t.Fatalf("Decode() err=%v, want nil", err)
	}
	obj := v.(*Object)

	o, _ := obj.Get("o")
	if o.(*Object).Len() != 0 {
		t.Fatalf("o.Len()=%d, want 0", o.(*Object).Len())
	}
	a, _ := obj.Get("a")
	if len(a.([]any)) != 0 {
		t.Fatalf("len(a)=%d, want 0", len(a.([]any)))
	}
}
