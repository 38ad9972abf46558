package config

import (
	"strings"
	"testing"
)

func validConfig() Ingest {
	return Ingest{
		Job:     "nightly",
		Source:  Source{Kind: "file", File: &FileSource{Path: "data/users.jsonl"}},
		Parser:  Parser{Kind: "jsonl"},
		Storage: Storage{Kind: "sqlite", DB: DB{DSN: "file:out.db"}},
	}
}

func TestLoad(t *testing.T) {
	c, err := Load(strings.NewReader(`{
		"job": "nightly",
		"source": {"kind": "file", "file": {"path": "data/users.jsonl"}},
		"parser": {"kind": "jsonl", "options": {"field_delimiter": "."}},
		"storage": {"kind": "postgres", "db": {"dsn": "postgres://x", "table": "users"}},
		"runtime": {"strategy": "twopass", "batch_size": 100, "add_row_hash": true}
	}`))
	if err != nil {
		t.Fatalf("Load() err=%v", err)
	}
	if c.Job != "nightly" || c.Source.File.Path != "data/users.jsonl" {
		t.Fatalf("unexpected config: %+v", c)
	}
	if got := c.Parser.Options.String("field_delimiter", "__"); got != "." {
		t.Fatalf("field_delimiter=%q", got)
	}
	if c.Runtime.Strategy != "twopass" || c.Runtime.BatchSize != 100 || !c.Runtime.AddRowHash {
		t.Fatalf("runtime: %+v", c.Runtime)
	}
}

func TestLoad_BadJSON(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"job": `)); err == nil {
		t.Fatal("Load() accepted truncated JSON")
	}
}

func TestValidateIngest_OK(t *testing.T) {
	if issues := ValidateIngest(validConfig()); len(issues) != 0 {
		t.Fatalf("issues=%v, want none", issues)
	}
}

func TestValidateIngest_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Ingest)
		path   string
	}{
		{"bad source kind", func(c *Ingest) { c.Source.Kind = "s3" }, "source.kind"},
		{"missing path", func(c *Ingest) { c.Source.File = nil }, "source.file.path"},
		{"blank path", func(c *Ingest) { c.Source.File.Path = "  " }, "source.file.path"},
		{"bad parser kind", func(c *Ingest) { c.Parser.Kind = "xml" }, "parser.kind"},
		{"missing storage kind", func(c *Ingest) { c.Storage.Kind = "" }, "storage.kind"},
		{"bad storage kind", func(c *Ingest) { c.Storage.Kind = "redis" }, "storage.kind"},
		{"missing dsn", func(c *Ingest) { c.Storage.DB.DSN = "" }, "storage.db.dsn"},
		{"bad strategy", func(c *Ingest) { c.Runtime.Strategy = "streaming" }, "runtime.strategy"},
		{"negative batch", func(c *Ingest) { c.Runtime.BatchSize = -1 }, "runtime.batch_size"},
		{"empty field delimiter", func(c *Ingest) {
			c.Parser.Options = Options{"field_delimiter": ""}
		}, "parser.options.field_delimiter"},
	}
	for _, tc := range tests {
		c := validConfig()
		tc.mutate(&c)
		issues := ValidateIngest(c)
		found := false
		for _, iss := range issues {
			if iss.Path == tc.path && iss.Severity == SeverityError {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: no error at %q, issues=%v", tc.name, tc.path, issues)
		}
	}
}

func TestValidateIngest_IdenticalDelimitersWarn(t *testing.T) {
	c := validConfig()
	c.Parser.Options = Options{"field_delimiter": "_", "index_delimiter": "_"}
	issues := ValidateIngest(c)
	if len(issues) != 1 || issues[0].Severity != SeverityWarning {
		t.Fatalf("issues=%v, want one warning", issues)
	}
}

func TestOptionsGetters(t *testing.T) {
	o := Options{
		"s":     "  hi  ",
		"b":     true,
		"n":     float64(7),
		"tab":   "\t",
		"m":     map[string]any{"a": "1", "bad": 2},
		"wrong": 42,
	}
	if got := o.String("s", "x"); got != "hi" {
		t.Fatalf("String=%q", got)
	}
	if got := o.String("missing", "x"); got != "x" {
		t.Fatalf("String default=%q", got)
	}
	if got := o.String("wrong", "x"); got != "x" {
		t.Fatalf("String mistyped=%q", got)
	}
	if !o.Bool("b", false) || o.Bool("missing", false) {
		t.Fatal("Bool")
	}
	if got := o.Int("n", 0); got != 7 {
		t.Fatalf("Int=%d", got)
	}
	if got := o.Rune("tab", ','); got != '\t' {
		t.Fatalf("Rune=%q, whitespace delimiter must survive", got)
	}
	if got := o.Rune("missing", ','); got != ',' {
		t.Fatalf("Rune default=%q", got)
	}
	m := o.StringMap("m")
	if m["a"] != "1" {
		t.Fatalf("StringMap=%v", m)
	}
	if _, ok := m["bad"]; ok {
		t.Fatalf("StringMap kept non-string element: %v", m)
	}
	var nilOpts Options
	if nilOpts.Any("k") != nil {
		t.Fatal("nil Options.Any")
	}
}
