package config

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Ingest is the top-level configuration for one ingestion run: where the
// records come from, how they are flattened, and which sink receives the
// resulting table.
type Ingest struct {
	// Job is the logical job name used for metrics tags and defaults.
	Job string `json:"job"`

	Source  Source  `json:"source"`
	Parser  Parser  `json:"parser"`
	Storage Storage `json:"storage"`
	Runtime Runtime `json:"runtime"`
}

type Source struct {
	Kind string      `json:"kind"` // "file"
	File *FileSource `json:"file,omitempty"`
}

type FileSource struct {
	Path string `json:"path"`
}

type Parser struct {
	// Kind selects the ingestion path: "auto", "jsonl", "json", "csv", "html".
	Kind string `json:"kind"`

	// Options carries parser-specific settings, notably:
	//   field_delimiter  nested-object join delimiter (default "__")
	//   index_delimiter  array-index join delimiter (default "_")
	//   allow_scalar_roots  accept non-object JSONL roots (default false)
	Options Options `json:"options"`
}

type Storage struct {
	// Kind selects the sink backend: "sqlite", "postgres", or "mssql".
	Kind string `json:"kind"`
	DB   DB     `json:"db"`
}

type DB struct {
	DSN string `json:"dsn"`

	// Table is the destination table name before sanitization. When empty it
	// is derived from the source file name.
	Table string `json:"table"`
}

// Runtime controls execution behavior of a run.
type Runtime struct {
	// Strategy is the schema collection memory strategy:
	// "buffered" (default) holds flattened records for the whole pass;
	// "twopass" re-reads the source and streams rows to the sink instead.
	Strategy string `json:"strategy"`

	// BatchSize is the sink insert batch size. Default 512.
	BatchSize int `json:"batch_size"`

	// AddRowHash adds a deterministic row_hash column to every row.
	AddRowHash bool `json:"add_row_hash"`

	// SampleRows controls how many rows the result summary carries. Default 5.
	SampleRows int `json:"sample_rows"`

	// MaxLineBytes bounds a single JSONL line. Default 1 MiB.
	MaxLineBytes int `json:"max_line_bytes"`
}

// Load decodes an Ingest config from JSON.
func Load(r io.Reader) (Ingest, error) {
	var c Ingest
	dec := json.NewDecoder(r)
	if err := dec.Decode(&c); err != nil {
		return Ingest{}, fmt.Errorf("decode config: %w", err)
	}
	return c, nil
}

// Severity classifies a validation issue.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one validation finding with a JSON-ish path for context.
type Issue struct {
	Severity Severity
	Path     string
	Message  string
}

// ValidateIngest checks an Ingest config and returns all findings. Callers
// decide whether warnings are acceptable; any SeverityError issue means the
// config must not run.
func ValidateIngest(c Ingest) []Issue {
	var issues []Issue

	errf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityError, path, fmt.Sprintf(format, a...)})
	}
	warnf := func(path, format string, a ...any) {
		issues = append(issues, Issue{SeverityWarning, path, fmt.Sprintf(format, a...)})
	}

	if c.Source.Kind != "file" {
		errf("source.kind", "must be %q, got %q", "file", c.Source.Kind)
	}
	if c.Source.File == nil || strings.TrimSpace(c.Source.File.Path) == "" {
		errf("source.file.path", "is required")
	}

	switch c.Parser.Kind {
	case "", "auto", "jsonl", "json", "csv", "html":
	default:
		errf("parser.kind", "unsupported kind %q", c.Parser.Kind)
	}

	switch c.Storage.Kind {
	case "sqlite", "postgres", "mssql":
	case "":
		errf("storage.kind", "is required")
	default:
		errf("storage.kind", "unsupported kind %q", c.Storage.Kind)
	}
	if strings.TrimSpace(c.Storage.DB.DSN) == "" {
		errf("storage.db.dsn", "is required")
	}

	switch c.Runtime.Strategy {
	case "", "buffered", "twopass":
	default:
		errf("runtime.strategy", "must be %q or %q, got %q", "buffered", "twopass", c.Runtime.Strategy)
	}
	if c.Runtime.BatchSize < 0 {
		errf("runtime.batch_size", "must be >= 0")
	}
	if c.Runtime.SampleRows < 0 {
		errf("runtime.sample_rows", "must be >= 0")
	}

	fd := c.Parser.Options.String("field_delimiter", "__")
	id := c.Parser.Options.String("index_delimiter", "_")
	if fd == "" {
		errf("parser.options.field_delimiter", "must not be empty")
	}
	if id == "" {
		errf("parser.options.index_delimiter", "must not be empty")
	}
	if fd != "" && fd == id {
		warnf("parser.options", "field and index delimiters are identical (%q); flattened keys for objects and arrays become indistinguishable", fd)
	}

	return issues
}
