package ingest

import "fmt"

// SourceError marks failures reading or parsing the input document. These
// abort the run, unlike per-line skips, which are reported in the summary.
type SourceError struct {
	Err error
}

func (e *SourceError) Error() string { return fmt.Sprintf("source: %v", e.Err) }
func (e *SourceError) Unwrap() error { return e.Err }

// SinkError marks failures writing to the destination backend.
type SinkError struct {
	Err error
}

func (e *SinkError) Error() string { return fmt.Sprintf("sink: %v", e.Err) }
func (e *SinkError) Unwrap() error { return e.Err }
