package ingest

import (
	"path/filepath"
	"strings"
	"unicode"
)

// detectFormat resolves the "auto" parser kind. The file extension decides
// when it is recognizable; otherwise the first non-whitespace byte of the
// content does. CSV is the fallback since delimited text has no reliable
// leading marker.
func detectFormat(name string, head []byte) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jsonl", ".ndjson":
		return "jsonl"
	case ".json":
		return "json"
	case ".csv", ".tsv":
		return "csv"
	case ".html", ".htm":
		return "html"
	}

	for _, b := range head {
		if unicode.IsSpace(rune(b)) {
			continue
		}
		switch b {
		case '<':
			return "html"
		case '[':
			return "json"
		case '{':
			// A leading object brace reads as JSONL: the line loop also
			// handles a single-object file.
			return "jsonl"
		}
		break
	}
	return "csv"
}
