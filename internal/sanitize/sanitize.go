// Package sanitize normalizes untrusted names into identifiers that are safe
// to interpolate as quoted SQL identifiers across the supported backends.
//
// Flattened column keys derive from record content, and table names derive
// from uploaded file names, so every identifier that reaches a sink must pass
// through here first.
package sanitize

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"
)

// maxIdentLen is the byte budget for one identifier. 63 is the Postgres
// NAMEDATALEN limit; SQLite and SQL Server allow more, so the smallest
// backend limit wins.
const maxIdentLen = 63

var reservedWords = map[string]struct{}{
	"all": {}, "alter": {}, "and": {}, "as": {}, "asc": {}, "between": {},
	"by": {}, "case": {}, "check": {}, "column": {}, "constraint": {},
	"create": {}, "default": {}, "delete": {}, "desc": {}, "distinct": {},
	"drop": {}, "else": {}, "exists": {}, "foreign": {}, "from": {},
	"group": {}, "having": {}, "in": {}, "index": {}, "insert": {},
	"into": {}, "is": {}, "join": {}, "key": {}, "like": {}, "limit": {},
	"not": {}, "null": {}, "offset": {}, "on": {}, "or": {}, "order": {},
	"primary": {}, "references": {}, "select": {}, "set": {}, "table": {},
	"then": {}, "union": {}, "unique": {}, "update": {}, "values": {},
	"when": {}, "where": {},
}

// TableName sanitizes a destination table name. A file extension is stripped
// first, since table names are commonly derived from uploaded file names.
// An unusable input falls back to a stable hash-derived name so the same
// input always maps to the same table.
func TableName(name string) string {
	base := name
	if i := strings.LastIndexByte(base, '.'); i > 0 {
		base = base[:i]
	}

	s := normalize(base)
	if s == "" {
		return fmt.Sprintf("table_%05d", stableHash(name)%100000)
	}
	return s
}

// ColumnName sanitizes one column name. Empty results (for example the
// empty-prefix key produced by a scalar root record) fall back to "value".
func ColumnName(name string) string {
	s := normalize(name)
	if s == "" {
		return "value"
	}
	return s
}

// Columns sanitizes every name in order and enforces uniqueness: when two
// distinct inputs normalize to the same identifier, later ones get a
// deterministic numeric suffix (_2, _3, ...). Output order matches input
// order, so the schema's column ordering survives sanitization.
func Columns(names []string) []string {
	out := make([]string, 0, len(names))
	used := make(map[string]struct{}, len(names))

	for _, n := range names {
		c := ColumnName(n)
		if _, taken := used[c]; taken {
			for i := 2; ; i++ {
				cand := truncate(c, maxIdentLen-len(fmt.Sprintf("_%d", i))) + fmt.Sprintf("_%d", i)
				if _, taken := used[cand]; !taken {
					c = cand
					break
				}
			}
		}
		used[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// normalize lowercases, collapses separator runs into single underscores,
// drops everything outside [a-z0-9_], guards leading digits and reserved
// words, and truncates to the identifier byte budget.
func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var b strings.Builder
	b.Grow(len(s))

	lastUnderscore := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			lastUnderscore = false
		case r == '_' || r == ' ' || r == '-' || r == '.' || r == '/' || r == '\\' || r == ':' || r == ';':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		default:
			// Drop everything else.
		}
	}

	out := strings.Trim(b.String(), "_")
	if out == "" {
		return ""
	}
	if out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	if _, ok := reservedWords[out]; ok {
		out = out + "_"
	}
	return truncate(out, maxIdentLen)
}

// truncate cuts s to at most n bytes on a UTF-8 boundary. Input here is
// ASCII after normalize, but the guard is kept for safety.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.ValidString(s[:cut]) {
		cut--
	}
	if cut <= 0 {
		return s[:n]
	}
	return s[:cut]
}

func stableHash(s string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return h.Sum32()
}
