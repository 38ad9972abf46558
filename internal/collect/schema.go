package collect

// SchemaBuilder accumulates the union of flattened keys across records,
// preserving first-appearance order. It is the mutable half of the schema
// lifecycle: builders collect, then Freeze produces the immutable Schema
// that materialization consumes.
type SchemaBuilder struct {
	order  []string
	seen   map[string]int
	frozen bool
}

// NewSchemaBuilder returns an empty builder.
func NewSchemaBuilder() *SchemaBuilder {
	return &SchemaBuilder{seen: make(map[string]int)}
}

// Add inserts key if not already present and reports whether it was new.
// First-seen order is preserved.
//
// Panics if called after Freeze: a frozen schema must never grow, otherwise
// rows materialized earlier would have the wrong width.
func (b *SchemaBuilder) Add(key string) bool {
	if b.frozen {
		panic("collect: SchemaBuilder.Add after Freeze")
	}
	if _, ok := b.seen[key]; ok {
		return false
	}
	b.seen[key] = len(b.order)
	b.order = append(b.order, key)
	return true
}

// Len returns the number of distinct keys added so far.
func (b *SchemaBuilder) Len() int { return len(b.order) }

// Freeze seals the builder and returns the immutable Schema. The builder
// rejects further Add calls afterwards.
func (b *SchemaBuilder) Freeze() *Schema {
	b.frozen = true
	cols := make([]string, len(b.order))
	copy(cols, b.order)
	index := make(map[string]int, len(cols))
	for i, c := range cols {
		index[c] = i
	}
	return &Schema{cols: cols, index: index}
}

// Schema is the frozen, ordered set of flattened keys observed across a
// record collection. It is immutable: every accessor returns copies or
// values, never internal state.
type Schema struct {
	cols  []string
	index map[string]int
}

// Columns returns a copy of the ordered key list.
func (s *Schema) Columns() []string {
	out := make([]string, len(s.cols))
	copy(out, s.cols)
	return out
}

// Len returns the column count.
func (s *Schema) Len() int { return len(s.cols) }

// Index returns the position of key and whether it exists.
func (s *Schema) Index(key string) (int, bool) {
	i, ok := s.index[key]
	return i, ok
}
