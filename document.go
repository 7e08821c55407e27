package treedoc

import (
	"strconv"
)

// Node is the navigable surface shared by the two bound container kinds,
// *Mapping and *Sequence. A Node tree is produced by Schema.Parse and is
// exclusively owned by its caller; it is not safe for concurrent mutation.
type Node interface {
	// Len returns the number of fields in the container.
	Len() int
	// Has reports whether the field is present. Sequence fields accept
	// integer indexes, float indexes truncated toward zero, and
	// string-encoded integers; negative indexes are not contained.
	Has(field any) bool
	// Fields returns the field names in iteration order: schema-declared
	// fields first, then any remaining fields in document order.
	Fields() []any
	// Get returns the value bound at field, or nil when absent. Sequence
	// lookups accept negative indexes counting from the end.
	Get(field any) any
	// Lookup is Get distinguishing an absent field from a bound null.
	Lookup(field any) (any, bool)
	// GetPath descends nested containers field by field, returning nil as
	// soon as a step is absent or hits a leaf.
	GetPath(fields ...any) any
	// Path returns the dotted path of the node; empty for the root.
	Path() string
	// Filename returns the source identifier the document was bound from.
	Filename() string
	// Root returns the document root.
	Root() Node
	// State returns the node's validation state.
	State() State
	// Rule returns the schema rule matched to the field during binding, or
	// nil when none was attached.
	Rule(field any) *Rule
	// Raw detaches the subtree into plain raw values: *Map for mappings,
	// []any for sequences, leaves as-is.
	Raw() any

	base() *nodeBase
	canonField(field any) (any, bool)
	set(field, value any)
}

// nodeBase carries the bookkeeping shared by both container kinds.
type nodeBase struct {
	self     Node
	root     Node
	path     string
	filename string
	rootRule *Rule // set on the root node only
	state    State

	ruleKeys []any
	rules    map[any]*Rule
}

func (b *nodeBase) Path() string     { return b.path }
func (b *nodeBase) Filename() string { return b.filename }
func (b *nodeBase) Root() Node       { return b.root }
func (b *nodeBase) State() State     { return b.state }
func (b *nodeBase) base() *nodeBase  { return b }

func (b *nodeBase) isRoot() bool { return b.root == b.self }

func (b *nodeBase) ruleFor(key any) *Rule { return b.rules[mapKey(key)] }

func (b *nodeBase) attachRule(key any, r *Rule) {
	k := mapKey(key)
	if _, ok := b.rules[k]; !ok {
		b.ruleKeys = append(b.ruleKeys, key)
	}
	b.rules[k] = r
}

func newNodeBase(root Node, path, filename string) nodeBase {
	return nodeBase{
		root:     root,
		path:     path,
		filename: filename,
		rules:    make(map[any]*Rule),
	}
}

// Mapping is the bound form of a mapping raw value. Keys are arbitrary
// scalars, not only strings, and insertion order is preserved.
type Mapping struct {
	nodeBase
	keys []any
	idx  map[any]int
	vals []any
}

func (m *Mapping) Len() int { return len(m.keys) }

func (m *Mapping) Has(field any) bool {
	_, ok := m.idx[mapKey(field)]
	return ok
}

// Fields returns keys in rule-attachment order first, then any remaining
// document keys in insertion order.
func (m *Mapping) Fields() []any {
	out := make([]any, 0, len(m.keys))
	seen := make(map[any]struct{}, len(m.keys))
	for _, k := range m.ruleKeys {
		out = append(out, k)
		seen[mapKey(k)] = struct{}{}
	}
	for _, k := range m.keys {
		if _, dup := seen[mapKey(k)]; !dup {
			out = append(out, k)
		}
	}
	return out
}

func (m *Mapping) Get(field any) any {
	v, _ := m.Lookup(field)
	return v
}

func (m *Mapping) Lookup(field any) (any, bool) {
	if i, ok := m.idx[mapKey(field)]; ok {
		return m.vals[i], true
	}
	return nil, false
}

func (m *Mapping) GetPath(fields ...any) any { return getPath(m, fields) }

func (m *Mapping) Rule(field any) *Rule { return m.ruleFor(field) }

func (m *Mapping) Raw() any {
	out := NewMap()
	for _, k := range m.Fields() {
		out.Set(k, rawValue(m.Get(k)))
	}
	return out
}

func (m *Mapping) canonField(field any) (any, bool) { return field, true }

func (m *Mapping) set(field, value any) {
	k := mapKey(field)
	if i, ok := m.idx[k]; ok {
		m.vals[i] = value
		return
	}
	m.idx[k] = len(m.keys)
	m.keys = append(m.keys, field)
	m.vals = append(m.vals, value)
}

// Sequence is the bound form of a sequence raw value, addressed by 0-based
// integer index.
type Sequence struct {
	nodeBase
	vals []any
}

func (s *Sequence) Len() int { return len(s.vals) }

func (s *Sequence) Has(field any) bool {
	i, ok := seqIndex(field)
	return ok && i >= 0 && i < len(s.vals)
}

func (s *Sequence) Fields() []any {
	out := make([]any, len(s.vals))
	for i := range s.vals {
		out[i] = i
	}
	return out
}

func (s *Sequence) Get(field any) any {
	v, _ := s.Lookup(field)
	return v
}

// Lookup resolves negative indexes from the end of the sequence.
func (s *Sequence) Lookup(field any) (any, bool) {
	i, ok := seqIndex(field)
	if !ok {
		return nil, false
	}
	if i < 0 {
		i += len(s.vals)
	}
	if i < 0 || i >= len(s.vals) {
		return nil, false
	}
	return s.vals[i], true
}

func (s *Sequence) GetPath(fields ...any) any { return getPath(s, fields) }

func (s *Sequence) Rule(field any) *Rule {
	if i, ok := s.canonField(field); ok {
		return s.ruleFor(i)
	}
	return nil
}

func (s *Sequence) Raw() any {
	out := make([]any, len(s.vals))
	for i, v := range s.vals {
		out[i] = rawValue(v)
	}
	return out
}

func (s *Sequence) canonField(field any) (any, bool) {
	i, ok := seqIndex(field)
	if !ok {
		return nil, false
	}
	return i, true
}

// set replaces the value at the index; setting at exactly Len appends, which
// is how defaults land on sequence elements that were absent.
func (s *Sequence) set(field, value any) {
	i, ok := seqIndex(field)
	if !ok {
		return
	}
	if i < 0 {
		i += len(s.vals)
	}
	if i == len(s.vals) {
		s.vals = append(s.vals, value)
		return
	}
	if i >= 0 && i < len(s.vals) {
		s.vals[i] = value
	}
}

// seqIndex coerces a field to a sequence index: integers as-is, floats
// truncated toward zero, strings parsed as base-10 integers.
func seqIndex(field any) (int, bool) {
	switch f := normalizeScalar(field).(type) {
	case int64:
		return int(f), true
	case float64:
		return int(f), true
	case string:
		i, err := strconv.Atoi(f)
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func getPath(n Node, fields []any) any {
	var cur any = n
	for _, f := range fields {
		node, ok := cur.(Node)
		if !ok {
			return nil
		}
		cur, ok = node.Lookup(f)
		if !ok {
			return nil
		}
	}
	return cur
}

// rawValue detaches a document value into its raw representation.
func rawValue(v any) any {
	if n, ok := v.(Node); ok {
		return n.Raw()
	}
	return v
}
