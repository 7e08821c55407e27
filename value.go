package treedoc

import (
	"fmt"
	"sort"
	"time"
)

// Wildcard is the rule-path segment matching every field at its level.
const Wildcard = "*"

const delim = "."

// KV is one key/value pair of an ordered raw mapping. A []KV raw value is
// accepted by the binder as equivalent to a mapping, which lets format
// drivers express ordered or non-unique keys (YAML !!omap / !!pairs).
type KV struct {
	Key   any
	Value any
}

// Map is an insertion-ordered raw mapping from scalar keys to raw values.
// Format drivers produce it so that field order survives into diagnostics
// and iteration.
type Map struct {
	keys []any
	idx  map[any]int
	vals []any
}

// NewMap builds an ordered mapping from the given pairs. A later duplicate
// key overwrites the earlier value but keeps its original position.
func NewMap(pairs ...KV) *Map {
	m := &Map{idx: make(map[any]int, len(pairs))}
	for _, p := range pairs {
		m.Set(p.Key, p.Value)
	}
	return m
}

func (m *Map) Len() int { return len(m.keys) }

func (m *Map) Has(key any) bool {
	_, ok := m.idx[mapKey(key)]
	return ok
}

// Get returns the value for key, or nil when absent.
func (m *Map) Get(key any) any {
	if i, ok := m.idx[mapKey(key)]; ok {
		return m.vals[i]
	}
	return nil
}

func (m *Map) Set(key, value any) {
	k := mapKey(key)
	if i, ok := m.idx[k]; ok {
		m.vals[i] = value
		return
	}
	m.idx[k] = len(m.keys)
	m.keys = append(m.keys, key)
	m.vals = append(m.vals, value)
}

// Keys returns the keys in insertion order. The slice is shared; callers must
// not mutate it.
func (m *Map) Keys() []any { return m.keys }

// Pairs returns the entries in insertion order.
func (m *Map) Pairs() []KV {
	out := make([]KV, len(m.keys))
	for i, k := range m.keys {
		out[i] = KV{Key: k, Value: m.vals[i]}
	}
	return out
}

// mapKey normalizes a key for index lookup. Byte strings are not comparable,
// so they index by their string image.
func mapKey(key any) any {
	if b, ok := key.([]byte); ok {
		return string(b)
	}
	return normalizeScalar(key)
}

// Date is a calendar date without a time component. It is distinct from
// time.Time so that date and datetime constraints stay distinguishable.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// Time returns midnight of the date in the given location.
func (d Date) Time(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// normalizeScalar canonicalizes leaf values: integers to int64, floats to
// float64. Containers and already-canonical values pass through.
func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int8:
		return int64(n)
	case int16:
		return int64(n)
	case int32:
		return int64(n)
	case uint:
		return int64(n)
	case uint8:
		return int64(n)
	case uint16:
		return int64(n)
	case uint32:
		return int64(n)
	case uint64:
		return int64(n)
	case float32:
		return float64(n)
	default:
		return v
	}
}

// typeOf maps a document or raw value onto its semantic type. Bound container
// nodes and raw containers compare structurally.
func typeOf(v any) Type {
	switch normalizeScalar(v).(type) {
	case nil:
		return TypeNull
	case bool:
		return TypeBool
	case int64:
		return TypeInt
	case float64:
		return TypeFloat
	case string:
		return TypeString
	case []byte:
		return TypeBytes
	case Date:
		return TypeDate
	case time.Time:
		return TypeDateTime
	case *Mapping, *Map, []KV, map[string]any, map[any]any, map[any]struct{}:
		return TypeMapping
	case *Sequence, []any:
		return TypeSequence
	default:
		return typeInvalid
	}
}

// mapPairs extracts ordered key/value pairs from any mapping-shaped raw
// value. Plain Go maps have no usable order, so their keys are sorted by
// display form for deterministic traversal. A raw set collapses to a mapping
// from each element to null.
func mapPairs(v any) ([]KV, bool) {
	switch m := v.(type) {
	case *Map:
		return m.Pairs(), true
	case []KV:
		return m, true
	case map[string]any:
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make([]KV, len(keys))
		for i, k := range keys {
			out[i] = KV{Key: k, Value: m[k]}
		}
		return out, true
	case map[any]any:
		out := make([]KV, 0, len(m))
		for k, val := range m {
			out = append(out, KV{Key: k, Value: val})
		}
		sort.Slice(out, func(i, j int) bool {
			return fmt.Sprint(out[i].Key) < fmt.Sprint(out[j].Key)
		})
		return out, true
	case map[any]struct{}:
		out := make([]KV, 0, len(m))
		for k := range m {
			out = append(out, KV{Key: k, Value: nil})
		}
		sort.Slice(out, func(i, j int) bool {
			return fmt.Sprint(out[i].Key) < fmt.Sprint(out[j].Key)
		})
		return out, true
	default:
		return nil, false
	}
}

// seqItems extracts the elements of a sequence-shaped raw value.
func seqItems(v any) ([]any, bool) {
	if s, ok := v.([]any); ok {
		return s, true
	}
	return nil, false
}

// pathJoin extends a dotted path with one more field.
func pathJoin(parent string, field any) string {
	if parent == "" {
		return fmt.Sprint(field)
	}
	return parent + delim + fmt.Sprint(field)
}
