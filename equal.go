package treedoc

import (
	"bytes"
	"reflect"
	"time"
)

// Equal reports deep value equality between two document or raw values. It
// drives the transform pass's change detection: bound nodes compare by
// content against other bound nodes, never against raw containers, so that
// a transform replacing a node with a raw value always counts as a change.
// Mapping comparison ignores field order; sequence comparison does not.
func Equal(a, b any) bool {
	a, b = normalizeScalar(a), normalizeScalar(b)
	switch av := a.(type) {
	case nil:
		return b == nil
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case int64:
		bv, ok := b.(int64)
		return ok && av == bv
	case float64:
		bv, ok := b.(float64)
		return ok && av == bv
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	case Date:
		bv, ok := b.(Date)
		return ok && av == bv
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case *Mapping:
		bv, ok := b.(*Mapping)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Fields() {
			bval, ok := bv.Lookup(k)
			if !ok || !Equal(av.Get(k), bval) {
				return false
			}
		}
		return true
	case *Sequence:
		bv, ok := b.(*Sequence)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i := 0; i < av.Len(); i++ {
			if !Equal(av.Get(i), bv.Get(i)) {
				return false
			}
		}
		return true
	case *Map:
		bv, ok := b.(*Map)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.Keys() {
			if !bv.Has(k) || !Equal(av.Get(k), bv.Get(k)) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	case []KV:
		bv, ok := b.([]KV)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i].Key, bv[i].Key) || !Equal(av[i].Value, bv[i].Value) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}
