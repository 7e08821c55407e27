package treedoc_test

import (
	"testing"

	"github.com/treedoc/treedoc"
)

func bindDoc(t *testing.T, raw any) *treedoc.Mapping {
	t.Helper()
	s := treedoc.New()
	s.MustAddRule("*", treedoc.Optional())
	s.MustAddRule("*.*", treedoc.Optional())
	s.MustAddRule("*.*.*", treedoc.Optional())
	doc, err := s.Parse(raw, treedoc.InMemory)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return doc.(*treedoc.Mapping)
}

func TestSequenceIndexing(t *testing.T) {
	s := treedoc.New()
	s.MustAddRule("*", treedoc.Optional())
	doc, err := s.Parse([]any{"a", "b", "c"}, treedoc.InMemory)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	seq := doc.(*treedoc.Sequence)

	cases := []struct {
		field any
		want  any
		ok    bool
	}{
		{0, "a", true},
		{2, "c", true},
		{-1, "c", true},
		{-3, "a", true},
		{-4, nil, false},
		{3, nil, false},
		{"1", "b", true},   // string-encoded index
		{1.9, "b", true},   // float truncates toward zero
		{int8(2), "c", true},
		{"x", nil, false},
	}
	for _, tc := range cases {
		got, ok := seq.Lookup(tc.field)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Lookup(%v) = %v, %v; want %v, %v", tc.field, got, ok, tc.want, tc.ok)
		}
	}

	// Has does not resolve negative indexes; only 0..Len-1 are contained.
	if seq.Has(-1) {
		t.Errorf("Has(-1) = true, want false")
	}
	if !seq.Has("2") || seq.Has(3) {
		t.Errorf("Has bounds wrong: Has(2)=%v Has(3)=%v", seq.Has("2"), seq.Has(3))
	}
}

func TestMappingFieldOrder(t *testing.T) {
	s := treedoc.New()
	s.MustAddRule("b")
	s.MustAddRule("a")

	raw := treedoc.NewMap(
		treedoc.KV{Key: "a", Value: 1},
		treedoc.KV{Key: "b", Value: 2},
	)
	doc, err := s.Parse(raw, treedoc.InMemory)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// Declared fields lead in declaration order, regardless of document
	// order.
	got := doc.(*treedoc.Mapping).Fields()
	if len(got) != 2 || got[0] != "b" || got[1] != "a" {
		t.Fatalf("Fields = %v, want [b a]", got)
	}
}

func TestMappingNonStringKeys(t *testing.T) {
	doc := bindDoc(t, treedoc.NewMap(
		treedoc.KV{Key: 8080, Value: "http"},
		treedoc.KV{Key: true, Value: "flag"},
	))
	if got := doc.Get(8080); got != "http" {
		t.Errorf("Get(8080) = %v, want http", got)
	}
	// Key lookup normalizes integer widths.
	if got := doc.Get(int64(8080)); got != "http" {
		t.Errorf("Get(int64 8080) = %v, want http", got)
	}
	if got := doc.Get(true); got != "flag" {
		t.Errorf("Get(true) = %v, want flag", got)
	}
}

func TestGetPath(t *testing.T) {
	doc := bindDoc(t, treedoc.NewMap(
		treedoc.KV{Key: "servers", Value: []any{
			treedoc.NewMap(treedoc.KV{Key: "host", Value: "a"}),
			treedoc.NewMap(treedoc.KV{Key: "host", Value: "b"}),
		}},
	))
	if got := doc.GetPath("servers", 1, "host"); got != "b" {
		t.Errorf("GetPath(servers,1,host) = %v, want b", got)
	}
	if got := doc.GetPath("servers", 5, "host"); got != nil {
		t.Errorf("GetPath past the end = %v, want nil", got)
	}
	if got := doc.GetPath("servers", 0, "host", "deeper"); got != nil {
		t.Errorf("GetPath through a leaf = %v, want nil", got)
	}
	if got := doc.GetPath(); got != treedoc.Node(doc) {
		t.Errorf("GetPath() = %v, want the node itself", got)
	}
}

func TestNodePaths(t *testing.T) {
	doc := bindDoc(t, treedoc.NewMap(
		treedoc.KV{Key: "a", Value: []any{
			treedoc.NewMap(treedoc.KV{Key: "b", Value: 1}),
		}},
	))
	if doc.Path() != "" {
		t.Errorf("root path = %q, want empty", doc.Path())
	}
	inner := doc.GetPath("a", 0).(*treedoc.Mapping)
	if inner.Path() != "a.0" {
		t.Errorf("inner path = %q, want a.0", inner.Path())
	}
	if inner.Root() != treedoc.Node(doc) {
		t.Errorf("inner root mismatch")
	}
}

func TestRawDetaches(t *testing.T) {
	doc := bindDoc(t, treedoc.NewMap(
		treedoc.KV{Key: "xs", Value: []any{1, 2}},
		treedoc.KV{Key: "m", Value: treedoc.NewMap(treedoc.KV{Key: "k", Value: "v"})},
	))
	raw := doc.Raw().(*treedoc.Map)
	xs, ok := raw.Get("xs").([]any)
	if !ok || len(xs) != 2 || xs[0] != int64(1) {
		t.Fatalf("raw xs = %v (%T)", raw.Get("xs"), raw.Get("xs"))
	}
	m, ok := raw.Get("m").(*treedoc.Map)
	if !ok || m.Get("k") != "v" {
		t.Fatalf("raw m = %v (%T)", raw.Get("m"), raw.Get("m"))
	}
}

func TestMapDuplicateKeyKeepsPosition(t *testing.T) {
	m := treedoc.NewMap(
		treedoc.KV{Key: "a", Value: 1},
		treedoc.KV{Key: "b", Value: 2},
		treedoc.KV{Key: "a", Value: 3},
	)
	if m.Len() != 2 {
		t.Fatalf("Len = %d, want 2", m.Len())
	}
	if got := m.Get("a"); got != 3 {
		t.Errorf("Get(a) = %v, want 3", got)
	}
	keys := m.Keys()
	if keys[0] != "a" || keys[1] != "b" {
		t.Errorf("Keys = %v, want [a b]", keys)
	}
}

func TestStateProgression(t *testing.T) {
	s := treedoc.New()
	s.MustAddRule("a")
	doc, err := s.Parse(treedoc.NewMap(treedoc.KV{Key: "a", Value: 1}), treedoc.InMemory)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.(*treedoc.Mapping).State(); got != treedoc.StateTested {
		t.Errorf("state = %v, want TESTED", got)
	}
	if treedoc.StateNew.String() != "NEW" || treedoc.StateFormed.String() != "FORMED" {
		t.Errorf("state names wrong: %v %v", treedoc.StateNew, treedoc.StateFormed)
	}
}
