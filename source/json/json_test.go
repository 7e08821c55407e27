package json_test

import (
	"strings"
	"testing"

	"github.com/treedoc/treedoc"
	"github.com/treedoc/treedoc/source/json"
)

func TestDecodeObjectOrder(t *testing.T) {
	v, err := json.DecodeBytes([]byte(`{"z": 1, "a": 2, "m": 3}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	m := v.(*treedoc.Map)
	keys := m.Keys()
	want := []any{"z", "a", "m"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestDecodeNumbers(t *testing.T) {
	v, err := json.DecodeBytes([]byte(`{"i": 42, "f": 2.5, "e": 1e3, "big": 9007199254740993}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	m := v.(*treedoc.Map)
	if got := m.Get("i"); got != int64(42) {
		t.Errorf("i = %v (%T), want int64", got, got)
	}
	if got := m.Get("f"); got != 2.5 {
		t.Errorf("f = %v, want 2.5", got)
	}
	if got := m.Get("e"); got != 1000.0 {
		t.Errorf("e = %v (%T), want float64 1000", got, got)
	}
	// Integers past float64 precision survive exactly.
	if got := m.Get("big"); got != int64(9007199254740993) {
		t.Errorf("big = %v, want exact int64", got)
	}
}

func TestDecodeNesting(t *testing.T) {
	v, err := json.DecodeBytes([]byte(`{"xs": [1, {"k": null}, true], "s": "x"}`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	m := v.(*treedoc.Map)
	xs := m.Get("xs").([]any)
	if len(xs) != 3 || xs[0] != int64(1) || xs[2] != true {
		t.Fatalf("xs = %v", xs)
	}
	inner := xs[1].(*treedoc.Map)
	if !inner.Has("k") || inner.Get("k") != nil {
		t.Errorf("inner = %v", inner.Pairs())
	}
	if got := m.Get("s"); got != "x" {
		t.Errorf("s = %v", got)
	}
}

func TestDecodeScalarDocument(t *testing.T) {
	v, err := json.DecodeBytes([]byte(`"just a string"`))
	if err != nil {
		t.Fatalf("DecodeBytes: %v", err)
	}
	if v != "just a string" {
		t.Errorf("v = %v", v)
	}
}

func TestDecodeErrors(t *testing.T) {
	if _, err := json.DecodeBytes([]byte(``)); err == nil {
		t.Errorf("empty input should fail")
	}
	if _, err := json.DecodeBytes([]byte(`{"a": 1} trailing`)); err == nil {
		t.Errorf("trailing data should fail")
	}
	if _, err := json.DecodeBytes([]byte(`{"a": `)); err == nil {
		t.Errorf("truncated input should fail")
	}
}

func TestDecodeFeedsSchema(t *testing.T) {
	s := treedoc.New()
	s.MustAddRule("name", treedoc.Types(treedoc.TypeString))
	s.MustAddRule("replicas", treedoc.Types(treedoc.TypeInt), treedoc.Default(1))

	raw, err := json.Decode(strings.NewReader(`{"name": "api"}`))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	doc, err := s.Parse(raw, "conf.json")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := doc.(*treedoc.Mapping).Get("replicas"); got != int64(1) {
		t.Errorf("replicas = %v, want defaulted 1", got)
	}
}
