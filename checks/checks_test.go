package checks_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/treedoc/treedoc"
	"github.com/treedoc/treedoc/checks"
)

func run(fn treedoc.TestFunc, value any) string {
	return fn(nil, "x", value)
}

func TestInterval(t *testing.T) {
	within := checks.Interval(0, 10)
	cases := []struct {
		value any
		want  string
	}{
		{0, ""},
		{5, ""},
		{9.5, ""},
		{10, "10 is above the interval [0, 10)"},
		{-1, "-1 is below the interval [0, 10)"},
		{"five", `"five" is not comparable with the interval [0, 10)`},
	}
	for _, tc := range cases {
		if got := run(within, tc.value); got != tc.want {
			t.Errorf("Interval(0,10)(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestIntervalBoundOptions(t *testing.T) {
	open := checks.Interval(0, 10, checks.ExcludeLower)
	if got := run(open, 0); got != "0 is below the interval (0, 10)" {
		t.Errorf("excluded lower bound accepted: %q", got)
	}
	closed := checks.Interval(0, 10, checks.IncludeUpper)
	if got := run(closed, 10); got != "" {
		t.Errorf("included upper bound rejected: %q", got)
	}
	point := checks.Interval(5, 5, checks.IncludeUpper)
	if got := run(point, 5); got != "" {
		t.Errorf("degenerate closed interval rejected its point: %q", got)
	}
}

func TestIntervalStrings(t *testing.T) {
	fn := checks.Interval("a", "n")
	if got := run(fn, "m"); got != "" {
		t.Errorf("lexicographic member rejected: %q", got)
	}
	if got := run(fn, "z"); !strings.Contains(got, "above the interval") {
		t.Errorf("got %q", got)
	}
}

func TestIntervalInvalidPanics(t *testing.T) {
	for _, build := range []func(){
		func() { checks.Interval(10, 0) },
		func() { checks.Interval(5, 5) }, // empty half-open interval
		func() { checks.Interval(0, "z") },
	} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("expected panic for invalid interval")
				}
			}()
			build()
		}()
	}
}

func TestRegex(t *testing.T) {
	fn := checks.Regex(`^[a-z]+$`)
	if got := run(fn, "abc"); got != "" {
		t.Errorf("match reported failure: %q", got)
	}
	if got := run(fn, "Abc"); got != `"Abc" does not match /^[a-z]+$/` {
		t.Errorf("got %q", got)
	}
	if got := run(fn, 5); !strings.Contains(got, "must be a string") {
		t.Errorf("got %q", got)
	}

	inv := checks.NotRegex(`\s`)
	if got := run(inv, "no-spaces"); got != "" {
		t.Errorf("inverted match reported failure: %q", got)
	}
	if got := run(inv, "has space"); got != `"has space" matches /\s/` {
		t.Errorf("got %q", got)
	}
}

func TestIPv4Address(t *testing.T) {
	cases := []struct {
		value any
		want  string
	}{
		{"127.0.0.1", ""},
		{"255.255.255.255", ""},
		{"1.2.3", `"1.2.3" must be in IPv4 dotted-quad notation`},
		{"a.b.c.d", `"a.b.c.d" must be in IPv4 dotted-quad notation`},
		{"1.2.3.256", `4th octet of "1.2.3.256" exceeds 255`},
		{"300.2.3.4", `1st octet of "300.2.3.4" exceeds 255`},
		// Larger than any int: must still be out of range, not zero.
		{"1.2.3.99999999999999999999", `4th octet of "1.2.3.99999999999999999999" exceeds 255`},
	}
	for _, tc := range cases {
		if got := checks.MatchIPv4Address(tc.value); got != tc.want {
			t.Errorf("MatchIPv4Address(%v) = %q, want %q", tc.value, got, tc.want)
		}
	}
}

func TestDomainName(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"example.com", true},
		{"a-b.example.co.uk", true},
		{"localhost", true},
		{"", false},
		{"exa mple.com", false},
		{"-leading.example.com", false},
		{"trailing-.example.com", false},
		{"double..dot", false},
		{"example.123", false}, // all-digit TLD
		{strings.Repeat("x", 63) + ".com", false},
	}
	for _, tc := range cases {
		got := checks.MatchDomainName(tc.value)
		if (got == "") != tc.ok {
			t.Errorf("MatchDomainName(%v) = %q, want ok=%v", tc.value, got, tc.ok)
		}
	}
}

func TestEmailAddress(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"user@example.com", true},
		{"first.last+tag@example.com", true},
		{`"quoted user"@example.com`, true},
		{"", false},
		{"no-at-sign", false},
		{"@example.com", false},
		{"user@", false},
		{".leading@example.com", false},
		{"double..dot@example.com", false},
		{"user name@example.com", false},
	}
	for _, tc := range cases {
		got := checks.MatchEmailAddress(tc.value)
		if (got == "") != tc.ok {
			t.Errorf("MatchEmailAddress(%v) = %q, want ok=%v", tc.value, got, tc.ok)
		}
	}
}

func TestURL(t *testing.T) {
	cases := []struct {
		value any
		ok    bool
	}{
		{"http://example.com", true},
		{"https://example.com/path?q=1", true},
		{"www.example.com", true},
		{"", false},
		{"not a url", false},
	}
	for _, tc := range cases {
		got := checks.MatchURL(tc.value)
		if (got == "") != tc.ok {
			t.Errorf("MatchURL(%v) = %q, want ok=%v", tc.value, got, tc.ok)
		}
	}
}

func TestFilePath(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "present")
	if err := os.WriteFile(file, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	missing := filepath.Join(dir, "missing")

	fn := checks.FilePath("exists", "isfile")
	if got := run(fn, file); got != "" {
		t.Errorf("existing file failed: %q", got)
	}
	got := run(fn, missing)
	want := `"` + missing + `" does not exist and "` + missing + `" is not a file`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	if got := run(checks.FilePath("isdir"), dir); got != "" {
		t.Errorf("directory check failed: %q", got)
	}
	if got := run(checks.FilePath("!exists"), missing); got != "" {
		t.Errorf("!exists on missing path failed: %q", got)
	}
	if got := run(checks.FilePath("!isdir"), file); got != "" {
		t.Errorf("!isdir on a file failed: %q", got)
	}
	if got := run(checks.FilePath("exists"), 5); !strings.Contains(got, "must be a string path") {
		t.Errorf("got %q", got)
	}
}

func TestFilePathUnknownPropertyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for unknown property")
		}
	}()
	checks.FilePath("ismount")
}

func TestChecksAsSchemaTests(t *testing.T) {
	s := treedoc.New()
	s.MustAddRule("addr", treedoc.Test(checks.IPv4Address))
	s.MustAddRule("port", treedoc.Test(checks.Interval(1, 65535, checks.IncludeUpper)))

	raw := treedoc.NewMap(
		treedoc.KV{Key: "addr", Value: "10.0.0.1"},
		treedoc.KV{Key: "port", Value: 8080},
	)
	if _, err := s.Parse(raw, treedoc.InMemory); err != nil {
		t.Fatalf("Parse: %v", err)
	}

	bad := treedoc.NewMap(
		treedoc.KV{Key: "addr", Value: "10.0.0.999"},
		treedoc.KV{Key: "port", Value: 8080},
	)
	_, err := s.Parse(bad, treedoc.InMemory)
	if err == nil || !strings.Contains(err.Error(), "exceeds 255") {
		t.Fatalf("err = %v", err)
	}
}
