// Package schemafile loads a Schema from a YAML description, so that rule
// trees can live next to the documents they validate instead of in code.
//
// A schema file is itself validated with the engine before being compiled:
//
//	rules:
//	  server.host:
//	    type: str
//	    test: {regex: "^[a-z0-9.-]+$"}
//	  server.port:
//	    type: int
//	    default: 8080
//	  logging:
//	    optional: true
//
// Rules compile in document order, which matters for nested paths: a parent
// that needs its own constraints must precede its descendants.
package schemafile

import (
	"fmt"
	"os"

	"github.com/treedoc/treedoc"
	"github.com/treedoc/treedoc/checks"
)

var meta = func() *treedoc.Schema {
	s := treedoc.New(treedoc.Types(treedoc.TypeMapping))
	s.MustAddRule("rules", treedoc.Types(treedoc.TypeMapping))
	s.MustAddRule("rules.*", treedoc.Optional(), treedoc.Types(treedoc.TypeMapping))
	s.MustAddRule("rules.*.type", treedoc.Optional(), treedoc.NoFollow(),
		treedoc.Types(treedoc.TypeString, treedoc.TypeSequence))
	s.MustAddRule("rules.*.default", treedoc.Optional(), treedoc.NoFollow())
	s.MustAddRule("rules.*.optional", treedoc.Optional(), treedoc.Types(treedoc.TypeBool))
	s.MustAddRule("rules.*.nofollow", treedoc.Optional(), treedoc.Types(treedoc.TypeBool))
	s.MustAddRule("rules.*.desc", treedoc.Optional(), treedoc.Types(treedoc.TypeString))
	s.MustAddRule("rules.*.example", treedoc.Optional(), treedoc.NoFollow())
	s.MustAddRule("rules.*.test", treedoc.Optional(), treedoc.NoFollow())
	return s
}()

// LoadFile reads and compiles a schema file.
func LoadFile(filename string) (*treedoc.Schema, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return Load(data, filename)
}

// Load compiles a schema from YAML data. filename identifies the source in
// diagnostics.
func Load(data []byte, filename string) (*treedoc.Schema, error) {
	doc, err := meta.ParseBytes(data, filename)
	if err != nil {
		return nil, err
	}
	root := doc.(*treedoc.Mapping)
	rules := root.Get("rules").(*treedoc.Mapping)

	s := treedoc.New()
	for _, f := range rules.Fields() {
		path, ok := f.(string)
		if !ok {
			return nil, fmt.Errorf("%s: rule path %v must be a string", filename, f)
		}
		opts, err := ruleOptions(filename, path, rules.Get(f))
		if err != nil {
			return nil, err
		}
		if _, err := s.AddRule(path, opts...); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
	}
	return s, nil
}

// ruleOptions compiles one rule body. A null body declares a bare rule.
func ruleOptions(filename, path string, body any) ([]treedoc.RuleOption, error) {
	if body == nil {
		return nil, nil
	}
	spec := body.(*treedoc.Mapping)
	var opts []treedoc.RuleOption

	if v, ok := spec.Lookup("type"); ok && v != nil {
		ts, err := parseTypes(v)
		if err != nil {
			return nil, fmt.Errorf("%s: rule %q: %w", filename, path, err)
		}
		opts = append(opts, treedoc.Types(ts...))
	}
	if v, ok := spec.Lookup("default"); ok && v != nil {
		opts = append(opts, treedoc.Default(v))
	}
	if v, ok := spec.Lookup("optional"); ok && v == true {
		opts = append(opts, treedoc.Optional())
	}
	if v, ok := spec.Lookup("nofollow"); ok && v == true {
		opts = append(opts, treedoc.NoFollow())
	}
	if v, ok := spec.Lookup("desc"); ok && v != nil {
		opts = append(opts, treedoc.Desc(v.(string)))
	}
	if v, ok := spec.Lookup("example"); ok && v != nil {
		opts = append(opts, treedoc.Example(v))
	}
	if v, ok := spec.Lookup("test"); ok && v != nil {
		fn, err := buildTest(v)
		if err != nil {
			return nil, fmt.Errorf("%s: rule %q: %w", filename, path, err)
		}
		opts = append(opts, treedoc.Test(fn))
	}
	return opts, nil
}

func parseTypes(v any) ([]treedoc.Type, error) {
	names, ok := v.([]any)
	if !ok {
		names = []any{v}
	}
	out := make([]treedoc.Type, 0, len(names))
	for _, n := range names {
		name, ok := n.(string)
		if !ok {
			return nil, fmt.Errorf("type name %v must be a string", n)
		}
		t, err := typeByName(name)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func typeByName(name string) (treedoc.Type, error) {
	switch name {
	case "null":
		return treedoc.TypeNull, nil
	case "bool", "boolean":
		return treedoc.TypeBool, nil
	case "int", "integer":
		return treedoc.TypeInt, nil
	case "float", "number":
		return treedoc.TypeFloat, nil
	case "str", "string":
		return treedoc.TypeString, nil
	case "bytes", "binary":
		return treedoc.TypeBytes, nil
	case "date":
		return treedoc.TypeDate, nil
	case "datetime", "timestamp":
		return treedoc.TypeDateTime, nil
	case "map", "mapping", "record":
		return treedoc.TypeMapping, nil
	case "list", "seq", "sequence":
		return treedoc.TypeSequence, nil
	default:
		return 0, fmt.Errorf("unknown type name %q", name)
	}
}

// buildTest compiles a test spec: a string names a builtin test, a mapping
// configures a parameterized one.
func buildTest(v any) (fn treedoc.TestFunc, err error) {
	if name, ok := v.(string); ok {
		switch name {
		case "ipv4", "ipv4_address":
			return checks.IPv4Address, nil
		case "domain", "domain_name":
			return checks.DomainName, nil
		case "email", "email_address":
			return checks.EmailAddress, nil
		case "url":
			return checks.URL, nil
		default:
			return nil, fmt.Errorf("unknown test %q", name)
		}
	}
	spec, ok := v.(*treedoc.Map)
	if !ok {
		return nil, fmt.Errorf("test spec %v must be a name or a mapping", v)
	}
	// The checks constructors panic on bad parameters; report them as
	// compile errors instead.
	defer func() {
		if rec := recover(); rec != nil {
			fn, err = nil, fmt.Errorf("%v", rec)
		}
	}()
	switch {
	case spec.Has("interval"):
		bounds, ok := spec.Get("interval").([]any)
		if !ok || len(bounds) != 2 {
			return nil, fmt.Errorf("interval bounds must be a two-element list")
		}
		var iopts []checks.IntervalOption
		if spec.Get("exclude_lower") == true {
			iopts = append(iopts, checks.ExcludeLower)
		}
		if spec.Get("include_upper") == true {
			iopts = append(iopts, checks.IncludeUpper)
		}
		return checks.Interval(bounds[0], bounds[1], iopts...), nil
	case spec.Has("regex"):
		expr, ok := spec.Get("regex").(string)
		if !ok {
			return nil, fmt.Errorf("regex must be a string")
		}
		if spec.Get("invert") == true {
			return checks.NotRegex(expr), nil
		}
		return checks.Regex(expr), nil
	case spec.Has("filepath"):
		var props []string
		switch pv := spec.Get("filepath").(type) {
		case string:
			props = []string{pv}
		case []any:
			for _, p := range pv {
				name, ok := p.(string)
				if !ok {
					return nil, fmt.Errorf("file path property %v must be a string", p)
				}
				props = append(props, name)
			}
		default:
			return nil, fmt.Errorf("filepath must be a property or list of properties")
		}
		return checks.FilePath(props...), nil
	default:
		return nil, fmt.Errorf("test spec has no recognized kind")
	}
}
