package treedoc

import "strings"

// TestFunc is the contract for value tests attached to a rule. It receives
// the document root, the dotted path of the tested value (empty at the root)
// and the value itself, after optional and default handling. An empty return
// means success; anything else explains the failure and is wrapped into a
// ParseError. A panicking test is reported as "test raised exception".
type TestFunc func(doc Node, path string, value any) string

// TransformFunc rewrites a bound value after validation. It receives the
// document root, the dotted path (empty at the root) and the value, and
// returns the replacement. Returning a value equal to the input counts as no
// change. A returned error is wrapped as "transform raised exception".
type TransformFunc func(doc Node, path string, value any) (any, error)

// Rule is one node of a schema tree: the constraints that must hold for the
// document field(s) its path pattern matches. Rules are built through
// Schema.AddRule and are read-only afterwards.
type Rule struct {
	path      string // dotted path pattern; empty on the root
	types     TypeSet
	def       any
	optional  bool
	nofollow  bool
	test      TestFunc
	transform TransformFunc
	example   any
	desc      string

	fields []string
	rules  map[string]*Rule
}

// RuleOption configures a rule being added.
type RuleOption func(*Rule)

// Types constrains the matched value to the given semantic types.
func Types(ts ...Type) RuleOption {
	return func(r *Rule) { r.types = append(r.types, ts...) }
}

// Default supplies a raw value substituted when the path is absent or null.
// Mutually exclusive with Optional. A nil default means no default.
func Default(v any) RuleOption {
	return func(r *Rule) { r.def = v }
}

// Optional binds an absent or null path to null instead of failing; the
// subtree beneath it is not descended.
func Optional() RuleOption {
	return func(r *Rule) { r.optional = true }
}

// NoFollow accepts arbitrary structure beneath the matched path without
// further rule matching; the subtree is demoted back to raw values and is
// exempt from the validation passes.
func NoFollow() RuleOption {
	return func(r *Rule) { r.nofollow = true }
}

// Test attaches a value test to the rule.
func Test(fn TestFunc) RuleOption {
	return func(r *Rule) { r.test = fn }
}

// Transform attaches a post-validation transform to the rule.
func Transform(fn TransformFunc) RuleOption {
	return func(r *Rule) { r.transform = fn }
}

// Example records a sample value for documentation output.
func Example(v any) RuleOption {
	return func(r *Rule) { r.example = v }
}

// Desc records a human-readable purpose for documentation output.
func Desc(s string) RuleOption {
	return func(r *Rule) { r.desc = s }
}

// Path returns the rule's dotted path pattern; empty for the root.
func (r *Rule) Path() string { return r.path }

// Types returns the rule's type constraint; empty means unconstrained.
func (r *Rule) Types() TypeSet { return r.types }

// Default returns the rule's default raw value, nil when none.
func (r *Rule) Default() any { return r.def }

// Optional reports whether the rule tolerates an absent or null match.
func (r *Rule) Optional() bool { return r.optional }

// NoFollow reports whether the matched subtree is opaque to the engine.
func (r *Rule) NoFollow() bool { return r.nofollow }

// Example returns the recorded sample value, nil when none.
func (r *Rule) Example() any { return r.example }

// Desc returns the recorded description.
func (r *Rule) Desc() string { return r.desc }

// Fields returns the child field names (or the wildcard) in declaration
// order.
func (r *Rule) Fields() []string { return r.fields }

// Child returns the child rule declared for the field, or nil.
func (r *Rule) Child(field string) *Rule { return r.rules[field] }

// Match reports whether the rule's path pattern matches the given dotted
// path: same segment count, each segment equal or a wildcard.
func (r *Rule) Match(path string) bool {
	rw := strings.Split(r.path, delim)
	pw := strings.Split(path, delim)
	if len(rw) != len(pw) {
		return false
	}
	for i, w := range rw {
		if w != Wildcard && w != pw[i] {
			return false
		}
	}
	return true
}

func (r *Rule) validateOptions() *SchemaError {
	if r.def != nil && r.optional {
		return schemaErrf(r.path, "cannot be optional and have a default")
	}
	for _, t := range r.types {
		if !t.known() {
			return schemaErrf(r.path, "has an unknown type in its type constraint")
		}
	}
	return nil
}

// Schema is the rule tree a family of documents is validated against. It is
// the root rule plus the builder surface; once construction errors are
// resolved it is immutable and safe to share across concurrent Parse calls.
type Schema struct {
	root Rule
}

// New returns an empty schema. The options configure the root rule, which
// may carry a type constraint, test, transform and nofollow, but never a
// path, default or optional flag; an invalid root option panics with a
// *SchemaError, MustCompile-style.
func New(opts ...RuleOption) *Schema {
	s := &Schema{}
	s.root.rules = make(map[string]*Rule)
	for _, o := range opts {
		o(&s.root)
	}
	if s.root.def != nil {
		panic(&SchemaError{Detail: "cannot take a default value"})
	}
	if s.root.optional {
		panic(&SchemaError{Detail: "cannot be optional"})
	}
	if err := s.root.validateOptions(); err != nil {
		panic(err)
	}
	return s
}

// Root returns the schema's root rule.
func (s *Schema) Root() *Rule { return &s.root }

// AddRule declares a rule at the given dotted path pattern, creating bare
// intermediate rules for any prefix not yet present. Parents that need their
// own constraints must be added before their descendants.
func (s *Schema) AddRule(path string, opts ...RuleOption) (*Rule, error) {
	segs, err := splitRulePath(path)
	if err != nil {
		return nil, err
	}

	rule := &Rule{path: path, rules: make(map[string]*Rule)}
	for _, o := range opts {
		o(rule)
	}
	if err := rule.validateOptions(); err != nil {
		return nil, err
	}

	parent := &s.root
	for i, seg := range segs {
		if parent.nofollow {
			return nil, schemaErrf(path, "is a descendant of a nofollow rule")
		}
		if parent.transform != nil && rule.transform != nil {
			return nil, schemaErrf(path, "has multiple transforms on the path")
		}
		if i == len(segs)-1 {
			break
		}
		child, ok := parent.rules[seg]
		if !ok {
			child = &Rule{
				path:  strings.Join(segs[:i+1], delim),
				rules: make(map[string]*Rule),
			}
			if err := insertChild(parent, seg, child, path); err != nil {
				return nil, err
			}
		}
		parent = child
	}
	if err := insertChild(parent, segs[len(segs)-1], rule, path); err != nil {
		return nil, err
	}
	return rule, nil
}

// MustAddRule is AddRule panicking on error, for statically known schemas.
func (s *Schema) MustAddRule(path string, opts ...RuleOption) *Rule {
	r, err := s.AddRule(path, opts...)
	if err != nil {
		panic(err)
	}
	return r
}

// insertChild wires a child rule under parent, enforcing the sibling
// invariants: no duplicate paths, and a wildcard owns its entire level, so
// it can neither join existing siblings nor accept new ones.
func insertChild(parent *Rule, field string, child *Rule, fullPath string) *SchemaError {
	if _, dup := parent.rules[field]; dup {
		return schemaErrf(fullPath, "cannot be defined multiple times")
	}
	if field == Wildcard && len(parent.fields) > 0 {
		return schemaErrf(fullPath, "wildcard cannot have sibling rules")
	}
	if field != Wildcard {
		if _, hasWild := parent.rules[Wildcard]; hasWild {
			return schemaErrf(fullPath, "cannot be the sibling of a wildcard rule")
		}
	}
	parent.rules[field] = child
	parent.fields = append(parent.fields, field)
	return nil
}

func splitRulePath(path string) ([]string, *SchemaError) {
	segs := strings.Split(path, delim)
	for _, seg := range segs {
		if seg == "" {
			return nil, schemaErrf(path, "is missing a field name")
		}
		if strings.Contains(seg, Wildcard) && seg != Wildcard {
			return nil, schemaErrf(path, "cannot use a partial wildcard")
		}
	}
	return segs, nil
}
