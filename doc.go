// Package treedoc validates and normalizes hierarchical documents (mappings
// and sequences of scalars, recursively nested) against a declarative rule
// tree, producing a typed, navigable result or an error naming the violated
// rule.
//
// The engine provides:
//
//   - A Schema builder (AddRule) describing expected document shape: literal
//     and wildcard rule paths, type constraints, defaults, optional/nofollow
//     flags, value tests and transforms
//   - A binder that matches the rule tree against a parsed raw value, resolves
//     presence/absence, materializes defaults, and rejects unexpected fields
//   - Three post-bind passes over the bound tree: type check, test check,
//     transform
//   - A stable error model via *ParseError and *SchemaError (code, source
//     identifier, dotted path)
//
// Design policy:
//   - Keep only public APIs in the root package; put boundary parsers under
//     source/, reusable predicates under checks/, and the CLI under
//     cmd/treedoc.
//   - The engine never reads documents itself; raw values come from a format
//     driver (YAML helpers here, JSON under source/json) or from the caller.
//   - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	s := treedoc.New()
//	s.MustAddRule("name", treedoc.Types(treedoc.TypeString))
//	s.MustAddRule("server.port", treedoc.Types(treedoc.TypeInt),
//		treedoc.Test(checks.Interval(1, 65536)))
//
//	doc, err := s.ParseFile("app.yaml")
//	port := doc.(*treedoc.Mapping).GetPath("server", "port")
package treedoc
