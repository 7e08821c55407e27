package treedoc

import (
	"fmt"

	"github.com/agnivade/levenshtein"
)

// InMemory is the conventional source identifier for documents that did not
// come from a file.
const InMemory = "*in-memory*"

// Parse binds the schema against a raw value, resolves presence and
// defaults, and runs the validation passes in fixed order: type check, test
// check, transform. filename identifies the source in diagnostics (use
// InMemory when there is none) and must not be empty.
//
// The result is the bound document root (*Mapping or *Sequence) unless a
// root-level transform replaced the whole document, in which case the
// transform's output is returned as-is.
func (s *Schema) Parse(raw any, filename string, opts ...ParseOpt) (any, error) {
	var opt ParseOpt
	if len(opts) > 0 {
		opt = opts[len(opts)-1]
	}
	if filename == "" {
		return nil, parseErrf(CodeBadInput, "", "", "filename is missing")
	}

	b := &binder{filename: filename, notify: opt.Notifier}
	if b.notify == nil {
		b.notify = stderrNotifier{}
	}

	doc, err := b.newDocument(&s.root, raw)
	if err != nil {
		return nil, err
	}
	if err := b.attach(&s.root, doc, ""); err != nil {
		return nil, err
	}

	if opt.SkipTypeCheck {
		skipTo(doc, StateTyped)
	} else if err := checkTypes(doc); err != nil {
		return nil, err
	}
	if opt.SkipTestCheck {
		skipTo(doc, StateTested)
	} else if err := checkTests(doc); err != nil {
		return nil, err
	}
	if !opt.SkipTransform {
		return runTransforms(doc)
	}
	return doc, nil
}

// binder is the single-use state of one Parse call.
type binder struct {
	filename string
	notify   Notifier
}

// newDocument wraps the top-level raw value. The root cannot be absent and
// must be container-shaped.
func (b *binder) newDocument(rootRule *Rule, raw any) (Node, error) {
	if raw == nil {
		return nil, parseErrf(CodeBadInput, b.filename, "", "config cannot be empty or null")
	}
	var doc Node
	if pairs, ok := mapPairs(raw); ok {
		doc = b.newMapping(pairs, nil, "")
	} else if items, ok := seqItems(raw); ok {
		doc = b.newSequence(items, nil, "")
	} else {
		return nil, parseErrf(CodeBadInput, b.filename, "",
			"config is a(n) %s but a record or list is expected", typeOf(raw))
	}
	doc.base().rootRule = rootRule
	return doc, nil
}

// convert turns one raw value into its document form: containers become
// nodes rooted in the parent's tree, leaves are normalized scalars.
func (b *binder) convert(parent Node, field, value any) any {
	if name, ok := field.(string); ok && len(name) > 0 && name[0] == '_' {
		b.notify.Notice(fmt.Sprintf(
			"warning: field names that start with an underscore (%q) are discouraged", name))
	}
	path := pathJoin(parent.Path(), field)
	if pairs, ok := mapPairs(value); ok {
		return b.newMapping(pairs, parent.Root(), path)
	}
	if items, ok := seqItems(value); ok {
		return b.newSequence(items, parent.Root(), path)
	}
	return normalizeScalar(value)
}

func (b *binder) newMapping(pairs []KV, root Node, path string) *Mapping {
	m := &Mapping{
		nodeBase: newNodeBase(root, path, b.filename),
		idx:      make(map[any]int, len(pairs)),
	}
	m.self = m
	if root == nil {
		m.root = m
	}
	for _, p := range pairs {
		key := normalizeScalar(p.Key)
		m.set(key, b.convert(m, key, p.Value))
	}
	return m
}

func (b *binder) newSequence(items []any, root Node, path string) *Sequence {
	s := &Sequence{nodeBase: newNodeBase(root, path, b.filename)}
	s.self = s
	if root == nil {
		s.root = s
	}
	for i, v := range items {
		s.vals = append(s.vals, b.convert(s, i, v))
	}
	return s
}

// attach associates each child rule of rule with the matching field(s) of
// value, recursively. It resolves presence (missing vs explicit null vs
// bound), materializes defaults, stubs optionals, and finally enforces
// exhaustiveness: every field must have received a rule.
func (b *binder) attach(rule *Rule, value any, path string) error {
	n, ok := value.(Node)
	if !ok {
		// Leaf values accept rules without children; any declared child
		// cannot match below a scalar, optional or not.
		if len(rule.fields) == 0 {
			return nil
		}
		return parseErrf(CodeInvalidType, b.filename, pathstr(path),
			"is a(n) %s but a record or list is expected", typeOf(value))
	}
	nb := n.base()

	for _, field := range rule.fields {
		sub := rule.rules[field]
		if field == Wildcard {
			if n.Len() == 0 && !sub.optional {
				return parseErrf(CodeEmptyMatch, b.filename, pathstr(n.Path()),
					"must contain at least one field")
			}
			for _, f := range n.Fields() {
				if err := b.attachField(sub, n, f); err != nil {
					return err
				}
			}
			continue
		}

		f, _ := n.canonField(field)
		if f == nil {
			f = field
		}
		switch {
		case n.Has(f):
			if err := b.attachField(sub, n, f); err != nil {
				return err
			}
		case sub.def != nil:
			if err := b.exerciseDefault(sub, n, f); err != nil {
				return err
			}
		case sub.optional:
			b.exerciseOptional(sub, n, f)
		default:
			return parseErrf(CodeMissing, b.filename, pathJoin(n.Path(), f), "is missing")
		}
	}

	if !rule.nofollow {
		for _, f := range n.Fields() {
			subpath := pathJoin(n.Path(), f)
			if nb.ruleFor(f) == nil {
				return parseErrf(CodeUnknownKey, b.filename, subpath,
					"unexpected by parser%s", suggestField(f, rule.fields))
			}
			if child, ok := n.Get(f).(Node); ok && child.State() != StateRuled {
				return parseErrf(CodeInternal, b.filename, subpath, "had no rules attached")
			}
		}
	}

	nb.state = StateRuled
	return nil
}

// attachField binds sub to a field that is present in n. An explicit null
// still exercises the rule's default or optional handling.
func (b *binder) attachField(sub *Rule, n Node, field any) error {
	v := n.Get(field)
	if v == nil && sub.def != nil {
		return b.exerciseDefault(sub, n, field)
	}
	if v == nil && sub.optional {
		b.exerciseOptional(sub, n, field)
		return nil
	}
	n.base().attachRule(field, sub)
	if err := b.attach(sub, v, pathJoin(n.Path(), field)); err != nil {
		return err
	}
	b.demoteNoFollow(sub, n, field)
	return nil
}

// exerciseDefault materializes the rule's default as a fresh subtree in
// place of a missing or null field, then binds into it like regular input.
func (b *binder) exerciseDefault(sub *Rule, n Node, field any) error {
	v := b.convert(n, field, sub.def)
	n.set(field, v)
	n.base().attachRule(field, sub)
	if err := b.attach(sub, v, pathJoin(n.Path(), field)); err != nil {
		return err
	}
	b.demoteNoFollow(sub, n, field)
	return nil
}

// exerciseOptional stubs a missing or null field with null and stops; the
// subtree beneath an exercised optional is never descended.
func (b *binder) exerciseOptional(sub *Rule, n Node, field any) {
	n.set(field, nil)
	n.base().attachRule(field, sub)
}

// demoteNoFollow detaches the subtree under a nofollow rule back to raw
// values, cutting it off from the validation and transform passes.
func (b *binder) demoteNoFollow(sub *Rule, n Node, field any) {
	if !sub.nofollow {
		return
	}
	if child, ok := n.Get(field).(Node); ok {
		n.set(field, child.Raw())
	}
}

// suggestField proposes the closest declared sibling for an unexpected
// field name, when one is plausibly a typo away.
func suggestField(field any, declared []string) string {
	name, ok := field.(string)
	if !ok || name == "" {
		return ""
	}
	best := ""
	bestDist := 3 // suggest only within edit distance 2
	for _, cand := range declared {
		if cand == Wildcard {
			continue
		}
		if d := levenshtein.ComputeDistance(name, cand); d < bestDist {
			best, bestDist = cand, d
		}
	}
	if best == "" || bestDist >= len(name) {
		return ""
	}
	return fmt.Sprintf(" (did you mean %q?)", best)
}
