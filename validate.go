package treedoc

// checkTypes verifies every bound value against its matched rule's type
// constraint, depth first. The root call also checks the document root
// against the root rule.
func checkTypes(n Node) error {
	nb := n.base()
	if nb.state != StateRuled {
		return parseErrf(CodeInternal, nb.filename, pathstr(nb.path),
			"cannot check types in state %s", nb.state)
	}
	rootOpaque := false
	if nb.isRoot() {
		if err := nb.rootRule.checkType(nb.filename, "", n); err != nil {
			return err
		}
		rootOpaque = nb.rootRule.nofollow
	}
	if !rootOpaque {
		for _, f := range n.Fields() {
			sub := nb.ruleFor(f)
			if sub == nil {
				continue
			}
			v := n.Get(f)
			if err := sub.checkType(nb.filename, pathJoin(nb.path, f), v); err != nil {
				return err
			}
			if child, ok := v.(Node); ok && !sub.nofollow {
				if err := checkTypes(child); err != nil {
					return err
				}
			}
		}
	}
	nb.state = StateTyped
	return nil
}

// checkTests runs every bound rule's test, depth first, root first.
func checkTests(n Node) error {
	nb := n.base()
	if nb.state != StateTyped {
		return parseErrf(CodeInternal, nb.filename, pathstr(nb.path),
			"cannot check tests in state %s", nb.state)
	}
	rootOpaque := false
	if nb.isRoot() {
		if err := nb.rootRule.checkTest(n, nb.filename, "", n); err != nil {
			return err
		}
		rootOpaque = nb.rootRule.nofollow
	}
	if !rootOpaque {
		for _, f := range n.Fields() {
			sub := nb.ruleFor(f)
			if sub == nil {
				continue
			}
			v := n.Get(f)
			if err := sub.checkTest(n.Root(), nb.filename, pathJoin(nb.path, f), v); err != nil {
				return err
			}
			if child, ok := v.(Node); ok && !sub.nofollow {
				if err := checkTests(child); err != nil {
					return err
				}
			}
		}
	}
	nb.state = StateTested
	return nil
}

// skipTo advances every bound node's state without running the pass, so a
// skipped pass keeps the pipeline order intact for the passes after it.
func skipTo(n Node, to State) {
	nb := n.base()
	nb.state = to
	for _, f := range n.Fields() {
		sub := nb.ruleFor(f)
		if sub == nil || sub.nofollow {
			continue
		}
		if child, ok := n.Get(f).(Node); ok {
			skipTo(child, to)
		}
	}
}

// runTransforms applies the transform pass to a fully tested document. A
// root-level transform replaces the whole document and short-circuits the
// per-field sweep.
func runTransforms(doc Node) (any, error) {
	nb := doc.base()
	if nb.rootRule.transform != nil {
		if nb.state != StateTested {
			return nil, parseErrf(CodeInternal, nb.filename, RootPath,
				"cannot transform in state %s", nb.state)
		}
		return nb.rootRule.applyTransform(doc, nb.filename, "", doc)
	}
	if _, err := doTransforms(doc); err != nil {
		return nil, err
	}
	return doc, nil
}

// doTransforms rewrites bound fields in place. Change detection is by value
// equality, not identity: a transform returning a value equal to its input
// does not mark the container FORMED, and the engine recurses into the
// original instead.
func doTransforms(n Node) (bool, error) {
	nb := n.base()
	if nb.state != StateTested {
		return false, parseErrf(CodeInternal, nb.filename, pathstr(nb.path),
			"cannot transform in state %s", nb.state)
	}
	formed := false
	rootOpaque := nb.isRoot() && nb.rootRule.nofollow
	if !rootOpaque {
		for _, f := range n.Fields() {
			sub := nb.ruleFor(f)
			if sub == nil {
				continue
			}
			v := n.Get(f)
			tv, err := sub.applyTransform(n.Root(), nb.filename, pathJoin(nb.path, f), v)
			if err != nil {
				return false, err
			}
			if !Equal(tv, v) {
				n.set(f, tv)
				formed = true
			} else if child, ok := v.(Node); ok && !sub.nofollow {
				childFormed, err := doTransforms(child)
				if err != nil {
					return false, err
				}
				formed = formed || childFormed
			}
		}
	}
	if formed {
		nb.state = StateFormed
	}
	return formed, nil
}

// checkType verifies one value against the rule's type constraint. A null
// bound by an optional rule bypasses the check.
func (r *Rule) checkType(filename, path string, value any) error {
	if len(r.types) == 0 {
		return nil
	}
	vt := typeOf(value)
	for _, t := range r.types {
		if vt.satisfies(t) {
			return nil
		}
	}
	if value == nil && r.optional {
		return nil
	}
	return parseErrf(CodeInvalidType, filename, pathstr(path),
		"has type %s not type %s", vt, r.types)
}

// checkTest runs the rule's test on one value. A panicking test is caught
// and reported rather than propagated.
func (r *Rule) checkTest(doc Node, filename, path string, value any) error {
	if r.test == nil {
		return nil
	}
	if value == nil && r.optional {
		return nil
	}
	msg, panicked := runTest(r.test, doc, path, value)
	if panicked != nil {
		return parseErrf(CodeTestPanic, filename, pathstr(path),
			"test raised exception: %v", panicked)
	}
	if msg != "" {
		return parseErrf(CodeFailedTest, filename, pathstr(path), "failed test: %s", msg)
	}
	return nil
}

func runTest(fn TestFunc, doc Node, path string, value any) (msg string, panicked any) {
	defer func() {
		if rec := recover(); rec != nil {
			panicked = rec
		}
	}()
	return fn(doc, path, value), nil
}

func (r *Rule) applyTransform(doc Node, filename, path string, value any) (any, error) {
	if r.transform == nil {
		return value, nil
	}
	v, err := r.transform(doc, path, value)
	if err != nil {
		return nil, parseErrf(CodeTransform, filename, pathstr(path),
			"transform raised exception: %s", err)
	}
	return v, nil
}
