package view

import (
	"github.com/ohler55/ojg/oj"

	"github.com/agentic-research/refview/internal/docpath"
)

// Snapshot returns a plain copy of v as a caller sees it: reference nodes
// keep their own fields and gain a resolved $ref-value, redacted keys are
// left out. A field whose value is a node already being copied (a
// reference back to an ancestor) is omitted.
func (v *View) Snapshot() any {
	return v.s.snapshot(v, make(map[docpath.Identity]bool))
}

func (s *session) snapshot(v *View, stack map[docpath.Identity]bool) any {
	if !docpath.IsContainer(v.node) {
		return v.node
	}
	if id, ok := docpath.IdentityOf(v.node); ok {
		stack[id] = true
		defer delete(stack, id)
	}
	onStack := func(child any) bool {
		cv, ok := child.(*View)
		if !ok {
			return false
		}
		id, ok := docpath.IdentityOf(cv.node)
		return ok && stack[id]
	}
	copyChild := func(child any) any {
		if cv, ok := child.(*View); ok {
			return s.snapshot(cv, stack)
		}
		return child
	}

	if v.IsArray() {
		keys := v.Keys()
		out := make([]any, len(keys))
		for i, k := range keys {
			child, _ := v.Get(k)
			if !onStack(child) {
				out[i] = copyChild(child)
			}
		}
		return out
	}
	out := make(map[string]any)
	for _, k := range v.Keys() {
		child, ok := v.Get(k)
		if !ok || onStack(child) {
			continue
		}
		out[k] = copyChild(child)
	}
	return out
}

// MarshalJSON renders Snapshot with sorted keys.
func (v *View) MarshalJSON() ([]byte, error) {
	return []byte(oj.JSON(v.Snapshot(), &oj.Options{Sort: true})), nil
}

// String renders v as indented JSON.
func (v *View) String() string {
	return oj.JSON(v.Snapshot(), &oj.Options{Sort: true, Indent: 2})
}
