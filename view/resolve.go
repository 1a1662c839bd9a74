package view

import (
	"github.com/agentic-research/refview/api"
	"github.com/agentic-research/refview/internal/docpath"
)

// Resolve follows a chain of references from v to the first value that is
// not a reference node. If the chain loops, the last reference visited
// before the loop closes is returned. It reports false when a link in the
// chain does not resolve. Non-view values are returned as is.
func Resolve(v any) (any, bool) {
	seen := make(map[*View]bool)
	cur := v
	for {
		vw, ok := cur.(*View)
		if !ok || !vw.IsRef() {
			return cur, true
		}
		seen[vw] = true
		next, ok := vw.Get(api.RefValueKey)
		if !ok {
			return nil, false
		}
		if nv, isView := next.(*View); isView && seen[nv] {
			return vw, true
		}
		cur = next
	}
}

// ResolveDeep returns a plain copy of v with every reference node replaced
// by its resolved target. Sibling fields of a reference node are dropped.
// References that do not resolve, or that would re-enter a node already
// being copied, are kept as copies of the raw reference node.
func ResolveDeep(v any) any {
	vw, ok := v.(*View)
	if !ok {
		return v
	}
	return vw.s.materialize(vw, make(map[docpath.Identity]bool))
}

func (s *session) materialize(v *View, stack map[docpath.Identity]bool) any {
	if !docpath.IsContainer(v.node) {
		return v.node
	}
	id, tracked := docpath.IdentityOf(v.node)
	if tracked {
		if stack[id] {
			return copyRaw(v.node, make(map[docpath.Identity]bool))
		}
		stack[id] = true
		defer delete(stack, id)
	}

	if v.IsRef() {
		target, ok := v.Get(api.RefValueKey)
		if !ok {
			return copyRaw(v.node, make(map[docpath.Identity]bool))
		}
		tv, isView := target.(*View)
		if !isView {
			return target
		}
		if tid, ok := docpath.IdentityOf(tv.node); ok && stack[tid] {
			return copyRaw(v.node, make(map[docpath.Identity]bool))
		}
		return s.materialize(tv, stack)
	}

	if v.IsArray() {
		out := make([]any, 0, v.Len())
		for _, k := range v.Keys() {
			child, _ := v.Get(k)
			out = append(out, s.materializeValue(child, stack))
		}
		return out
	}
	out := make(map[string]any, v.Len())
	for _, k := range v.Keys() {
		if child, ok := v.Get(k); ok {
			out[k] = s.materializeValue(child, stack)
		}
	}
	return out
}

func (s *session) materializeValue(child any, stack map[docpath.Identity]bool) any {
	if cv, ok := child.(*View); ok {
		return s.materialize(cv, stack)
	}
	return child
}

// copyRaw deep-copies a document node without resolving references.
// Containers that contain themselves are copied once and then cut to nil.
func copyRaw(node any, stack map[docpath.Identity]bool) any {
	id, tracked := docpath.IdentityOf(node)
	if tracked {
		if stack[id] {
			return nil
		}
		stack[id] = true
		defer delete(stack, id)
	}
	switch n := node.(type) {
	case map[string]any:
		out := make(map[string]any, len(n))
		for k, c := range n {
			out[k] = copyRaw(c, stack)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, c := range n {
			out[i] = copyRaw(c, stack)
		}
		return out
	}
	return node
}
