// Package view gives reference-transparent access to a JSON-like document.
//
// A View wraps a mapping or sequence of the document. Reading a field
// returns a View over the field's value (scalars are returned as is), and
// every node carrying a "$ref" additionally exposes a synthetic
// "$ref-value" field holding a View of the referenced location. The
// document stays the single source of truth: views never copy it, the
// resolved field is computed on every access, and writes through
// "$ref-value" land at the canonical location.
//
// A View is not safe for concurrent use.
package view

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/agentic-research/refview/api"
	"github.com/agentic-research/refview/internal/docpath"
	"github.com/agentic-research/refview/internal/pointer"
	"github.com/agentic-research/refview/internal/refs"
)

// View is a reference-transparent view of one document node.
type View struct {
	s    *session
	node any
	// slot holding node, nil for the document root
	parent any
	key    string
	// $id of the closest enclosing schema
	base string
}

// New wraps doc. Views obtained from the result share one identity cache,
// so reading the same node twice returns the same *View.
func New(doc any, opts ...Option) *View {
	s := newSession(doc, opts)
	if v, ok := s.wrap(doc, nil, "", "").(*View); ok {
		return v
	}
	base, _ := refs.ID(doc)
	return &View{s: s, node: doc, base: base}
}

// Raw returns the document node underneath v, or v itself when it is not
// a *View. Raw(New(x)) is x.
func Raw(v any) any {
	if vw, ok := v.(*View); ok {
		return vw.node
	}
	return v
}

// Raw returns the underlying document node.
func (v *View) Raw() any { return v.node }

// IsArray reports whether v wraps a sequence.
func (v *View) IsArray() bool {
	_, ok := v.node.([]any)
	return ok
}

// IsRef reports whether v wraps a reference node.
func (v *View) IsRef() bool {
	return refs.Detect(v.node).Kind == refs.Reference
}

// Pointer returns the reference string of a reference node.
func (v *View) Pointer() (string, bool) {
	n := refs.Detect(v.node)
	return n.Pointer, n.Kind == refs.Reference
}

// Len returns the number of visible keys.
func (v *View) Len() int {
	if s, ok := v.node.([]any); ok {
		return len(s)
	}
	return len(v.Keys())
}

// Get reads key. Containers come back as *View, scalars unchanged. The
// second result is false when the key is absent, redacted, or is
// $ref-value of a reference that does not resolve.
func (v *View) Get(key string) (any, bool) {
	if v.s.hidden(key) {
		return nil, false
	}
	if key == api.RefValueKey {
		if ref, ok := v.Pointer(); ok {
			return v.deref(ref)
		}
	}
	child, ok := docpath.Child(v.node, key)
	if !ok {
		return nil, false
	}
	return v.s.wrap(child, v.node, key, v.base), true
}

// deref resolves ref against the document root.
func (v *View) deref(ref string) (any, bool) {
	segs, ok := v.s.locate(ref, v.base)
	if !ok {
		return nil, false
	}
	loc, ok := docpath.Locate(v.s.root, segs)
	if !ok {
		return nil, false
	}
	return v.s.wrap(loc.Value, loc.Parent, loc.Key, v.s.baseAt(segs)), true
}

// Has reports whether key is visible. $ref-value is present on every
// reference node, resolvable or not.
func (v *View) Has(key string) bool {
	if v.s.hidden(key) {
		return false
	}
	if key == api.RefValueKey && v.IsRef() {
		return true
	}
	_, ok := docpath.Child(v.node, key)
	return ok
}

// Keys lists the visible keys: sorted mapping keys followed by $ref-value
// for reference nodes, or the indices of a sequence.
func (v *View) Keys() []string {
	switch n := v.node.(type) {
	case []any:
		keys := make([]string, len(n))
		for i := range n {
			keys[i] = strconv.Itoa(i)
		}
		return keys
	case map[string]any:
		keys := make([]string, 0, len(n)+1)
		for k := range n {
			if !v.s.hidden(k) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		if _, stored := n[api.RefValueKey]; !stored && v.IsRef() && !v.s.hidden(api.RefValueKey) {
			keys = append(keys, api.RefValueKey)
		}
		return keys
	}
	return nil
}

// Set assigns key. *View values are stored as their raw node. Setting
// $ref-value on a reference node writes to the referenced location,
// creating missing intermediate mappings; it fails with ErrRootWrite when
// the reference is "#". Writes through references that point outside the
// document are dropped.
func (v *View) Set(key string, value any) error {
	value = Raw(value)
	if key == api.RefValueKey {
		if ref, ok := v.Pointer(); ok {
			return v.writeThrough(ref, value)
		}
	}
	grown, err := docpath.Put(v.node, key, value)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWriteTarget, err)
	}
	if s, ok := grown.([]any); ok && len(s) != len(v.node.([]any)) {
		return v.regrow(v.node.([]any), s)
	}
	return nil
}

// regrow stores a sequence that got longer back into the
// slot v was reached from.
func (v *View) regrow(old, grown []any) error {
	if v.parent == nil {
		return fmt.Errorf("%w: root sequence cannot grow", ErrInvalidWriteTarget)
	}
	if _, err := docpath.Put(v.parent, v.key, grown); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWriteTarget, err)
	}
	v.s.grew(old, grown)
	v.node = grown
	return nil
}

func (v *View) writeThrough(ref string, value any) error {
	segs, ok := v.s.locate(ref, v.base)
	if !ok {
		v.s.log.Warn("dropping write to unresolvable reference", "ref", ref)
		return nil
	}
	if len(segs) == 0 {
		return fmt.Errorf("%w: %s", ErrRootWrite, ref)
	}
	created, err := docpath.Assign(v.s.root, segs, value, v.s.grew)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidWriteTarget, ref, err)
	}
	if created {
		v.s.log.Warn("write-through created missing path", "ref", ref, "path", pointer.Format(segs))
	}
	return nil
}

// Delete removes key. Deleting $ref-value of a reference node removes the
// referenced value at its canonical location. Missing keys, references to
// the root and unresolvable references are no-ops.
func (v *View) Delete(key string) {
	if key == api.RefValueKey {
		if ref, ok := v.Pointer(); ok {
			if segs, ok := v.s.locate(ref, v.base); ok {
				docpath.Remove(v.s.root, segs)
			}
			return
		}
	}
	docpath.Drop(v.node, key)
}

// At follows a slash-separated path of keys from v, e.g.
// "/paths/~1users/$ref-value/type". The empty path is v itself.
func (v *View) At(path string) (any, bool) {
	var cur any = v
	for _, seg := range pointer.Split(path) {
		vw, ok := cur.(*View)
		if !ok {
			return nil, false
		}
		if cur, ok = vw.Get(seg); !ok {
			return nil, false
		}
	}
	return cur, true
}
