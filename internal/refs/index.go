package refs

import (
	"sort"
	"strconv"

	"github.com/agentic-research/refview/api"
	"github.com/agentic-research/refview/internal/docpath"
	"github.com/agentic-research/refview/internal/pointer"
)

// Index maps embedded schema identifiers to in-document locations:
// every $id value, and every $anchor as "<base>#<anchor>" (or "#<anchor>"
// when no $id encloses it).
type Index struct {
	paths map[string][]string
}

// NewIndex walks root once. Later edits to the document are not reflected.
func NewIndex(root any) *Index {
	idx := &Index{paths: make(map[string][]string)}
	idx.walk(root, nil, "", make(map[docpath.Identity]bool))
	return idx
}

func (idx *Index) walk(node any, path []string, base string, seen map[docpath.Identity]bool) {
	if id, ok := docpath.IdentityOf(node); ok {
		if seen[id] {
			return
		}
		seen[id] = true
	}
	switch n := node.(type) {
	case map[string]any:
		if id, ok := ID(n); ok {
			base = id
			idx.add(id, path)
		}
		if anchor, ok := n[api.AnchorKey].(string); ok && anchor != "" {
			idx.add(base+"#"+anchor, path)
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			idx.walk(n[k], appendPath(path, k), base, seen)
		}
	case []any:
		for i, v := range n {
			idx.walk(v, appendPath(path, strconv.Itoa(i)), base, seen)
		}
	}
}

// first declaration wins
func (idx *Index) add(key string, path []string) {
	if _, ok := idx.paths[key]; ok {
		return
	}
	idx.paths[key] = path
}

// Len returns the number of indexed identifiers.
func (idx *Index) Len() int {
	return len(idx.paths)
}

// Path returns the location registered for an identifier.
func (idx *Index) Path(key string) ([]string, bool) {
	p, ok := idx.paths[key]
	return p, ok
}

// Locate turns ref, seen inside a schema whose base URI is base, into
// document segments. It reports false for references that point outside
// the document. Only fragments ("#...") and URIs declared by an $id are
// local; anything else, the empty string included, is external.
func (idx *Index) Locate(ref string, base string) ([]string, bool) {
	p := pointer.Parse(ref)
	if !p.Local && p.URI == "" {
		return nil, false
	}
	uri := p.URI
	if uri == "" {
		uri = base
	}
	var prefix []string
	if uri != "" {
		var ok bool
		if prefix, ok = idx.Path(uri); !ok {
			if p.URI != "" {
				return nil, false
			}
			// unknown base: fragment-only refs fall back to the document root
			prefix = nil
			uri = ""
		}
	}
	if p.IsAnchor() {
		return idx.Path(uri + "#" + p.Fragment)
	}
	out := make([]string, 0, len(prefix)+len(p.Segments))
	out = append(out, prefix...)
	return append(out, p.Segments...), true
}

func appendPath(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
