// Package graph indexes the reference sites of a document: which nodes
// are aliases, what they point at, and which references cannot be followed.
package graph

import (
	"errors"
	"sort"
	"strconv"

	"github.com/RoaringBitmap/roaring"

	"github.com/agentic-research/refview/api"
	"github.com/agentic-research/refview/internal/docpath"
	"github.com/agentic-research/refview/internal/pointer"
	"github.com/agentic-research/refview/internal/refs"
)

var ErrNotFound = errors.New("reference site not found")

// Status classifies a reference site.
type Status int

const (
	// Local references resolve to a value inside the document.
	Local Status = iota
	// Dangling references are in-document but point at nothing.
	Dangling
	// External references point outside the document and are never followed.
	External
)

func (s Status) String() string {
	switch s {
	case Local:
		return "local"
	case Dangling:
		return "dangling"
	default:
		return "external"
	}
}

// Site is one reference node of the document.
type Site struct {
	ID uint32
	// Path is the pointer of the reference node itself.
	Path string
	// Ref is the raw $ref value.
	Ref string
	// Target is the canonical pointer Ref resolves to; empty for external refs.
	Target string
	Status Status
}

// Graph is an immutable snapshot of a document's reference sites.
// Sites get dense uint32 IDs in document order (sorted keys) so that the
// per-target alias sets can be roaring bitmaps.
type Graph struct {
	sites    []Site
	byPath   map[string]uint32
	targets  map[string]*roaring.Bitmap // canonical target -> alias site IDs
	dangling *roaring.Bitmap
	external *roaring.Bitmap
}

// Build walks root once. Later edits to the document are not reflected.
func Build(root any) *Graph {
	g := &Graph{
		byPath:   make(map[string]uint32),
		targets:  make(map[string]*roaring.Bitmap),
		dangling: roaring.New(),
		external: roaring.New(),
	}
	w := walker{g: g, root: root, idx: refs.NewIndex(root), seen: make(map[docpath.Identity]bool)}
	base, _ := refs.ID(root)
	w.walk(root, nil, base)
	return g
}

type walker struct {
	g    *Graph
	root any
	idx  *refs.Index
	seen map[docpath.Identity]bool
}

func (w *walker) walk(node any, path []string, base string) {
	if id, ok := docpath.IdentityOf(node); ok {
		if w.seen[id] {
			return
		}
		w.seen[id] = true
	}
	switch n := node.(type) {
	case map[string]any:
		if id, ok := refs.ID(n); ok {
			base = id
		}
		if r := refs.Detect(n); r.Kind == refs.Reference {
			w.add(path, r.Pointer, base)
		}
		keys := make([]string, 0, len(n))
		for k := range n {
			if k != api.RefKey {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			w.walk(n[k], extend(path, k), base)
		}
	case []any:
		for i, c := range n {
			w.walk(c, extend(path, strconv.Itoa(i)), base)
		}
	}
}

func (w *walker) add(path []string, ref, base string) {
	g := w.g
	site := Site{ID: uint32(len(g.sites)), Path: pointer.Format(path), Ref: ref}
	segs, ok := w.idx.Locate(ref, base)
	switch {
	case !ok:
		site.Status = External
		g.external.Add(site.ID)
	default:
		site.Target = pointer.Format(segs)
		if _, found := docpath.Lookup(w.root, segs); found {
			site.Status = Local
		} else {
			site.Status = Dangling
			g.dangling.Add(site.ID)
		}
		bm, exists := g.targets[site.Target]
		if !exists {
			bm = roaring.New()
			g.targets[site.Target] = bm
		}
		bm.Add(site.ID)
	}
	g.sites = append(g.sites, site)
	g.byPath[site.Path] = site.ID
}

// Len returns the number of reference sites.
func (g *Graph) Len() int { return len(g.sites) }

// Sites returns every reference site in document order.
func (g *Graph) Sites() []Site {
	out := make([]Site, len(g.sites))
	copy(out, g.sites)
	return out
}

// Site returns the reference node at path ("#/a/b").
func (g *Graph) Site(path string) (Site, error) {
	id, ok := g.byPath[path]
	if !ok {
		return Site{}, ErrNotFound
	}
	return g.sites[id], nil
}

// Aliases returns the sites whose reference resolves to target, a
// canonical pointer such as "#/components/schemas/User".
func (g *Graph) Aliases(target string) []Site {
	bm, ok := g.targets[target]
	if !ok {
		return nil
	}
	return g.collect(bm)
}

// AliasCount is len(Aliases(target)) without materializing the sites.
func (g *Graph) AliasCount(target string) int {
	if bm, ok := g.targets[target]; ok {
		return int(bm.GetCardinality())
	}
	return 0
}

// Targets returns every in-document target, sorted.
func (g *Graph) Targets() []string {
	out := make([]string, 0, len(g.targets))
	for t := range g.targets {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Shared returns the targets referenced by at least n sites, sorted.
func (g *Graph) Shared(n int) []string {
	var out []string
	for _, t := range g.Targets() {
		if g.AliasCount(t) >= n {
			out = append(out, t)
		}
	}
	return out
}

// Dangling returns in-document references whose target is missing.
func (g *Graph) Dangling() []Site { return g.collect(g.dangling) }

// External returns references that point outside the document.
func (g *Graph) External() []Site { return g.collect(g.external) }

func (g *Graph) collect(bm *roaring.Bitmap) []Site {
	out := make([]Site, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		out = append(out, g.sites[it.Next()])
	}
	return out
}

func extend(path []string, seg string) []string {
	out := make([]string, len(path)+1)
	copy(out, path)
	out[len(path)] = seg
	return out
}
