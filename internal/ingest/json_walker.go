package ingest

import (
	"fmt"
	"strconv"

	"github.com/ohler55/ojg/jp"

	"github.com/agentic-research/refview/internal/docpath"
	"github.com/agentic-research/refview/internal/pointer"
)

// JsonWalker implements Walker with ojg JSONPath expressions.
type JsonWalker struct{}

var _ Walker = (*JsonWalker)(nil)

func NewJsonWalker() *JsonWalker {
	return &JsonWalker{}
}

// Query implements Walker. Matches are located by their normalized path, so
// every Match knows where it sits in root. Reference nodes are not followed
// unless root has been resolved beforehand.
func (w *JsonWalker) Query(root any, selector string) ([]Match, error) {
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("invalid jsonpath '%s': %w", selector, err)
	}

	var matches []Match
	for _, loc := range x.Locate(root, 0) {
		segs, ok := segments(loc)
		if !ok {
			continue
		}
		v, ok := docpath.Lookup(root, segs)
		if !ok {
			continue
		}
		matches = append(matches, &jsonMatch{segs: segs, value: v})
	}
	return matches, nil
}

// segments turns a normalized path ($.a[0].b) into pointer segments.
func segments(loc jp.Expr) ([]string, bool) {
	segs := make([]string, 0, len(loc))
	for _, frag := range loc {
		switch f := frag.(type) {
		case jp.Root, jp.At:
		case jp.Child:
			segs = append(segs, string(f))
		case jp.Nth:
			if f < 0 {
				return nil, false
			}
			segs = append(segs, strconv.Itoa(int(f)))
		default:
			return nil, false
		}
	}
	return segs, true
}

type jsonMatch struct {
	segs  []string
	value any
}

// Pointer implements Match.
func (m *jsonMatch) Pointer() string {
	return pointer.Format(m.segs)
}

// Context implements Match.
func (m *jsonMatch) Context() any {
	return m.value
}
