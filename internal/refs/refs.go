// Package refs recognises reference nodes and maps reference strings to
// locations inside a document.
package refs

import "github.com/agentic-research/refview/api"

// Kind tags the result of Detect.
type Kind int

const (
	Plain Kind = iota
	Reference
)

func (k Kind) String() string {
	if k == Reference {
		return "reference"
	}
	return "plain"
}

// Node is a node together with its detection result.
type Node struct {
	Kind    Kind
	Pointer string // set when Kind == Reference
	Value   any
}

// Detect classifies node. Any mapping whose $ref field holds a string is a
// reference, whatever other fields it carries.
func Detect(node any) Node {
	if m, ok := node.(map[string]any); ok {
		if ref, ok := m[api.RefKey].(string); ok {
			return Node{Kind: Reference, Pointer: ref, Value: node}
		}
	}
	return Node{Kind: Plain, Value: node}
}

// ID returns the non-empty string $id of a mapping.
func ID(node any) (string, bool) {
	m, ok := node.(map[string]any)
	if !ok {
		return "", false
	}
	id, ok := m[api.IDKey].(string)
	return id, ok && id != ""
}
