package ingest

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML parses a single YAML document. Mappings with non-string keys
// are converted to map[string]any with the keys formatted by fmt.
func DecodeYAML(data []byte, _ string) (any, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return normalizeYAML(doc), nil
}

func normalizeYAML(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = normalizeYAML(v)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[fmt.Sprint(k)] = normalizeYAML(v)
		}
		return out
	case []any:
		for i, v := range n {
			n[i] = normalizeYAML(v)
		}
		return n
	}
	return node
}
