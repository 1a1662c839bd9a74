// Package writeback renders documents and writes them back to disk.
package writeback

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/ohler55/ojg/oj"
	ctyjson "github.com/zclconf/go-cty/cty/json"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for formats that cannot be written.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// Format names an output encoding.
type Format string

const (
	JSON Format = "json"
	YAML Format = "yaml"
	HCL  Format = "hcl"
)

// FormatOf picks the format for path by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".hcl":
		return HCL, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
}

// Encode renders doc. JSON is indented by two spaces with sorted keys and
// ends in a newline, like the YAML and HCL outputs.
func Encode(doc any, f Format) ([]byte, error) {
	switch f {
	case JSON:
		return []byte(oj.JSON(doc, &oj.Options{Sort: true, Indent: 2}) + "\n"), nil
	case YAML:
		return yaml.Marshal(doc)
	case HCL:
		return encodeHCL(doc)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
}

// encodeHCL writes each top-level entry as an attribute, in key order.
// Values go through JSON so that go-cty can infer their types.
func encodeHCL(doc any) ([]byte, error) {
	m, ok := doc.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: hcl needs a mapping at the top level, got %T", ErrUnsupportedFormat, doc)
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	for _, k := range keys {
		raw := []byte(oj.JSON(m[k]))
		ty, err := ctyjson.ImpliedType(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		val, err := ctyjson.Unmarshal(raw, ty)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", k, err)
		}
		body.SetAttributeValue(k, val)
	}
	return f.Bytes(), nil
}
