package ingest

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/ohler55/ojg/oj"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// DecodeHCL reads an attribute-only HCL file as a mapping from attribute
// name to value. Expressions are evaluated without variables or functions,
// so only literals and object/tuple constructors are accepted. Reference
// nodes are written with a quoted key: b = { "$ref" = "#/a" }.
func DecodeHCL(data []byte, path string) (any, error) {
	file, diags := hclsyntax.ParseConfig(data, path, hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, diags
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, diags
	}
	doc := make(map[string]any, len(attrs))
	for name, attr := range attrs {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("attribute %s: %w", name, diags)
		}
		raw, err := ctyjson.SimpleJSONValue{Value: val}.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		v, err := oj.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", name, err)
		}
		doc[name] = v
	}
	return doc, nil
}
