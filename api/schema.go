package api

// Wire-format keys of the JSON Reference convention.
const (
	// RefKey is the reserved pointer field of a reference node.
	RefKey = "$ref"
	// RefValueKey is the synthetic field a view exposes on reference nodes.
	// It is never stored in the document.
	RefValueKey = "$ref-value"
	// IDKey declares the base URI of an embedded schema.
	IDKey = "$id"
	// AnchorKey declares a plain-name fragment inside an embedded schema.
	AnchorKey = "$anchor"
)

// DefaultInternalPrefix marks keys hidden by the redaction filter.
const DefaultInternalPrefix = "_"

// Options configures how a document is viewed.
// It is the on-disk shape of the refview config file.
type Options struct {
	// Redact hides keys starting with InternalPrefix from reads.
	Redact bool `json:"redact,omitempty" yaml:"redact,omitempty"`
	// InternalPrefix overrides DefaultInternalPrefix.
	InternalPrefix string `json:"internal_prefix,omitempty" yaml:"internal_prefix,omitempty"`
}

// Prefix returns the effective internal-key prefix.
func (o Options) Prefix() string {
	if o.InternalPrefix == "" {
		return DefaultInternalPrefix
	}
	return o.InternalPrefix
}
