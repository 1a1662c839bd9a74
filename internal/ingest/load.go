package ingest

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ohler55/ojg/oj"
)

// ErrUnsupportedFormat is returned for files whose extension has no decoder.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Decoder turns the raw bytes of a file into a document tree of
// map[string]any, []any and scalars.
type Decoder func(data []byte, path string) (any, error)

var decoders = map[string]Decoder{}

// Register associates a file extension (with leading dot) with a decoder.
// Called from init functions; later registrations replace earlier ones.
func Register(ext string, dec Decoder) {
	decoders[strings.ToLower(ext)] = dec
}

func init() {
	Register(".json", DecodeJSON)
	Register(".yaml", DecodeYAML)
	Register(".yml", DecodeYAML)
	Register(".hcl", DecodeHCL)
}

// Formats lists the registered extensions plus ".db", sorted.
func Formats() []string {
	out := []string{".db"}
	for ext := range decoders {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Load reads the document at path, choosing the decoder by extension.
// ".db" files are SQLite databases with a results(id, record) table; each
// row becomes one top-level entry keyed by id.
func Load(path string) (any, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".db" {
		doc, err := LoadSQLite(path)
		if err != nil {
			return nil, err
		}
		return doc, nil
	}
	dec, ok := decoders[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := dec(data, path)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// DecodeJSON parses JSON with ojg. Integers decode as int64, other numbers
// as float64.
func DecodeJSON(data []byte, _ string) (any, error) {
	return oj.Parse(data)
}
