// Package pointer parses JSON Reference strings into path segments.
package pointer

import "strings"

// Pointer is a parsed reference string.
type Pointer struct {
	Raw string
	// URI is everything before the first '#', empty for in-document pointers.
	URI string
	// Fragment is everything after the first '#'.
	Fragment string
	// Segments are the unescaped components of Fragment when it is a
	// JSON Pointer ("" or "/..."), nil otherwise (e.g. a plain-name anchor).
	Segments []string
	// Local reports whether the reference starts with '#'.
	Local bool
}

// Parse splits ref into its parts. It never fails: malformed input simply
// yields segments that will not resolve.
func Parse(ref string) Pointer {
	p := Pointer{Raw: ref, Local: strings.HasPrefix(ref, "#")}
	uri, frag, hasFrag := strings.Cut(ref, "#")
	p.URI = uri
	if !hasFrag {
		// Bare URI, the whole target document.
		p.Segments = []string{}
		return p
	}
	p.Fragment = frag
	if frag == "" || strings.HasPrefix(frag, "/") {
		p.Segments = Split(frag)
	}
	return p
}

// IsRoot reports whether p addresses the whole document ("#").
func (p Pointer) IsRoot() bool {
	return p.Local && p.Segments != nil && len(p.Segments) == 0
}

// IsAnchor reports whether the fragment is a plain name rather than a pointer.
func (p Pointer) IsAnchor() bool {
	return p.Fragment != "" && p.Segments == nil
}

// Split turns a JSON Pointer ("/a/b", "#/a/b", "a/b") into unescaped segments.
// The empty string and "#" yield an empty, non-nil slice.
func Split(path string) []string {
	path = strings.TrimPrefix(path, "#")
	if path == "" {
		return []string{}
	}
	parts := strings.Split(path, "/")
	if parts[0] == "" {
		parts = parts[1:]
	}
	for i, part := range parts {
		parts[i] = Unescape(part)
	}
	return parts
}

// Unescape applies "~1" -> "/" then "~0" -> "~".
func Unescape(seg string) string {
	if !strings.Contains(seg, "~") {
		return seg
	}
	seg = strings.ReplaceAll(seg, "~1", "/")
	return strings.ReplaceAll(seg, "~0", "~")
}

// Escape is the inverse of Unescape.
func Escape(seg string) string {
	seg = strings.ReplaceAll(seg, "~", "~0")
	return strings.ReplaceAll(seg, "/", "~1")
}

// Format renders segments as an in-document pointer, "#" for the root.
func Format(segments []string) string {
	var b strings.Builder
	b.WriteByte('#')
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(Escape(seg))
	}
	return b.String()
}
