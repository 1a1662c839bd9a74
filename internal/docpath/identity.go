package docpath

import (
	"reflect"
	"unsafe"
)

// Identity is the reference identity of a container: the map header for a
// mapping, the backing array and length for a sequence. Two values share an
// Identity only if they are the same container.
type Identity struct {
	ptr unsafe.Pointer
	n   int
}

// IdentityOf returns v's identity. Scalars, nil maps and sequences without
// a backing array have none.
func IdentityOf(v any) (Identity, bool) {
	switch c := v.(type) {
	case map[string]any:
		if c == nil {
			return Identity{}, false
		}
		return Identity{ptr: reflect.ValueOf(c).UnsafePointer(), n: -1}, true
	case []any:
		if cap(c) == 0 {
			return Identity{}, false
		}
		return Identity{ptr: unsafe.Pointer(unsafe.SliceData(c)), n: len(c)}, true
	}
	return Identity{}, false
}
