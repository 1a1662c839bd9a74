// Package docpath walks and edits generic document trees (map[string]any,
// []any and scalars) one path segment at a time.
//
// Lookups never cache: every call observes the document as it is now.
package docpath

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	// ErrRoot is returned when a write targets the document itself.
	ErrRoot = errors.New("path addresses the document root")
	// ErrNotContainer is returned when a write passes through a scalar.
	ErrNotContainer = errors.New("value is not a container")
	// ErrIndexOutOfRange is returned for sequence writes past the end.
	ErrIndexOutOfRange = errors.New("sequence index out of range")
	// ErrInvalidIndex is returned when a sequence key is not an index.
	ErrInvalidIndex = errors.New("invalid sequence index")
)

// AppendKey addresses the position just past the end of a sequence.
const AppendKey = "-"

// Location is a value together with the slot that holds it.
// Parent is nil when the value is the root.
type Location struct {
	Value  any
	Parent any
	Key    string
}

// IsContainer reports whether v is a mapping or a sequence.
func IsContainer(v any) bool {
	switch v.(type) {
	case map[string]any, []any:
		return true
	}
	return false
}

// Index parses key as a sequence index for a sequence of length n.
// Only canonical decimal forms are accepted ("0", "12", not "012" or "+1").
func Index(key string, n int) (int, bool) {
	if key == "" || (len(key) > 1 && key[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < '0' || key[i] > '9' {
			return 0, false
		}
	}
	i, err := strconv.Atoi(key)
	if err != nil || i >= n {
		return 0, false
	}
	return i, true
}

// Child returns container[key].
func Child(container any, key string) (any, bool) {
	switch c := container.(type) {
	case map[string]any:
		v, ok := c[key]
		return v, ok
	case []any:
		i, ok := Index(key, len(c))
		if !ok {
			return nil, false
		}
		return c[i], true
	}
	return nil, false
}

// Lookup returns the value at segs, or false if any segment is missing.
func Lookup(root any, segs []string) (any, bool) {
	loc, ok := Locate(root, segs)
	return loc.Value, ok
}

// Locate is Lookup that also reports the parent container and key.
func Locate(root any, segs []string) (Location, bool) {
	loc := Location{Value: root}
	for _, seg := range segs {
		next, ok := Child(loc.Value, seg)
		if !ok {
			return Location{}, false
		}
		loc = Location{Value: next, Parent: loc.Value, Key: seg}
	}
	return loc, true
}

// Put assigns container[key] = value and returns the container, which is a
// new slice when a sequence had to grow. Callers must store the returned
// container back into its own slot in that case.
func Put(container any, key string, value any) (any, error) {
	switch c := container.(type) {
	case map[string]any:
		c[key] = value
		return c, nil
	case []any:
		if key == AppendKey {
			return append(c, value), nil
		}
		if i, ok := Index(key, len(c)+1); ok {
			if i == len(c) {
				return append(c, value), nil
			}
			c[i] = value
			return c, nil
		}
		if _, ok := Index(key, int(^uint(0)>>1)); ok {
			return c, fmt.Errorf("%w: %s (len %d)", ErrIndexOutOfRange, key, len(c))
		}
		return c, fmt.Errorf("%w: %q", ErrInvalidIndex, key)
	}
	return container, fmt.Errorf("%w: %T", ErrNotContainer, container)
}

// Drop removes container[key]. Sequence elements become nil so that the
// indices of later elements do not shift. Missing keys are ignored.
func Drop(container any, key string) {
	switch c := container.(type) {
	case map[string]any:
		delete(c, key)
	case []any:
		if i, ok := Index(key, len(c)); ok {
			c[i] = nil
		}
	}
}

// GrowFunc is told when a sequence on an Assign path was replaced by a
// longer one, so holders of the old slice header can switch to grown.
type GrowFunc func(old, grown []any)

// Assign writes value at segs, creating empty mappings for missing
// intermediate segments. The last segment itself is only ever assigned.
// created reports whether any intermediate container was created. onGrow
// may be nil.
func Assign(root any, segs []string, value any, onGrow GrowFunc) (created bool, err error) {
	if len(segs) == 0 {
		return false, ErrRoot
	}
	// slot of cur inside its parent, for rebinding grown sequences
	var parent any
	var parentKey string
	cur := root
	for _, seg := range segs[:len(segs)-1] {
		next, ok := Child(cur, seg)
		if !ok {
			if !IsContainer(cur) {
				return created, fmt.Errorf("%w at %q: %T", ErrNotContainer, seg, cur)
			}
			next = map[string]any{}
			if cur, err = rebind(parent, parentKey, cur, seg, next, onGrow); err != nil {
				return created, err
			}
			created = true
		}
		if !IsContainer(next) {
			return created, fmt.Errorf("%w at %q: %T", ErrNotContainer, seg, next)
		}
		parent, parentKey, cur = cur, seg, next
	}
	_, err = rebind(parent, parentKey, cur, segs[len(segs)-1], value, onGrow)
	return created, err
}

// rebind puts value into cur and, when cur grew, stores the grown sequence
// back into parent[parentKey].
func rebind(parent any, parentKey string, cur any, key string, value any, onGrow GrowFunc) (any, error) {
	grown, err := Put(cur, key, value)
	if err != nil {
		return cur, err
	}
	if s, ok := grown.([]any); ok && !sameSlice(s, cur) {
		if parent == nil {
			return cur, fmt.Errorf("%w: root sequence cannot grow", ErrIndexOutOfRange)
		}
		if _, err := Put(parent, parentKey, s); err != nil {
			return cur, err
		}
		if onGrow != nil {
			onGrow(cur.([]any), s)
		}
	}
	return grown, nil
}

// Remove deletes the value at segs. Missing paths and the root are no-ops.
func Remove(root any, segs []string) {
	if len(segs) == 0 {
		return
	}
	loc, ok := Locate(root, segs[:len(segs)-1])
	if !ok {
		return
	}
	Drop(loc.Value, segs[len(segs)-1])
}

func sameSlice(as []any, b any) bool {
	bs, ok := b.([]any)
	if !ok {
		return false
	}
	if len(as) != len(bs) {
		return false
	}
	return len(as) == 0 || &as[0] == &bs[0]
}
