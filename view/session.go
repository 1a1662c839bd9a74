package view

import (
	"log/slog"
	"strings"

	"github.com/agentic-research/refview/api"
	"github.com/agentic-research/refview/internal/docpath"
	"github.com/agentic-research/refview/internal/refs"
)

// Option configures a view session.
type Option func(*session)

// WithRedaction hides keys carrying the internal prefix from Get, Has and Keys.
func WithRedaction(on bool) Option {
	return func(s *session) { s.opts.Redact = on }
}

// WithInternalPrefix sets the prefix that marks internal keys.
func WithInternalPrefix(prefix string) Option {
	return func(s *session) { s.opts.InternalPrefix = prefix }
}

// WithOptions replaces all view options at once, typically from a config file.
func WithOptions(o api.Options) Option {
	return func(s *session) { s.opts = o }
}

// WithLogger sets the logger for write-through warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *session) {
		if l != nil {
			s.log = l
		}
	}
}

// session is the state shared by every view over one document.
type session struct {
	root  any
	opts  api.Options
	log   *slog.Logger
	cache map[docpath.Identity]*View
	index *refs.Index
}

func newSession(root any, opts []Option) *session {
	s := &session{
		root:  root,
		log:   slog.Default(),
		cache: make(map[docpath.Identity]*View),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// hidden reports whether key is redacted.
func (s *session) hidden(key string) bool {
	return s.opts.Redact && strings.HasPrefix(key, s.opts.Prefix())
}

// refIndex is built on first use: documents without $id or $anchor never
// need it beyond plain pointers.
func (s *session) refIndex() *refs.Index {
	if s.index == nil {
		s.index = refs.NewIndex(s.root)
	}
	return s.index
}

// wrap returns the view for value, reusing the cached one when value was
// seen before. Scalars are returned unchanged.
func (s *session) wrap(value, parent any, key, base string) any {
	if !docpath.IsContainer(value) {
		return value
	}
	id, ok := docpath.IdentityOf(value)
	if ok {
		if v, hit := s.cache[id]; hit {
			return v
		}
	}
	if b, has := refs.ID(value); has {
		base = b
	}
	v := &View{s: s, node: value, parent: parent, key: key, base: base}
	if ok {
		s.cache[id] = v
	}
	return v
}

// grew moves the view of old over to grown after a write replaced the
// sequence by a longer one, and repoints children that were reached
// through old.
func (s *session) grew(old, grown []any) {
	oldID, ok := docpath.IdentityOf(old)
	if !ok {
		return
	}
	v, hit := s.cache[oldID]
	if hit {
		delete(s.cache, oldID)
		v.node = grown
		if id, ok := docpath.IdentityOf(grown); ok {
			s.cache[id] = v
		}
	}
	for _, c := range s.cache {
		if id, ok := docpath.IdentityOf(c.parent); ok && id == oldID {
			c.parent = grown
		}
	}
}

// locate turns the pointer of a reference node into document segments.
func (s *session) locate(ref, base string) ([]string, bool) {
	return s.refIndex().Locate(ref, base)
}

// baseAt returns the base URI in effect at segs: the $id of the closest
// enclosing schema, or "".
func (s *session) baseAt(segs []string) string {
	cur := s.root
	base, _ := refs.ID(cur)
	for _, seg := range segs {
		next, ok := docpath.Child(cur, seg)
		if !ok {
			break
		}
		if id, ok := refs.ID(next); ok {
			base = id
		}
		cur = next
	}
	return base
}
