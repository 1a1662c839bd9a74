package ingest

// Walker runs a selector against a document tree.
type Walker interface {
	// Query executes selector against root and returns the matches in
	// document order.
	Query(root any, selector string) ([]Match, error)
}

// Match is one node selected by a query.
type Match interface {
	// Pointer is the JSON Pointer of the node within the queried root,
	// e.g. "#/paths/~1pets/get".
	Pointer() string

	// Context returns the matched value itself, usable as the root of a
	// follow-up query.
	Context() any
}
