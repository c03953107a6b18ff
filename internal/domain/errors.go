package domain

import "errors"

// Sentinel errors shared across layers.
var (
	// ErrSearchFailed marks an upstream lexical search failure. This is the
	// only error class that is fatal to a pipeline invocation.
	ErrSearchFailed = errors.New("lexical search failed")

	// ErrModelUnavailable marks the relevance model as unreachable.
	// Enhancement stages treat it as "feature disabled", never fatal.
	ErrModelUnavailable = errors.New("relevance model unavailable")

	// ErrCollectionNotFound is returned for unknown collection names.
	ErrCollectionNotFound = errors.New("collection not found")

	// ErrCollectionExists is returned when registering a duplicate collection.
	ErrCollectionExists = errors.New("collection already exists")

	// ErrEmptyQuery is returned for blank search queries.
	ErrEmptyQuery = errors.New("query is empty")

	// ErrInvalidPath is returned when a collection root is missing or not a
	// directory.
	ErrInvalidPath = errors.New("invalid collection path")
)
