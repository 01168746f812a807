package recipe

import "errors"

var (
	// ErrValidation is returned for an empty title or text that is not valid UTF-8.
	ErrValidation = errors.New("invalid recipe")
	// ErrNotFound is returned when the target recipe does not exist.
	ErrNotFound = errors.New("recipe not found")
	// ErrNotHydrated is returned for mutations issued before Hydrate completed.
	ErrNotHydrated = errors.New("store not hydrated")
	// ErrClosed is returned for mutations issued after Close.
	ErrClosed = errors.New("store closed")
	// ErrCorruptBlob is returned by Unmarshal for blobs that do not decode to a valid collection.
	ErrCorruptBlob = errors.New("corrupt recipe blob")
)
