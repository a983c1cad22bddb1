package errors

// Package errors provides sentinel errors for source content operations.
// These enable consistent classification of scan-stage failures.

import "errors"

var (
	// ErrSourceNotFound indicates the configured source directory does not exist.
	ErrSourceNotFound = errors.New("source directory not found")

	// ErrSourceWalkFailed indicates filesystem traversal of the source tree failed.
	ErrSourceWalkFailed = errors.New("source directory walk failed")

	// ErrFileReadFailed indicates reading content from a discovered document failed.
	ErrFileReadFailed = errors.New("document read failed")

	// ErrNoDocumentsFound indicates the source tree contained no renderable documents.
	ErrNoDocumentsFound = errors.New("no documents found")

	// ErrInvalidRelativePath indicates calculating a path relative to the source root failed.
	ErrInvalidRelativePath = errors.New("invalid relative path calculation")
)
