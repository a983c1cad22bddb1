package errors

// Package errors provides sentinel errors for site assembly. Wrapping keeps
// user-facing messages descriptive while callers classify on the sentinel.

import "errors"

var (
	// ErrOutputCollision indicates two documents derived the same output path.
	ErrOutputCollision = errors.New("output path collision")
	// ErrIndexTemplateInvalid indicates an aggregate page template failed to parse.
	ErrIndexTemplateInvalid = errors.New("index template invalid")
	// ErrIndexGenerationFailed indicates executing an aggregate page template failed.
	ErrIndexGenerationFailed = errors.New("index generation failed")
)
