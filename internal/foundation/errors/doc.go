// Package errors provides foundational, type-safe error primitives used across sitegen.
//
// This package contains classified error types and helpers for robust error handling,
// including a fluent builder API for constructing ClassifiedError values with context.
//
// Key features:
//   - ErrorCategory: Broad error classification (config, content, layout, render, etc.)
//   - ErrorSeverity: Impact level (fatal, error, warning, info)
//   - RetryStrategy: Retry behavior (never, immediate, backoff)
//   - ClassifiedError: Structured error with category, severity, and context
//   - ErrorBuilder: Fluent API for creating classified errors
//   - CLI adapter for error presentation and exit codes
//
// Example usage:
//
//	err := errors.NewError(errors.CategoryLayout, "layout chain unresolvable").
//		WithSeverity(errors.SeverityFatal).
//		WithContext("layout", layoutName).
//		Build()
package errors
