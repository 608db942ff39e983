// Package errors provides the structured error type used across the build
// orchestrator. Every failure that reaches the CLI carries a machine-readable
// code, a human-readable message, optional details (task, package, path) and
// the underlying cause.
package errors
