// Package codegen renders the files the build generates from templates: the
// firmware entry point that registers every native package, the mbed
// application config and the mbed ignore list.
//
// Default templates are embedded in the binary. A template directory given to
// NewRenderer overrides them file by file.
package codegen
