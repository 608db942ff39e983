// Package util provides small helpers shared across mbedjs packages.
//
// It covers C/C++ identifier and string literal sanitising for generated
// sources, forward-slash path normalisation, and value coalescing.
package util
