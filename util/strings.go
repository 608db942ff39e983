package util

import "strings"

// Coalesce returns the first non-zero value, or the zero value if all are zero.
func Coalesce[T comparable](values ...T) T {
	var zero T
	for _, v := range values {
		if v != zero {
			return v
		}
	}
	return zero
}

// ForwardSlashes replaces every backslash in p with a forward slash.
// Compiler source lists are always written with forward slashes.
func ForwardSlashes(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}

// JoinSlash joins base and elem with exactly one forward slash between them.
// Unlike path.Join it does not clean ".." segments.
func JoinSlash(base, elem string) string {
	switch {
	case base == "":
		return elem
	case elem == "":
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(elem, "/")
}
