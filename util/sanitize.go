package util

import "strings"

var cIdentReplacer = strings.NewReplacer(
	"-", "_",
	`\`, "_",
	"?", "_",
	"'", "_",
	`"`, "_",
)

var cStringReplacer = strings.NewReplacer(
	`\`, `\\`,
	"\n", `\n`,
	`"`, `\"`,
)

// CIdentifier turns a package name into a usable C/C++ identifier fragment.
// Dashes, backslashes, question marks and quotes become underscores, and a
// leading digit is prefixed with an underscore.
func CIdentifier(name string) string {
	out := cIdentReplacer.Replace(name)
	if out != "" && out[0] >= '0' && out[0] <= '9' {
		out = "_" + out
	}
	return out
}

// CString escapes s for use inside a double-quoted C/C++ string literal.
func CString(s string) string {
	return cStringReplacer.Replace(s)
}
