// Package version carries the mbedjs build identity.
//
// Values are injected at link time and fall back to the module build info:
//
//	go build -ldflags "-X github.com/kbukum/mbedjs/version.Version=1.2.0" ./cmd/mbedjs
package version
