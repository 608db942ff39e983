// Package config loads the build configuration.
//
// Values come from an optional mbedjs.yml in the project directory, an
// optional .env file and the environment, in increasing precedence.
// Environment variables use the MBEDJS_ prefix with underscore-separated
// paths (MBEDJS_BUILD_DIR, MBEDJS_REPOS_MBED_OS); MBED_TARGET is accepted for
// the target board.
//
//	cfg, err := config.Load(config.WithProjectDir("."))
package config
