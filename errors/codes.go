package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Configuration errors. These abort an invocation before or while planning.
const (
	// ErrCodeConfig indicates an invalid build configuration or task graph
	// (cycle, unknown or duplicate task).
	ErrCodeConfig ErrorCode = "CONFIG_ERROR"
	// ErrCodeManifestInvalid indicates a native package manifest that could not be parsed.
	ErrCodeManifestInvalid ErrorCode = "MANIFEST_INVALID"
	// ErrCodeInvalidInput indicates an invalid CLI argument or config value.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Execution errors.
const (
	// ErrCodeExternalProcess indicates a spawned tool exited non-zero.
	ErrCodeExternalProcess ErrorCode = "EXTERNAL_PROCESS"
	// ErrCodeTaskFailed indicates a task action returned an error.
	ErrCodeTaskFailed ErrorCode = "TASK_FAILED"
	// ErrCodePrerequisiteFailed indicates a task did not run because a prerequisite failed.
	ErrCodePrerequisiteFailed ErrorCode = "PREREQUISITE_FAILED"
	// ErrCodeCancelled indicates the invocation was cancelled or timed out.
	ErrCodeCancelled ErrorCode = "CANCELLED"
	// ErrCodeNotFound indicates a required file or directory is absent.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
)

// Internal errors
const (
	// ErrCodeInternal indicates an unexpected failure (I/O, encoding).
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Exit codes reported by the CLI per error code. Anything not listed exits 1.
var exitCodes = map[ErrorCode]int{
	ErrCodeConfig:          2,
	ErrCodeInvalidInput:    2,
	ErrCodeManifestInvalid: 3,
	ErrCodeCancelled:       130,
}

// ExitCode returns the process exit code associated with code.
func ExitCode(code ErrorCode) int {
	if c, ok := exitCodes[code]; ok {
		return c
	}
	return 1
}
