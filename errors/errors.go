package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Newf creates a new AppError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// --- Common Error Constructors ---

// Config creates a new AppError for an invalid configuration or task graph.
func Config(reason string) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: reason}
}

// CycleDetected creates a configuration error for a cyclic prerequisite relation.
func CycleDetected(tasks []string) *AppError {
	return &AppError{
		Code:    ErrCodeConfig,
		Message: fmt.Sprintf("task prerequisites form a cycle among %v", tasks),
		Details: map[string]any{"tasks": tasks},
	}
}

// UnknownTask creates a configuration error for a reference to an unregistered task.
func UnknownTask(name, referencedBy string) *AppError {
	details := map[string]any{"task": name}
	msg := fmt.Sprintf("unknown task %q", name)
	if referencedBy != "" {
		details["referenced_by"] = referencedBy
		msg = fmt.Sprintf("unknown task %q (prerequisite of %q)", name, referencedBy)
	}
	return &AppError{Code: ErrCodeConfig, Message: msg, Details: details}
}

// ManifestInvalid creates a new AppError for a manifest that failed to parse.
func ManifestInvalid(path string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeManifestInvalid, Message: fmt.Sprintf("malformed manifest %s", path),
		Details: map[string]any{"path": path}, Cause: cause,
	}
}

// InvalidInput creates a new AppError for an invalid argument or value.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("invalid input: %s", reason),
		Details: details,
	}
}

// Validation creates a new AppError for validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// ExternalProcess creates a new AppError for a spawned tool that failed.
// output is the tail of the combined output stream.
func ExternalProcess(command string, exitCode int, output string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeExternalProcess, Message: fmt.Sprintf("command %q exited with status %d", command, exitCode),
		Details: map[string]any{"command": command, "exit_code": exitCode, "output": output},
		Cause:   cause,
	}
}

// TaskFailed creates a new AppError for a task whose action failed.
func TaskFailed(task string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeTaskFailed, Message: fmt.Sprintf("task %q failed", task),
		Details: map[string]any{"task": task}, Cause: cause,
	}
}

// PrerequisiteFailed creates a new AppError for a task skipped because a prerequisite failed.
func PrerequisiteFailed(task, prerequisite string) *AppError {
	return &AppError{
		Code:    ErrCodePrerequisiteFailed,
		Message: fmt.Sprintf("task %q not run: prerequisite %q failed", task, prerequisite),
		Details: map[string]any{"task": task, "prerequisite": prerequisite},
	}
}

// Cancelled creates a new AppError for an interrupted invocation.
func Cancelled(cause error) *AppError {
	return &AppError{Code: ErrCodeCancelled, Message: "build cancelled", Cause: cause}
}

// NotFound creates a new AppError for a missing file or directory.
func NotFound(resource, path string) *AppError {
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("%s not found at %s", resource, path),
		Details: map[string]any{"resource": resource, "path": path},
	}
}

// Internal creates a new AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{Code: ErrCodeInternal, Message: "unexpected error", Cause: cause}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// HasCode reports whether any AppError in err's chain carries code.
// Joined errors are searched element by element.
func HasCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	if appErr, ok := err.(*AppError); ok && appErr.Code == code {
		return true
	}
	switch x := err.(type) {
	case interface{ Unwrap() []error }:
		for _, e := range x.Unwrap() {
			if HasCode(e, code) {
				return true
			}
		}
		return false
	case interface{ Unwrap() error }:
		return HasCode(x.Unwrap(), code)
	}
	return false
}

// Wrap converts any error into an AppError. AppErrors anywhere in the chain are
// returned as-is; other errors become INTERNAL_ERROR with err as the cause.
func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Internal(err)
}
