package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestAppError_New_Success(t *testing.T) {
	err := New(ErrCodeTaskFailed, "boom")
	if err.Code != ErrCodeTaskFailed {
		t.Errorf("expected code %s, got %s", ErrCodeTaskFailed, err.Code)
	}
	if err.Message != "boom" {
		t.Errorf("expected message 'boom', got %q", err.Message)
	}
}

func TestAppError_Newf(t *testing.T) {
	err := Newf(ErrCodeConfig, "task %q", "bundle")
	if err.Message != `task "bundle"` {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestAppError_Internal_Success(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Internal(cause)
	if err.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", err.Code)
	}
	if err.Cause != cause {
		t.Error("expected cause to be set")
	}
}

func TestAppError_UnknownTask(t *testing.T) {
	err := UnknownTask("pins", "build")
	if err.Code != ErrCodeConfig {
		t.Errorf("expected CONFIG_ERROR, got %s", err.Code)
	}
	if err.Details["referenced_by"] != "build" {
		t.Errorf("expected referenced_by=build, got %v", err.Details["referenced_by"])
	}

	bare := UnknownTask("pins", "")
	if _, ok := bare.Details["referenced_by"]; ok {
		t.Error("expected no referenced_by key for a top-level target")
	}
}

func TestAppError_ManifestInvalid(t *testing.T) {
	cause := fmt.Errorf("unexpected end of JSON input")
	err := ManifestInvalid("/pkg/mbedjs.json", cause)
	if !stderrors.Is(err, cause) {
		t.Error("expected cause in chain")
	}
	if err.Details["path"] != "/pkg/mbedjs.json" {
		t.Errorf("expected path detail, got %v", err.Details["path"])
	}
}

func TestAppError_ExternalProcess(t *testing.T) {
	err := ExternalProcess("git clone x", 128, "fatal: repository not found", nil)
	if err.Details["exit_code"] != 128 {
		t.Errorf("expected exit_code=128, got %v", err.Details["exit_code"])
	}
	if !strings.Contains(err.Error(), "git clone x") {
		t.Errorf("expected command in message, got %q", err.Error())
	}
}

func TestAppError_WithCause_Chain(t *testing.T) {
	cause := fmt.Errorf("root cause")
	err := NotFound("template", "/tmp/x").WithCause(cause)
	if err.Cause != cause {
		t.Error("expected cause to be set via WithCause")
	}
	if !strings.Contains(err.Error(), "root cause") {
		t.Errorf("Error() should contain cause, got %q", err.Error())
	}
}

func TestAppError_WithDetails_Merge(t *testing.T) {
	err := NotFound("template", "/x").WithDetails(map[string]any{
		"extra": "info",
	})
	if err.Details["extra"] != "info" {
		t.Errorf("expected extra=info in details")
	}
	if err.Details["resource"] != "template" {
		t.Error("expected original details to be preserved")
	}

	err.WithDetails(map[string]any{"another": "detail"})
	if err.Details["another"] != "detail" {
		t.Error("expected another=detail to be merged")
	}
	if err.Details["extra"] != "info" {
		t.Error("expected extra=info to be preserved after second merge")
	}
}

func TestAppError_WithDetail_NilMap(t *testing.T) {
	err := &AppError{}
	err.WithDetail("key", "value")
	if err.Details == nil {
		t.Fatal("expected Details map to be initialized")
	}
	if err.Details["key"] != "value" {
		t.Errorf("expected key=value, got %v", err.Details["key"])
	}
}

func TestAppError_Unwrap_Success(t *testing.T) {
	cause := fmt.Errorf("underlying")
	if Internal(cause).Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if NotFound("x", "y").Unwrap() != nil {
		t.Error("Unwrap should return nil when no cause")
	}
}

func TestAppError_Constructors_Table(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"Config", Config("bad"), ErrCodeConfig},
		{"CycleDetected", CycleDetected([]string{"a", "b"}), ErrCodeConfig},
		{"InvalidInput", InvalidInput("target", "empty"), ErrCodeInvalidInput},
		{"Validation", Validation("bad input"), ErrCodeInvalidInput},
		{"TaskFailed", TaskFailed("pins", nil), ErrCodeTaskFailed},
		{"PrerequisiteFailed", PrerequisiteFailed("build", "pins"), ErrCodePrerequisiteFailed},
		{"Cancelled", Cancelled(nil), ErrCodeCancelled},
		{"NotFound", NotFound("dir", "/x"), ErrCodeNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.err.Code != tc.code {
				t.Errorf("expected code %s, got %s", tc.code, tc.err.Code)
			}
		})
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeConfig, 2},
		{ErrCodeManifestInvalid, 3},
		{ErrCodeCancelled, 130},
		{ErrCodeTaskFailed, 1},
		{ErrCodeExternalProcess, 1},
	}
	for _, tc := range tests {
		if got := ExitCode(tc.code); got != tc.want {
			t.Errorf("ExitCode(%s) = %d, want %d", tc.code, got, tc.want)
		}
	}
}

func TestAppError_IsAppError_Success(t *testing.T) {
	appErr := NotFound("x", "")
	if !IsAppError(appErr) {
		t.Error("expected IsAppError to return true for AppError")
	}
	if !IsAppError(fmt.Errorf("wrapped: %w", appErr)) {
		t.Error("expected IsAppError to return true for wrapped AppError")
	}
	if IsAppError(fmt.Errorf("plain error")) {
		t.Error("expected IsAppError to return false for plain error")
	}
}

func TestAppError_AsAppError_Success(t *testing.T) {
	wrapped := fmt.Errorf("wrap: %w", Internal(nil))

	got, ok := AsAppError(wrapped)
	if !ok {
		t.Fatal("expected AsAppError to succeed for wrapped AppError")
	}
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}

	if _, ok := AsAppError(fmt.Errorf("not an app error")); ok {
		t.Error("expected AsAppError to return false for non-AppError")
	}
}

func TestHasCode_Joined(t *testing.T) {
	joined := stderrors.Join(
		TaskFailed("pins", fmt.Errorf("exit 1")),
		PrerequisiteFailed("build", "pins"),
	)
	if !HasCode(joined, ErrCodeTaskFailed) {
		t.Error("expected TASK_FAILED in joined error")
	}
	if !HasCode(joined, ErrCodePrerequisiteFailed) {
		t.Error("expected PREREQUISITE_FAILED in joined error")
	}
	if HasCode(joined, ErrCodeManifestInvalid) {
		t.Error("did not expect MANIFEST_INVALID")
	}
	if HasCode(nil, ErrCodeInternal) {
		t.Error("nil error has no code")
	}
}

func TestHasCode_NestedCause(t *testing.T) {
	inner := ManifestInvalid("/p/mbedjs.json", fmt.Errorf("bad"))
	outer := TaskFailed("build", fmt.Errorf("resolve: %w", inner))
	if !HasCode(outer, ErrCodeManifestInvalid) {
		t.Error("expected MANIFEST_INVALID through the cause chain")
	}
}

func TestWrap(t *testing.T) {
	if Wrap(nil) != nil {
		t.Error("Wrap(nil) should return nil")
	}

	orig := NotFound("item", "1")
	if Wrap(orig) != orig {
		t.Error("Wrap should return the original AppError unchanged")
	}
	if got := Wrap(fmt.Errorf("outer: %w", orig)); got.Code != ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND, got %s", got.Code)
	}

	plain := fmt.Errorf("something broke")
	got := Wrap(plain)
	if got.Code != ErrCodeInternal {
		t.Errorf("expected INTERNAL_ERROR, got %s", got.Code)
	}
	if got.Cause != plain {
		t.Error("expected cause to be the original error")
	}
}
