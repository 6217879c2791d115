package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	err := Wrap(fmt.Errorf("permission denied"), CodeWriteFailed, "failed to publish artifact").
		WithContext("path", "/out/year=2023/month=01/data.parquet")

	s := err.Error()
	if !strings.HasPrefix(s, "[E301] failed to publish artifact") {
		t.Errorf("unexpected prefix: %s", s)
	}
	if !strings.Contains(s, "path=/out/year=2023/month=01/data.parquet") {
		t.Errorf("context missing: %s", s)
	}
	if !strings.Contains(s, "permission denied") {
		t.Errorf("cause missing: %s", s)
	}
}

func TestError_IsMatchesOnCode(t *testing.T) {
	err := New(CodeUnresolvedStation, "station id missing from partition name map")

	if !stderrors.Is(err, New(CodeUnresolvedStation, "other message")) {
		t.Error("errors with the same code must match")
	}
	if stderrors.Is(err, New(CodeWriteFailed, "other code")) {
		t.Error("errors with different codes must not match")
	}
}

func TestError_UnwrapAndCodes(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	wrapped := fmt.Errorf("after retry: %w", Wrap(cause, CodeDownloadFailed, "failed to download archive"))

	if !stderrors.Is(wrapped, cause) {
		t.Error("cause must survive wrapping")
	}
	if !IsCode(wrapped, CodeDownloadFailed) {
		t.Error("IsCode must see through plain wrappers")
	}
	if got := GetCode(wrapped); got != CodeDownloadFailed {
		t.Errorf("GetCode = %s, want %s", got, CodeDownloadFailed)
	}
	if got := GetCode(fmt.Errorf("plain")); got != CodeUnknown {
		t.Errorf("GetCode on plain error = %s, want %s", got, CodeUnknown)
	}
}

func TestWrap_NilIsNil(t *testing.T) {
	if Wrap(nil, CodeWriteFailed, "ignored") != nil {
		t.Error("wrapping nil must return nil")
	}
}

func TestMultiError(t *testing.T) {
	var m MultiError
	if m.HasErrors() {
		t.Error("empty MultiError must report no errors")
	}
	if m.Combined() != nil {
		t.Error("empty MultiError must combine to nil")
	}

	m.Add(nil)
	if m.HasErrors() {
		t.Error("nil adds must be ignored")
	}

	first := New(CodeWriteFailed, "partition 2023-01 failed")
	m.Add(first)
	if m.Combined() != first {
		t.Error("single error must combine to itself")
	}

	m.Add(New(CodeWriteFailed, "partition 2023-02 failed"))
	combined := m.Combined().Error()
	if !strings.Contains(combined, "2 errors occurred") {
		t.Errorf("unexpected combined message: %s", combined)
	}
	if !strings.Contains(combined, "2023-01") || !strings.Contains(combined, "2023-02") {
		t.Errorf("combined message must list every failure: %s", combined)
	}
}
