package errors

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"testing"

	"github.com/anime-shed/image-quality-go/internal/analyzer"
	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

func TestFromAnalysisError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantType   ErrorType
		wantStatus int
	}{
		{"invalid image", fmt.Errorf("decode: %w", bitmap.ErrInvalidImage), ErrorTypeInvalidImage, http.StatusUnprocessableEntity},
		{"degenerate config", analyzer.ErrDegenerateInput, ErrorTypeConfiguration, http.StatusInternalServerError},
		{"extraction fault", analyzer.ErrExtractionFault, ErrorTypeProcessing, http.StatusUnprocessableEntity},
		{"deadline", context.DeadlineExceeded, ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"missing file", &os.PathError{Op: "open", Path: "x", Err: os.ErrNotExist}, ErrorTypeNotFound, http.StatusNotFound},
		{"unknown", stderrors.New("boom"), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appErr := FromAnalysisError(tt.err)
			if appErr.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, appErr.Type)
			}
			if GetStatusCode(appErr) != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, GetStatusCode(appErr))
			}
			if !stderrors.Is(appErr, tt.err) {
				t.Error("Expected the cause to stay reachable through Unwrap")
			}
		})
	}
}

func TestFromAnalysisError_PassesThroughAppErrors(t *testing.T) {
	orig := NewBatchLimitError("too many images", nil)
	wrapped := fmt.Errorf("service: %w", orig)

	if got := FromAnalysisError(wrapped); got != orig {
		t.Errorf("Expected the wrapped AppError, got %v", got)
	}
	if FromAnalysisError(nil) != nil {
		t.Error("Expected nil for nil input")
	}
}

func TestIsTypeAndStatus(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewValidationError("bad input", nil))

	if !IsType(err, ErrorTypeValidation) {
		t.Error("Expected IsType to see through wrapping")
	}
	if IsType(err, ErrorTypeNetwork) {
		t.Error("Expected IsType to reject other types")
	}
	if GetStatusCode(err) != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", GetStatusCode(err))
	}
	if GetStatusCode(stderrors.New("plain")) != http.StatusInternalServerError {
		t.Error("Expected 500 for plain errors")
	}
}

func TestAppErrorMessage(t *testing.T) {
	err := NewNetworkError("fetch failed", stderrors.New("connection refused"))
	want := "network: fetch failed (caused by: connection refused)"
	if err.Error() != want {
		t.Errorf("Expected %q, got %q", want, err.Error())
	}

	detailed := err.WithDetails("host example.com")
	if detailed.Details != "host example.com" || err.Details != "" {
		t.Error("Expected WithDetails to copy the error")
	}
}
