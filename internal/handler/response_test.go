package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tubeline/internal/model"
)

func TestMapAPIErrorToHTTPStatus(t *testing.T) {
	tests := []struct {
		code string
		want int
	}{
		{model.ErrCodeInvalidRequest, http.StatusBadRequest},
		{model.ErrCodeInvalidChannelID, http.StatusBadRequest},
		{model.ErrCodeInvalidSubscriberID, http.StatusBadRequest},
		{model.ErrCodeInvalidLogFilter, http.StatusBadRequest},
		{model.ErrCodeUnauthorized, http.StatusUnauthorized},
		{model.ErrCodeInvalidAccessToken, http.StatusUnauthorized},
		{model.ErrCodeUserNotFound, http.StatusUnauthorized},
		{model.ErrCodeInvalidCredentials, http.StatusUnauthorized},
		{model.ErrCodeChannelNotFound, http.StatusNotFound},
		{model.ErrCodeLogsNotFound, http.StatusNotFound},
		{model.ErrCodeRateLimited, http.StatusTooManyRequests},
		{model.ErrCodeInternal, http.StatusInternalServerError},
		{"SOMETHING_ELSE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if got := mapAPIErrorToHTTPStatus(&model.APIError{Code: tt.code}); got != tt.want {
				t.Errorf("status = %d, want %d", got, tt.want)
			}
		})
	}
}

// ラップされたAPIErrorもコードどおりのステータスになること
func TestHandleServiceError_UnwrapsAPIError(t *testing.T) {
	wrapped := errors.Join(errors.New("context"), model.NewChannelNotFoundError("c"))

	w := httptest.NewRecorder()
	handleServiceError(w, httptest.NewRequest(http.MethodGet, "/", nil), wrapped)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
	assertErrorCode(t, decodeEnvelope(t, w, nil), model.ErrCodeChannelNotFound)
}

func TestHealthHandler(t *testing.T) {
	w := httptest.NewRecorder()
	NewHealthHandler(&mockPinger{})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}

	w = httptest.NewRecorder()
	NewHealthHandler(&mockPinger{err: errors.New("down")})(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", w.Code)
	}
}
