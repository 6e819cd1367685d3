package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/tubeline/internal/model"
)

func TestMe_ReturnsProfile(t *testing.T) {
	svc := &mockUserService{
		getProfileFn: func(_ context.Context, userID string) (*userResponse, error) {
			if userID != testUserID {
				t.Errorf("userID = %q", userID)
			}
			return &userResponse{ID: testUserID, Username: "alice", FullName: "Alice"}, nil
		},
	}
	h := NewUserHandler(svc)

	w := httptest.NewRecorder()
	h.Me(w, newAuthedRequest(http.MethodGet, "/api/v1/users/me", testUserID, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if strings.Contains(w.Body.String(), "password") {
		t.Error("profile must not include password fields")
	}
	var data userResponse
	decodeEnvelope(t, w, &data)
	if data.ID != testUserID || data.Username != "alice" || data.FullName != "Alice" {
		t.Errorf("data = %+v", data)
	}
}

func TestMe_UserNotFound(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	w := httptest.NewRecorder()
	h.Me(w, newAuthedRequest(http.MethodGet, "/api/v1/users/me", testUserID, nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	assertErrorCode(t, decodeEnvelope(t, w, nil), model.ErrCodeUserNotFound)
}

func TestMe_Unauthenticated(t *testing.T) {
	h := NewUserHandler(&mockUserService{})

	w := httptest.NewRecorder()
	h.Me(w, newAuthedRequest(http.MethodGet, "/api/v1/users/me", "", nil))

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
	assertErrorCode(t, decodeEnvelope(t, w, nil), model.ErrCodeUnauthorized)
}
