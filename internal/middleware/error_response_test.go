package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/tubeline/internal/model"
)

// TestWriteErrorResponse_WritesEnvelope はエラーがエンベロープ形式で書き込まれることを検証する。
func TestWriteErrorResponse_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	apiErr := &model.APIError{
		Code:     "TEST_ERROR",
		Message:  "テストエラーです。",
		Category: "validation",
		Action:   "正しい値を入力してください。",
	}

	WriteErrorResponse(w, http.StatusBadRequest, apiErr)

	resp := w.Result()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want %q", ct, "application/json")
	}

	var body Envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}

	if body.StatusCode != http.StatusBadRequest {
		t.Errorf("statusCode = %d, want %d", body.StatusCode, http.StatusBadRequest)
	}
	if body.Success {
		t.Error("success should be false")
	}
	if body.Data != nil {
		t.Errorf("data = %v, want nil", body.Data)
	}
	if body.Message != "テストエラーです。" {
		t.Errorf("message = %q", body.Message)
	}
	if body.Error == nil {
		t.Fatal("error detail is missing")
	}
	if body.Error.Code != "TEST_ERROR" || body.Error.Category != "validation" || body.Error.Action != "正しい値を入力してください。" {
		t.Errorf("error = %+v", body.Error)
	}
}

func TestWriteSuccessResponse_WritesEnvelope(t *testing.T) {
	w := httptest.NewRecorder()

	WriteSuccessResponse(w, http.StatusOK, map[string]bool{"subscribed": true}, "Subscribed successfully")

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if raw["statusCode"] != float64(http.StatusOK) {
		t.Errorf("statusCode = %v", raw["statusCode"])
	}
	if raw["success"] != true {
		t.Errorf("success = %v", raw["success"])
	}
	if raw["message"] != "Subscribed successfully" {
		t.Errorf("message = %v", raw["message"])
	}
	data, ok := raw["data"].(map[string]interface{})
	if !ok || data["subscribed"] != true {
		t.Errorf("data = %v", raw["data"])
	}
	if _, ok := raw["error"]; ok {
		t.Error("error field should be omitted on success")
	}
}

// TestInternalServerError_ReturnsSystemError は内部エラーが統一フォーマットで返ることを検証する。
func TestInternalServerError_ReturnsSystemError(t *testing.T) {
	w := httptest.NewRecorder()

	WriteInternalServerError(w)

	resp := w.Result()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusInternalServerError)
	}

	var body Envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	if body.Error == nil || body.Error.Code != model.ErrCodeInternal {
		t.Fatalf("error = %+v", body.Error)
	}
	if body.Error.Category != "system" {
		t.Errorf("category = %q, want %q", body.Error.Category, "system")
	}
	if body.Error.Action == "" {
		t.Error("action should not be empty")
	}
}

// TestEnvelope_AllFieldsPresent はエラー時もdataを含む全フィールドが出力されることを検証する。
func TestEnvelope_AllFieldsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	WriteErrorResponse(w, http.StatusNotFound, &model.APIError{
		Code:     "CODE",
		Message:  "MSG",
		Category: "CAT",
		Action:   "ACT",
	})

	var raw map[string]interface{}
	if err := json.NewDecoder(w.Result().Body).Decode(&raw); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}

	for _, field := range []string{"statusCode", "data", "message", "success", "error"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("missing required field: %s", field)
		}
	}
}
