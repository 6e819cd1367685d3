package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tubeline/internal/model"
)

// Envelope は全APIレスポンス共通のJSONエンベロープ。
// 成功時はErrorを省略し、失敗時はDataをnullにする。
type Envelope struct {
	StatusCode int          `json:"statusCode"`
	Data       interface{}  `json:"data"`
	Message    string       `json:"message"`
	Success    bool         `json:"success"`
	Error      *ErrorDetail `json:"error,omitempty"`
}

// ErrorDetail はエラー時の原因カテゴリと対処方法。
type ErrorDetail struct {
	Code     string `json:"code"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// WriteJSON はエンベロープをJSONとして書き込む。
func WriteJSON(w http.ResponseWriter, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(env.StatusCode)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// WriteSuccessResponse は成功レスポンスを書き込む。
func WriteSuccessResponse(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	WriteJSON(w, Envelope{
		StatusCode: statusCode,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

// WriteErrorResponse は統一エラーフォーマットでHTTPエラーレスポンスを書き込む。
func WriteErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	WriteJSON(w, Envelope{
		StatusCode: statusCode,
		Data:       nil,
		Message:    apiErr.Message,
		Success:    false,
		Error: &ErrorDetail{
			Code:     apiErr.Code,
			Category: apiErr.Category,
			Action:   apiErr.Action,
		},
	})
}

// WriteInternalServerError は内部サーバーエラーの統一レスポンスを書き込む。
// 詳細はログのみに記録し、ユーザーには一般的なメッセージを返す。
func WriteInternalServerError(w http.ResponseWriter) {
	WriteErrorResponse(w, http.StatusInternalServerError, model.NewInternalError())
}
