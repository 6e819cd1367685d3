package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/tubeline/internal/middleware"
	"github.com/hitoshi/tubeline/internal/model"
)

// FileLogger はハンドラーがリクエスト受付を記録するファイルロガー。
// filelog.Writer が実装する。
type FileLogger interface {
	Write(level, message string)
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		middleware.WriteErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error",
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	middleware.WriteInternalServerError(w)
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidRequest, model.ErrCodeInvalidChannelID,
		model.ErrCodeInvalidSubscriberID, model.ErrCodeInvalidLogFilter:
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized, model.ErrCodeInvalidAccessToken,
		model.ErrCodeUserNotFound, model.ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case model.ErrCodeChannelNotFound, model.ErrCodeLogsNotFound:
		return http.StatusNotFound
	case model.ErrCodeRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// requireUserID は認証ゲートが注入したユーザーIDを取り出す。
// 取り出せない場合は401を書き込み、falseを返す。
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return "", false
	}
	return userID, true
}

func notFoundError() *model.APIError {
	return &model.APIError{
		Code:     "NOT_FOUND",
		Message:  "Route not found",
		Category: "system",
		Action:   "URLを確認してください。",
	}
}

func methodNotAllowedError() *model.APIError {
	return &model.APIError{
		Code:     "METHOD_NOT_ALLOWED",
		Message:  "Method not allowed",
		Category: "system",
		Action:   "HTTPメソッドを確認してください。",
	}
}
