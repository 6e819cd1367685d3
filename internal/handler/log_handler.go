package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hitoshi/tubeline/internal/middleware"
)

// LogServiceInterface はログハンドラーが必要とするサービスインターフェース。
type LogServiceInterface interface {
	// GetLog はユーザーのログを新しい順に返す。該当なしは LOGS_NOT_FOUND。
	GetLog(ctx context.Context, userID string, filter logFilterParams) ([]logEntryResponse, error)
}

// logFilterParams はクエリ文字列から受け取るログ検索条件。
type logFilterParams struct {
	Date      string
	StartTime string
	EndTime   string
}

// logEntryResponse はログ1件のAPIレスポンス。
type logEntryResponse struct {
	LogType   string    `json:"logType"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// logListResponse はログ検索のレスポンスデータ。
type logListResponse struct {
	Logs []logEntryResponse `json:"logs"`
}

// LogHandler はログ検索のHTTPハンドラー。
type LogHandler struct {
	service LogServiceInterface
}

// NewLogHandler はLogHandlerを生成する。
func NewLogHandler(service LogServiceInterface) *LogHandler {
	return &LogHandler{service: service}
}

// GetLog は認証済みユーザーのログを検索する。
// POST /api/v1/log/getlog?date=YYYY-MM-DD&startTime=HH:MM&endTime=HH:MM
func (h *LogHandler) GetLog(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	logs, err := h.service.GetLog(r.Context(), userID, logFilterParams{
		Date:      q.Get("date"),
		StartTime: q.Get("startTime"),
		EndTime:   q.Get("endTime"),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	middleware.WriteSuccessResponse(w, http.StatusOK, logListResponse{Logs: logs}, "Logs fetched successfully")
}
