package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hitoshi/tubeline/internal/middleware"
	"github.com/hitoshi/tubeline/internal/model"
)

// Pinger はDBの疎通確認を行うインターフェース。*sql.DB が実装する。
type Pinger interface {
	PingContext(ctx context.Context) error
}

// healthResponse はヘルスチェックのレスポンスデータ。
type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}

// NewHealthHandler はDB疎通を含むヘルスチェックハンドラーを返す。
// GET /health
func NewHealthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			slog.Error("health check failed", slog.String("error", err.Error()))
			middleware.WriteErrorResponse(w, http.StatusServiceUnavailable, &model.APIError{
				Code:     model.ErrCodeInternal,
				Message:  "database unavailable",
				Category: "system",
				Action:   "しばらく待ってから再度お試しください。",
			})
			return
		}

		middleware.WriteSuccessResponse(w, http.StatusOK, healthResponse{Status: "ok", Database: "ok"}, "OK")
	}
}
