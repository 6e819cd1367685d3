// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/tubeline/internal/model"
)

// AccessTokenCookieName はアクセストークンを保持するCookie名。
const AccessTokenCookieName = "accesstoken"

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	userContextKey   = contextKey("user")
	userIDContextKey = contextKey("user_id")
)

// Authenticator はアクセストークンからユーザーを解決するインターフェース。
// auth.Service が実装する。失敗時は *model.APIError を返す。
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
}

// AuthFailureRecorder は認証失敗を記録するインターフェース。
type AuthFailureRecorder interface {
	RecordAuthFailure(code string)
}

// TokenFromRequest はリクエストからアクセストークンを取り出す。
// 空でない accesstoken Cookie を優先し、なければ Authorization ヘッダーから
// 最初の "Bearer " を取り除いた値を使う。
func TokenFromRequest(r *http.Request) string {
	if cookie, err := r.Cookie(AccessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return strings.Replace(r.Header.Get("Authorization"), "Bearer ", "", 1)
}

// NewAuthMiddleware はアクセストークンを検証し、認証済みユーザーを
// リクエストコンテキストに注入するミドルウェアを返す。
// 認証に失敗したリクエストには401を返し、後続のハンドラーは呼ばない。
// recorderはnilでもよい。
func NewAuthMiddleware(authenticator Authenticator, recorder AuthFailureRecorder) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := authenticator.Authenticate(r.Context(), TokenFromRequest(r))
			if err != nil {
				var apiErr *model.APIError
				if !errors.As(err, &apiErr) {
					slog.Error("authentication failed unexpectedly",
						slog.String("error", err.Error()),
					)
					apiErr = model.NewInvalidAccessTokenError("")
				}
				if recorder != nil {
					recorder.RecordAuthFailure(apiErr.Code)
				}
				WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
				return
			}

			setRequestUserID(r.Context(), user.ID)
			ctx := ContextWithUser(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// UserFromContext はリクエストコンテキストから認証済みユーザーを取得する。
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userContextKey).(*model.User)
	return user, ok && user != nil
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// ContextWithUser はコンテキストにユーザーとそのIDを注入する。
func ContextWithUser(ctx context.Context, user *model.User) context.Context {
	ctx = context.WithValue(ctx, userContextKey, user)
	return context.WithValue(ctx, userIDContextKey, user.ID)
}

// ContextWithUserID はコンテキストにユーザーIDを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDContextKey, userID)
}
