package middleware

import (
	"net/http"

	"github.com/go-chi/cors"
)

// NewCORSMiddleware は指定されたオリジンに対するCORSミドルウェアを返す。
// Cookieによる認証と共存するため、ワイルドカード(*)は使用しない。
// OPTIONSプリフライトリクエストには本文なしの204で応答し、後続には渡さない。
func NewCORSMiddleware(allowedOrigin string) func(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{allowedOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           86400,
		// go-chi/corsはプリフライトに常に200を返すため、応答は preflightResponder が行う
		OptionsPassthrough: true,
	})
	return func(next http.Handler) http.Handler {
		return c.Handler(preflightResponder(next))
	}
}

// preflightResponder はCORSヘッダー付与後のプリフライトを204で終端する。
// Access-Control-Request-Method のないOPTIONSは通常のリクエストとして扱う。
func preflightResponder(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
