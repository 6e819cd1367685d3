package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hitoshi/tubeline/internal/middleware"
)

// APIPrefix は全業務APIの共通プレフィックス。
const APIPrefix = "/api/v1"

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger              *slog.Logger
	Authenticator       middleware.Authenticator
	AuthFailureRecorder middleware.AuthFailureRecorder
	CORSAllowedOrigin   string
	RateLimiter         *middleware.RateLimiter
	HTTPMetrics         middleware.HTTPMetricsRecorder

	// 運用エンドポイント
	DB             Pinger
	MetricsHandler http.Handler

	// ファイルログ
	FileLog FileLogger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// 購読
	SubscriptionService SubscriptionServiceInterface

	// ログ
	LogService LogServiceInterface

	// ユーザー
	UserService UserServiceInterface
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	RequestID → RealIP → Recovery → SecurityHeaders → CORS → Logging → Metrics
//	→ (認証が必要なルートのみ) AuthGate → RateLimit(General)
//
// /health と /metrics はプレフィックスの外に置き、認証しない。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}

	notFound := func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, notFoundError())
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, methodNotAllowedError())
	})

	// --- 認証不要のルート ---
	if deps.DB != nil {
		r.Get("/health", NewHealthHandler(deps.DB))
	}
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig)
	subHandler := NewSubscriptionHandler(deps.SubscriptionService, deps.FileLog)
	logHandler := NewLogHandler(deps.LogService)
	userHandler := NewUserHandler(deps.UserService)

	authGate := middleware.NewAuthMiddleware(deps.Authenticator, deps.AuthFailureRecorder)

	r.Route(APIPrefix, func(r chi.Router) {
		// ログイン（クライアントIP単位のレート制限のみ）
		r.With(deps.RateLimiter.LoginMiddleware()).Post("/users/login", authHandler.Login)

		// --- 認証が必要なルート ---
		// ミドルウェアスタック: AuthGate → RateLimit(General)
		r.Group(func(r chi.Router) {
			r.Use(authGate)
			r.Use(deps.RateLimiter.GeneralMiddleware())

			r.Route("/users", func(r chi.Router) {
				r.Post("/logout", authHandler.Logout)
				r.Get("/me", userHandler.Me)
			})

			r.Post("/log/getlog", logHandler.GetLog)

			r.Route("/subscriptions/{id}", func(r chi.Router) {
				r.Post("/", subHandler.ToggleSubscription)
				r.Get("/subscribers", subHandler.GetChannelSubscribers)
				r.Get("/channels", subHandler.GetSubscribedChannels)
			})
		})
	})

	return r
}

// NewOpsRouter は運用エンドポイント（/health と /metrics）のみを持つルーターを返す。
// 業務APIを持たないワーカープロセスが監視用に公開する。
func NewOpsRouter(db Pinger, metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.NewRecoveryMiddleware())

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusNotFound, notFoundError())
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteErrorResponse(w, http.StatusMethodNotAllowed, methodNotAllowedError())
	})

	if db != nil {
		r.Get("/health", NewHealthHandler(db))
	}
	if metricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", metricsHandler)
	}
	return r
}
