// Package app はアプリケーションの起動と依存関係のワイヤリングを提供する。
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/hitoshi/tubeline/internal/auth"
	"github.com/hitoshi/tubeline/internal/config"
	"github.com/hitoshi/tubeline/internal/database"
	"github.com/hitoshi/tubeline/internal/filelog"
	"github.com/hitoshi/tubeline/internal/handler"
	"github.com/hitoshi/tubeline/internal/logger"
	"github.com/hitoshi/tubeline/internal/logquery"
	"github.com/hitoshi/tubeline/internal/metrics"
	"github.com/hitoshi/tubeline/internal/middleware"
	"github.com/hitoshi/tubeline/internal/repository"
	"github.com/hitoshi/tubeline/internal/security"
	"github.com/hitoshi/tubeline/internal/subscription"
	"github.com/hitoshi/tubeline/internal/user"
	"github.com/hitoshi/tubeline/internal/worker/cleanup"
)

// shutdownTimeout はグレースフルシャットダウンの猶予時間。
const shutdownTimeout = 30 * time.Second

// Init はアプリケーションの初期化を行う。
// 環境変数（および .env）からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, nil)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.SetupDefault(w, cfg.LogLevel)
	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd, err := ParseCommand(args)
	if err != nil {
		return err
	}

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	default:
		return runServe(cfg)
	}
}

// openDatabase はDB接続を開き、疎通を確認する。
func openDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// newRegistry はアプリケーション用のPrometheusレジストリを生成する。
func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// buildRouter は全依存関係をワイヤリングしてHTTPルーターを構築する。
func buildRouter(
	cfg *config.Config,
	db *sql.DB,
	reg *prometheus.Registry,
	collector *metrics.Collector,
	fileLog *filelog.Writer,
	limiter *middleware.RateLimiter,
) (http.Handler, error) {
	// リポジトリ
	userRepo := repository.NewPostgresUserRepo(db)
	subRepo := repository.NewPostgresSubscriptionRepo(db)
	videoRepo := repository.NewPostgresVideoRepo(db)
	logRepo := repository.NewPostgresLogRepo(db)

	// ドメインサービス
	tokens, err := auth.NewTokenManager(cfg.AccessTokenSecret, cfg.AccessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to create token manager: %w", err)
	}
	authService := auth.NewService(tokens, userRepo)
	logService := logquery.NewService(logRepo)
	subService := subscription.NewService(
		subRepo, videoRepo, security.NewTextSanitizer(), fileLog, logService, collector,
	)
	userService := user.NewService(userRepo)

	deps := &handler.RouterDeps{
		Logger:              slog.Default(),
		Authenticator:       authService,
		AuthFailureRecorder: collector,
		CORSAllowedOrigin:   cfg.CORSAllowedOrigin,
		RateLimiter:         limiter,
		HTTPMetrics:         collector,
		DB:                  db,
		MetricsHandler:      metrics.Handler(reg),
		FileLog:             fileLog,

		AuthService: handler.NewAuthServiceAdapter(authService),
		AuthConfig: handler.AuthHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
		},
		SubscriptionService: handler.NewSubscriptionServiceAdapter(subService),
		LogService:          handler.NewLogServiceAdapter(logService),
		UserService:         handler.NewUserServiceAdapter(userService),
	}

	return handler.NewRouter(deps), nil
}

// runServe はAPIサーバーモードで起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established")

	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	fileLog := filelog.New(cfg.FileLogDir, cfg.FileLogQueueSize,
		filelog.WithMetrics(collector),
		filelog.WithLogger(slog.Default()),
	)

	limiter := middleware.NewRateLimiter(
		middleware.NewRateLimiterConfig(cfg.RateLimitGeneral, cfg.RateLimitLogin),
	)
	defer limiter.Stop()

	router, err := buildRouter(cfg, db, reg, collector, fileLog, limiter)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("API server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case <-stop:
	case err := <-serverErr:
		fileLog.Close(context.Background())
		return fmt.Errorf("server listen error: %w", err)
	}
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	// 処理中リクエストのログ行を書き切ってから終了する
	if err := fileLog.Close(ctx); err != nil {
		slog.Warn("file log did not drain before shutdown", slog.String("error", err.Error()))
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// buildWorkerRouter はワーカーが公開する /health と /metrics のルーターを構成する。
func buildWorkerRouter(db *sql.DB, reg *prometheus.Registry) http.Handler {
	return handler.NewOpsRouter(db, metrics.Handler(reg))
}

// runWorker はワーカーモードで起動する。
// ログ保持期間を超えたイベントログを日次で削除し、
// その間 /health と /metrics を SERVER_PORT で公開する。
func runWorker(cfg *config.Config) error {
	db, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	slog.Info("database connection established (worker)")

	reg := newRegistry()
	collector := metrics.NewCollector(reg)

	job := cleanup.NewJob(db, slog.Default(), collector)
	job.RetentionDays = cfg.LogRetentionDays

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      buildWorkerRouter(db, reg),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("worker ops server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
			cancel()
		}
	}()

	slog.Info("worker starting",
		slog.Int("retention_days", job.RetentionDays),
		slog.Duration("interval", job.Interval),
	)

	job.Start(ctx)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("worker ops server shutdown failed: %w", err)
	}

	select {
	case err := <-serverErr:
		return fmt.Errorf("worker ops server listen error: %w", err)
	default:
	}

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はすべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck は /health にリクエストを送り、200以外をエラーとする。
// distroless環境でのDockerヘルスチェック用。
func runHealthcheck(port string) error {
	target := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(target)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// maskDatabaseURL はデータベースURLのパスワードをマスクする。
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
