// Package auth はアクセストークンの発行・検証とログイン処理を提供する。
package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/hitoshi/tubeline/internal/model"
	"github.com/hitoshi/tubeline/internal/repository"
)

// LoginResult はログイン成功時の結果。
type LoginResult struct {
	User        *model.User
	AccessToken string
	ExpiresAt   time.Time
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	tokens   *TokenManager
	userRepo repository.UserRepository
}

// NewService はServiceを生成する。
func NewService(tokens *TokenManager, userRepo repository.UserRepository) *Service {
	return &Service{
		tokens:   tokens,
		userRepo: userRepo,
	}
}

// Authenticate はアクセストークンを検証し、対応するユーザーを返す。
// 失敗時は常に *model.APIError を返す。ストアの障害時も認証失敗として扱う。
func (s *Service) Authenticate(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, model.NewUnauthorizedError()
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		return nil, model.NewInvalidAccessTokenError(err.Error())
	}

	user, err := s.userRepo.FindByID(ctx, claims.UserID)
	if err != nil {
		slog.Error("failed to load authenticated user",
			slog.String("user_id", claims.UserID),
			slog.String("error", err.Error()),
		)
		return nil, model.NewInvalidAccessTokenError("")
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}

	return user, nil
}

// Login はユーザー名またはメールアドレスとパスワードで認証し、アクセストークンを発行する。
func (s *Service) Login(ctx context.Context, login, password string) (*LoginResult, error) {
	cred, err := s.userRepo.FindCredentialsByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("failed to find user credentials: %w", err)
	}
	if cred == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return nil, model.NewInvalidCredentialsError()
	}

	token, err := s.tokens.Issue(cred.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	slog.Info("user logged in", slog.String("user_id", cred.ID))

	user := cred.User
	return &LoginResult{
		User:        &user,
		AccessToken: token,
		ExpiresAt:   time.Now().Add(s.tokens.TTL()),
	}, nil
}
