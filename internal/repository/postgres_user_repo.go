package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hitoshi/tubeline/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, created_at, updated_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Username, &user.Email, &user.FullName, &user.Avatar, &user.CreatedAt, &user.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindCredentialsByLogin はユーザー名またはメールアドレスでユーザーを検索する。
// ユーザー名は小文字で保存されているため、比較も小文字で行う。
func (r *PostgresUserRepo) FindCredentialsByLogin(ctx context.Context, login string) (*model.UserCredentials, error) {
	cred := &model.UserCredentials{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username, email, full_name, avatar, created_at, updated_at, password_hash
		 FROM users WHERE username = LOWER($1) OR email = $1
		 LIMIT 1`,
		login,
	).Scan(&cred.ID, &cred.Username, &cred.Email, &cred.FullName, &cred.Avatar,
		&cred.CreatedAt, &cred.UpdatedAt, &cred.PasswordHash)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user credentials: %w", err)
	}

	return cred, nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
