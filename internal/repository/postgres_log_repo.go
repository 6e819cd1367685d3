package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/hitoshi/tubeline/internal/model"
)

// PostgresLogRepo はPostgreSQLを使用したユーザーイベントログのリポジトリ。
type PostgresLogRepo struct {
	db *sql.DB
}

// NewPostgresLogRepo はPostgresLogRepoを生成する。
func NewPostgresLogRepo(db *sql.DB) *PostgresLogRepo {
	return &PostgresLogRepo{db: db}
}

// Create はログを1件保存する。
func (r *PostgresLogRepo) Create(ctx context.Context, record *model.LogRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO logs (id, user_id, log_type, message, timestamp)
		 VALUES ($1, $2, $3, $4, $5)`,
		record.ID, record.UserID, record.LogType, record.Message, record.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("ログの保存に失敗しました: %w", err)
	}
	return nil
}

// List はフィルタに一致するログをtimestamp降順で返す。
// From は含み、To は含まない。
func (r *PostgresLogRepo) List(ctx context.Context, filter model.LogFilter) ([]model.LogRecord, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{filter.UserID}
	if filter.From != nil {
		args = append(args, *filter.From)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if filter.To != nil {
		args = append(args, *filter.To)
		conds = append(conds, fmt.Sprintf("timestamp < $%d", len(args)))
	}

	query := `SELECT id, user_id, log_type, message, timestamp FROM logs WHERE ` +
		strings.Join(conds, " AND ") +
		` ORDER BY timestamp DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ログ一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	logs := []model.LogRecord{}
	for rows.Next() {
		var rec model.LogRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.LogType, &rec.Message, &rec.Timestamp); err != nil {
			return nil, fmt.Errorf("ログ行の読み取りに失敗しました: %w", err)
		}
		logs = append(logs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ログ一覧の走査に失敗しました: %w", err)
	}
	return logs, nil
}

// compile-time interface check
var _ LogRepository = (*PostgresLogRepo)(nil)
