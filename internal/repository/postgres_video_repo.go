package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/hitoshi/tubeline/internal/model"
)

// PostgresVideoRepo はPostgreSQLを使用した動画リポジトリ。
type PostgresVideoRepo struct {
	db *sql.DB
}

// NewPostgresVideoRepo はPostgresVideoRepoを生成する。
func NewPostgresVideoRepo(db *sql.DB) *PostgresVideoRepo {
	return &PostgresVideoRepo{db: db}
}

// ListByOwners は投稿者IDごとの動画一覧をseq昇順（挿入順）で返す。
// 動画のない投稿者はマップに含まれない。
func (r *PostgresVideoRepo) ListByOwners(ctx context.Context, ownerIDs []string) (map[string][]model.Video, error) {
	videos := make(map[string][]model.Video)
	if len(ownerIDs) == 0 {
		return videos, nil
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, seq, owner_id, video_file, thumbnail, title, description, duration, views, created_at
		 FROM videos
		 WHERE owner_id = ANY($1)
		 ORDER BY seq ASC`,
		pq.Array(ownerIDs),
	)
	if err != nil {
		return nil, fmt.Errorf("動画一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var v model.Video
		if err := rows.Scan(&v.ID, &v.Seq, &v.OwnerID, &v.VideoFile, &v.Thumbnail,
			&v.Title, &v.Description, &v.Duration, &v.Views, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("動画行の読み取りに失敗しました: %w", err)
		}
		videos[v.OwnerID] = append(videos[v.OwnerID], v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("動画一覧の走査に失敗しました: %w", err)
	}
	return videos, nil
}

// compile-time interface check
var _ VideoRepository = (*PostgresVideoRepo)(nil)
