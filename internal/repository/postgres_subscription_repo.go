package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/hitoshi/tubeline/internal/model"
)

// ErrChannelNotFound は購読対象のチャンネル（ユーザー）が存在しない場合に返される。
var ErrChannelNotFound = errors.New("channel not found")

// pgForeignKeyViolation はPostgreSQLの外部キー制約違反のエラーコード。
const pgForeignKeyViolation = "23503"

// PostgresSubscriptionRepo はPostgreSQLを使用した購読リポジトリ。
type PostgresSubscriptionRepo struct {
	db *sql.DB
}

// NewPostgresSubscriptionRepo はPostgresSubscriptionRepoを生成する。
func NewPostgresSubscriptionRepo(db *sql.DB) *PostgresSubscriptionRepo {
	return &PostgresSubscriptionRepo{db: db}
}

// Toggle は購読エッジの有無を単一トランザクション内で反転する。
// 先に削除を試み、削除対象がなければ ON CONFLICT DO NOTHING で挿入する。
// 同一ペアへの並行トグルでもUNIQUE制約によりエッジは高々1件に収束する。
func (r *PostgresSubscriptionRepo) Toggle(ctx context.Context, subscriberID, channelID string) (bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`DELETE FROM subscriptions WHERE subscriber_id = $1 AND channel_id = $2`,
		subscriberID, channelID,
	)
	if err != nil {
		return false, fmt.Errorf("購読の削除に失敗しました: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("削除結果の取得に失敗しました: %w", err)
	}

	subscribed := deleted == 0
	if subscribed {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO subscriptions (id, subscriber_id, channel_id, created_at)
			 VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (subscriber_id, channel_id) DO NOTHING`,
			uuid.New().String(), subscriberID, channelID,
		)
		if err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && string(pqErr.Code) == pgForeignKeyViolation {
				return false, ErrChannelNotFound
			}
			return false, fmt.Errorf("購読の作成に失敗しました: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return subscribed, nil
}

// ListChannelSubscribers はチャンネルの購読者一覧を購読日時の昇順で返す。
// subscribedToSubscriber はチャンネル自身がその購読者を購読しているかを表す。
func (r *PostgresSubscriptionRepo) ListChannelSubscribers(ctx context.Context, channelID string) ([]model.ChannelSubscriber, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, u.id, u.username, u.full_name, u.avatar,
		        EXISTS (SELECT 1 FROM subscriptions m
		                WHERE m.subscriber_id = $1 AND m.channel_id = u.id),
		        (SELECT COUNT(*) FROM subscriptions c WHERE c.channel_id = u.id)
		 FROM subscriptions s
		 JOIN users u ON u.id = s.subscriber_id
		 WHERE s.channel_id = $1
		 ORDER BY s.created_at ASC`,
		channelID,
	)
	if err != nil {
		return nil, fmt.Errorf("購読者一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	subscribers := []model.ChannelSubscriber{}
	for rows.Next() {
		var cs model.ChannelSubscriber
		if err := rows.Scan(
			&cs.SubscriptionID,
			&cs.Subscriber.ID, &cs.Subscriber.Username, &cs.Subscriber.FullName, &cs.Subscriber.Avatar,
			&cs.SubscribedToSubscriber, &cs.SubscriberCount,
		); err != nil {
			return nil, fmt.Errorf("購読者行の読み取りに失敗しました: %w", err)
		}
		subscribers = append(subscribers, cs)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読者一覧の走査に失敗しました: %w", err)
	}
	return subscribers, nil
}

// ListSubscribedChannels はユーザーが購読しているチャンネル一覧を購読日時の昇順で返す。
func (r *PostgresSubscriptionRepo) ListSubscribedChannels(ctx context.Context, subscriberID string) ([]model.SubscribedChannel, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT s.id, u.id, u.username, u.full_name, u.avatar
		 FROM subscriptions s
		 JOIN users u ON u.id = s.channel_id
		 WHERE s.subscriber_id = $1
		 ORDER BY s.created_at ASC`,
		subscriberID,
	)
	if err != nil {
		return nil, fmt.Errorf("購読チャンネル一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	channels := []model.SubscribedChannel{}
	for rows.Next() {
		var sc model.SubscribedChannel
		if err := rows.Scan(
			&sc.SubscriptionID,
			&sc.Channel.ID, &sc.Channel.Username, &sc.Channel.FullName, &sc.Channel.Avatar,
		); err != nil {
			return nil, fmt.Errorf("購読チャンネル行の読み取りに失敗しました: %w", err)
		}
		channels = append(channels, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("購読チャンネル一覧の走査に失敗しました: %w", err)
	}
	return channels, nil
}

// compile-time interface check
var _ SubscriptionRepository = (*PostgresSubscriptionRepo)(nil)
