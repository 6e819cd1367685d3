// Package cleanup はイベントログの保持期間管理ジョブを提供する。
// 保持日数が設定された場合のみ、それを超過した logs 行を日次で削除する。
// 保持日数0（既定）は無効を意味し、ログは削除されない。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRetentionDays はログ保持日数の既定値。0は削除無効。
const DefaultRetentionDays = 0

// DefaultInterval はジョブの実行間隔。
const DefaultInterval = 24 * time.Hour

// Executor はSQLのExecContextを抽象化するインターフェース。
// *sql.DB や *sql.Tx を受け付けることができる。
type Executor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// Metrics は削除件数を記録するインターフェース。
type Metrics interface {
	RecordLogsCleaned(count int64)
}

// Job は保持期間を超過したログの削除ジョブ。
// 削除対象がない場合も成功として扱う。
type Job struct {
	db            Executor
	logger        *slog.Logger
	metrics       Metrics
	RetentionDays int
	Interval      time.Duration
}

// NewJob は新しいJobを生成する。metricsはnilでもよい。
func NewJob(db Executor, logger *slog.Logger, metrics Metrics) *Job {
	return &Job{
		db:            db,
		logger:        logger,
		metrics:       metrics,
		RetentionDays: DefaultRetentionDays,
		Interval:      DefaultInterval,
	}
}

// Enabled は保持期間による削除が有効かどうかを返す。
func (j *Job) Enabled() bool {
	return j.RetentionDays > 0
}

// Run は timestamp が RetentionDays 日前より古いログを削除し、削除件数を返す。
// RetentionDays が0の場合は何もせず0件を返す。
func (j *Job) Run(ctx context.Context) (int64, error) {
	if j.RetentionDays < 0 {
		return 0, fmt.Errorf("保持日数に負の値は指定できません: %d", j.RetentionDays)
	}
	if !j.Enabled() {
		return 0, nil
	}

	start := time.Now()
	interval := fmt.Sprintf("%d days", j.RetentionDays)

	result, err := j.db.ExecContext(ctx, `DELETE FROM logs WHERE timestamp < now() - $1::interval`, interval)
	if err != nil {
		j.logger.Error("ログクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return 0, fmt.Errorf("ログクリーンアップの実行に失敗: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("削除件数の取得に失敗: %w", err)
	}

	if j.metrics != nil {
		j.metrics.RecordLogsCleaned(deleted)
	}

	j.logger.Info("ログクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return deleted, nil
}

// Start は起動直後に1回、以降はIntervalごとにRunを実行する。
// ctxがキャンセルされるまでブロックする。個々の実行の失敗でループは止めない。
// 削除が無効な場合はクエリを発行せずキャンセルを待つ。
func (j *Job) Start(ctx context.Context) {
	if !j.Enabled() {
		j.logger.Info("ログ保持期間が未設定のためクリーンアップは無効です")
		<-ctx.Done()
		j.logger.Info("ログクリーンアップジョブを停止しました")
		return
	}

	j.runOnce(ctx)

	ticker := time.NewTicker(j.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("ログクリーンアップジョブを停止しました")
			return
		case <-ticker.C:
			j.runOnce(ctx)
		}
	}
}

func (j *Job) runOnce(ctx context.Context) {
	if _, err := j.Run(ctx); err != nil && ctx.Err() == nil {
		j.logger.Warn("次回のクリーンアップで再試行します", slog.String("error", err.Error()))
	}
}
