// Package cleanup は保持期間を超過した問い合わせの自動削除ジョブを提供する。
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// Purger は作成日時がcutoffより前の問い合わせを削除するインターフェース。
// repository.ContactRepository が満たす。
type Purger interface {
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupJob は保持期間を超過した問い合わせの削除ジョブ。
// 削除対象がなくてもエラーにならない。
type CleanupJob struct {
	purger        Purger
	logger        *slog.Logger
	now           func() time.Time
	RetentionDays int // 問い合わせの保持日数（デフォルト: 365）
}

// NewCleanupJob は新しいCleanupJobを生成する。
func NewCleanupJob(purger Purger, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		purger:        purger,
		logger:        logger,
		now:           time.Now,
		RetentionDays: 365,
	}
}

// Run は created_at が RetentionDays 日前より古い問い合わせを削除する。
func (j *CleanupJob) Run(ctx context.Context) error {
	start := j.now()
	cutoff := start.AddDate(0, 0, -j.RetentionDays)

	deleted, err := j.purger.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		j.logger.Error("問い合わせクリーンアップジョブの実行に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("retention_days", j.RetentionDays),
		)
		return fmt.Errorf("問い合わせクリーンアップの実行に失敗: %w", err)
	}

	j.logger.Info("問い合わせクリーンアップジョブが完了しました",
		slog.Int64("deleted_count", deleted),
		slog.Int("retention_days", j.RetentionDays),
		slog.Time("cutoff", cutoff),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)
	return nil
}

// Start は起動直後に1回、その後interval間隔でRunを実行する。
// コンテキストがキャンセルされるまで実行を継続する。
func (j *CleanupJob) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	j.logger.Info("問い合わせクリーンアップスケジューラを開始しました",
		slog.Duration("interval", interval),
	)

	// エラーはRun内でログ出力済み
	_ = j.Run(ctx)

	for {
		select {
		case <-ctx.Done():
			j.logger.Info("問い合わせクリーンアップスケジューラを停止しました")
			return
		case <-ticker.C:
			_ = j.Run(ctx)
		}
	}
}
