// Package cleanup はアップロードファイルと提案書の自動整理ジョブを提供する。
// 抽出に失敗してprocessingのまま残った提案書の破棄と、
// どの提案書からも参照されていないアップロードファイルの削除を
// 日次バッチで実行する。
package cleanup

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/thapelo/proposalhub/internal/repository"
)

// Database は孤立ファイル走査に必要なSQL実行のインターフェース。
// *sql.DB がそのまま満たす。
type Database interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
}

// orphanFileMinAge は孤立ファイルとして削除対象にする最小経過時間。
// アップロード直後でまだDB行が確定していないファイルを誤削除しないための猶予。
const orphanFileMinAge = 24 * time.Hour

// CleanupJob は停滞した提案書と孤立アップロードファイルの自動整理ジョブ。
// 日次実行のバッチジョブとして設計されており、冪等な削除処理を保証する。
type CleanupJob struct {
	proposals repository.ProposalRepository
	db        Database
	uploadDir string
	logger    *slog.Logger
	StaleDays int // processingのまま放置された提案書の保持日数（デフォルト: 7）
}

// NewCleanupJob は新しいCleanupJobを生成する。
// デフォルトの保持日数は7日。
func NewCleanupJob(proposals repository.ProposalRepository, db Database, uploadDir string, logger *slog.Logger) *CleanupJob {
	return &CleanupJob{
		proposals: proposals,
		db:        db,
		uploadDir: uploadDir,
		logger:    logger,
		StaleDays: 7,
	}
}

// Run は停滞提案書の削除と孤立ファイルの削除を順に実行する。
// 冪等: 削除対象がない場合でもエラーにならない。
func (j *CleanupJob) Run(ctx context.Context) error {
	if err := j.cleanupStaleProposals(ctx); err != nil {
		return err
	}
	return j.cleanupOrphanFiles(ctx)
}

// cleanupStaleProposals は保持期間を超えてprocessingのまま残った提案書を削除する。
// 提案書のアップロードファイルも一緒に削除する。
// funding_matchesはCASCADE削除により自動的に削除される。
func (j *CleanupJob) cleanupStaleProposals(ctx context.Context) error {
	start := time.Now()

	stale, err := j.proposals.ListStaleProcessing(ctx, j.StaleDays)
	if err != nil {
		j.logger.Error("停滞提案書の一覧取得に失敗しました",
			slog.String("error", err.Error()),
			slog.Int("stale_days", j.StaleDays),
		)
		return fmt.Errorf("停滞提案書の一覧取得に失敗: %w", err)
	}

	deleted := 0
	for _, p := range stale {
		if err := j.proposals.DeleteByID(ctx, p.ID); err != nil {
			j.logger.Error("停滞提案書の削除に失敗しました",
				slog.String("proposal_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		if p.FilePath != "" {
			if err := os.Remove(p.FilePath); err != nil && !os.IsNotExist(err) {
				j.logger.Error("停滞提案書のファイル削除に失敗しました",
					slog.String("path", p.FilePath),
					slog.String("error", err.Error()),
				)
			}
		}
		deleted++
	}

	j.logger.Info("停滞提案書クリーンアップが完了しました",
		slog.Int("deleted_count", deleted),
		slog.Int("stale_days", j.StaleDays),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// cleanupOrphanFiles はどの提案書からも参照されていないアップロードファイルを削除する。
// 猶予期間内の新しいファイルは削除しない。
func (j *CleanupJob) cleanupOrphanFiles(ctx context.Context) error {
	start := time.Now()

	entries, err := os.ReadDir(j.uploadDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("アップロードディレクトリの読み取りに失敗: %w", err)
	}

	referenced, err := j.referencedFiles(ctx)
	if err != nil {
		return err
	}

	removed := j.removeOrphans(entries, referenced)

	j.logger.Info("孤立ファイルクリーンアップが完了しました",
		slog.Int("removed_count", removed),
		slog.Float64("duration_ms", float64(time.Since(start).Milliseconds())),
	)

	return nil
}

// removeOrphans は参照されていない古いファイルを削除し、削除件数を返す。
func (j *CleanupJob) removeOrphans(entries []os.DirEntry, referenced map[string]bool) int {
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		path := filepath.Join(j.uploadDir, entry.Name())
		if referenced[path] {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if time.Since(info.ModTime()) < orphanFileMinAge {
			continue
		}

		if err := os.Remove(path); err != nil {
			j.logger.Error("孤立ファイルの削除に失敗しました",
				slog.String("path", path),
				slog.String("error", err.Error()),
			)
			continue
		}
		removed++
	}
	return removed
}

// referencedFiles は提案書から参照されているファイルパスの集合を返す。
func (j *CleanupJob) referencedFiles(ctx context.Context) (map[string]bool, error) {
	rows, err := j.db.QueryContext(ctx, `SELECT file_path FROM proposals WHERE file_path <> ''`)
	if err != nil {
		return nil, fmt.Errorf("参照ファイル一覧の取得に失敗: %w", err)
	}
	defer rows.Close()

	referenced := make(map[string]bool)
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("参照ファイルパスの読み取りに失敗: %w", err)
		}
		referenced[path] = true
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("参照ファイル一覧の走査に失敗: %w", err)
	}

	return referenced, nil
}
