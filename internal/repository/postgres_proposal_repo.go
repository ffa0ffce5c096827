package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/thapelo/proposalhub/internal/model"
)

// PostgresProposalRepo はPostgreSQLを使用した提案書リポジトリ。
type PostgresProposalRepo struct {
	db *sql.DB
}

// NewPostgresProposalRepo はPostgresProposalRepoを生成する。
func NewPostgresProposalRepo(db *sql.DB) *PostgresProposalRepo {
	return &PostgresProposalRepo{db: db}
}

const proposalColumns = `id, user_id, title, content, proposal_type, file_path, analysis_score, feedback, status, created_at, updated_at`

// scanProposal は1行を*model.Proposalに変換する。
func scanProposal(scan func(dest ...any) error) (*model.Proposal, error) {
	p := &model.Proposal{}
	var filePath sql.NullString
	var score sql.NullFloat64
	var feedback []byte

	err := scan(
		&p.ID, &p.UserID, &p.Title, &p.Content, &p.ProposalType,
		&filePath, &score, &feedback, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if filePath.Valid {
		p.FilePath = filePath.String
	}
	if score.Valid {
		v := score.Float64
		p.AnalysisScore = &v
	}
	if len(feedback) > 0 {
		p.Feedback = feedback
	}

	return p, nil
}

// FindByIDAndUser は指定IDかつ指定ユーザー所有の提案書を取得する。
// 見つからない場合（他ユーザー所有を含む）はnilを返す。
func (r *PostgresProposalRepo) FindByIDAndUser(ctx context.Context, id, userID string) (*model.Proposal, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE id = $1 AND user_id = $2`,
		id, userID,
	)

	p, err := scanProposal(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}

	return p, nil
}

// ListByUserID はユーザーの提案書一覧をcreated_at降順で返す。
func (r *PostgresProposalRepo) ListByUserID(ctx context.Context, userID string) ([]*model.Proposal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals WHERE user_id = $1 ORDER BY created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// Create は提案書を作成する。
func (r *PostgresProposalRepo) Create(ctx context.Context, proposal *model.Proposal) error {
	var filePath any
	if proposal.FilePath != "" {
		filePath = proposal.FilePath
	}
	var score any
	if proposal.AnalysisScore != nil {
		score = *proposal.AnalysisScore
	}
	var feedback any
	if len(proposal.Feedback) > 0 {
		feedback = []byte(proposal.Feedback)
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO proposals (id, user_id, title, content, proposal_type, file_path, analysis_score, feedback, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		proposal.ID, proposal.UserID, proposal.Title, proposal.Content, proposal.ProposalType,
		filePath, score, feedback, proposal.Status, proposal.CreatedAt, proposal.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert proposal: %w", err)
	}
	return nil
}

// UpdateAnalysis は分析結果（スコア・フィードバック・ステータス）を更新する。
func (r *PostgresProposalRepo) UpdateAnalysis(ctx context.Context, id string, score float64, feedback []byte, status model.ProposalStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE proposals
		 SET analysis_score = $1, feedback = $2, status = $3, updated_at = $4
		 WHERE id = $5`,
		score, feedback, status, time.Now(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to update proposal analysis: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("proposal not found: %s", id)
	}
	return nil
}

// ListStaleProcessing は指定日数より前に作成され、processingのまま残っている提案書を返す。
func (r *PostgresProposalRepo) ListStaleProcessing(ctx context.Context, olderThanDays int) ([]*model.Proposal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+proposalColumns+` FROM proposals
		 WHERE status = 'processing' AND created_at < now() - ($1 * INTERVAL '1 day')`,
		olderThanDays,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale proposals: %w", err)
	}
	defer rows.Close()

	var proposals []*model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}

	return proposals, rows.Err()
}

// DeleteByID は指定IDの提案書を削除する。
func (r *PostgresProposalRepo) DeleteByID(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM proposals WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete proposal: %w", err)
	}
	return nil
}

// compile-time interface check
var _ ProposalRepository = (*PostgresProposalRepo)(nil)
