package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/thapelo/proposalhub/internal/model"
)

// PostgresFundingSourceRepo はPostgreSQLを使用した資金提供元リポジトリ。
type PostgresFundingSourceRepo struct {
	db *sql.DB
}

// NewPostgresFundingSourceRepo はPostgresFundingSourceRepoを生成する。
func NewPostgresFundingSourceRepo(db *sql.DB) *PostgresFundingSourceRepo {
	return &PostgresFundingSourceRepo{db: db}
}

// marshalList は文字列スライスをJSONB格納用のバイト列に変換する。
func marshalList(list []string) ([]byte, error) {
	if list == nil {
		list = []string{}
	}
	return json.Marshal(list)
}

// unmarshalList はJSONBバイト列を文字列スライスに変換する。NULLは空スライスとして扱う。
func unmarshalList(data []byte) ([]string, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	return list, nil
}

// scanFundingSource は1行を*model.FundingSourceに変換する。
func scanFundingSource(scan func(dest ...any) error) (*model.FundingSource, error) {
	s := &model.FundingSource{}
	var eligibility, industries, requirements []byte
	var deadline sql.NullTime
	var website, email sql.NullString

	err := scan(
		&s.ID, &s.Name, &s.Description, &s.AmountRange,
		&eligibility, &deadline, &industries, &website, &email, &requirements,
		&s.IsActive, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if s.EligibilityCriteria, err = unmarshalList(eligibility); err != nil {
		return nil, fmt.Errorf("failed to decode eligibility criteria: %w", err)
	}
	if s.IndustryFocus, err = unmarshalList(industries); err != nil {
		return nil, fmt.Errorf("failed to decode industry focus: %w", err)
	}
	if s.Requirements, err = unmarshalList(requirements); err != nil {
		return nil, fmt.Errorf("failed to decode requirements: %w", err)
	}
	if deadline.Valid {
		t := deadline.Time
		s.ApplicationDeadline = &t
	}
	if website.Valid {
		s.ContactWebsite = website.String
	}
	if email.Valid {
		s.ContactEmail = email.String
	}

	return s, nil
}

const fundingSourceColumns = `id, name, description, amount_range, eligibility_criteria, application_deadline, industry_focus, contact_website, contact_email, requirements, is_active, created_at, updated_at`

// ListActive はアクティブな資金提供元の一覧を返す。
func (r *PostgresFundingSourceRepo) ListActive(ctx context.Context) ([]*model.FundingSource, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fundingSourceColumns+` FROM funding_sources WHERE is_active = TRUE ORDER BY name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding sources: %w", err)
	}
	defer rows.Close()

	var sources []*model.FundingSource
	for rows.Next() {
		s, err := scanFundingSource(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan funding source: %w", err)
		}
		sources = append(sources, s)
	}

	return sources, rows.Err()
}

// Count は資金提供元の総数を返す。
func (r *PostgresFundingSourceRepo) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM funding_sources`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count funding sources: %w", err)
	}
	return count, nil
}

// Create は資金提供元を作成する。
func (r *PostgresFundingSourceRepo) Create(ctx context.Context, source *model.FundingSource) error {
	eligibility, err := marshalList(source.EligibilityCriteria)
	if err != nil {
		return fmt.Errorf("failed to encode eligibility criteria: %w", err)
	}
	industries, err := marshalList(source.IndustryFocus)
	if err != nil {
		return fmt.Errorf("failed to encode industry focus: %w", err)
	}
	requirements, err := marshalList(source.Requirements)
	if err != nil {
		return fmt.Errorf("failed to encode requirements: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO funding_sources (id, name, description, amount_range, eligibility_criteria, application_deadline, industry_focus, contact_website, contact_email, requirements, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		source.ID, source.Name, source.Description, source.AmountRange,
		eligibility, source.ApplicationDeadline, industries,
		nullIfEmpty(source.ContactWebsite), nullIfEmpty(source.ContactEmail), requirements,
		source.IsActive, source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert funding source: %w", err)
	}
	return nil
}

// UpsertByName は名前をキーに資金提供元を冪等に作成・更新する。
func (r *PostgresFundingSourceRepo) UpsertByName(ctx context.Context, source *model.FundingSource) error {
	eligibility, err := marshalList(source.EligibilityCriteria)
	if err != nil {
		return fmt.Errorf("failed to encode eligibility criteria: %w", err)
	}
	industries, err := marshalList(source.IndustryFocus)
	if err != nil {
		return fmt.Errorf("failed to encode industry focus: %w", err)
	}
	requirements, err := marshalList(source.Requirements)
	if err != nil {
		return fmt.Errorf("failed to encode requirements: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO funding_sources (id, name, description, amount_range, eligibility_criteria, application_deadline, industry_focus, contact_website, contact_email, requirements, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 ON CONFLICT (name) DO UPDATE SET
		   description = EXCLUDED.description,
		   amount_range = EXCLUDED.amount_range,
		   eligibility_criteria = EXCLUDED.eligibility_criteria,
		   application_deadline = EXCLUDED.application_deadline,
		   industry_focus = EXCLUDED.industry_focus,
		   contact_website = EXCLUDED.contact_website,
		   contact_email = EXCLUDED.contact_email,
		   requirements = EXCLUDED.requirements,
		   is_active = EXCLUDED.is_active,
		   updated_at = EXCLUDED.updated_at`,
		source.ID, source.Name, source.Description, source.AmountRange,
		eligibility, source.ApplicationDeadline, industries,
		nullIfEmpty(source.ContactWebsite), nullIfEmpty(source.ContactEmail), requirements,
		source.IsActive, source.CreatedAt, source.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert funding source: %w", err)
	}
	return nil
}

// nullIfEmpty は空文字列をNULLとして格納するためのヘルパー。
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// compile-time interface check
var _ FundingSourceRepository = (*PostgresFundingSourceRepo)(nil)

// PostgresFundingMatchRepo はPostgreSQLを使用したマッチング結果リポジトリ。
type PostgresFundingMatchRepo struct {
	db *sql.DB
}

// NewPostgresFundingMatchRepo はPostgresFundingMatchRepoを生成する。
func NewPostgresFundingMatchRepo(db *sql.DB) *PostgresFundingMatchRepo {
	return &PostgresFundingMatchRepo{db: db}
}

// ReplaceForProposal は提案書の既存マッチング結果を削除し、新しい結果で置き換える。
// 削除と挿入は同一トランザクションで行う。
func (r *PostgresFundingMatchRepo) ReplaceForProposal(ctx context.Context, proposalID string, matches []*model.FundingMatch) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM funding_matches WHERE proposal_id = $1`, proposalID,
	); err != nil {
		return fmt.Errorf("failed to delete old matches: %w", err)
	}

	for _, m := range matches {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO funding_matches (id, proposal_id, funding_source_id, match_score, eligibility_status, rationale, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			m.ID, m.ProposalID, m.FundingSourceID, m.MatchScore, m.EligibilityStatus, m.Rationale, m.CreatedAt,
		); err != nil {
			return fmt.Errorf("failed to insert match: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// compile-time interface check
var _ FundingMatchRepository = (*PostgresFundingMatchRepo)(nil)
