// Package model はドメインモデルを定義する。
package model

import "time"

// FundingSource は資金提供元（政府系ファンド、VC、開発金融機関等）を表す。
type FundingSource struct {
	ID                  string
	Name                string
	Description         string
	AmountRange         string
	EligibilityCriteria []string
	ApplicationDeadline *time.Time
	IndustryFocus       []string
	ContactWebsite      string
	ContactEmail        string
	Requirements        []string
	IsActive            bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FundingMatch は提案書と資金提供元のマッチング結果を表す。
type FundingMatch struct {
	ID                string
	ProposalID        string
	FundingSourceID   string
	MatchScore        float64
	EligibilityStatus EligibilityStatus
	Rationale         string
	CreatedAt         time.Time
}

// EligibilityStatus は資金提供元への適格性を表す。
type EligibilityStatus string

const (
	// EligibilityEligible は適格（マッチスコア70以上）。
	EligibilityEligible EligibilityStatus = "eligible"
	// EligibilityPartial は部分的に適格（マッチスコア40以上70未満）。
	EligibilityPartial EligibilityStatus = "partially_eligible"
	// EligibilityNotEligible は不適格（マッチスコア40未満）。
	EligibilityNotEligible EligibilityStatus = "not_eligible"
)

// EligibilityFromScore はマッチスコアから適格性ステータスを決定する。
func EligibilityFromScore(score float64) EligibilityStatus {
	switch {
	case score >= 70:
		return EligibilityEligible
	case score >= 40:
		return EligibilityPartial
	default:
		return EligibilityNotEligible
	}
}
