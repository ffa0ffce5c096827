// Package model はドメインモデルを定義する。
package model

import (
	"encoding/json"
	"time"
)

// Proposal はビジネス提案書を表す。
// ContentはAI生成の場合は構造化JSON、アップロードの場合は整形済みテキスト。
type Proposal struct {
	ID            string
	UserID        string
	Title         string
	Content       string
	ProposalType  ProposalType
	FilePath      string
	AnalysisScore *float64
	Feedback      json.RawMessage
	Status        ProposalStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ProposalType は提案書の作成経路を表す。
type ProposalType string

const (
	// ProposalTypeGenerated はAIによる生成提案書。
	ProposalTypeGenerated ProposalType = "generated"
	// ProposalTypeUploadedEnhanced はアップロード後に整形・補完された提案書。
	ProposalTypeUploadedEnhanced ProposalType = "uploaded_enhanced"
)

// ProposalStatus は提案書の処理状態を表す。
type ProposalStatus string

const (
	// ProposalStatusDraft は下書き状態。
	ProposalStatusDraft ProposalStatus = "draft"
	// ProposalStatusProcessing はテキスト抽出が未完了の状態。
	ProposalStatusProcessing ProposalStatus = "processing"
	// ProposalStatusAnalyzed は分析が完了した状態。
	ProposalStatusAnalyzed ProposalStatus = "analyzed"
	// ProposalStatusCompleted は生成または抽出が成功した状態。
	ProposalStatusCompleted ProposalStatus = "completed"
)

// IsStructured はContentが構造化JSON（生成プラン）かどうかを判定する。
// 整形済みアップロード提案書はプレーンテキストとして扱う。
func (p *Proposal) IsStructured() bool {
	if p.ProposalType == ProposalTypeUploadedEnhanced {
		return false
	}
	trimmed := firstNonSpace(p.Content)
	return trimmed == '{'
}

// firstNonSpace は文字列の先頭の非空白文字を返す。空文字列の場合は0を返す。
func firstNonSpace(s string) byte {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r':
			continue
		default:
			return s[i]
		}
	}
	return 0
}
