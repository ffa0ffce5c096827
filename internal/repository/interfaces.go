// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"

	"github.com/thapelo/proposalhub/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	Create(ctx context.Context, user *model.User) error
}

// ProposalRepository は提案書データの永続化インターフェース。
// 提案書の所有権チェックはWHERE user_id句で行い、他ユーザーの提案書は存在しないものとして扱う。
type ProposalRepository interface {
	// FindByIDAndUser は指定IDかつ指定ユーザー所有の提案書を取得する。
	// 見つからない場合（他ユーザー所有を含む）はnilを返す。
	FindByIDAndUser(ctx context.Context, id, userID string) (*model.Proposal, error)

	// ListByUserID はユーザーの提案書一覧をcreated_at降順で返す。
	ListByUserID(ctx context.Context, userID string) ([]*model.Proposal, error)

	// Create は提案書を作成する。
	Create(ctx context.Context, proposal *model.Proposal) error

	// UpdateAnalysis は分析結果（スコア・フィードバック・ステータス）を更新する。
	UpdateAnalysis(ctx context.Context, id string, score float64, feedback []byte, status model.ProposalStatus) error

	// ListStaleProcessing は指定時刻より前に作成され、processingのまま残っている提案書を返す。
	ListStaleProcessing(ctx context.Context, olderThanDays int) ([]*model.Proposal, error)

	// DeleteByID は指定IDの提案書を削除する。
	DeleteByID(ctx context.Context, id string) error
}

// FundingSourceRepository は資金提供元データの永続化インターフェース。
type FundingSourceRepository interface {
	// ListActive はアクティブな資金提供元の一覧を返す。
	ListActive(ctx context.Context) ([]*model.FundingSource, error)

	// Count は資金提供元の総数を返す。
	Count(ctx context.Context) (int, error)

	// Create は資金提供元を作成する。
	Create(ctx context.Context, source *model.FundingSource) error

	// UpsertByName は名前をキーに資金提供元を冪等に作成・更新する。
	// フィード取り込みワーカーからの再取り込みで重複を作らないために使用する。
	UpsertByName(ctx context.Context, source *model.FundingSource) error
}

// FundingMatchRepository はマッチング結果の永続化インターフェース。
type FundingMatchRepository interface {
	// ReplaceForProposal は提案書の既存マッチング結果を削除し、新しい結果で置き換える。
	ReplaceForProposal(ctx context.Context, proposalID string, matches []*model.FundingMatch) error
}
