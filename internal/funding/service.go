package funding

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/repository"
)

// RecommendationService は提案書に対する推薦の生成と永続化を提供する。
type RecommendationService interface {
	// RecommendForProposal は提案書の内容から推薦を生成し、
	// 既存のマッチング結果を置き換えて保存する。
	RecommendForProposal(ctx context.Context, proposalID, proposalContent string) ([]*Recommendation, error)
}

// recommendationService はRecommendationServiceの実装。
type recommendationService struct {
	matcher   MatcherService
	matchRepo repository.FundingMatchRepository
}

var _ RecommendationService = (*recommendationService)(nil)

// NewRecommendationService はRecommendationServiceを生成する。
func NewRecommendationService(matcher MatcherService, matchRepo repository.FundingMatchRepository) *recommendationService {
	return &recommendationService{
		matcher:   matcher,
		matchRepo: matchRepo,
	}
}

// RecommendForProposal は推薦を生成し、提案書単位で保存する。
func (s *recommendationService) RecommendForProposal(ctx context.Context, proposalID, proposalContent string) ([]*Recommendation, error) {
	recommendations, err := s.matcher.Recommend(ctx, proposalContent)
	if err != nil {
		return nil, fmt.Errorf("failed to generate recommendations: %w", err)
	}

	now := time.Now()
	matches := make([]*model.FundingMatch, len(recommendations))
	for i, rec := range recommendations {
		matches[i] = &model.FundingMatch{
			ID:                uuid.New().String(),
			ProposalID:        proposalID,
			FundingSourceID:   rec.Source.ID,
			MatchScore:        rec.MatchScore,
			EligibilityStatus: rec.EligibilityStatus,
			Rationale:         rec.Rationale,
			CreatedAt:         now,
		}
	}

	if err := s.matchRepo.ReplaceForProposal(ctx, proposalID, matches); err != nil {
		return nil, fmt.Errorf("failed to persist funding matches: %w", err)
	}

	slog.Info("funding recommendations generated",
		slog.String("proposal_id", proposalID),
		slog.Int("count", len(recommendations)),
	)

	return recommendations, nil
}
