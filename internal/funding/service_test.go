package funding

import (
	"context"
	"errors"
	"testing"

	"github.com/thapelo/proposalhub/internal/model"
)

// mockMatchRepo はFundingMatchRepositoryのモック実装。
type mockMatchRepo struct {
	replaceForProposalFn func(ctx context.Context, proposalID string, matches []*model.FundingMatch) error
}

func (m *mockMatchRepo) ReplaceForProposal(ctx context.Context, proposalID string, matches []*model.FundingMatch) error {
	if m.replaceForProposalFn != nil {
		return m.replaceForProposalFn(ctx, proposalID, matches)
	}
	return nil
}

func TestRecommendationService_RecommendForProposal(t *testing.T) {
	recommendations := []*Recommendation{
		{
			Source:            &model.FundingSource{ID: "src-1", Name: "National Empowerment Fund (NEF)"},
			MatchScore:        80,
			EligibilityStatus: model.EligibilityEligible,
			Rationale:         "Strong industry alignment",
		},
		{
			Source:            &model.FundingSource{ID: "src-2", Name: "Technology Innovation Agency (TIA)"},
			MatchScore:        55,
			EligibilityStatus: model.EligibilityPartial,
			Rationale:         "Partial criteria match",
		},
	}
	matcher := &mockMatcher{
		recommendFn: func(ctx context.Context, proposalContent string) ([]*Recommendation, error) {
			return recommendations, nil
		},
	}

	var persisted []*model.FundingMatch
	var persistedProposalID string
	matchRepo := &mockMatchRepo{
		replaceForProposalFn: func(ctx context.Context, proposalID string, matches []*model.FundingMatch) error {
			persistedProposalID = proposalID
			persisted = matches
			return nil
		},
	}

	svc := NewRecommendationService(matcher, matchRepo)
	got, err := svc.RecommendForProposal(context.Background(), "prop-1", "technology startup content")
	if err != nil {
		t.Fatalf("RecommendForProposal() error = %v", err)
	}

	if len(got) != 2 {
		t.Fatalf("recommendations = %d entries, want 2", len(got))
	}
	if persistedProposalID != "prop-1" {
		t.Errorf("persisted proposal ID = %q, want prop-1", persistedProposalID)
	}
	if len(persisted) != 2 {
		t.Fatalf("persisted matches = %d entries, want 2", len(persisted))
	}
	for i, match := range persisted {
		if match.ID == "" {
			t.Errorf("match[%d].ID is empty", i)
		}
		if match.ProposalID != "prop-1" {
			t.Errorf("match[%d].ProposalID = %q, want prop-1", i, match.ProposalID)
		}
		if match.FundingSourceID != recommendations[i].Source.ID {
			t.Errorf("match[%d].FundingSourceID = %q, want %q", i, match.FundingSourceID, recommendations[i].Source.ID)
		}
		if match.MatchScore != recommendations[i].MatchScore {
			t.Errorf("match[%d].MatchScore = %v, want %v", i, match.MatchScore, recommendations[i].MatchScore)
		}
		if match.CreatedAt.IsZero() {
			t.Errorf("match[%d].CreatedAt is zero", i)
		}
	}
}

func TestRecommendationService_RecommendForProposal_MatcherError(t *testing.T) {
	matcher := &mockMatcher{
		recommendFn: func(ctx context.Context, proposalContent string) ([]*Recommendation, error) {
			return nil, errors.New("database unavailable")
		},
	}
	persistCalled := false
	matchRepo := &mockMatchRepo{
		replaceForProposalFn: func(ctx context.Context, proposalID string, matches []*model.FundingMatch) error {
			persistCalled = true
			return nil
		},
	}

	svc := NewRecommendationService(matcher, matchRepo)
	if _, err := svc.RecommendForProposal(context.Background(), "prop-1", "content"); err == nil {
		t.Fatal("RecommendForProposal() error = nil, want error")
	}
	if persistCalled {
		t.Error("ReplaceForProposal should not be called when matching fails")
	}
}

func TestRecommendationService_RecommendForProposal_PersistError(t *testing.T) {
	matcher := &mockMatcher{
		recommendFn: func(ctx context.Context, proposalContent string) ([]*Recommendation, error) {
			return []*Recommendation{
				{Source: &model.FundingSource{ID: "src-1", Name: "SEFA"}, MatchScore: 50},
			}, nil
		},
	}
	matchRepo := &mockMatchRepo{
		replaceForProposalFn: func(ctx context.Context, proposalID string, matches []*model.FundingMatch) error {
			return errors.New("write failed")
		},
	}

	svc := NewRecommendationService(matcher, matchRepo)
	if _, err := svc.RecommendForProposal(context.Background(), "prop-1", "content"); err == nil {
		t.Fatal("RecommendForProposal() error = nil, want error")
	}
}

func TestSeedSources(t *testing.T) {
	var upserted []*model.FundingSource
	repo := &mockSourceRepo{
		upsertByNameFn: func(ctx context.Context, source *model.FundingSource) error {
			upserted = append(upserted, source)
			return nil
		},
	}

	if err := SeedSources(context.Background(), repo); err != nil {
		t.Fatalf("SeedSources() error = %v", err)
	}

	if len(upserted) != len(seedSources) {
		t.Fatalf("upserted %d sources, want %d", len(upserted), len(seedSources))
	}
	names := make(map[string]bool, len(upserted))
	for _, source := range upserted {
		if !source.IsActive {
			t.Errorf("seeded source %q is not active", source.Name)
		}
		names[source.Name] = true
	}
	for _, want := range []string{
		"National Empowerment Fund (NEF)",
		"Technology Innovation Agency (TIA)",
		"Land Bank of South Africa",
	} {
		if !names[want] {
			t.Errorf("seeded sources missing %q", want)
		}
	}
}

func TestSeedSources_UpsertError_Service(t *testing.T) {
	repo := &mockSourceRepo{
		upsertByNameFn: func(ctx context.Context, source *model.FundingSource) error {
			return errors.New("connection refused")
		},
	}

	if err := SeedSources(context.Background(), repo); err == nil {
		t.Fatal("SeedSources() error = nil, want error")
	}
}
