package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thapelo/proposalhub/internal/funding"
	"github.com/thapelo/proposalhub/internal/middleware"
	"github.com/thapelo/proposalhub/internal/model"
)

// ProposalReader は資金調達ハンドラーが提案書を参照するためのインターフェース。
// 所有者チェックは実装側で行われる。
type ProposalReader interface {
	Get(ctx context.Context, userID, proposalID string) (*model.Proposal, error)
}

// FundingHandler は資金調達マッチングのHTTPハンドラー。
type FundingHandler struct {
	recommender funding.RecommendationService
	searcher    funding.SearcherService
	proposals   ProposalReader
}

// NewFundingHandler はFundingHandlerを生成する。
func NewFundingHandler(recommender funding.RecommendationService, searcher funding.SearcherService, proposals ProposalReader) *FundingHandler {
	return &FundingHandler{
		recommender: recommender,
		searcher:    searcher,
		proposals:   proposals,
	}
}

// fundingSourceResponse は推薦レスポンス内の資金提供元。
type fundingSourceResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description"`
	AmountRange   string   `json:"amount_range"`
	IndustryFocus []string `json:"industry_focus"`
	Website       string   `json:"website"`
}

// recommendationResponse は1件の推薦。
type recommendationResponse struct {
	Source            fundingSourceResponse   `json:"source"`
	MatchScore        float64                 `json:"match_score"`
	EligibilityStatus model.EligibilityStatus `json:"eligibility_status"`
	Rationale         string                  `json:"rationale"`
}

// GetRecommendations は提案書に対する資金提供元の推薦を返す。
// GET /api/funding-recommendations/{id}
func (h *FundingHandler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	proposalID := chi.URLParam(r, "id")
	p, err := h.proposals.Get(r.Context(), userID, proposalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	recommendations, err := h.recommender.RecommendForProposal(r.Context(), p.ID, p.Content)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	responses := make([]recommendationResponse, 0, len(recommendations))
	for _, rec := range recommendations {
		responses = append(responses, recommendationResponse{
			Source: fundingSourceResponse{
				ID:            rec.Source.ID,
				Name:          rec.Source.Name,
				Description:   rec.Source.Description,
				AmountRange:   rec.Source.AmountRange,
				IndustryFocus: rec.Source.IndustryFocus,
				Website:       rec.Source.ContactWebsite,
			},
			MatchScore:        rec.MatchScore,
			EligibilityStatus: rec.EligibilityStatus,
			Rationale:         rec.Rationale,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Funding recommendations generated successfully",
		"recommendations": responses,
	})
}

// searchFundersRequest は資金提供元検索のリクエストボディ。
// proposal_idを指定すると、欠けているパラメータを提案書の内容から補完する。
type searchFundersRequest struct {
	ProposalID          string `json:"proposal_id"`
	Industry            string `json:"industry"`
	BusinessType        string `json:"business_type"`
	FundingRequirements string `json:"funding_requirements"`
}

// SearchFunders はリアルタイムの資金提供元検索を処理する。
// POST /api/search-funders
func (h *FundingHandler) SearchFunders(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req searchFundersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	params := funding.SearchParams{
		Industry:      req.Industry,
		BusinessType:  req.BusinessType,
		FundingAmount: req.FundingRequirements,
	}

	if req.ProposalID != "" {
		p, err := h.proposals.Get(r.Context(), userID, req.ProposalID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		params = h.searcher.FillParamsFromProposal(params, p.Content)
	}

	result, err := h.searcher.Search(r.Context(), params)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "Real-time funder search completed",
		"funders":        result.Funders,
		"search_queries": result.SearchQueries,
		"total_found":    result.TotalFound,
	})
}
