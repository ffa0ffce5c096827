// Package funding は資金提供元とのマッチング・推薦・検索機能を提供する。
package funding

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/repository"
)

// recommendationThreshold は推薦に含める最低マッチスコア。
const recommendationThreshold = 30

// maxRecommendations は1提案書あたりの推薦件数の上限。
const maxRecommendations = 5

// industryKeywords は提案書から業種を抽出するためのキーワード。
var industryKeywords = []string{
	"technology", "manufacturing", "agriculture", "healthcare",
	"education", "retail", "finance", "mining", "infrastructure",
}

// proposalKeywords は提案書から抽出した特徴量。
type proposalKeywords struct {
	industries   []string
	businessType string
	ownership    string
	location     string
}

// Recommendation は1件の資金提供元推薦。
type Recommendation struct {
	Source            *model.FundingSource
	MatchScore        float64
	EligibilityStatus model.EligibilityStatus
	Rationale         string
}

// MatcherService は提案書と資金提供元のマッチングのインターフェースを定義する。
type MatcherService interface {
	// Recommend は提案書の内容を分析し、スコア降順で上位5件までの推薦を返す。
	// マッチスコアが閾値（30）以下の資金提供元は含まれない。
	Recommend(ctx context.Context, proposalContent string) ([]*Recommendation, error)
}

// matcher はMatcherServiceの実装。
type matcher struct {
	sourceRepo repository.FundingSourceRepository
}

var _ MatcherService = (*matcher)(nil)

// NewMatcher はMatcherServiceを生成する。
func NewMatcher(sourceRepo repository.FundingSourceRepository) *matcher {
	return &matcher{sourceRepo: sourceRepo}
}

// Recommend は資金提供元の推薦リストを生成する。
func (m *matcher) Recommend(ctx context.Context, proposalContent string) ([]*Recommendation, error) {
	sources, err := m.sourceRepo.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding sources: %w", err)
	}

	keywords := extractKeywords(proposalContent)

	var recommendations []*Recommendation
	for _, source := range sources {
		score := calculateMatchScore(keywords, source)
		if score <= recommendationThreshold {
			continue
		}
		recommendations = append(recommendations, &Recommendation{
			Source:            source,
			MatchScore:        score,
			EligibilityStatus: model.EligibilityFromScore(score),
			Rationale:         generateRationale(keywords, source, score),
		})
	}

	sort.SliceStable(recommendations, func(i, j int) bool {
		return recommendations[i].MatchScore > recommendations[j].MatchScore
	})

	if len(recommendations) > maxRecommendations {
		recommendations = recommendations[:maxRecommendations]
	}

	return recommendations, nil
}

// extractKeywords は提案書の内容から業種・事業形態・所有形態・所在地を抽出する。
func extractKeywords(content string) proposalKeywords {
	lower := strings.ToLower(content)

	var keywords proposalKeywords
	for _, industry := range industryKeywords {
		if strings.Contains(lower, industry) {
			keywords.industries = append(keywords.industries, industry)
		}
	}

	switch {
	case strings.Contains(lower, "startup") || strings.Contains(lower, "small business") || strings.Contains(lower, "enterprise"):
		keywords.businessType = "startup"
	case strings.Contains(lower, "corporation") || strings.Contains(lower, "company") || strings.Contains(lower, "business"):
		keywords.businessType = "established"
	}

	if strings.Contains(lower, "black owned") || strings.Contains(lower, "black ownership") || strings.Contains(lower, "b-bbee") {
		keywords.ownership = "black"
	}

	if strings.Contains(lower, "south africa") || strings.Contains(lower, " sa ") {
		keywords.location = "south_africa"
	}

	return keywords
}

// calculateMatchScore は提案書と資金提供元のマッチスコア（0〜100）を算出する。
// 配点: 業種一致40点、適格基準一致30点、事業形態・所在地15点、黒人所有15点。
func calculateMatchScore(keywords proposalKeywords, source *model.FundingSource) float64 {
	var score float64

	// 業種一致（40点）: 資金提供元の対象業種のうち一致した割合
	if len(source.IndustryFocus) > 0 {
		matches := countIndustryMatches(keywords.industries, source.IndustryFocus)
		score += float64(matches) / float64(len(source.IndustryFocus)) * 40
	}

	// 適格基準一致（30点）: 基準ごとに均等配分
	if len(source.EligibilityCriteria) > 0 {
		per := 30 / float64(len(source.EligibilityCriteria))
		for _, criterion := range source.EligibilityCriteria {
			if criterionMatches(keywords, criterion) {
				score += per
			}
		}
	}

	// 事業形態と所在地の両方が判明している場合（15点）
	if keywords.businessType != "" && keywords.location != "" {
		score += 15
	}

	// 黒人所有向けプログラムとの一致（15点）
	if keywords.ownership == "black" && criteriaContain(source.EligibilityCriteria, "black ownership") {
		score += 15
	}

	if score > 100 {
		score = 100
	}
	return score
}

// countIndustryMatches は提案書の業種と資金提供元の対象業種の一致数を数える。
func countIndustryMatches(proposalIndustries, fundingIndustries []string) int {
	proposal := make(map[string]bool, len(proposalIndustries))
	for _, ind := range proposalIndustries {
		proposal[strings.ToLower(ind)] = true
	}

	matches := 0
	for _, ind := range fundingIndustries {
		if proposal[strings.ToLower(ind)] {
			matches++
		}
	}
	return matches
}

// criterionMatches は提案書が個別の適格基準を満たすかを判定する。
func criterionMatches(keywords proposalKeywords, criterion string) bool {
	lower := strings.ToLower(criterion)

	// 分析対象の提案書が存在する時点で事業計画書はあるとみなす
	if strings.Contains(lower, "business plan") {
		return true
	}
	if strings.Contains(lower, "black ownership") && keywords.ownership == "black" {
		return true
	}
	if strings.Contains(lower, "south africa") && keywords.location == "south_africa" {
		return true
	}
	return false
}

// criteriaContain は適格基準のいずれかが部分文字列を含むかを返す。
func criteriaContain(criteria []string, substring string) bool {
	for _, c := range criteria {
		if strings.Contains(strings.ToLower(c), substring) {
			return true
		}
	}
	return false
}

// generateRationale は推薦理由の文章を生成する。
func generateRationale(keywords proposalKeywords, source *model.FundingSource, score float64) string {
	var parts []string

	// 業種の重なり
	var common []string
	funding := make(map[string]bool, len(source.IndustryFocus))
	for _, ind := range source.IndustryFocus {
		funding[strings.ToLower(ind)] = true
	}
	for _, ind := range keywords.industries {
		if funding[strings.ToLower(ind)] {
			common = append(common, ind)
		}
	}
	if len(common) > 0 {
		parts = append(parts, fmt.Sprintf("Business operates in %s which aligns with funder's focus areas.", strings.Join(common, ", ")))
	}

	for _, criterion := range source.EligibilityCriteria {
		if criterionMatches(keywords, criterion) {
			parts = append(parts, "Meets criterion: "+criterion)
		}
	}

	switch {
	case score >= 70:
		parts = append(parts, "Strong match with funding requirements.")
	case score >= 40:
		parts = append(parts, "Moderate match - some requirements may need attention.")
	}

	if len(parts) == 0 {
		return "Standard business funding consideration."
	}
	return strings.Join(parts, " ")
}
