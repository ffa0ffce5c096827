package document

import "strings"

// expectedSectionCount は完成した事業計画書に期待されるセクション数。
const expectedSectionCount = 8

// analysisKeywords はセクション識別に使うキーワード。
// 整形済み・未整形どちらの文書にも緩やかにマッチするよう部分一致で判定する。
var analysisKeywords = map[string][]string{
	"executive_summary":   {"executive summary", "summary", "overview"},
	"company_description": {"company description", "business description", "about us"},
	"market_analysis":     {"market analysis", "market research", "industry analysis"},
	"organization":        {"organization", "management", "team", "structure"},
	"products_services":   {"product", "service", "offering", "solution"},
	"marketing":           {"marketing", "sales", "strategy", "promotion"},
	"financial":           {"financial", "budget", "projection", "revenue", "cost"},
	"funding":             {"funding", "investment", "capital", "loan", "grant"},
}

// expectedSections はフィードバック生成時の欠落判定に使う順序付きリスト。
var expectedSections = []string{
	"executive_summary",
	"company_description",
	"market_analysis",
	"organization",
	"products_services",
	"marketing",
	"financial",
	"funding",
}

// AnalysisResult は提案書分析の結果。
type AnalysisResult struct {
	Score          float64           `json:"score"`
	WordCount      int               `json:"word_count"`
	CharacterCount int               `json:"character_count"`
	SectionsFound  []string          `json:"sections_found"`
	Feedback       map[string]string `json:"feedback"`
	Strengths      []string          `json:"strengths"`
	Improvements   []string          `json:"improvements"`
}

// AnalyzerService は提案書の内容分析のインターフェースを定義する。
type AnalyzerService interface {
	// Analyze は提案書の内容を分析し、完成度スコアとフィードバックを返す。
	// スコアは識別できたセクション数に基づく0〜100の値。
	Analyze(content string) *AnalysisResult
}

// analyzer はAnalyzerServiceの実装。
type analyzer struct{}

var _ AnalyzerService = (*analyzer)(nil)

// NewAnalyzer はAnalyzerServiceを生成する。
func NewAnalyzer() *analyzer {
	return &analyzer{}
}

// Analyze は提案書を分析する。
func (a *analyzer) Analyze(content string) *AnalysisResult {
	words := strings.Fields(content)
	sectionsFound := a.identifySections(content)
	score := a.calculateCompleteness(sectionsFound)

	return &AnalysisResult{
		Score:          score,
		WordCount:      len(words),
		CharacterCount: len(content),
		SectionsFound:  sectionsFound,
		Feedback:       a.generateFeedback(sectionsFound, score),
		Strengths:      a.identifyStrengths(content, len(words)),
		Improvements:   a.identifyImprovements(len(words), sectionsFound),
	}
}

// identifySections はキーワードの部分一致でセクションを識別する。
func (a *analyzer) identifySections(content string) []string {
	lower := strings.ToLower(content)

	var found []string
	for _, section := range expectedSections {
		for _, keyword := range analysisKeywords[section] {
			if strings.Contains(lower, keyword) {
				found = append(found, section)
				break
			}
		}
	}
	return found
}

// calculateCompleteness は識別できたセクション数から完成度スコアを算出する。
func (a *analyzer) calculateCompleteness(sectionsFound []string) float64 {
	score := float64(len(sectionsFound)) / float64(expectedSectionCount) * 100
	if score > 100 {
		score = 100
	}
	return score
}

// generateFeedback はスコア帯に応じた総評と欠落セクションの指摘を生成する。
func (a *analyzer) generateFeedback(sectionsFound []string, score float64) map[string]string {
	feedback := make(map[string]string)

	switch {
	case score >= 80:
		feedback["overall"] = "Excellent business plan with comprehensive coverage"
	case score >= 60:
		feedback["overall"] = "Good business plan with most sections covered"
	case score >= 40:
		feedback["overall"] = "Basic business plan with some sections missing"
	default:
		feedback["overall"] = "Incomplete business plan requiring significant additions"
	}

	foundSet := make(map[string]bool, len(sectionsFound))
	for _, s := range sectionsFound {
		foundSet[s] = true
	}

	var missing []string
	for _, s := range expectedSections {
		if !foundSet[s] {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		feedback["missing_sections"] = "Consider adding: " + strings.Join(missing, ", ")
	}

	return feedback
}

// identifyStrengths は文書の強みを列挙する。該当なしの場合も1件は返す。
func (a *analyzer) identifyStrengths(content string, wordCount int) []string {
	lower := strings.ToLower(content)

	var strengths []string
	if wordCount > 1000 {
		strengths = append(strengths, "Comprehensive content with good detail")
	}
	if containsAny(lower, "market", "customer", "target") {
		strengths = append(strengths, "Market and customer focus evident")
	}
	if containsAny(lower, "revenue", "profit", "financial") {
		strengths = append(strengths, "Financial considerations included")
	}

	if len(strengths) == 0 {
		return []string{"Document structure is present"}
	}
	return strengths
}

// identifyImprovements は改善点を列挙する。
func (a *analyzer) identifyImprovements(wordCount int, sectionsFound []string) []string {
	foundSet := make(map[string]bool, len(sectionsFound))
	for _, s := range sectionsFound {
		foundSet[s] = true
	}

	var improvements []string
	if wordCount < 500 {
		improvements = append(improvements, "Expand content for better detail and comprehensiveness")
	}
	if !foundSet["financial"] {
		improvements = append(improvements, "Add detailed financial projections and budget")
	}
	if !foundSet["market_analysis"] {
		improvements = append(improvements, "Include thorough market analysis and competitive research")
	}
	if len(sectionsFound) < 5 {
		improvements = append(improvements, "Add more business plan sections for completeness")
	}
	return improvements
}

// containsAny はsがいずれかの部分文字列を含むかを返す。
func containsAny(s string, substrings ...string) bool {
	for _, sub := range substrings {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
