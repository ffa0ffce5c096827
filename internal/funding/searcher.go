package funding

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/thapelo/proposalhub/internal/model"
)

// maxSearchResults は検索結果の上限件数。
const maxSearchResults = 10

// SearchParams は資金提供元検索の入力パラメータ。
// 提案書IDが指定された場合、欠けているパラメータは提案書の内容から補完される。
type SearchParams struct {
	Industry      string
	BusinessType  string
	FundingAmount string
}

// Funder は検索結果の1件。キュレーション済みディレクトリと
// ローカルデータベースの両方の結果をこの形式に正規化する。
type Funder struct {
	Name              string                  `json:"name"`
	Description       string                  `json:"description"`
	AmountRange       string                  `json:"amount_range"`
	Website           string                  `json:"website"`
	Source            string                  `json:"source"`
	MatchScore        float64                 `json:"match_score"`
	EligibilityStatus model.EligibilityStatus `json:"eligibility_status"`
}

// SearchResult は検索の結果一式。
type SearchResult struct {
	Funders       []*Funder `json:"funders"`
	SearchQueries []string  `json:"search_queries"`
	TotalFound    int       `json:"total_found"`
}

// SearcherService は資金提供元のリアルタイム検索のインターフェースを定義する。
type SearcherService interface {
	// Search は検索パラメータに基づき、キュレーション済みディレクトリと
	// ローカルデータベースから資金提供元を検索する。
	// 名前で重複を除去し、上位10件までを返す。
	Search(ctx context.Context, params SearchParams) (*SearchResult, error)

	// FillParamsFromProposal は提案書の内容から欠けている検索パラメータを補完する。
	FillParamsFromProposal(params SearchParams, proposalContent string) SearchParams
}

// searcher はSearcherServiceの実装。
type searcher struct {
	matcher MatcherService
}

var _ SearcherService = (*searcher)(nil)

// NewSearcher はSearcherServiceを生成する。
func NewSearcher(matcher MatcherService) *searcher {
	return &searcher{matcher: matcher}
}

// searchQuery は検索クエリとその種別。
type searchQuery struct {
	query      string
	searchType string
}

// Search は資金提供元を検索する。
func (s *searcher) Search(ctx context.Context, params SearchParams) (*SearchResult, error) {
	queries := buildSearchQueries(params)

	var results []*Funder
	for _, q := range queries {
		results = append(results, curatedFunders(q.searchType)...)
	}

	// ローカルデータベースのマッチング結果も統合する
	localContent := strings.TrimSpace(params.Industry + " " + params.BusinessType + " " + params.FundingAmount)
	recommendations, err := s.matcher.Recommend(ctx, localContent)
	if err != nil {
		return nil, fmt.Errorf("failed to match local funding sources: %w", err)
	}
	for _, rec := range recommendations {
		results = append(results, &Funder{
			Name:              rec.Source.Name,
			Description:       rec.Source.Description,
			AmountRange:       rec.Source.AmountRange,
			Website:           rec.Source.ContactWebsite,
			Source:            "Local Database",
			MatchScore:        rec.MatchScore,
			EligibilityStatus: rec.EligibilityStatus,
		})
	}

	// 名前による重複除去
	seen := make(map[string]bool, len(results))
	unique := make([]*Funder, 0, len(results))
	for _, r := range results {
		if seen[r.Name] {
			continue
		}
		seen[r.Name] = true
		unique = append(unique, r)
	}

	queryStrings := make([]string, len(queries))
	for i, q := range queries {
		queryStrings[i] = q.query
	}

	totalFound := len(unique)
	if len(unique) > maxSearchResults {
		unique = unique[:maxSearchResults]
	}

	return &SearchResult{
		Funders:       unique,
		SearchQueries: queryStrings,
		TotalFound:    totalFound,
	}, nil
}

// FillParamsFromProposal は提案書の内容から検索パラメータを補完する。
// 構造化された計画（JSON）の場合はセクション単位で、
// 平文の場合は全文からキーワードを抽出する。
func (s *searcher) FillParamsFromProposal(params SearchParams, proposalContent string) SearchParams {
	var plan map[string]string
	if err := json.Unmarshal([]byte(proposalContent), &plan); err == nil {
		if params.Industry == "" {
			params.Industry = extractKeywordAfter(plan[model.SectionCompanyDescription], "industry", "sector", "field")
		}
		if params.BusinessType == "" {
			params.BusinessType = extractKeywordAfter(plan[model.SectionExecutiveSummary], "business", "company", "venture")
		}
		if params.FundingAmount == "" {
			params.FundingAmount = extractFundingAmount(plan[model.SectionFundingRequest])
		}
		return params
	}

	if params.Industry == "" {
		params.Industry = extractKeywordAfter(proposalContent, "technology", "manufacturing", "agriculture", "retail", "services")
	}
	if params.BusinessType == "" {
		params.BusinessType = extractKeywordAfter(proposalContent, "startup", "enterprise", "company", "business")
	}
	if params.FundingAmount == "" {
		params.FundingAmount = extractFundingAmount(proposalContent)
	}
	return params
}

// buildSearchQueries は資金種別ごとの検索クエリを組み立てる。
func buildSearchQueries(params SearchParams) []searchQuery {
	var queries []searchQuery

	if params.Industry != "" && params.BusinessType != "" {
		queries = append(queries, searchQuery{
			query:      fmt.Sprintf("%q funding %q South Africa government grants", params.Industry, params.BusinessType),
			searchType: "government_funding",
		})
	}

	queries = append(queries, searchQuery{
		query:      fmt.Sprintf("%q investors %q South Africa venture capital", params.Industry, params.BusinessType),
		searchType: "private_investors",
	})

	if params.FundingAmount != "" {
		queries = append(queries, searchQuery{
			query:      fmt.Sprintf("development finance %q South Africa %q", params.Industry, params.FundingAmount),
			searchType: "development_finance",
		})
	}

	return queries
}

// curatedFunders は検索種別に応じたキュレーション済みの南アフリカの資金提供元を返す。
func curatedFunders(searchType string) []*Funder {
	var funders []*Funder

	if strings.Contains(searchType, "government") {
		funders = append(funders,
			&Funder{
				Name:              "National Empowerment Fund (NEF)",
				Description:       "Government funding for black-owned businesses in South Africa",
				AmountRange:       "R 50,000 - R 150,000,000",
				Website:           "https://www.nefcorp.co.za",
				Source:            "Government Database",
				MatchScore:        85,
				EligibilityStatus: model.EligibilityEligible,
			},
			&Funder{
				Name:              "Small Enterprise Finance Agency (SEFA)",
				Description:       "Government funding for small and medium enterprises",
				AmountRange:       "R 10,000 - R 10,000,000",
				Website:           "https://www.sefa.org.za",
				Source:            "Government Database",
				MatchScore:        80,
				EligibilityStatus: model.EligibilityEligible,
			},
		)
	}

	if strings.Contains(searchType, "venture") || strings.Contains(searchType, "investors") {
		funders = append(funders,
			&Funder{
				Name:              "4Di Capital",
				Description:       "Venture capital firm focusing on technology startups in South Africa",
				AmountRange:       "R 500,000 - R 10,000,000",
				Website:           "https://www.4di.co.za",
				Source:            "Venture Capital Database",
				MatchScore:        75,
				EligibilityStatus: model.EligibilityPartial,
			},
			&Funder{
				Name:              "Knife Capital",
				Description:       "Early and growth-stage venture capital for South African technology companies",
				AmountRange:       "R 1,000,000 - R 20,000,000",
				Website:           "https://www.knifecapital.co.za",
				Source:            "Venture Capital Database",
				MatchScore:        70,
				EligibilityStatus: model.EligibilityPartial,
			},
		)
	}

	if strings.Contains(searchType, "development") {
		funders = append(funders,
			&Funder{
				Name:              "Industrial Development Corporation (IDC)",
				Description:       "Development finance institution for industrial projects in South Africa",
				AmountRange:       "R 500,000 - R 1,000,000,000",
				Website:           "https://www.idc.co.za",
				Source:            "Development Finance Database",
				MatchScore:        90,
				EligibilityStatus: model.EligibilityEligible,
			},
			&Funder{
				Name:              "Development Bank of Southern Africa (DBSA)",
				Description:       "Infrastructure development and project finance in Southern Africa",
				AmountRange:       "R 1,000,000 - R 500,000,000",
				Website:           "https://www.dbsa.org",
				Source:            "Development Finance Database",
				MatchScore:        85,
				EligibilityStatus: model.EligibilityEligible,
			},
		)
	}

	return funders
}

var (
	// randAmountPattern はR記号付きの金額表記を抽出する。
	randAmountPattern = regexp.MustCompile(`R\s*([0-9,]+)`)
	// numericAmountPattern は任意の数値表記を抽出する。
	numericAmountPattern = regexp.MustCompile(`([0-9,]+(?:\.\d+)?)`)
)

// extractKeywordAfter はテキスト中のキーワードの直後に続く単語を抽出する。
// どのキーワードにも後続語が見つからない場合は先頭のキーワードを返す。
func extractKeywordAfter(text string, keywords ...string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	for _, keyword := range keywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		pattern := regexp.MustCompile(regexp.QuoteMeta(keyword) + `\s+(?:is\s+|:?\s*)(\w+)`)
		if m := pattern.FindStringSubmatch(lower); m != nil {
			return capitalize(m[1])
		}
	}

	if len(keywords) > 0 {
		return keywords[0]
	}
	return ""
}

// capitalize は先頭の文字を大文字にする。
func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// extractFundingAmount はテキストから資金額を抽出する。
func extractFundingAmount(text string) string {
	if text == "" {
		return ""
	}

	if m := randAmountPattern.FindStringSubmatch(text); m != nil {
		return "R " + m[1]
	}
	if m := numericAmountPattern.FindStringSubmatch(text); m != nil {
		return "R " + m[1]
	}
	return ""
}
