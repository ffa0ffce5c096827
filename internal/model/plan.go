// Package model はドメインモデルを定義する。
package model

// BusinessPlan はAI生成または整形処理で構造化されたビジネスプランを表す。
// セクションキーは生成・分析・エクスポートの全工程で共通に使用する。
type BusinessPlan map[string]string

// プランのセクションキー。表示・整形時はSectionOrderの順で並べる。
const (
	SectionExecutiveSummary       = "executive_summary"
	SectionCompanyDescription     = "company_description"
	SectionMarketAnalysis         = "market_analysis"
	SectionOrganizationManagement = "organization_management"
	SectionServiceProduct         = "service_product"
	SectionMarketingSales         = "marketing_sales"
	SectionFundingRequest         = "funding_request"
	SectionFinancialProjections   = "financial_projections"
	SectionRiskAnalysis           = "risk_analysis"
	SectionImplementationTimeline = "implementation_timeline"
)

// SectionOrder はビジネスプランのセクションの表示順を返す。
func SectionOrder() []string {
	return []string{
		SectionExecutiveSummary,
		SectionCompanyDescription,
		SectionMarketAnalysis,
		SectionServiceProduct,
		SectionOrganizationManagement,
		SectionMarketingSales,
		SectionFundingRequest,
		SectionFinancialProjections,
		SectionRiskAnalysis,
		SectionImplementationTimeline,
	}
}

// SectionTitles はセクションキーから表示用タイトルへのマッピングを返す。
func SectionTitles() map[string]string {
	return map[string]string{
		SectionExecutiveSummary:       "Executive Summary",
		SectionCompanyDescription:     "Company Description",
		SectionMarketAnalysis:         "Market Analysis",
		SectionOrganizationManagement: "Organization & Management",
		SectionServiceProduct:         "Products & Services",
		SectionMarketingSales:         "Marketing & Sales Strategy",
		SectionFundingRequest:         "Funding Request",
		SectionFinancialProjections:   "Financial Projections",
		SectionRiskAnalysis:           "Risk Analysis & Mitigation",
		SectionImplementationTimeline: "Implementation Timeline",
	}
}

// PlanInput はビジネスプラン生成の入力パラメータ。
type PlanInput struct {
	BusinessType        string `json:"business_type"`
	Industry            string `json:"industry"`
	TargetMarket        string `json:"target_market"`
	FundingRequirements string `json:"funding_requirements"`
	BusinessDescription string `json:"business_description"`
}
