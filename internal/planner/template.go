package planner

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/thapelo/proposalhub/internal/model"
)

// nonNumericPattern は金額文字列から数値以外の文字を除去するためのパターン。
var nonNumericPattern = regexp.MustCompile(`[^\d.]`)

// FormatCurrencyZAR は資金要件の文字列を南アフリカランド（ZAR）表記に整形する。
// 数値として解釈できない入力には "R " プレフィックスのみ付与して返す。
func FormatCurrencyZAR(fundingRequirements string) string {
	clean := nonNumericPattern.ReplaceAllString(fundingRequirements, "")
	if clean == "" {
		return "R " + fundingRequirements
	}

	amount, err := strconv.ParseFloat(clean, 64)
	if err != nil {
		return "R " + fundingRequirements
	}

	if amount >= 1000 {
		return "R " + groupThousands(fmt.Sprintf("%.0f", amount))
	}
	return "R " + fmt.Sprintf("%.2f", amount)
}

// groupThousands は整数文字列に3桁ごとのカンマ区切りを挿入する。
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}

	var b strings.Builder
	rem := n % 3
	if rem > 0 {
		b.WriteString(digits[:rem])
	}
	for i := rem; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// TemplateGenerator はAIサービスなしで動作するテンプレートベースの計画生成器。
// 南アフリカのビジネス環境（CIPC登録、B-BBEE準拠、NEF/IDC等の政府系資金）を
// 前提とした8セクションの計画を生成する。
type TemplateGenerator struct {
	now func() time.Time
}

// NewTemplateGenerator はTemplateGeneratorを生成する。
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{now: time.Now}
}

// GeneratePlan はテンプレートから事業計画書を組み立てる。
func (g *TemplateGenerator) GeneratePlan(input model.PlanInput) model.BusinessPlan {
	funding := FormatCurrencyZAR(input.FundingRequirements)
	currentDate := g.now().Format("January 2006")

	return model.BusinessPlan{
		model.SectionExecutiveSummary:       g.executiveSummary(input, funding, currentDate),
		model.SectionCompanyDescription:     g.companyDescription(input),
		model.SectionMarketAnalysis:         g.marketAnalysis(input, currentDate),
		model.SectionOrganizationManagement: g.organizationManagement(input),
		model.SectionServiceProduct:         g.serviceProduct(input),
		model.SectionMarketingSales:         g.marketingSales(input),
		model.SectionFundingRequest:         g.fundingRequest(input, funding),
		model.SectionFinancialProjections:   g.financialProjections(),
	}
}

func (g *TemplateGenerator) executiveSummary(in model.PlanInput, funding, currentDate string) string {
	return fmt.Sprintf(`EXECUTIVE SUMMARY
Generated: %s

COMPANY OVERVIEW
Our venture is a %s operating in the dynamic %s sector, strategically positioned to serve the %s market segment. Based on comprehensive analysis of successful businesses in similar market positions, our approach incorporates proven strategies and best practices that have demonstrated success in the South African business environment. Our mission centers around %s, positioning us to capitalize on significant market opportunities while contributing to local economic development.

TARGET MARKET ANALYSIS & COMPETITIVE ADVANTAGE
Our primary target market encompasses %s, a segment that research shows has demonstrated strong growth potential and resilience in the South African economy. Through analysis of successful %s operations in the %s sector, we have identified key success factors including customer relationship excellence, technology integration, and strategic market positioning. Our competitive advantage stems from our deep understanding of local market dynamics, combined with innovative approaches learned from industry leaders who have successfully navigated similar market conditions.

FUNDING REQUIREMENTS & STRATEGIC IMPLEMENTATION
We are seeking %s in total capital to establish and scale our operations effectively. This funding will be strategically allocated based on insights from similar successful businesses, prioritizing areas that have shown the highest return on investment in comparable ventures. Our financial projections are grounded in realistic market assessments and conservative growth assumptions, ensuring sustainable development and risk mitigation.

STRATEGIC OBJECTIVES & GROWTH TRAJECTORY
Our strategic objectives focus on establishing market leadership through innovation, building sustainable competitive advantages, and achieving profitable growth while maintaining B-BBEE compliance. These goals are informed by successful business models in our sector and are designed to create employment opportunities while delivering superior value to our target market. The execution timeline incorporates phased implementation approaches that have proven effective for similar businesses, ensuring measured and sustainable growth.`,
		currentDate, in.BusinessType, in.Industry, in.TargetMarket, in.BusinessDescription,
		in.TargetMarket, in.BusinessType, in.Industry, funding)
}

func (g *TemplateGenerator) companyDescription(in model.PlanInput) string {
	return fmt.Sprintf(`COMPANY DESCRIPTION
Our organization is a %s registered and operating within the %s industry classification, strategically positioned to serve the %s market segment. Our legal structure will be determined based on optimal operational requirements, likely incorporating as a Proprietary Limited company (Pty Ltd) to ensure proper governance, liability protection, and growth facilitation. The company registration process with the Companies and Intellectual Property Commission (CIPC) is integral to our establishment timeline and will ensure full regulatory compliance from inception.

COMPANY MISSION & VISION FRAMEWORK
Our mission statement centers on %s, driving our commitment to deliver exceptional value and innovation within our chosen market segment. Our vision is to become the leading %s in the %s sector, recognized nationally for excellence in serving %s across South Africa while contributing significantly to economic development and transformation objectives.

CORE VALUES & OPERATIONAL PRINCIPLES
Our organizational values form the foundation of all business operations and decision-making processes. These include unwavering commitment to integrity and ethical business practices, continuous innovation and improvement methodologies, comprehensive B-BBEE compliance and transformation initiatives, customer-centric approaches that prioritize client satisfaction and long-term relationships, and social responsibility that extends beyond profit objectives to meaningful community impact and sustainable business practices.

OPERATIONAL SCOPE & BUSINESS MODEL
Our primary geographic focus encompasses South Africa as the core market, with strategic consideration for regional expansion opportunities as the business matures. Our target market segments specifically address %s, where we have identified significant opportunity based on comprehensive market analysis and competitor research. Our business model incorporates multiple revenue streams designed for sustainability and growth, with our core value proposition delivering unique benefits specifically tailored to %s needs and requirements.`,
		in.BusinessType, in.Industry, in.TargetMarket, in.BusinessDescription,
		in.BusinessType, in.Industry, in.TargetMarket, in.TargetMarket, in.TargetMarket)
}

func (g *TemplateGenerator) marketAnalysis(in model.PlanInput, currentDate string) string {
	return fmt.Sprintf(`MARKET ANALYSIS - SOUTH AFRICAN CONTEXT
Analysis Date: %s

TARGET MARKET PROFILE
Primary Market: %s
Market Size: [To be researched - include SA market statistics]
Market Growth Rate: [Industry growth projections for SA]

INDUSTRY OVERVIEW
Sector: %s
Current Industry Trends in South Africa:
- Economic recovery and infrastructure development
- Digital transformation and technology adoption
- B-BBEE requirements and transformation goals
- Government support for small and medium enterprises

COMPETITIVE LANDSCAPE
Direct Competitors: [List main competitors operating in SA]
Competitive Advantages:
- Local market knowledge and relationships
- Understanding of SA regulatory environment
- Competitive pricing and service delivery
- B-BBEE compliance for government contracts

MARKET ENTRY STRATEGY
- Leverage local market understanding
- Build strategic partnerships with established players
- Focus on underserved market segments
- Implement competitive pricing strategies

RISK ANALYSIS
Market Risks: Economic volatility, regulatory changes, competition
Mitigation Strategies: Diversified approach, strong relationships, adaptable operations`,
		currentDate, in.TargetMarket, in.Industry)
}

func (g *TemplateGenerator) organizationManagement(in model.PlanInput) string {
	return fmt.Sprintf(`ORGANIZATION & MANAGEMENT STRUCTURE

MANAGEMENT TEAM
Chief Executive Officer (CEO): [Name and credentials]
- Primary responsibility: Strategic leadership and stakeholder management
- Qualifications: [Relevant experience in %s sector]

Chief Operations Officer (COO): [Name and credentials]
- Primary responsibility: Day-to-day operations and implementation
- Focus: Operational efficiency and quality management

Chief Financial Officer (CFO): [Name and credentials]
- Primary responsibility: Financial management and funding
- Expertise: Financial planning, compliance, and risk management

ORGANIZATIONAL STRUCTURE
Board of Directors: [Composition including B-BBEE compliance]
Management Hierarchy: Clear reporting structures and responsibilities
Advisory Board: Industry experts and business advisors

HUMAN RESOURCES STRATEGY
Employment Equity Plan: B-BBEE aligned recruitment and development
Skills Development: Training programs and professional development
Performance Management: Clear KPIs and evaluation processes

SUCCESSION PLANNING
Leadership Development: Internal talent pipeline
Knowledge Management: Documentation and training systems
Continuity Planning: Risk mitigation for key personnel changes`,
		in.Industry)
}

func (g *TemplateGenerator) serviceProduct(in model.PlanInput) string {
	return fmt.Sprintf(`PRODUCTS & SERVICES PORTFOLIO
Business Model: %s in %s Sector

PRIMARY OFFERINGS
Core Products/Services:
[Detailed description of main offerings targeting %s]
- Unique value proposition
- Quality standards and certifications
- Pricing strategy and competitiveness

SECONDARY SERVICES
Value-Added Services:
- Customer support and after-sales service
- Consultation and advisory services
- Customized solutions for specific client needs

TECHNOLOGY & INNOVATION
Digital Platforms: [If applicable - online services, apps, systems]
Innovation Approach: Continuous improvement and R&D investment
Quality Assurance: Standards compliance and certification processes

SUPPLY CHAIN MANAGEMENT
Supplier Relationships: Local and international partnerships
Quality Control: Product/service quality standards
Logistics: Distribution and delivery capabilities

COMPETITIVE POSITIONING
Differentiation Factors:
- Superior service quality and customer experience
- Local market expertise and relationships
- Competitive pricing and flexible terms
- Innovation and technology adoption`,
		in.BusinessType, in.Industry, in.TargetMarket)
}

func (g *TemplateGenerator) marketingSales(in model.PlanInput) string {
	return fmt.Sprintf(`MARKETING & SALES STRATEGY
Target Market: %s

MARKETING APPROACH
Digital Marketing Strategy:
- Website development and SEO optimization
- Social media presence (LinkedIn, Facebook, industry platforms)
- Content marketing and thought leadership
- Email marketing and customer relationship management

Traditional Marketing:
- Industry networking and trade shows
- Print advertising in relevant publications
- Direct mail and promotional campaigns
- Public relations and media engagement

SALES STRATEGY
Sales Channels:
1. Direct Sales: Face-to-face meetings and presentations
2. Digital Sales: Online inquiries and e-commerce capabilities
3. Partnership Sales: Through strategic partners and distributors
4. Referral Programs: Customer referral incentives

Sales Process:
- Lead generation and qualification
- Needs assessment and proposal development
- Presentation and negotiation
- Contract closure and relationship building

CUSTOMER RELATIONSHIP MANAGEMENT
Customer Retention: Loyalty programs and ongoing support
Feedback Systems: Regular customer satisfaction surveys
Service Excellence: Continuous improvement based on customer input

PRICING STRATEGY
Competitive Analysis: Market rate assessment and positioning
Value-Based Pricing: Pricing based on customer value delivered
Flexible Terms: Payment options and contract structures`,
		in.TargetMarket)
}

func (g *TemplateGenerator) fundingRequest(in model.PlanInput, funding string) string {
	return fmt.Sprintf(`FUNDING REQUEST & CAPITAL STRUCTURE
Total Funding Required: %s
Business Type: %s

FUNDING BREAKDOWN
1. Initial Setup and Infrastructure: 35%%
   - Equipment and technology: [Amount in ZAR]
   - Premises and facilities: [Amount in ZAR]
   - Legal and registration costs: [Amount in ZAR]

2. Working Capital: 40%%
   - Inventory and supplies: [Amount in ZAR]
   - Operating expenses (6 months): [Amount in ZAR]
   - Marketing and customer acquisition: [Amount in ZAR]

3. Technology and Systems: 15%%
   - Software licenses and IT infrastructure: [Amount in ZAR]
   - Digital platforms and tools: [Amount in ZAR]

4. Reserve and Contingency: 10%%
   - Emergency fund and unexpected costs: [Amount in ZAR]

FUNDING SOURCES
Primary Options:
- Government funding (NEF, IDC, SETA programs)
- Bank financing and commercial loans
- Private investors and venture capital
- B-BBEE investors and strategic partners

EXPECTED RETURN ON INVESTMENT
Financial Projections: [3-year financial forecasts]
Break-even Analysis: [Timeline to profitability]
Investor Returns: Expected ROI and exit strategies

RISK MITIGATION
Financial Controls: Budget management and monitoring systems
Insurance Coverage: Business and liability insurance
Contingency Planning: Risk management strategies`,
		funding, in.BusinessType)
}

func (g *TemplateGenerator) financialProjections() string {
	return `FINANCIAL PROJECTIONS & ANALYSIS
Currency: South African Rand (ZAR)
Projection Period: 3 Years

REVENUE PROJECTIONS
Year 1: R [Projected revenue based on market analysis]
Year 2: R [Growth assumptions and market expansion]
Year 3: R [Mature market position and optimization]

Revenue Streams:
- Primary revenue source: [Percentage and amount]
- Secondary revenue sources: [Additional income streams]

EXPENSE PROJECTIONS
Year 1 Operating Expenses:
- Personnel costs: R [Salaries and benefits]
- Marketing and sales: R [Promotional expenses]
- Operations: R [Day-to-day operational costs]
- Technology and systems: R [IT and software costs]
- Professional services: R [Legal, accounting, consulting]
- Office and facilities: R [Rent, utilities, insurance]

KEY FINANCIAL RATIOS
- Gross profit margin: [Percentage]
- Net profit margin: [Percentage]
- Return on investment (ROI): [Percentage]
- Break-even point: [Timeline and volume]

CASH FLOW ANALYSIS
Monthly cash flow projections for first 12 months
Quarterly analysis for years 2-3
Working capital requirements and management

FINANCIAL ASSUMPTIONS
Economic conditions in South Africa
Industry growth rates and market trends
Inflation and currency fluctuations
Regulatory and tax considerations`
}
