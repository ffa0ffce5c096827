package document

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/thapelo/proposalhub/internal/security"
)

// sectionKeys は整形済み提案書に含めるセクションの出力順。
var sectionKeys = []string{
	"executive_summary",
	"company_description",
	"market_analysis",
	"service_product",
	"organization_management",
	"marketing_sales",
	"funding_request",
	"financial_projections",
}

// sectionPatterns はアップロード文書からセクションを識別するためのパターン。
var sectionPatterns = map[string]*regexp.Regexp{
	"executive_summary":       regexp.MustCompile(`(?i)(executive\s+summary|summary|overview)`),
	"company_description":     regexp.MustCompile(`(?i)(company\s+description|business\s+description|about\s+us|organization)`),
	"market_analysis":         regexp.MustCompile(`(?i)(market\s+analysis|market\s+research|industry\s+analysis)`),
	"organization_management": regexp.MustCompile(`(?i)(management|team|organization|personnel)`),
	"service_product":         regexp.MustCompile(`(?i)(product|service|offering|solution|what\s+we\s+do)`),
	"marketing_sales":         regexp.MustCompile(`(?i)(marketing|sales|strategy|promotion|business\s+development)`),
	"funding_request":         regexp.MustCompile(`(?i)(funding|investment|capital|loan|financial\s+request)`),
	"financial_projections":   regexp.MustCompile(`(?i)(financial|projection|budget|revenue|cost|profit)`),
}

// sectionHeaders は各セクションの見出し。
var sectionHeaders = map[string]string{
	"executive_summary":       "EXECUTIVE SUMMARY",
	"company_description":     "COMPANY DESCRIPTION",
	"market_analysis":         "MARKET ANALYSIS",
	"organization_management": "ORGANIZATION & MANAGEMENT",
	"service_product":         "PRODUCTS & SERVICES",
	"marketing_sales":         "MARKETING & SALES STRATEGY",
	"funding_request":         "FUNDING REQUEST",
	"financial_projections":   "FINANCIAL PROJECTIONS",
}

var (
	multiSpacePattern      = regexp.MustCompile(`\s+`)
	missingSpacePattern    = regexp.MustCompile(`([a-z])([A-Z])`)
	sentenceSpacingPattern = regexp.MustCompile(`([.!?])([A-Z])`)
)

// ProcessorService はアップロード文書の抽出・整形のインターフェースを定義する。
type ProcessorService interface {
	// ProcessDocument はファイルからテキストを抽出し、
	// 専門的な提案書フォーマットに整形して返す。
	ProcessDocument(ctx context.Context, filePath string) (string, error)

	// Enhance は抽出済みテキストを整形・補強する。
	// セクション識別に失敗した場合も欠落セクションをテンプレートで補う。
	Enhance(rawText string) string
}

// processor はProcessorServiceの実装。
type processor struct {
	extractor ExtractorService
	sanitizer security.ContentSanitizerService
	now       func() time.Time
}

var _ ProcessorService = (*processor)(nil)

// NewProcessor はProcessorServiceを生成する。
func NewProcessor(extractor ExtractorService, sanitizer security.ContentSanitizerService) *processor {
	return &processor{
		extractor: extractor,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// ProcessDocument はファイルを抽出・整形する。
func (p *processor) ProcessDocument(ctx context.Context, filePath string) (string, error) {
	rawText, err := p.extractor.ExtractText(ctx, filePath)
	if err != nil {
		return "", fmt.Errorf("failed to extract text: %w", err)
	}

	return p.Enhance(rawText), nil
}

// Enhance は抽出テキストを専門的な提案書フォーマットに整形する。
func (p *processor) Enhance(rawText string) string {
	// 外部由来のテキストに残ったマークアップを除去する
	cleaned := p.cleanText(p.sanitizer.StripToText(rawText))
	sections := p.parseSections(cleaned)
	enhanced := p.enhanceMissingSections(sections)
	return p.formatProposal(enhanced)
}

// cleanText は抽出テキストの空白・OCR起因の崩れを正規化する。
func (p *processor) cleanText(text string) string {
	text = multiSpacePattern.ReplaceAllString(text, " ")
	text = strings.TrimSpace(text)
	// OCRで失われた単語間・文末スペースを補う
	text = missingSpacePattern.ReplaceAllString(text, "$1 $2")
	text = sentenceSpacingPattern.ReplaceAllString(text, "$1 $2")
	return text
}

// parseSections はテキストをセクションごとに分割する。
// どのセクションも識別できない場合は全文をexecutive_summaryとして扱う。
func (p *processor) parseSections(text string) map[string]string {
	sections := make(map[string]string)

	for key, pattern := range sectionPatterns {
		loc := pattern.FindStringIndex(text)
		if loc == nil {
			continue
		}
		start := loc[1]

		// 次のセクション見出しまでを本セクションの内容とする
		end := len(text)
		rest := text[start:]
		for _, other := range sectionPatterns {
			if next := other.FindStringIndex(rest); next != nil {
				if start+next[0] < end {
					end = start + next[0]
				}
			}
		}

		content := strings.TrimSpace(text[start:end])
		if content != "" {
			sections[key] = content
		}
	}

	if len(sections) == 0 && text != "" {
		sections["executive_summary"] = text
	}

	return sections
}

// enhanceMissingSections は欠落セクションをテンプレートで補い、
// 既存セクションには見出しと南アフリカ向けの注記を付与する。
func (p *processor) enhanceMissingSections(sections map[string]string) map[string]string {
	enhanced := make(map[string]string, len(sectionKeys))
	currentDate := p.now().Format("January 2, 2006")

	for _, key := range sectionKeys {
		content, ok := sections[key]
		if !ok {
			enhanced[key] = p.sectionTemplate(key, currentDate)
			continue
		}
		enhanced[key] = p.enhanceExistingSection(key, content)
	}

	return enhanced
}

// enhanceExistingSection は既存セクションに見出しと文脈注記を付与する。
func (p *processor) enhanceExistingSection(key, content string) string {
	content = strings.TrimSpace(content)

	header := sectionHeaders[key]
	if !strings.HasPrefix(strings.ToUpper(content), header) {
		content = header + "\n\n" + content
	}

	if key == "funding_request" && !strings.Contains(strings.ToUpper(content), "ZAR") {
		content += "\n\nNote: All financial amounts should be specified in South African Rand (ZAR)."
	}
	if key == "company_description" && !strings.Contains(strings.ToLower(content), "south africa") {
		content += "\n\nBusiness Registration: This business operates within South Africa and will comply with all local regulations and CIPC requirements."
	}

	return content
}

// sectionTemplate は欠落セクション用のテンプレート内容を返す。
func (p *processor) sectionTemplate(key, currentDate string) string {
	switch key {
	case "executive_summary":
		return fmt.Sprintf(`COMPANY OVERVIEW
Our company is a South African business seeking funding to expand operations and achieve growth objectives. This executive summary provides a high-level overview of our business model, market opportunity, and funding requirements.

BUSINESS OBJECTIVE
We aim to establish a successful operation that contributes to the South African economy while providing value to our target market. Our business model is designed for sustainable growth and profitability.

FUNDING OVERVIEW
We are seeking funding to support our business growth and operational expansion. The requested funds will be utilized for [to be specified based on business type].

Generated on: %s
Location: South Africa`, currentDate)
	case "company_description":
		return fmt.Sprintf(`BUSINESS DESCRIPTION
This section outlines the nature of our business, our mission, and the value we provide to our customers and stakeholders.

MISSION STATEMENT
Our mission is to deliver exceptional value while contributing positively to the South African business landscape.

BUSINESS REGISTRATION
[To be completed - CIPC registration required for South African businesses]
B-BBEE Compliance: [To be determined based on business structure]

Generated: %s`, currentDate)
	case "market_analysis":
		return fmt.Sprintf(`MARKET OVERVIEW
South African market analysis and competitive landscape assessment.

TARGET MARKET
Primary and secondary target markets within South Africa.

COMPETITIVE ANALYSIS
Key competitors and our competitive advantages.

MARKET SIZE & OPPORTUNITY
Market size estimation and growth projections for the South African market.

Analysis Date: %s`, currentDate)
	case "funding_request":
		return fmt.Sprintf(`FUNDING REQUIREMENTS
Total Funding Required: [To be specified in South African Rand (ZAR)]

FUNDING ALLOCATION
- Operations: [Percentage]%%
- Equipment/Assets: [Percentage]%%
- Marketing: [Percentage]%%
- Working Capital: [Percentage]%%

USE OF FUNDS
Detailed breakdown of how the requested funding will be utilized to support business growth.

Generated: %s`, currentDate)
	case "financial_projections":
		return fmt.Sprintf(`FINANCIAL PROJECTIONS (SOUTH AFRICAN RAND - ZAR)

Year 1 Projections:
Revenue: R [Amount]
Expenses: R [Amount]
Net Profit: R [Amount]

Year 2 Projections:
Revenue: R [Amount]
Expenses: R [Amount]
Net Profit: R [Amount]

Year 3 Projections:
Revenue: R [Amount]
Expenses: R [Amount]
Net Profit: R [Amount]

Generated: %s`, currentDate)
	default:
		return fmt.Sprintf(`%s

This section is currently being developed as part of the business proposal enhancement process. Additional details will be added based on the specific business requirements.

Generated: %s`, sectionHeaders[key], currentDate)
	}
}

// formatProposal は補強済みセクションを提案書として整形する。
func (p *processor) formatProposal(sections map[string]string) string {
	currentDate := p.now().Format("January 2, 2006")

	var b strings.Builder
	fmt.Fprintf(&b, `BUSINESS PROPOSAL
Generated: %s
Prepared for: Funding Application
Location: South Africa

%s

`, currentDate, strings.Repeat("=", 60))

	for _, key := range sectionKeys {
		content, ok := sections[key]
		if !ok {
			continue
		}
		b.WriteString("\n")
		b.WriteString(strings.Repeat("-", 40))
		b.WriteString("\n")
		b.WriteString(content)
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, `

%s

PROPOSAL FOOTER
This business proposal has been enhanced and formatted for funding applications within South Africa.
Generated on: %s
Location: South Africa

Note: This proposal contains enhanced content and formatting to ensure compliance with South African business standards and funding requirements.`,
		strings.Repeat("=", 60), currentDate)

	return strings.TrimSpace(b.String())
}
