package export

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/thapelo/proposalhub/internal/model"
)

// Document はエクスポートされた成果物。
type Document struct {
	Data        []byte
	ContentType string
	Filename    string
}

// ExporterService は提案書のエクスポートのインターフェースを定義する。
type ExporterService interface {
	// Export は提案書をPDFとしてエクスポートする。
	// レンダラーサービスが未構成または失敗した場合、
	// 印刷用スタイル付きのHTMLドキュメントを返す。
	Export(ctx context.Context, proposal *model.Proposal) (*Document, error)
}

// exporter はExporterServiceの実装。
type exporter struct {
	renderer *RendererClient
}

var _ ExporterService = (*exporter)(nil)

// NewExporter はExporterServiceを生成する。
func NewExporter(renderer *RendererClient) *exporter {
	return &exporter{renderer: renderer}
}

// Export は提案書をエクスポートする。
func (e *exporter) Export(ctx context.Context, proposal *model.Proposal) (*Document, error) {
	sections := buildSections(proposal)

	htmlContent, err := renderHTML(proposal.Title, sections, proposal.CreatedAt)
	if err != nil {
		return nil, err
	}

	baseFilename := sanitizeFilename(proposal.Title) + "_Business_Proposal"

	if e.renderer.Enabled() {
		pdf, err := e.renderer.RenderPDF(ctx, htmlContent)
		if err == nil {
			return &Document{
				Data:        pdf,
				ContentType: "application/pdf",
				Filename:    baseFilename + ".pdf",
			}, nil
		}
		// レンダラーの失敗はHTMLフォールバックで吸収する
		slog.Warn("pdf renderer failed, falling back to html",
			slog.String("proposal_id", proposal.ID),
			slog.String("error", err.Error()),
		)
	}

	return &Document{
		Data:        htmlContent,
		ContentType: "text/html; charset=utf-8",
		Filename:    baseFilename + ".html",
	}, nil
}

// buildSections は提案書の内容をエクスポート用のセクション列に変換する。
// 構造化JSON、整形済みテキスト、プレーンテキストの3形式に対応する。
func buildSections(proposal *model.Proposal) []htmlSection {
	if proposal.IsStructured() {
		var plan map[string]string
		if err := json.Unmarshal([]byte(proposal.Content), &plan); err == nil {
			return sectionsFromPlan(plan)
		}
	}

	if parsed := parseEnhancedContent(proposal.Content); len(parsed) > 0 {
		return parsed
	}

	// どの形式にも該当しない場合は全文を要約セクションとして扱う
	return []htmlSection{
		{Title: "EXECUTIVE SUMMARY", Content: proposal.Content},
	}
}

// sectionsFromPlan は構造化された計画を定義済みの順序でセクション列に変換する。
func sectionsFromPlan(plan map[string]string) []htmlSection {
	titles := model.SectionTitles()

	var sections []htmlSection
	for _, key := range model.SectionOrder() {
		content, ok := plan[key]
		if !ok || content == "" {
			continue
		}
		sections = append(sections, htmlSection{
			Title:   titles[key],
			Content: strings.TrimSpace(content),
		})
	}
	return sections
}

// enhancedSectionPatterns は整形済みテキストからセクションを切り出すためのパターン。
var enhancedSectionPatterns = []struct {
	key     string
	title   string
	pattern *regexp.Regexp
}{
	{"executive_summary", "EXECUTIVE SUMMARY", regexp.MustCompile(`(?i)executive\s+summary`)},
	{"company_description", "COMPANY DESCRIPTION", regexp.MustCompile(`(?i)company\s+description|business\s+description`)},
	{"market_analysis", "MARKET ANALYSIS", regexp.MustCompile(`(?i)market\s+analysis|market\s+overview`)},
	{"organization_management", "ORGANIZATION & MANAGEMENT", regexp.MustCompile(`(?i)organization\s*&?\s*management`)},
	{"service_product", "PRODUCTS & SERVICES", regexp.MustCompile(`(?i)products\s*&?\s*services`)},
	{"marketing_sales", "MARKETING & SALES STRATEGY", regexp.MustCompile(`(?i)marketing\s*&?\s*sales`)},
	{"funding_request", "FUNDING REQUEST", regexp.MustCompile(`(?i)funding\s+request|funding\s+requirements`)},
	{"financial_projections", "FINANCIAL PROJECTIONS", regexp.MustCompile(`(?i)financial\s+projections`)},
}

// parseEnhancedContent は整形済みテキストをセクション列にパースする。
// セクション見出しが1つも見つからない場合は空を返す。
func parseEnhancedContent(content string) []htmlSection {
	type located struct {
		title string
		start int
	}

	var found []located
	for _, sp := range enhancedSectionPatterns {
		if loc := sp.pattern.FindStringIndex(content); loc != nil {
			found = append(found, located{title: sp.title, start: loc[0]})
		}
	}
	if len(found) == 0 {
		return nil
	}

	// 出現位置順に並べ、次の見出しまでを各セクションの内容とする
	for i := 0; i < len(found); i++ {
		for j := i + 1; j < len(found); j++ {
			if found[j].start < found[i].start {
				found[i], found[j] = found[j], found[i]
			}
		}
	}

	sections := make([]htmlSection, 0, len(found))
	for i, f := range found {
		end := len(content)
		if i+1 < len(found) {
			end = found[i+1].start
		}
		body := strings.TrimSpace(content[f.start:end])
		if body != "" {
			sections = append(sections, htmlSection{Title: f.title, Content: body})
		}
	}

	return sections
}

// unsafeFilenamePattern はファイル名として安全でない文字にマッチする。
var unsafeFilenamePattern = regexp.MustCompile(`[^A-Za-z0-9_.-]+`)

// sanitizeFilename はタイトルをContent-Dispositionで安全に使える形に変換する。
func sanitizeFilename(title string) string {
	name := unsafeFilenamePattern.ReplaceAllString(title, "_")
	name = strings.Trim(name, "._")
	if name == "" {
		return "proposal"
	}
	return name
}
