package export

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/thapelo/proposalhub/internal/model"
)

func testProposal(content string, proposalType model.ProposalType) *model.Proposal {
	return &model.Proposal{
		ID:           "prop-1",
		UserID:       "user-1",
		Title:        "Township Bakery Expansion",
		Content:      content,
		ProposalType: proposalType,
		Status:       model.ProposalStatusCompleted,
		CreatedAt:    time.Date(2025, time.March, 15, 10, 0, 0, 0, time.UTC),
	}
}

func TestExporter_Export_HTMLFallbackWhenRendererUnconfigured(t *testing.T) {
	e := NewExporter(NewRendererClient("", 5*time.Second))

	doc, err := e.Export(context.Background(), testProposal("A plain proposal about a bakery.", model.ProposalTypeUploadedEnhanced))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if doc.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q, want text/html", doc.ContentType)
	}
	if doc.Filename != "Township_Bakery_Expansion_Business_Proposal.html" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	html := string(doc.Data)
	if !strings.Contains(html, "Township Bakery Expansion") {
		t.Error("HTML is missing the proposal title")
	}
	if !strings.Contains(html, "A plain proposal about a bakery.") {
		t.Error("HTML is missing the proposal content")
	}
	if !strings.Contains(html, "March 15, 2025") {
		t.Error("HTML is missing the creation date")
	}
}

func TestExporter_Export_PDFViaRenderer(t *testing.T) {
	pdfBytes := []byte("%PDF-1.4 fake")
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/render" {
			t.Errorf("renderer path = %q, want /render", r.URL.Path)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode render request: %v", err)
		}
		if !strings.Contains(req["html"], "Township Bakery Expansion") {
			t.Error("render request html is missing the proposal title")
		}
		w.Write(pdfBytes)
	}))
	defer server.Close()

	e := NewExporter(NewRendererClient(server.URL, 5*time.Second))

	doc, err := e.Export(context.Background(), testProposal("Content body.", model.ProposalTypeUploadedEnhanced))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if doc.ContentType != "application/pdf" {
		t.Errorf("ContentType = %q, want application/pdf", doc.ContentType)
	}
	if doc.Filename != "Township_Bakery_Expansion_Business_Proposal.pdf" {
		t.Errorf("Filename = %q", doc.Filename)
	}
	if string(doc.Data) != string(pdfBytes) {
		t.Error("PDF body does not match renderer response")
	}
}

func TestExporter_Export_FallsBackWhenRendererFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	e := NewExporter(NewRendererClient(server.URL, 5*time.Second))

	doc, err := e.Export(context.Background(), testProposal("Content body.", model.ProposalTypeUploadedEnhanced))
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}
	if doc.ContentType != "text/html; charset=utf-8" {
		t.Errorf("ContentType = %q, want html fallback", doc.ContentType)
	}
	if !strings.HasSuffix(doc.Filename, ".html") {
		t.Errorf("Filename = %q, want .html suffix", doc.Filename)
	}
}

func TestBuildSections_StructuredPlanOrder(t *testing.T) {
	plan := map[string]string{
		model.SectionFinancialProjections: "Year 1 revenue R 1,200,000.",
		model.SectionExecutiveSummary:     "A bakery serving Soweto.",
		model.SectionFundingRequest:       "Seeking R 500,000.",
		model.SectionMarketAnalysis:       "", // 空セクションは除外される
	}
	content, err := json.Marshal(plan)
	if err != nil {
		t.Fatalf("failed to marshal plan: %v", err)
	}

	sections := buildSections(testProposal(string(content), model.ProposalTypeGenerated))

	want := []string{"Executive Summary", "Funding Request", "Financial Projections"}
	if len(sections) != len(want) {
		t.Fatalf("sections = %d entries, want %d", len(sections), len(want))
	}
	for i, title := range want {
		if sections[i].Title != title {
			t.Errorf("sections[%d].Title = %q, want %q", i, sections[i].Title, title)
		}
	}
}

func TestBuildSections_PlainTextFallback(t *testing.T) {
	sections := buildSections(testProposal("Just a paragraph with no headings.", model.ProposalTypeUploadedEnhanced))

	if len(sections) != 1 {
		t.Fatalf("sections = %d entries, want 1", len(sections))
	}
	if sections[0].Title != "EXECUTIVE SUMMARY" {
		t.Errorf("sections[0].Title = %q, want EXECUTIVE SUMMARY", sections[0].Title)
	}
	if sections[0].Content != "Just a paragraph with no headings." {
		t.Errorf("sections[0].Content = %q", sections[0].Content)
	}
}

func TestParseEnhancedContent(t *testing.T) {
	content := "EXECUTIVE SUMMARY\nWe bake bread.\n\nMARKET OVERVIEW\nDemand is growing.\n\nFUNDING REQUIREMENTS\nR 500,000 needed."

	sections := parseEnhancedContent(content)

	want := []string{"EXECUTIVE SUMMARY", "MARKET ANALYSIS", "FUNDING REQUEST"}
	if len(sections) != len(want) {
		t.Fatalf("sections = %d entries, want %d", len(sections), len(want))
	}
	for i, title := range want {
		if sections[i].Title != title {
			t.Errorf("sections[%d].Title = %q, want %q", i, sections[i].Title, title)
		}
	}
	if !strings.Contains(sections[1].Content, "Demand is growing.") {
		t.Errorf("sections[1].Content = %q, missing body text", sections[1].Content)
	}
}

func TestParseEnhancedContent_NoHeadings(t *testing.T) {
	if sections := parseEnhancedContent("no recognizable structure here"); sections != nil {
		t.Errorf("parseEnhancedContent() = %v, want nil", sections)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "空白をアンダースコアに", input: "My Great Proposal", want: "My_Great_Proposal"},
		{name: "危険な文字を除去", input: `report/..\..\etc`, want: "report_.._.._etc"},
		{name: "記号混在", input: "R500k (draft!)", want: "R500k_draft"},
		{name: "空タイトル", input: "", want: "proposal"},
		{name: "記号のみ", input: "///", want: "proposal"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeFilename(tt.input); got != tt.want {
				t.Errorf("sanitizeFilename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
