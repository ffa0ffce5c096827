package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/thapelo/proposalhub/internal/document"
	"github.com/thapelo/proposalhub/internal/export"
	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/middleware"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/proposal"
)

// mockProposalService はProposalServiceInterfaceのモック実装。
type mockProposalService struct {
	generateFn func(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error)
	uploadFn   func(ctx context.Context, userID, filename string, file io.Reader, size int64) (*proposal.UploadResult, error)
	analyzeFn  func(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error)
	getFn      func(ctx context.Context, userID, proposalID string) (*model.Proposal, error)
	listFn     func(ctx context.Context, userID string) ([]*model.Proposal, error)
}

func (m *mockProposalService) Generate(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error) {
	if m.generateFn != nil {
		return m.generateFn(ctx, userID, input)
	}
	return nil, nil, nil
}

func (m *mockProposalService) Upload(ctx context.Context, userID, filename string, file io.Reader, size int64) (*proposal.UploadResult, error) {
	if m.uploadFn != nil {
		return m.uploadFn(ctx, userID, filename, file, size)
	}
	return nil, nil
}

func (m *mockProposalService) Analyze(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error) {
	if m.analyzeFn != nil {
		return m.analyzeFn(ctx, userID, proposalID)
	}
	return nil, nil
}

func (m *mockProposalService) Get(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
	if m.getFn != nil {
		return m.getFn(ctx, userID, proposalID)
	}
	return nil, nil
}

func (m *mockProposalService) List(ctx context.Context, userID string) ([]*model.Proposal, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID)
	}
	return nil, nil
}

// mockExporter はExporterServiceのモック実装。
type mockExporter struct {
	exportFn func(ctx context.Context, p *model.Proposal) (*export.Document, error)
}

func (m *mockExporter) Export(ctx context.Context, p *model.Proposal) (*export.Document, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, p)
	}
	return nil, nil
}

func newTestProposalHandler(service *mockProposalService, exporter *mockExporter) *ProposalHandler {
	collector := metrics.NewCollector(prometheus.NewRegistry())
	return NewProposalHandler(service, exporter, collector, 16)
}

// withUserID は認証済みユーザーIDをコンテキストに積んだリクエストを返す。
func withUserID(r *http.Request, userID string) *http.Request {
	return r.WithContext(middleware.ContextWithUserID(r.Context(), userID))
}

// withChiURLParam はchiのURLパラメータを注入したリクエストを返す。
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func TestProposalHandler_ListProposals(t *testing.T) {
	score := 75.0
	service := &mockProposalService{
		listFn: func(ctx context.Context, userID string) ([]*model.Proposal, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return []*model.Proposal{
				{
					ID:            "prop-1",
					Title:         "Business Plan - Retail",
					ProposalType:  model.ProposalTypeGenerated,
					Status:        model.ProposalStatusAnalyzed,
					AnalysisScore: &score,
					CreatedAt:     time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC),
				},
				{
					ID:           "prop-2",
					Title:        "Uploaded Proposal",
					ProposalType: model.ProposalTypeUploadedEnhanced,
					Status:       model.ProposalStatusCompleted,
				},
			}, nil
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/user-proposals", nil), "user-1")
	rec := httptest.NewRecorder()
	h.ListProposals(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Proposals []proposalSummaryResponse `json:"proposals"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Proposals) != 2 {
		t.Fatalf("proposals = %d entries, want 2", len(resp.Proposals))
	}
	if resp.Proposals[0].Score == nil || *resp.Proposals[0].Score != 75.0 {
		t.Errorf("proposals[0].Score = %v, want 75", resp.Proposals[0].Score)
	}
	if resp.Proposals[1].Score != nil {
		t.Errorf("proposals[1].Score = %v, want null", resp.Proposals[1].Score)
	}
	if resp.Proposals[0].CreatedAt != "2025-03-01T09:00:00Z" {
		t.Errorf("proposals[0].CreatedAt = %q", resp.Proposals[0].CreatedAt)
	}
}

func TestProposalHandler_ListProposals_Unauthorized(t *testing.T) {
	h := newTestProposalHandler(&mockProposalService{}, &mockExporter{})

	req := httptest.NewRequest(http.MethodGet, "/api/user-proposals", nil)
	rec := httptest.NewRecorder()
	h.ListProposals(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestProposalHandler_GenerateBusinessPlan(t *testing.T) {
	service := &mockProposalService{
		generateFn: func(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error) {
			if input.BusinessType != "Retail" {
				t.Errorf("input.BusinessType = %q", input.BusinessType)
			}
			return &model.Proposal{ID: "prop-1"}, model.BusinessPlan{
				model.SectionExecutiveSummary: "A spaza shop network.",
			}, nil
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	body := `{"business_type":"Retail","industry":"Consumer goods","target_market":"Townships"}`
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/generate-business-plan", strings.NewReader(body)), "user-1")
	rec := httptest.NewRecorder()
	h.GenerateBusinessPlan(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Message      string            `json:"message"`
		ProposalID   string            `json:"proposal_id"`
		BusinessPlan map[string]string `json:"business_plan"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "Business plan generated successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	if resp.ProposalID != "prop-1" {
		t.Errorf("proposal_id = %q", resp.ProposalID)
	}
	if resp.BusinessPlan[model.SectionExecutiveSummary] == "" {
		t.Error("business_plan is missing the executive summary")
	}
}

func TestProposalHandler_GenerateBusinessPlan_MissingFields(t *testing.T) {
	service := &mockProposalService{
		generateFn: func(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error) {
			return nil, nil, model.NewMissingFieldsError("industry")
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/generate-business-plan", strings.NewReader(`{}`)), "user-1")
	rec := httptest.NewRecorder()
	h.GenerateBusinessPlan(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body := decodeErrorResponse(t, rec); body.Code != model.ErrCodeMissingFields {
		t.Errorf("error code = %q", body.Code)
	}
}

func multipartBody(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := fw.Write([]byte(content)); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestProposalHandler_UploadProposal(t *testing.T) {
	service := &mockProposalService{
		uploadFn: func(ctx context.Context, userID, filename string, file io.Reader, size int64) (*proposal.UploadResult, error) {
			if filename != "plan.txt" {
				t.Errorf("filename = %q, want plan.txt", filename)
			}
			return &proposal.UploadResult{
				Proposal:      &model.Proposal{ID: "prop-1", Status: model.ProposalStatusCompleted},
				ExtractedText: strings.Repeat("a", 600),
				Enhanced:      true,
			}, nil
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	buf, contentType := multipartBody(t, "file", "plan.txt", "raw proposal text")
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/upload-proposal", buf), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadProposal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Message       string `json:"message"`
		ProposalID    string `json:"proposal_id"`
		ExtractedText string `json:"extracted_text"`
		Status        string `json:"status"`
		Enhanced      bool   `json:"enhanced"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Message != "File uploaded and enhanced successfully" {
		t.Errorf("message = %q", resp.Message)
	}
	// プレビューは500文字で切り詰められる
	if len(resp.ExtractedText) != extractedTextPreviewLimit+3 {
		t.Errorf("extracted_text length = %d, want %d", len(resp.ExtractedText), extractedTextPreviewLimit+3)
	}
	if !strings.HasSuffix(resp.ExtractedText, "...") {
		t.Error("extracted_text preview is not truncated with ellipsis")
	}
	if !resp.Enhanced {
		t.Error("enhanced = false, want true")
	}
}

// TestProposalHandler_UploadProposal_MultibytePreview はマルチバイト文字を含む
// 抽出テキストのプレビューがルーン単位で切り詰められることを検証する。
func TestProposalHandler_UploadProposal_MultibytePreview(t *testing.T) {
	service := &mockProposalService{
		uploadFn: func(ctx context.Context, userID, filename string, file io.Reader, size int64) (*proposal.UploadResult, error) {
			return &proposal.UploadResult{
				Proposal:      &model.Proposal{ID: "prop-1", Status: model.ProposalStatusCompleted},
				ExtractedText: strings.Repeat("あ", 600),
				Enhanced:      true,
			}, nil
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	buf, contentType := multipartBody(t, "file", "plan.txt", "raw proposal text")
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/upload-proposal", buf), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadProposal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		ExtractedText string `json:"extracted_text"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !utf8.ValidString(resp.ExtractedText) {
		t.Error("extracted_text contains broken UTF-8")
	}
	want := strings.Repeat("あ", extractedTextPreviewLimit) + "..."
	if resp.ExtractedText != want {
		t.Errorf("extracted_text = %d runes, want %d runes + ellipsis",
			utf8.RuneCountInString(resp.ExtractedText), extractedTextPreviewLimit)
	}
}

func TestProposalHandler_UploadProposal_FileMissing(t *testing.T) {
	h := newTestProposalHandler(&mockProposalService{}, &mockExporter{})

	buf, contentType := multipartBody(t, "wrong_field", "plan.txt", "content")
	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/upload-proposal", buf), "user-1")
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadProposal(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if body := decodeErrorResponse(t, rec); body.Code != model.ErrCodeFileRequired {
		t.Errorf("error code = %q", body.Code)
	}
}

func TestProposalHandler_AnalyzeProposal(t *testing.T) {
	service := &mockProposalService{
		analyzeFn: func(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error) {
			if proposalID != "prop-1" {
				t.Errorf("proposalID = %q, want prop-1", proposalID)
			}
			return &document.AnalysisResult{Score: 62.5, WordCount: 850}, nil
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/analyze-proposal/prop-1", nil), "user-1")
	req = withChiURLParam(req, "id", "prop-1")
	rec := httptest.NewRecorder()
	h.AnalyzeProposal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Message  string                  `json:"message"`
		Analysis document.AnalysisResult `json:"analysis"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Analysis.Score != 62.5 {
		t.Errorf("analysis.score = %v, want 62.5", resp.Analysis.Score)
	}
}

func TestProposalHandler_AnalyzeProposal_NotFound(t *testing.T) {
	service := &mockProposalService{
		analyzeFn: func(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error) {
			return nil, model.NewProposalNotFoundError(proposalID)
		},
	}
	h := newTestProposalHandler(service, &mockExporter{})

	req := withUserID(httptest.NewRequest(http.MethodPost, "/api/analyze-proposal/missing", nil), "user-1")
	req = withChiURLParam(req, "id", "missing")
	rec := httptest.NewRecorder()
	h.AnalyzeProposal(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestProposalHandler_GetProposalContent(t *testing.T) {
	structuredContent, err := json.Marshal(map[string]string{
		model.SectionExecutiveSummary: "Summary text.",
	})
	if err != nil {
		t.Fatalf("failed to marshal plan: %v", err)
	}

	tests := []struct {
		name          string
		stored        *model.Proposal
		wantStructure bool
	}{
		{
			name: "構造化プランはオブジェクトで返す",
			stored: &model.Proposal{
				ID:           "prop-1",
				Title:        "Business Plan - Retail",
				Content:      string(structuredContent),
				ProposalType: model.ProposalTypeGenerated,
			},
			wantStructure: true,
		},
		{
			name: "整形済みテキストは文字列で返す",
			stored: &model.Proposal{
				ID:           "prop-2",
				Title:        "Uploaded Proposal",
				Content:      "EXECUTIVE SUMMARY\nplain text content",
				ProposalType: model.ProposalTypeUploadedEnhanced,
			},
			wantStructure: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockProposalService{
				getFn: func(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
					return tt.stored, nil
				},
			}
			h := newTestProposalHandler(service, &mockExporter{})

			req := withUserID(httptest.NewRequest(http.MethodGet, "/api/proposal-content/"+tt.stored.ID, nil), "user-1")
			req = withChiURLParam(req, "id", tt.stored.ID)
			rec := httptest.NewRecorder()
			h.GetProposalContent(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want 200", rec.Code)
			}
			var resp map[string]any
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			_, isObject := resp["business_plan"].(map[string]any)
			if isObject != tt.wantStructure {
				t.Errorf("business_plan is object = %v, want %v", isObject, tt.wantStructure)
			}
			if resp["title"] != tt.stored.Title {
				t.Errorf("title = %v", resp["title"])
			}
		})
	}
}

func TestProposalHandler_DownloadProposal(t *testing.T) {
	service := &mockProposalService{
		getFn: func(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
			return &model.Proposal{ID: proposalID, Title: "Plan"}, nil
		},
	}
	exporter := &mockExporter{
		exportFn: func(ctx context.Context, p *model.Proposal) (*export.Document, error) {
			return &export.Document{
				Data:        []byte("%PDF-1.4"),
				ContentType: "application/pdf",
				Filename:    "Plan_Business_Proposal.pdf",
			}, nil
		},
	}
	h := newTestProposalHandler(service, exporter)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/download-proposal/prop-1", nil), "user-1")
	req = withChiURLParam(req, "id", "prop-1")
	rec := httptest.NewRecorder()
	h.DownloadProposal(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got := rec.Header().Get("Content-Type"); got != "application/pdf" {
		t.Errorf("Content-Type = %q", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != `inline; filename="Plan_Business_Proposal.pdf"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "%PDF-1.4" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestProposalHandler_DownloadProposal_ExportFailure(t *testing.T) {
	service := &mockProposalService{
		getFn: func(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
			return &model.Proposal{ID: proposalID}, nil
		},
	}
	exporter := &mockExporter{
		exportFn: func(ctx context.Context, p *model.Proposal) (*export.Document, error) {
			return nil, context.DeadlineExceeded
		},
	}
	h := newTestProposalHandler(service, exporter)

	req := withUserID(httptest.NewRequest(http.MethodGet, "/api/download-proposal/prop-1", nil), "user-1")
	req = withChiURLParam(req, "id", "prop-1")
	rec := httptest.NewRecorder()
	h.DownloadProposal(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", rec.Code)
	}
	if body := decodeErrorResponse(t, rec); body.Code != model.ErrCodeExportFailed {
		t.Errorf("error code = %q", body.Code)
	}
}
