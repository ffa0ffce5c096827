package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thapelo/proposalhub/internal/document"
	"github.com/thapelo/proposalhub/internal/export"
	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/middleware"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/proposal"
)

// extractedTextPreviewLimit はアップロードレスポンスに含める抽出テキストの最大長。
const extractedTextPreviewLimit = 500

// ProposalServiceInterface は提案書ハンドラーが必要とするサービスインターフェース。
type ProposalServiceInterface interface {
	Generate(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error)
	Upload(ctx context.Context, userID, filename string, file io.Reader, size int64) (*proposal.UploadResult, error)
	Analyze(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error)
	Get(ctx context.Context, userID, proposalID string) (*model.Proposal, error)
	List(ctx context.Context, userID string) ([]*model.Proposal, error)
}

// ProposalHandler は提案書管理のHTTPハンドラー。
type ProposalHandler struct {
	service   ProposalServiceInterface
	exporter  export.ExporterService
	collector metrics.MetricsCollector

	maxUploadSizeMB int64
}

// NewProposalHandler はProposalHandlerを生成する。
func NewProposalHandler(service ProposalServiceInterface, exporter export.ExporterService, collector metrics.MetricsCollector, maxUploadSizeMB int64) *ProposalHandler {
	return &ProposalHandler{
		service:         service,
		exporter:        exporter,
		collector:       collector,
		maxUploadSizeMB: maxUploadSizeMB,
	}
}

// proposalSummaryResponse は一覧APIの1エントリ。
type proposalSummaryResponse struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Type      string   `json:"type"`
	Status    string   `json:"status"`
	Score     *float64 `json:"score"`
	CreatedAt string   `json:"created_at"`
}

// ListProposals はユーザーの提案書一覧を返す。
// GET /api/user-proposals
func (h *ProposalHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	proposals, err := h.service.List(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	summaries := make([]proposalSummaryResponse, 0, len(proposals))
	for _, p := range proposals {
		summaries = append(summaries, proposalSummaryResponse{
			ID:        p.ID,
			Title:     p.Title,
			Type:      string(p.ProposalType),
			Status:    string(p.Status),
			Score:     p.AnalysisScore,
			CreatedAt: p.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"proposals": summaries,
	})
}

// GenerateBusinessPlan はビジネスプラン生成を処理する。
// POST /api/generate-business-plan
func (h *ProposalHandler) GenerateBusinessPlan(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var input model.PlanInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, invalidRequestBodyError())
		return
	}

	p, plan, err := h.service.Generate(r.Context(), userID, input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":       "Business plan generated successfully",
		"proposal_id":   p.ID,
		"business_plan": plan,
	})
}

// UploadProposal は提案書ファイルのアップロードを処理する。
// POST /api/upload-proposal （multipart/form-data、フィールド名 "file"）
func (h *ProposalHandler) UploadProposal(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	maxBytes := h.maxUploadSizeMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	if err := r.ParseMultipartForm(maxBytes); err != nil {
		writeAPIErrorResponse(w, http.StatusRequestEntityTooLarge, model.NewFileTooLargeError(h.maxUploadSizeMB))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewFileRequiredError())
		return
	}
	defer file.Close()

	result, err := h.service.Upload(r.Context(), userID, header.Filename, file, header.Size)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// プレビューはルーン単位で切り詰める。バイト単位ではマルチバイト文字が壊れる。
	preview := result.ExtractedText
	if runes := []rune(preview); len(runes) > extractedTextPreviewLimit {
		preview = string(runes[:extractedTextPreviewLimit]) + "..."
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":        "File uploaded and enhanced successfully",
		"proposal_id":    result.Proposal.ID,
		"extracted_text": preview,
		"status":         string(result.Proposal.Status),
		"enhanced":       result.Enhanced,
	})
}

// AnalyzeProposal は提案書分析を処理する。
// POST /api/analyze-proposal/{id}
func (h *ProposalHandler) AnalyzeProposal(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	proposalID := chi.URLParam(r, "id")
	analysis, err := h.service.Analyze(r.Context(), userID, proposalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":  "Proposal analyzed successfully",
		"analysis": analysis,
	})
}

// GetProposalContent は提案書の内容を返す。
// レスポンスのbusiness_planは構造化プランの場合はオブジェクト、
// 整形済みテキストの場合は文字列になる。
// GET /api/proposal-content/{id}
func (h *ProposalHandler) GetProposalContent(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	proposalID := chi.URLParam(r, "id")
	p, err := h.service.Get(r.Context(), userID, proposalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	var businessPlan any = p.Content
	if p.IsStructured() {
		var plan map[string]string
		if err := json.Unmarshal([]byte(p.Content), &plan); err == nil {
			businessPlan = plan
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"business_plan": businessPlan,
		"title":         p.Title,
		"type":          string(p.ProposalType),
	})
}

// DownloadProposal は提案書をPDF（またはHTMLフォールバック）でダウンロードさせる。
// GET /api/download-proposal/{id}
func (h *ProposalHandler) DownloadProposal(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	proposalID := chi.URLParam(r, "id")
	p, err := h.service.Get(r.Context(), userID, proposalID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	doc, err := h.exporter.Export(r.Context(), p)
	if err != nil {
		handleServiceError(w, model.NewExportFailedError())
		return
	}

	if doc.ContentType == "application/pdf" {
		h.collector.RecordExport("pdf")
	} else {
		h.collector.RecordExport("html")
	}

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.Filename))
	w.WriteHeader(http.StatusOK)
	w.Write(doc.Data)
}
