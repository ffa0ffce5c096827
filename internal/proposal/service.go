// Package proposal は提案書のライフサイクル（生成・アップロード・分析）を管理する。
package proposal

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/thapelo/proposalhub/internal/document"
	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/planner"
	"github.com/thapelo/proposalhub/internal/repository"
)

// UploadResult はアップロード処理の結果。
type UploadResult struct {
	Proposal      *model.Proposal
	ExtractedText string
	Enhanced      bool
}

// Service は提案書に関するビジネスロジックを提供する。
type Service struct {
	proposalRepo repository.ProposalRepository
	generator    planner.GeneratorService
	processor    document.ProcessorService
	analyzer     document.AnalyzerService
	collector    metrics.MetricsCollector

	uploadDir       string
	maxUploadSizeMB int64
}

// NewService はServiceを生成する。
func NewService(
	proposalRepo repository.ProposalRepository,
	generator planner.GeneratorService,
	processor document.ProcessorService,
	analyzer document.AnalyzerService,
	collector metrics.MetricsCollector,
	uploadDir string,
	maxUploadSizeMB int64,
) *Service {
	return &Service{
		proposalRepo:    proposalRepo,
		generator:       generator,
		processor:       processor,
		analyzer:        analyzer,
		collector:       collector,
		uploadDir:       uploadDir,
		maxUploadSizeMB: maxUploadSizeMB,
	}
}

// Generate はAIでビジネスプランを生成し、完成状態の提案書として保存する。
func (s *Service) Generate(ctx context.Context, userID string, input model.PlanInput) (*model.Proposal, model.BusinessPlan, error) {
	var missing []string
	if input.BusinessType == "" {
		missing = append(missing, "business_type")
	}
	if input.Industry == "" {
		missing = append(missing, "industry")
	}
	if input.TargetMarket == "" {
		missing = append(missing, "target_market")
	}
	if len(missing) > 0 {
		return nil, nil, model.NewMissingFieldsError(strings.Join(missing, ", "))
	}

	plan, err := s.generator.GeneratePlan(ctx, input)
	if err != nil {
		slog.Error("business plan generation failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return nil, nil, model.NewGenerationFailedError()
	}

	content, err := json.Marshal(plan)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal business plan: %w", err)
	}

	now := time.Now()
	p := &model.Proposal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        "Business Plan - " + input.BusinessType,
		Content:      string(content),
		ProposalType: model.ProposalTypeGenerated,
		Status:       model.ProposalStatusCompleted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.proposalRepo.Create(ctx, p); err != nil {
		return nil, nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	slog.Info("business plan generated",
		slog.String("user_id", userID),
		slog.String("proposal_id", p.ID),
	)

	return p, plan, nil
}

// Upload はファイルを保存し、テキスト抽出・整形を行って提案書として登録する。
// 抽出に失敗した場合もファイルは保持し、provisional contentとともに
// processingステータスの提案書を作成する。
func (s *Service) Upload(ctx context.Context, userID, filename string, file io.Reader, size int64) (*UploadResult, error) {
	if filename == "" {
		return nil, model.NewFileRequiredError()
	}
	if !document.IsAllowedExtension(filename) {
		return nil, model.NewInvalidFileTypeError(filepath.Ext(filename))
	}
	if size > s.maxUploadSizeMB*1024*1024 {
		return nil, model.NewFileTooLargeError(s.maxUploadSizeMB)
	}

	storedName := sanitizeFilename(filename)
	filePath, err := s.saveFile(storedName, file)
	if err != nil {
		return nil, fmt.Errorf("failed to save uploaded file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(filename))
	s.collector.RecordDocumentUploaded(ext)

	// 抽出と整形。失敗してもアップロード自体は受け付ける。
	status := model.ProposalStatusCompleted
	enhanced := true
	content, err := s.processor.ProcessDocument(ctx, filePath)
	if err != nil {
		slog.Warn("document processing failed",
			slog.String("file", storedName),
			slog.String("error", err.Error()),
		)
		s.collector.RecordExtractionFailure()
		content = fmt.Sprintf("File uploaded but text extraction failed: %s. Please review the document manually.", storedName)
		status = model.ProposalStatusProcessing
		enhanced = false
	}

	now := time.Now()
	p := &model.Proposal{
		ID:           uuid.New().String(),
		UserID:       userID,
		Title:        titleFromFilename(filename),
		Content:      content,
		ProposalType: model.ProposalTypeUploadedEnhanced,
		FilePath:     filePath,
		Status:       status,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.proposalRepo.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	slog.Info("proposal uploaded",
		slog.String("user_id", userID),
		slog.String("proposal_id", p.ID),
		slog.String("status", string(status)),
	)

	return &UploadResult{
		Proposal:      p,
		ExtractedText: content,
		Enhanced:      enhanced,
	}, nil
}

// Analyze は提案書の内容を分析し、スコアとフィードバックを保存する。
func (s *Service) Analyze(ctx context.Context, userID, proposalID string) (*document.AnalysisResult, error) {
	p, err := s.getOwned(ctx, userID, proposalID)
	if err != nil {
		return nil, err
	}

	analysis := s.analyzer.Analyze(p.Content)

	feedback, err := json.Marshal(analysis.Feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal feedback: %w", err)
	}

	if err := s.proposalRepo.UpdateAnalysis(ctx, p.ID, analysis.Score, feedback, model.ProposalStatusAnalyzed); err != nil {
		return nil, fmt.Errorf("failed to update analysis: %w", err)
	}

	s.collector.RecordAnalysisCompleted(analysis.Score)
	slog.Info("proposal analyzed",
		slog.String("proposal_id", p.ID),
		slog.Float64("score", analysis.Score),
	)

	return analysis, nil
}

// Get は指定ユーザー所有の提案書を取得する。
// 他ユーザー所有・存在しないIDはどちらもProposalNotFoundエラーになる。
func (s *Service) Get(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
	return s.getOwned(ctx, userID, proposalID)
}

// List はユーザーの提案書一覧を返す。
func (s *Service) List(ctx context.Context, userID string) ([]*model.Proposal, error) {
	proposals, err := s.proposalRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list proposals: %w", err)
	}
	return proposals, nil
}

// getOwned は所有権チェック付きで提案書を取得する。
func (s *Service) getOwned(ctx context.Context, userID, proposalID string) (*model.Proposal, error) {
	p, err := s.proposalRepo.FindByIDAndUser(ctx, proposalID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find proposal: %w", err)
	}
	if p == nil {
		return nil, model.NewProposalNotFoundError(proposalID)
	}
	return p, nil
}

// saveFile はアップロードディレクトリにファイルを保存し、パスを返す。
// 同名ファイルの衝突を避けるためUUIDプレフィックスを付与する。
func (s *Service) saveFile(storedName string, file io.Reader) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}

	filePath := filepath.Join(s.uploadDir, uuid.New().String()+"_"+storedName)
	dst, err := os.Create(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		os.Remove(filePath)
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	return filePath, nil
}

// sanitizeFilename はパス区切りや危険な文字を除去したファイル名を返す。
func sanitizeFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.ReplaceAll(name, "..", "")
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '.' || r == '-' || r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}

// titleFromFilename はファイル名から表示用タイトルを生成する。
func titleFromFilename(filename string) string {
	name := filepath.Base(filename)
	name = strings.TrimSuffix(name, filepath.Ext(name))
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")

	words := strings.Fields(name)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Uploaded Proposal"
	}
	return strings.Join(words, " ")
}
