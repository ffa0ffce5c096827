package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/thapelo/proposalhub/internal/export"
	"github.com/thapelo/proposalhub/internal/funding"
	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker     HealthChecker
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 認証
	AuthService AuthServiceInterface

	// 提案書
	ProposalService ProposalServiceInterface
	Exporter        export.ExporterService
	MaxUploadSizeMB int64

	// 資金調達
	RecommendationService funding.RecommendationService
	SearcherService       funding.SearcherService

	// 計測
	Collector metrics.MetricsCollector
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → Logging → SecurityHeaders → CORS → Auth → RateLimit(General)
//
// 認証不要ルート（/api/register, /api/login, /health, /api/health）は
// 認証ミドルウェアの外に配置する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通ミドルウェア
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default(), deps.Collector))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	proposalHandler := NewProposalHandler(deps.ProposalService, deps.Exporter, deps.Collector, deps.MaxUploadSizeMB)
	fundingHandler := NewFundingHandler(deps.RecommendationService, deps.SearcherService, deps.ProposalService)
	healthHandler := NewHealthHandler(deps.HealthChecker)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Check)
	r.Get("/api/health", healthHandler.Check)

	r.Post("/api/register", authHandler.Register)
	r.Post("/api/login", authHandler.Login)

	// --- 認証が必要なルート ---
	// ミドルウェアスタック: Auth → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		// 提案書管理
		r.Get("/api/user-proposals", proposalHandler.ListProposals)
		r.Get("/api/proposal-content/{id}", proposalHandler.GetProposalContent)
		r.Get("/api/download-proposal/{id}", proposalHandler.DownloadProposal)

		// 生成・アップロード・分析は重い処理専用のレート制限を追加
		r.With(deps.RateLimiter.HeavyMiddleware()).Post("/api/generate-business-plan", proposalHandler.GenerateBusinessPlan)
		r.With(deps.RateLimiter.HeavyMiddleware()).Post("/api/upload-proposal", proposalHandler.UploadProposal)
		r.With(deps.RateLimiter.HeavyMiddleware()).Post("/api/analyze-proposal/{id}", proposalHandler.AnalyzeProposal)

		// 資金調達マッチング
		r.Get("/api/funding-recommendations/{id}", fundingHandler.GetRecommendations)
		r.Post("/api/search-funders", fundingHandler.SearchFunders)
	})

	return r
}
