// Package app はアプリケーションの初期化、依存関係のワイヤリング、
// サブコマンドごとの起動処理を提供する。
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/thapelo/proposalhub/internal/auth"
	"github.com/thapelo/proposalhub/internal/config"
	"github.com/thapelo/proposalhub/internal/database"
	"github.com/thapelo/proposalhub/internal/document"
	"github.com/thapelo/proposalhub/internal/export"
	"github.com/thapelo/proposalhub/internal/funding"
	"github.com/thapelo/proposalhub/internal/handler"
	"github.com/thapelo/proposalhub/internal/logger"
	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/middleware"
	"github.com/thapelo/proposalhub/internal/planner"
	"github.com/thapelo/proposalhub/internal/proposal"
	"github.com/thapelo/proposalhub/internal/repository"
	"github.com/thapelo/proposalhub/internal/security"
	"github.com/thapelo/proposalhub/internal/worker/cleanup"
	"github.com/thapelo/proposalhub/internal/worker/ingest"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、JSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer) (*config.Config, error) {
	// 1. ログの初期化（設定読み込み前にログを使えるようにする）
	logger.SetupDefault(w)

	// 2. 環境変数から設定を読み込む
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するモードで起動する。
// argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w)
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting application",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandServe:
		return runServe(cfg)
	case CommandWorker:
		return runWorker(cfg)
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandSeed:
		return runSeed(cfg)
	default:
		return runServe(cfg)
	}
}

// runServe はAPIサーバーモードで起動する。
// DB接続を開き、全依存関係をワイヤリングし、HTTPサーバーを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとグレースフルシャットダウンを行う。
func runServe(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established")

	// 2. リポジトリの初期化
	userRepo := repository.NewPostgresUserRepo(db)
	proposalRepo := repository.NewPostgresProposalRepo(db)
	sourceRepo := repository.NewPostgresFundingSourceRepo(db)
	matchRepo := repository.NewPostgresFundingMatchRepo(db)

	// 3. 初期資金提供元データの投入（既存データがある場合はスキップ）
	if err := funding.SeedSources(context.Background(), sourceRepo); err != nil {
		return fmt.Errorf("failed to seed funding sources: %w", err)
	}

	// 4. メトリクスとセキュリティサービスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	sanitizer := security.NewContentSanitizer()

	// 5. ドメインサービスの初期化
	tokenService := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry)
	authService := auth.NewService(userRepo, tokenService)

	plannerClient := planner.NewClient(cfg.PlannerURL, cfg.ClientTimeout)
	generator := planner.NewGeneratorService(plannerClient, collector)

	extractorClient := document.NewExtractorClient(cfg.ExtractorURL, cfg.ClientTimeout)
	extractor := document.NewExtractor(extractorClient)
	processor := document.NewProcessor(extractor, sanitizer)
	analyzer := document.NewAnalyzer()

	proposalService := proposal.NewService(
		proposalRepo, generator, processor, analyzer, collector,
		cfg.UploadDir, cfg.MaxUploadSizeMB,
	)

	matcher := funding.NewMatcher(sourceRepo)
	recommendationService := funding.NewRecommendationService(matcher, matchRepo)
	searcherService := funding.NewSearcher(matcher)

	rendererClient := export.NewRendererClient(cfg.RendererURL, cfg.ClientTimeout)
	exporter := export.NewExporter(rendererClient)

	// 6. ルーターの構築
	// configのレート制限はreq/min単位なのでreq/secに変換する
	rateLimiterCfg := middleware.DefaultRateLimiterConfig()
	rateLimiterCfg.GeneralRate = rate.Limit(float64(cfg.RateLimitGeneral) / 60.0)
	rateLimiterCfg.GeneralBurst = cfg.RateLimitGeneral
	rateLimiterCfg.HeavyRate = rate.Limit(float64(cfg.RateLimitHeavy) / 60.0)
	rateLimiterCfg.HeavyBurst = cfg.RateLimitHeavy

	rateLimiter := middleware.NewRateLimiter(rateLimiterCfg)
	defer rateLimiter.Stop()

	deps := &handler.RouterDeps{
		HealthChecker:     db,
		TokenVerifier:     authService,
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter:       rateLimiter,

		AuthService: authService,

		ProposalService: proposalService,
		Exporter:        exporter,
		MaxUploadSizeMB: cfg.MaxUploadSizeMB,

		RecommendationService: recommendationService,
		SearcherService:       searcherService,

		Collector: collector,
	}

	router := handler.NewRouter(deps)

	// /metrics はAPIミドルウェアチェーンの外に配置する
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(registry))
	mux.Handle("/", router)

	// 7. HTTPサーバーの起動
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// グレースフルシャットダウンのためのシグナルハンドリング
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("API server starting",
			slog.String("addr", server.Addr),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down API server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("API server stopped gracefully")
	return nil
}

// runWorker はワーカーモードで起動する。
// DB接続を開き、資金提供元フィードの取り込みスケジューラと
// クリーンアップジョブを起動する。
// SIGINTまたはSIGTERMシグナルを受信するとシャットダウンする。
func runWorker(cfg *config.Config) error {
	// 1. DB接続
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	slog.Info("database connection established (worker)")

	// 2. リポジトリとセキュリティサービスの初期化
	sourceRepo := repository.NewPostgresFundingSourceRepo(db)
	proposalRepo := repository.NewPostgresProposalRepo(db)
	ssrfGuard := security.NewSSRFGuard()
	sanitizer := security.NewContentSanitizer()

	// 3. メトリクスの初期化
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// 4. 取り込みワーカーの初期化
	ingester := ingest.NewIngester(
		sourceRepo, ssrfGuard, sanitizer, collector,
		slog.Default(), cfg.IngestTimeout,
	)
	scheduler := ingest.NewScheduler(
		cfg.FundingFeedURLs, ingester, slog.Default(), cfg.IngestMaxConcurrent,
	)

	// 5. クリーンアップジョブの初期化
	cleanupJob := cleanup.NewCleanupJob(proposalRepo, db, cfg.UploadDir, slog.Default())

	// グレースフルシャットダウンのためのシグナルハンドリング
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-stop
		slog.Info("shutting down worker...")
		cancel()
	}()

	slog.Info("worker starting",
		slog.Duration("ingest_interval", cfg.IngestInterval),
		slog.Int("max_concurrent", cfg.IngestMaxConcurrent),
		slog.Int("feed_count", len(cfg.FundingFeedURLs)),
	)

	// クリーンアップジョブを日次でバックグラウンド実行
	go func() {
		// 起動直後に1回実行
		if err := cleanupJob.Run(ctx); err != nil {
			slog.Error("cleanup job failed", slog.String("error", err.Error()))
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := cleanupJob.Run(ctx); err != nil {
					slog.Error("cleanup job failed", slog.String("error", err.Error()))
				}
			}
		}
	}()

	// 取り込みスケジューラをメインgoroutineで実行（ブロッキング）
	scheduler.Start(ctx, cfg.IngestInterval)

	slog.Info("worker stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runSeed は初期資金提供元データを投入する。
// 名前をキーにUPSERTするため、何度実行しても安全。
func runSeed(cfg *config.Config) error {
	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	sourceRepo := repository.NewPostgresFundingSourceRepo(db)
	if err := funding.SeedSources(context.Background(), sourceRepo); err != nil {
		return fmt.Errorf("seeding failed: %w", err)
	}

	slog.Info("funding sources seeded successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
