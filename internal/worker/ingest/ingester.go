// Package ingest は資金提供元フィードのバックグラウンド取り込み処理を提供する。
// 公開されている資金調達情報のRSS/Atomフィードを定期的にフェッチし、
// 資金提供元としてデータベースに冪等に取り込む。
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"

	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/model"
	"github.com/thapelo/proposalhub/internal/repository"
	"github.com/thapelo/proposalhub/internal/security"
)

// maxFeedBodySize はフィードレスポンスボディの最大サイズ（5MB）。
const maxFeedBodySize = 5 * 1024 * 1024

// descriptionMaxLength は取り込む説明文の最大長。
const descriptionMaxLength = 2000

// Ingester は個別フィードのHTTPフェッチとパース、資金提供元への変換を行う。
// SSRF検証、gofeedによるパース、bluemondayによる説明文のサニタイズ、
// 名前をキーにしたUPSERTを実行する。
type Ingester struct {
	sourceRepo repository.FundingSourceRepository
	ssrfGuard  security.SSRFGuardService
	sanitizer  security.ContentSanitizerService
	collector  metrics.MetricsCollector
	logger     *slog.Logger
	timeout    time.Duration
}

// NewIngester はIngesterの新しいインスタンスを生成する。
func NewIngester(
	sourceRepo repository.FundingSourceRepository,
	ssrfGuard security.SSRFGuardService,
	sanitizer security.ContentSanitizerService,
	collector metrics.MetricsCollector,
	logger *slog.Logger,
	timeout time.Duration,
) *Ingester {
	return &Ingester{
		sourceRepo: sourceRepo,
		ssrfGuard:  ssrfGuard,
		sanitizer:  sanitizer,
		collector:  collector,
		logger:     logger,
		timeout:    timeout,
	}
}

// Ingest はフィードをフェッチし、エントリを資金提供元として取り込む。
// FeedIngesterServiceインターフェースを実装する。
func (g *Ingester) Ingest(ctx context.Context, feedURL string) error {
	start := time.Now()

	// SSRF検証
	if err := g.ssrfGuard.ValidateURL(feedURL); err != nil {
		g.logger.Error("SSRF検証に失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		g.collector.RecordFeedIngestFailure()
		return fmt.Errorf("SSRF検証に失敗: %w", err)
	}

	// HTTPリクエスト構築
	client := g.ssrfGuard.NewSafeClient(g.timeout, maxFeedBodySize)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return fmt.Errorf("リクエスト作成に失敗: %w", err)
	}

	req.Header.Set("User-Agent", "ProposalHub/1.0 Funding Feed Ingester")
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml, text/xml, */*")

	// HTTPリクエスト実行
	resp, err := client.Do(req)
	if err != nil {
		g.logger.Error("HTTPリクエストに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		g.collector.RecordFeedIngestFailure()
		return fmt.Errorf("HTTPリクエスト失敗: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		g.logger.Warn("フィードフェッチが失敗ステータスを返しました",
			slog.String("feed_url", feedURL),
			slog.Int("http_status", resp.StatusCode),
		)
		g.collector.RecordFeedIngestFailure()
		return &StatusError{StatusCode: resp.StatusCode}
	}

	// レスポンスボディを読み込み（最大サイズ制限付き）
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBodySize))
	if err != nil {
		g.collector.RecordFeedIngestFailure()
		return fmt.Errorf("レスポンス読み取り失敗: %w", err)
	}

	// gofeedでフィードをパース
	parser := gofeed.NewParser()
	parsedFeed, err := parser.ParseString(string(body))
	if err != nil {
		g.logger.Error("フィードのパースに失敗しました",
			slog.String("feed_url", feedURL),
			slog.String("error", err.Error()),
		)
		g.collector.RecordFeedIngestFailure()
		return &ParseError{Err: err}
	}

	// エントリを資金提供元に変換してUPSERT
	upserted := 0
	for _, item := range parsedFeed.Items {
		source := g.convertItem(item, parsedFeed.Title)
		if source == nil {
			continue
		}

		if err := g.sourceRepo.UpsertByName(ctx, source); err != nil {
			g.logger.Error("資金提供元のUPSERTに失敗しました",
				slog.String("feed_url", feedURL),
				slog.String("source_name", source.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		upserted++
	}

	duration := time.Since(start)
	g.collector.RecordFeedIngestSuccess()
	g.collector.RecordFeedIngestLatency(duration)
	g.collector.RecordSourcesUpserted(upserted)

	g.logger.Info("フィード取り込みが完了しました",
		slog.String("feed_url", feedURL),
		slog.Int("items_total", len(parsedFeed.Items)),
		slog.Int("sources_upserted", upserted),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)

	return nil
}

// convertItem はフィードエントリを資金提供元に変換する。
// タイトルのないエントリは取り込み対象外としてnilを返す。
func (g *Ingester) convertItem(item *gofeed.Item, feedTitle string) *model.FundingSource {
	if item == nil {
		return nil
	}

	name := strings.TrimSpace(item.Title)
	if name == "" {
		return nil
	}

	// 説明文はHTMLとして扱い、プレーンテキストに落とす
	description := item.Description
	if description == "" {
		description = item.Content
	}
	description = g.sanitizer.StripToText(description)
	// ルーン単位で切り詰めてマルチバイト文字の分断を防ぐ
	if runes := []rune(description); len(runes) > descriptionMaxLength {
		description = string(runes[:descriptionMaxLength])
	}

	var deadline *time.Time
	if item.PublishedParsed != nil {
		t := *item.PublishedParsed
		deadline = &t
	}

	now := time.Now()
	return &model.FundingSource{
		ID:                  uuid.New().String(),
		Name:                name,
		Description:         description,
		EligibilityCriteria: []string{"business plan"},
		ApplicationDeadline: deadline,
		ContactWebsite:      item.Link,
		Requirements:        []string{fmt.Sprintf("Listed via %s", strings.TrimSpace(feedTitle))},
		IsActive:            true,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}
