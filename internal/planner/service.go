package planner

import (
	"context"
	"log/slog"
	"time"

	"github.com/thapelo/proposalhub/internal/metrics"
	"github.com/thapelo/proposalhub/internal/model"
)

// GeneratorService は事業計画書生成のインターフェースを定義する。
type GeneratorService interface {
	// GeneratePlan は入力パラメータから事業計画書を生成する。
	// 外部AIサービスが構成済みの場合はそれを優先し、
	// 未構成または失敗時はテンプレート生成にフォールバックする。
	GeneratePlan(ctx context.Context, input model.PlanInput) (model.BusinessPlan, error)
}

// generatorService はGeneratorServiceの実装。
type generatorService struct {
	client    *Client
	template  *TemplateGenerator
	collector metrics.MetricsCollector
}

// 実装がインターフェースを満たすことをコンパイル時に保証する
var _ GeneratorService = (*generatorService)(nil)

// NewGeneratorService はGeneratorServiceを生成する。
func NewGeneratorService(client *Client, collector metrics.MetricsCollector) *generatorService {
	return &generatorService{
		client:    client,
		template:  NewTemplateGenerator(),
		collector: collector,
	}
}

// GeneratePlan は事業計画書を生成する。
// テンプレート生成は外部依存を持たないため、失敗しない。
func (s *generatorService) GeneratePlan(ctx context.Context, input model.PlanInput) (model.BusinessPlan, error) {
	if s.client.Enabled() {
		start := time.Now()
		plan, err := s.client.GeneratePlan(ctx, input)
		s.collector.RecordAICallLatency(time.Since(start))
		if err == nil {
			s.collector.RecordPlanGenerated("ai")
			return plan, nil
		}
		// 外部サービスの失敗はテンプレートへのフォールバックで吸収する
		slog.Warn("planner service failed, falling back to templates",
			slog.String("error", err.Error()),
		)
	}

	s.collector.RecordPlanGenerated("template")
	return s.template.GeneratePlan(input), nil
}
