package ingest

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// FeedIngesterService はフィード取り込みの実行インターフェース。
type FeedIngesterService interface {
	// Ingest は指定フィードをフェッチし、エントリを資金提供元として取り込む。
	Ingest(ctx context.Context, feedURL string) error
}

// feedState はフィードごとのエラー状態と次回試行時刻。
type feedState struct {
	consecutiveErrors int
	nextAttemptAt     time.Time
	stopped           bool
}

// Scheduler はフィード取り込みのスケジューリングと並列制御を行う。
// 設定された間隔のティッカーで全フィードURLを処理対象とし、
// semaphoreパターンで最大並列数を制御しながら取り込みを実行する。
// 失敗したフィードは指数バックオフで次回試行を遅らせ、
// 404/410/401/403を返すフィードとパース失敗が連続するフィードは停止する。
type Scheduler struct {
	feedURLs       []string
	ingester       FeedIngesterService
	logger         *slog.Logger
	maxConcurrency int

	mu     sync.Mutex
	states map[string]*feedState
}

// NewScheduler はSchedulerの新しいインスタンスを生成する。
// maxConcurrencyが0以下の場合はデフォルト値4を使用する。
func NewScheduler(
	feedURLs []string,
	ingester FeedIngesterService,
	logger *slog.Logger,
	maxConcurrency int,
) *Scheduler {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Scheduler{
		feedURLs:       feedURLs,
		ingester:       ingester,
		logger:         logger,
		maxConcurrency: maxConcurrency,
		states:         make(map[string]*feedState),
	}
}

// Start は指定間隔のティッカーでスケジューラを起動する。
// コンテキストがキャンセルされるまで実行を継続する。
func (s *Scheduler) Start(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	s.logger.Info("取り込みスケジューラを開始しました",
		slog.Duration("interval", interval),
		slog.Int("feed_count", len(s.feedURLs)),
		slog.Int("max_concurrency", s.maxConcurrency),
	)

	// 起動直後に1回実行
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("取り込みスケジューラを停止しました")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce は試行対象のフィードURLに対して並列で取り込みを実行する。
// バックオフ中・停止済みのフィードはスキップし、semaphoreパターンで最大並列数を制御する。
func (s *Scheduler) RunOnce(ctx context.Context) {
	if len(s.feedURLs) == 0 {
		s.logger.Info("取り込み対象のフィードはありません")
		return
	}

	now := time.Now()
	var due []string
	for _, feedURL := range s.feedURLs {
		if s.shouldFetch(feedURL, now) {
			due = append(due, feedURL)
		}
	}
	if len(due) == 0 {
		s.logger.Info("全フィードがバックオフ中または停止済みです",
			slog.Int("feed_count", len(s.feedURLs)),
		)
		return
	}

	start := time.Now()
	s.logger.Info("取り込みサイクルを開始します",
		slog.Int("feed_count", len(due)),
		slog.Int("skipped_count", len(s.feedURLs)-len(due)),
	)

	sem := make(chan struct{}, s.maxConcurrency)
	var wg sync.WaitGroup

	for _, feedURL := range due {
		wg.Add(1)
		sem <- struct{}{} // semaphore取得（ブロック）

		go func(url string) {
			defer wg.Done()
			defer func() { <-sem }() // semaphore解放

			err := s.ingester.Ingest(ctx, url)
			s.recordResult(url, err)
			if err != nil {
				s.logger.Error("フィード取り込みに失敗しました",
					slog.String("feed_url", url),
					slog.String("error", err.Error()),
				)
			}
		}(feedURL)
	}

	wg.Wait()

	duration := time.Since(start)
	s.logger.Info("取り込みサイクルが完了しました",
		slog.Int("feed_count", len(due)),
		slog.Float64("duration_ms", float64(duration.Milliseconds())),
	)
}

// shouldFetch はフィードが今回のサイクルで試行対象かを判定する。
func (s *Scheduler) shouldFetch(feedURL string, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[feedURL]
	if !ok {
		return true
	}
	if st.stopped {
		return false
	}
	return !now.Before(st.nextAttemptAt)
}

// recordResult は取り込み結果に応じてフィードの状態を遷移させる。
// 成功時はエラー状態をリセットし、HTTPエラーはステータス分類に従って
// 指数バックオフまたは停止を適用する。パース失敗は閾値回数連続で停止する。
func (s *Scheduler) recordResult(feedURL string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st, ok := s.states[feedURL]
	if !ok {
		st = &feedState{}
		s.states[feedURL] = st
	}

	if err == nil {
		st.consecutiveErrors = 0
		st.nextAttemptAt = time.Time{}
		return
	}

	var statusErr *StatusError
	var parseErr *ParseError
	switch {
	case errors.As(err, &statusErr):
		if ClassifyHTTPStatus(statusErr.StatusCode) == FetchResultStop {
			st.stopped = true
			s.logger.Warn("フィードのフェッチを停止しました",
				slog.String("feed_url", feedURL),
				slog.Int("http_status", statusErr.StatusCode),
			)
			return
		}
		s.applyBackoff(st, feedURL)
	case errors.As(err, &parseErr):
		st.consecutiveErrors++
		if st.consecutiveErrors >= parseFailureThreshold {
			st.stopped = true
			s.logger.Warn("パース失敗が連続したためフィードのフェッチを停止しました",
				slog.String("feed_url", feedURL),
				slog.Int("consecutive_errors", st.consecutiveErrors),
			)
		}
	default:
		s.applyBackoff(st, feedURL)
	}
}

// applyBackoff は連続エラー回数をインクリメントし、指数バックオフで次回試行時刻を設定する。
func (s *Scheduler) applyBackoff(st *feedState, feedURL string) {
	st.consecutiveErrors++
	delay := CalculateBackoff(st.consecutiveErrors - 1)
	st.nextAttemptAt = time.Now().Add(delay)
	s.logger.Warn("フィードにバックオフを適用しました",
		slog.String("feed_url", feedURL),
		slog.Int("consecutive_errors", st.consecutiveErrors),
		slog.Duration("retry_after", delay),
	)
}
