package handler

import (
	"context"
	"net/http"
)

// HealthChecker はヘルスチェックに必要なDB接続確認のインターフェース。
// *sql.DB がそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Check はサーバーとDB接続の稼働状態を返す。
// GET /health および GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.PingContext(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": "disconnected",
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "healthy",
		"database": "connected",
		"message":  "Business Proposal API is running",
	})
}
