// Package planner は事業計画書の生成機能を提供する。
//
// 外部のAI計画生成サービスが構成されている場合はそれを利用し、
// 未構成または失敗時には南アフリカ市場向けのテンプレート生成に
// フォールバックする。
package planner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/thapelo/proposalhub/internal/model"
)

// Client はAI計画生成サービスへのHTTPクライアント。
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient はClientを生成する。baseURLが空の場合、クライアントは無効とみなされる。
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled は外部サービスが構成されているかを返す。
func (c *Client) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// GeneratePlan は外部サービスに計画生成を依頼する。
// サービスはセクションキーをキーとするJSONオブジェクトを返す。
func (c *Client) GeneratePlan(ctx context.Context, input model.PlanInput) (model.BusinessPlan, error) {
	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal plan input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("planner service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("planner service returned status %d", resp.StatusCode)
	}

	var plan model.BusinessPlan
	if err := json.NewDecoder(resp.Body).Decode(&plan); err != nil {
		return nil, fmt.Errorf("failed to decode planner response: %w", err)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("planner service returned empty plan")
	}

	return plan, nil
}
