// Package export は提案書のPDF・HTMLエクスポート機能を提供する。
//
// PDFレンダリングは外部のレンダラーサービスに委譲する。
// サービス未構成または失敗時は印刷用スタイル付きのHTMLに
// フォールバックし、ブラウザの印刷機能でPDF化できるようにする。
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// RendererClient は外部PDFレンダリングサービスへのHTTPクライアント。
type RendererClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewRendererClient はRendererClientを生成する。
func NewRendererClient(baseURL string, timeout time.Duration) *RendererClient {
	return &RendererClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled は外部サービスが構成されているかを返す。
func (c *RendererClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// RenderPDF はHTMLをレンダラーサービスに送信し、PDFバイト列を受け取る。
func (c *RendererClient) RenderPDF(ctx context.Context, htmlContent []byte) ([]byte, error) {
	body, err := json.Marshal(map[string]string{
		"html": string(htmlContent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal render request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("renderer service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("renderer service returned status %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read renderer response: %w", err)
	}
	if len(pdf) == 0 {
		return nil, fmt.Errorf("renderer service returned empty body")
	}

	return pdf, nil
}
