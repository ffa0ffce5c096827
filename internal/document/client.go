// Package document はアップロード文書のテキスト抽出・整形・分析機能を提供する。
//
// プレーンテキストとHTMLはローカルで抽出し、PDF・Word・画像（OCR）は
// 外部の抽出サービスに委譲する。外部サービスが未構成の場合、
// これらの形式の抽出はエラーを返す。
package document

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// ExtractorClient は外部テキスト抽出サービスへのHTTPクライアント。
// PDFパース・Word展開・OCRを担当するサービスにファイルを転送する。
type ExtractorClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewExtractorClient はExtractorClientを生成する。
func NewExtractorClient(baseURL string, timeout time.Duration) *ExtractorClient {
	return &ExtractorClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Enabled は外部サービスが構成されているかを返す。
func (c *ExtractorClient) Enabled() bool {
	return c != nil && c.baseURL != ""
}

// ExtractText はファイルをmultipartで送信し、抽出されたテキストを受け取る。
func (c *ExtractorClient) ExtractText(ctx context.Context, filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", filepath.Base(filePath))
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", &buf)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extractor service request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("extractor service returned status %d", resp.StatusCode)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode extractor response: %w", err)
	}

	return result.Text, nil
}
