package document

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/net/html"
)

// allowedExtensions はアップロード可能なファイル拡張子の許可リスト。
var allowedExtensions = map[string]bool{
	".txt":  true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".doc":  true,
	".docx": true,
	".html": true,
}

// remoteExtensions は外部抽出サービスへの委譲が必要な拡張子。
var remoteExtensions = map[string]bool{
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".doc":  true,
	".docx": true,
}

// IsAllowedExtension はファイル名の拡張子が許可リストに含まれるかを返す。
func IsAllowedExtension(filename string) bool {
	return allowedExtensions[strings.ToLower(filepath.Ext(filename))]
}

// ExtractorService はファイルからのテキスト抽出のインターフェースを定義する。
type ExtractorService interface {
	// ExtractText はファイルパスからテキストを抽出する。
	// .txtと.htmlはローカルで処理し、PDF・Word・画像は外部サービスに委譲する。
	ExtractText(ctx context.Context, filePath string) (string, error)
}

// extractor はExtractorServiceの実装。
type extractor struct {
	client *ExtractorClient
}

var _ ExtractorService = (*extractor)(nil)

// NewExtractor はExtractorServiceを生成する。
// clientがnilまたは未構成の場合、リモート抽出が必要な形式はエラーになる。
func NewExtractor(client *ExtractorClient) *extractor {
	return &extractor{client: client}
}

// ExtractText はファイルからテキストを抽出する。
func (e *extractor) ExtractText(ctx context.Context, filePath string) (string, error) {
	if _, err := os.Stat(filePath); err != nil {
		return "", fmt.Errorf("file not found: %s: %w", filePath, err)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	switch {
	case ext == ".txt":
		return e.extractFromText(filePath)
	case ext == ".html":
		return e.extractFromHTML(filePath)
	case remoteExtensions[ext]:
		if !e.client.Enabled() {
			return "", fmt.Errorf("extractor service not configured for format: %s", ext)
		}
		return e.client.ExtractText(ctx, filePath)
	default:
		return "", fmt.Errorf("unsupported file format: %s", ext)
	}
}

// extractFromText はプレーンテキストファイルを読み込む。
func (e *extractor) extractFromText(filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %w", err)
	}
	return string(data), nil
}

// extractFromHTML はHTMLファイルをパースし、テキストノードを連結して返す。
// script・styleタグの中身は無視する。
func (e *extractor) extractFromHTML(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open html file: %w", err)
	}
	defer f.Close()

	doc, err := html.Parse(f)
	if err != nil {
		return "", fmt.Errorf("failed to parse html: %w", err)
	}

	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.TextNode {
			text := strings.TrimSpace(n.Data)
			if text != "" {
				b.WriteString(text)
				b.WriteString("\n")
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return b.String(), nil
}
