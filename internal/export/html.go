package export

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

// htmlSection はHTMLテンプレートに渡すセクション。
type htmlSection struct {
	Title   string
	Content string
}

// htmlDocument はHTMLテンプレートに渡すドキュメント全体。
type htmlDocument struct {
	Title    string
	DateStr  string
	Sections []htmlSection
}

// proposalTemplate は印刷用スタイル付きの提案書HTMLテンプレート。
// ブラウザの印刷機能でそのままPDF化できるレイアウトにしている。
var proposalTemplate = template.Must(template.New("proposal").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>{{.Title}} - Business Proposal</title>
<style>
body {
    font-family: Arial, sans-serif;
    line-height: 1.6;
    color: #333;
    max-width: 800px;
    margin: 40px auto;
}
.header {
    text-align: center;
    margin-bottom: 40px;
    padding-bottom: 20px;
    border-bottom: 3px solid #0066cc;
}
.title {
    font-size: 28px;
    font-weight: bold;
    color: #0066cc;
    margin-bottom: 10px;
}
.subtitle {
    font-size: 18px;
    color: #666;
    margin-bottom: 20px;
}
.date-info {
    font-size: 14px;
    color: #888;
    margin-bottom: 30px;
}
.section {
    margin-bottom: 30px;
    page-break-inside: avoid;
}
.section-title {
    font-size: 18px;
    font-weight: bold;
    color: #0066cc;
    margin-bottom: 15px;
    padding-bottom: 5px;
    border-bottom: 2px solid #0066cc;
}
.content {
    font-size: 12px;
    line-height: 1.8;
    text-align: justify;
    white-space: pre-wrap;
}
.footer {
    margin-top: 50px;
    padding-top: 20px;
    border-top: 1px solid #ddd;
    font-size: 10px;
    color: #888;
    text-align: center;
}
@media print {
    body { margin: 20px; }
    .section { page-break-inside: avoid; }
}
</style>
</head>
<body>
<div class="header">
    <div class="title">BUSINESS PROPOSAL</div>
    <div class="subtitle">{{.Title}}</div>
    <div class="date-info">
        <strong>Generated:</strong> {{.DateStr}}<br/>
        <strong>Location:</strong> South Africa
    </div>
</div>
{{range .Sections}}
<div class="section">
    <div class="section-title">{{.Title}}</div>
    <div class="content">{{.Content}}</div>
</div>
{{end}}
<div class="footer">
    <p>This business proposal was generated by the AI-Powered Business Proposal Generator for South African entrepreneurs.</p>
    <p>For more information, visit your business dashboard or contact support.</p>
</div>
</body>
</html>
`))

// renderHTML はセクションからHTMLドキュメントを生成する。
// エスケープはhtml/templateに任せる。
func renderHTML(title string, sections []htmlSection, createdAt time.Time) ([]byte, error) {
	doc := htmlDocument{
		Title:    title,
		DateStr:  createdAt.Format("January 2, 2006"),
		Sections: sections,
	}

	var buf bytes.Buffer
	if err := proposalTemplate.Execute(&buf, doc); err != nil {
		return nil, fmt.Errorf("failed to render proposal html: %w", err)
	}
	return buf.Bytes(), nil
}
