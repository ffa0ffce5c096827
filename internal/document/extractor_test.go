package document

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestIsAllowedExtension(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{filename: "proposal.txt", want: true},
		{filename: "proposal.pdf", want: true},
		{filename: "proposal.PDF", want: true},
		{filename: "scan.jpeg", want: true},
		{filename: "plan.docx", want: true},
		{filename: "page.html", want: true},
		{filename: "script.exe", want: false},
		{filename: "archive.zip", want: false},
		{filename: "noextension", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			if got := IsAllowedExtension(tt.filename); got != tt.want {
				t.Errorf("IsAllowedExtension(%q) = %v, want %v", tt.filename, got, tt.want)
			}
		})
	}
}

func TestExtractor_ExtractText_PlainText(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proposal.txt")
	if err := os.WriteFile(path, []byte("Executive summary of the plan."), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	e := NewExtractor(nil)

	text, err := e.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if text != "Executive summary of the plan." {
		t.Errorf("ExtractText() = %q", text)
	}
}

func TestExtractor_ExtractText_HTML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proposal.html")
	content := `<html><head><style>body { color: red; }</style></head>
<body><h1>Business Plan</h1><script>alert("x")</script><p>Market analysis section.</p></body></html>`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	e := NewExtractor(nil)

	text, err := e.ExtractText(context.Background(), path)
	if err != nil {
		t.Fatalf("ExtractText() error = %v", err)
	}
	if !strings.Contains(text, "Business Plan") || !strings.Contains(text, "Market analysis section.") {
		t.Errorf("ExtractText() = %q, want body text", text)
	}
	if strings.Contains(text, "alert") || strings.Contains(text, "color: red") {
		t.Errorf("ExtractText() = %q, script/style content should be excluded", text)
	}
}

func TestExtractor_ExtractText_MissingFile(t *testing.T) {
	e := NewExtractor(nil)

	if _, err := e.ExtractText(context.Background(), "/nonexistent/file.txt"); err == nil {
		t.Error("ExtractText() should return error for missing file")
	}
}

func TestExtractor_ExtractText_RemoteWithoutService(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "proposal.pdf")
	if err := os.WriteFile(path, []byte("%PDF-1.4"), 0o644); err != nil {
		t.Fatalf("failed to write test file: %v", err)
	}

	e := NewExtractor(nil)

	_, err := e.ExtractText(context.Background(), path)
	if err == nil || !strings.Contains(err.Error(), "extractor service not configured") {
		t.Errorf("ExtractText() error = %v, want service not configured error", err)
	}
}
