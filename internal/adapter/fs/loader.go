package fs

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/ledongthuc/pdf"

	"docqa/internal/domain"
)

type Format int

const (
	FormatUnknown Format = iota
	FormatText
	FormatPDF
)

func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatPDF:
		return "pdf"
	default:
		return "unknown"
	}
}

// Loader turns uploaded documents into plain text. The format is chosen by
// matching the file name against glob patterns.
type Loader struct {
	textPatterns []string
	pdfPatterns  []string
}

func NewLoader(textPatterns, pdfPatterns []string) *Loader {
	if len(textPatterns) == 0 {
		textPatterns = []string{"**/*.txt", "**/*.md"}
	}
	if len(pdfPatterns) == 0 {
		pdfPatterns = []string{"**/*.pdf"}
	}
	return &Loader{
		textPatterns: textPatterns,
		pdfPatterns:  pdfPatterns,
	}
}

// Format reports how name would be decoded.
func (l *Loader) Format(name string) Format {
	path := strings.ToLower(filepath.ToSlash(name))
	if matchAny(l.pdfPatterns, path) {
		return FormatPDF
	}
	if matchAny(l.textPatterns, path) {
		return FormatText
	}
	return FormatUnknown
}

// Extract decodes data according to the format of name.
func (l *Loader) Extract(name string, data []byte) (string, error) {
	switch l.Format(name) {
	case FormatText:
		return strings.ToValidUTF8(string(data), ""), nil
	case FormatPDF:
		text, err := extractPDF(data)
		if err != nil {
			return "", fmt.Errorf("failed to read PDF %s: %w", name, err)
		}
		return text, nil
	default:
		return "", fmt.Errorf("%s: %w", filepath.Base(name), domain.ErrUnsupportedFormat)
	}
}

// ReadDocument reads a file from disk, checking its format before reading.
func (l *Loader) ReadDocument(path string) (*domain.Document, error) {
	if l.Format(path) == FormatUnknown {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), domain.ErrUnsupportedFormat)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &domain.Document{Name: filepath.Base(path), Data: data}, nil
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, path)
		if err == nil && matched {
			return true
		}
	}
	return false
}

// extractPDF joins the plain text of every page with newlines. Pages without
// extractable text contribute an empty line.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			pages = append(pages, "")
			continue
		}
		pages = append(pages, pageText)
	}

	return strings.Join(pages, "\n"), nil
}
