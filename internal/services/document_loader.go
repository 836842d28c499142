package services

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"alfredoptarigan/cv-align/internal/models"
)

// DocumentLoader extracts plain text from résumé bytes of a declared format.
type DocumentLoader interface {
	LoadText(content []byte, format models.DocumentFormat) (string, error)
}

type documentLoader struct{}

func NewDocumentLoader() DocumentLoader {
	return &documentLoader{}
}

// LoadText implements DocumentLoader.
func (l *documentLoader) LoadText(content []byte, format models.DocumentFormat) (string, error) {
	switch format {
	case models.FormatPDF:
		return extractPDFText(content)
	case models.FormatDOC, models.FormatDOCX:
		return "", fmt.Errorf("%w: %s parsing is not implemented", ErrUnsupportedFormat, format)
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, string(format))
	}
}

func extractPDFText(content []byte) (text string, err error) {
	if len(content) == 0 {
		return "", fmt.Errorf("%w: empty file", ErrLoadFailure)
	}

	// The pdf reader panics on some malformed cross-reference tables.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: corrupt PDF: %v", ErrLoadFailure, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: failed to open PDF: %v", ErrLoadFailure, err)
	}

	var textBuilder strings.Builder
	totalPage := r.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := r.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// skip unreadable pages
			continue
		}

		textBuilder.WriteString(pageText)
		textBuilder.WriteString("\n\n")
	}

	text = CleanText(textBuilder.String())
	if text == "" {
		return "", fmt.Errorf("%w: no text content found in PDF", ErrLoadFailure)
	}

	return text, nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	cleaned := make([]string, 0, len(lines))

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}

	return strings.Join(cleaned, "\n")
}
