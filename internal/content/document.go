package content

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/baxromumarov/policy-summarizer/internal/httpx"
	pdflib "github.com/ledongthuc/pdf"
)

// NormalizeDocument converts a fetched document into normalized text. HTML
// goes through Normalize; PDFs are converted to plain text first.
func NormalizeDocument(doc *httpx.Document) (string, error) {
	if doc == nil {
		return "", errors.New("nil document")
	}
	if doc.IsPDF() {
		text, err := extractPDFText(doc.Body)
		if err != nil {
			return "", fmt.Errorf("extract pdf text: %w", err)
		}
		return NormalizeText(text), nil
	}
	return Normalize(string(doc.Body)), nil
}

func extractPDFText(data []byte) (text string, err error) {
	// The reader panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdflib.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteString("\n\n")
		}
		buf.WriteString(pageText)
	}
	return buf.String(), nil
}
