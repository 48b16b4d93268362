package loader

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"docchat/internal/domain"
)

// PDFLoader extracts plain text page by page.
type PDFLoader struct{}

func (PDFLoader) Format() domain.Format { return domain.FormatPDF }

func (PDFLoader) Load(name string, data []byte) (sections []domain.Section, err error) {
	// the parser panics on some malformed inputs
	defer func() {
		if r := recover(); r != nil {
			sections = nil
			err = domain.Unreadable(name, fmt.Errorf("malformed pdf: %v", r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, domain.Unreadable(name, err)
	}

	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, domain.Unreadable(name, fmt.Errorf("page %d: %w", i, err))
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		sections = append(sections, domain.Section{Number: i, Text: text})
	}
	return sections, nil
}
