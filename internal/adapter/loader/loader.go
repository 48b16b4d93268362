package loader

import (
	"path/filepath"
	"strings"

	"docchat/internal/domain"
	"docchat/internal/port"
)

// ForName picks the loader for a file by its extension. Anything that is not
// a PDF or CSV is read as plain text.
func ForName(name string) port.Loader {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return PDFLoader{}
	case ".csv":
		return CSVLoader{}
	default:
		return TextLoader{}
	}
}

// Load extracts the sections of a document, failing with an IngestionError
// when nothing readable comes out of it.
func Load(name string, data []byte) (domain.Format, []domain.Section, error) {
	l := ForName(name)
	if len(data) == 0 {
		return l.Format(), nil, domain.Unreadable(name, domain.ErrNoDocument)
	}

	sections, err := l.Load(name, data)
	if err != nil {
		return l.Format(), nil, err
	}
	if !hasText(sections) {
		return l.Format(), nil, domain.Unreadable(name, errNoText)
	}
	return l.Format(), sections, nil
}

func hasText(sections []domain.Section) bool {
	for _, s := range sections {
		if strings.TrimSpace(s.Text) != "" {
			return true
		}
	}
	return false
}
