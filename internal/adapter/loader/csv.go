package loader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"docchat/internal/domain"
)

// CSVLoader turns every data row into its own section of "header: value"
// lines, so a retrieved chunk carries the column names it refers to.
type CSVLoader struct{}

func (CSVLoader) Format() domain.Format { return domain.FormatCSV }

func (CSVLoader) Load(name string, data []byte) ([]domain.Section, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, domain.Unreadable(name, errNotUTF8)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		return nil, domain.Unreadable(name, fmt.Errorf("read header: %w", err))
	}

	var sections []domain.Section
	for row := 1; ; row++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, domain.Unreadable(name, fmt.Errorf("read row %d: %w", row, err))
		}

		var b strings.Builder
		for i, value := range record {
			col := fmt.Sprintf("column_%d", i+1)
			if i < len(header) && strings.TrimSpace(header[i]) != "" {
				col = strings.TrimSpace(header[i])
			}
			if b.Len() > 0 {
				b.WriteByte('\n')
			}
			b.WriteString(col)
			b.WriteString(": ")
			b.WriteString(value)
		}
		sections = append(sections, domain.Section{Number: row, Text: b.String()})
	}

	if len(sections) == 0 {
		return nil, domain.Unreadable(name, errors.New("csv has no data rows"))
	}
	return sections, nil
}
