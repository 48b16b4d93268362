package loader

import (
	"bytes"
	"errors"
	"unicode/utf8"

	"docchat/internal/domain"
)

var (
	errNoText  = errors.New("no extractable text")
	errNotUTF8 = errors.New("content is not valid UTF-8 text")
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
)

type TextLoader struct{}

func (TextLoader) Format() domain.Format { return domain.FormatText }

func (TextLoader) Load(name string, data []byte) ([]domain.Section, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) || bytes.IndexByte(data, 0) >= 0 {
		return nil, domain.Unreadable(name, errNotUTF8)
	}
	return []domain.Section{{Text: string(data)}}, nil
}
