package port

import "docchat/internal/domain"

// Loader extracts the text sections of a raw document.
type Loader interface {
	Load(name string, data []byte) ([]domain.Section, error)
	Format() domain.Format
}
