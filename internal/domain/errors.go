package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuery  = errors.New("query is empty")
	ErrIndexClosed = errors.New("vector index is closed")
	ErrNoDocument  = errors.New("document data is empty")
)

// ConfigError reports an invalid configuration value.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Reason)
}

type IngestionErrorKind string

const IngestionUnsupportedOrUnreadable IngestionErrorKind = "unsupported_or_unreadable"

type IngestionError struct {
	Kind IngestionErrorKind
	Name string
	Err  error
}

func (e *IngestionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cannot ingest %q (%s): %v", e.Name, e.Kind, e.Err)
	}
	return fmt.Sprintf("cannot ingest %q (%s)", e.Name, e.Kind)
}

func (e *IngestionError) Unwrap() error {
	return e.Err
}

// Unreadable builds an IngestionError for a document that cannot be decoded
// or yields no text.
func Unreadable(name string, err error) *IngestionError {
	return &IngestionError{Kind: IngestionUnsupportedOrUnreadable, Name: name, Err: err}
}

type ProviderErrorKind string

const (
	ProviderTransient ProviderErrorKind = "transient"
	ProviderAuth      ProviderErrorKind = "auth"
	ProviderQuota     ProviderErrorKind = "quota"
	ProviderRejected  ProviderErrorKind = "rejected"
)

// ProviderError is returned by the embedding and generation clients.
type ProviderError struct {
	Kind       ProviderErrorKind
	Provider   string
	StatusCode int
	Message    string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s provider error (%s, HTTP %d): %s", e.Provider, e.Kind, e.StatusCode, msg)
	}
	return fmt.Sprintf("%s provider error (%s): %s", e.Provider, e.Kind, msg)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a ProviderError worth retrying.
func IsTransient(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind == ProviderTransient
	}
	return false
}

type DimensionMismatchError struct {
	Expected int
	Got      int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("vector dimension mismatch: expected %d, got %d", e.Expected, e.Got)
}

type ChatStage string

const (
	StageEmbedding  ChatStage = "embedding_failed"
	StageRetrieval  ChatStage = "retrieval_failed"
	StageGeneration ChatStage = "generation_failed"
)

type ChatError struct {
	Stage ChatStage
	Err   error
}

func (e *ChatError) Error() string {
	switch e.Stage {
	case StageEmbedding:
		return fmt.Sprintf("embedding the question failed: %v", e.Err)
	case StageRetrieval:
		return fmt.Sprintf("retrieving document context failed: %v", e.Err)
	case StageGeneration:
		return fmt.Sprintf("generating the answer failed: %v", e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *ChatError) Unwrap() error {
	return e.Err
}
