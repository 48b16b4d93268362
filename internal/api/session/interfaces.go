package session

import (
	"context"

	"docchat/internal/domain"
	"docchat/internal/usecase"
)

type SessionUsecase interface {
	LoadDocument(ctx context.Context, name string, data []byte) (domain.Document, error)
	ListDocuments() []domain.Document
	Ask(ctx context.Context, query string) domain.Reply
	History() domain.History
	ClearDocuments(ctx context.Context) error
	ClearHistory(ctx context.Context) error
	Info() usecase.SessionInfo
}
