package session

import (
	"time"

	"docchat/internal/domain"
)

type AskRequest struct {
	Query string `json:"query"`
}

type DocumentDTO struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Format   string    `json:"format"`
	Chunks   int       `json:"chunks"`
	LoadedAt time.Time `json:"loaded_at"`
}

type LoadFailureDTO struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type LoadResultDTO struct {
	Loaded []DocumentDTO    `json:"loaded"`
	Failed []LoadFailureDTO `json:"failed,omitempty"`
}

type ReplyDTO struct {
	Status  string   `json:"status"`
	Answer  string   `json:"answer,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Text    string   `json:"text"`
	Stage   string   `json:"stage,omitempty"`
}

type TurnDTO struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer"`
	Sources []string `json:"sources,omitempty"`
}

func toDocumentDTO(doc domain.Document) DocumentDTO {
	return DocumentDTO{
		ID:       doc.ID,
		Name:     doc.Name,
		Format:   string(doc.Format),
		Chunks:   doc.Chunks,
		LoadedAt: doc.LoadedAt,
	}
}

func toDocumentDTOs(docs []domain.Document) []DocumentDTO {
	out := make([]DocumentDTO, len(docs))
	for i, d := range docs {
		out[i] = toDocumentDTO(d)
	}
	return out
}

func toReplyDTO(reply domain.Reply) ReplyDTO {
	dto := ReplyDTO{
		Status:  string(reply.Status),
		Answer:  reply.Answer,
		Sources: reply.Sources,
		Text:    reply.Text,
	}
	if reply.Err != nil {
		dto.Stage = string(reply.Err.Stage)
	}
	return dto
}

func toTurnDTOs(history domain.History) []TurnDTO {
	out := make([]TurnDTO, len(history))
	for i, t := range history {
		out[i] = TurnDTO{Query: t.Query, Answer: t.Answer, Sources: t.Sources}
	}
	return out
}
