package domain

import (
	"fmt"
	"strings"
)

type ReplyStatus string

const (
	ReplyAnswered    ReplyStatus = "answered"
	ReplyNoDocuments ReplyStatus = "no_documents"
	ReplyFailed      ReplyStatus = "failed"
)

const NoDocumentsMessage = "Please load documents before asking questions."

// Reply is the outcome of asking a question. Text is always safe to show to
// the user; Status tells whether it carries model content.
type Reply struct {
	Status  ReplyStatus `json:"status"`
	Answer  string      `json:"answer,omitempty"`
	Sources []string    `json:"sources,omitempty"`
	Text    string      `json:"text"`
	Err     *ChatError  `json:"-"`
}

func (r Reply) OK() bool {
	return r.Status == ReplyAnswered
}

func NoDocumentsReply() Reply {
	return Reply{Status: ReplyNoDocuments, Text: NoDocumentsMessage}
}

func FailedReply(err *ChatError) Reply {
	return Reply{
		Status: ReplyFailed,
		Text:   "An error occurred: " + err.Error(),
		Err:    err,
	}
}

func AnsweredReply(answer string, sources []string) Reply {
	return Reply{
		Status:  ReplyAnswered,
		Answer:  answer,
		Sources: sources,
		Text:    answer + FormatSources(sources),
	}
}

// FormatSources renders the numbered sources footer appended to answers.
func FormatSources(sources []string) string {
	if len(sources) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\nSources:\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "%d. %s\n", i+1, s)
	}
	return b.String()
}
