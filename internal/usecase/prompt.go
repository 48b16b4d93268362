package usecase

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"

	"docchat/internal/domain"
	"docchat/internal/port"
)

//go:embed templates/*.txt
var promptTemplates embed.FS

type PromptData struct {
	Query    string
	Snippets []Snippet
	History  domain.History
}

// PromptBuilder renders the messages sent to the generative model.
type PromptBuilder struct {
	answer          *template.Template
	condense        *template.Template
	maxContextChars int
}

func NewPromptBuilder(maxContextChars int) (*PromptBuilder, error) {
	answer, err := parseTemplate("templates/answer_prompt.txt")
	if err != nil {
		return nil, err
	}
	condense, err := parseTemplate("templates/condense_prompt.txt")
	if err != nil {
		return nil, err
	}
	return &PromptBuilder{
		answer:          answer,
		condense:        condense,
		maxContextChars: maxContextChars,
	}, nil
}

func parseTemplate(name string) (*template.Template, error) {
	content, err := promptTemplates.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("template not found: %w", err)
	}
	tmpl, err := template.New(name).Funcs(templateFuncs()).Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return tmpl, nil
}

// AnswerMessages grounds the question in the retrieved chunks and replays the
// earlier turns so follow-ups keep their context. It also returns the snippets
// that made it into the context window.
func (b *PromptBuilder) AnswerMessages(query string, chunks []domain.ScoredChunk, history domain.History) ([]port.Message, []Snippet, error) {
	snippets := packSnippets(chunks, b.maxContextChars)
	system, err := render(b.answer, PromptData{
		Query:    query,
		Snippets: snippets,
	})
	if err != nil {
		return nil, nil, err
	}

	messages := make([]port.Message, 0, 2*len(history)+2)
	messages = append(messages, port.Message{Role: port.RoleSystem, Content: system})
	for _, turn := range history {
		messages = append(messages,
			port.Message{Role: port.RoleUser, Content: turn.Query},
			port.Message{Role: port.RoleAssistant, Content: turn.Answer},
		)
	}
	messages = append(messages, port.Message{Role: port.RoleUser, Content: query})
	return messages, snippets, nil
}

// CondenseMessages asks the model to rewrite a follow-up as a standalone question.
func (b *PromptBuilder) CondenseMessages(query string, history domain.History) ([]port.Message, error) {
	prompt, err := render(b.condense, PromptData{Query: query, History: history})
	if err != nil {
		return nil, err
	}
	return []port.Message{{Role: port.RoleUser, Content: prompt}}, nil
}

func render(tmpl *template.Template, data PromptData) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template: %w", err)
	}
	return buf.String(), nil
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"formatSnippets": func(snippets []Snippet) string {
			var sb strings.Builder
			for i, s := range snippets {
				if s.Section > 0 {
					sb.WriteString(fmt.Sprintf("### [%d] %s (section %d)\n", i+1, s.Source, s.Section))
				} else {
					sb.WriteString(fmt.Sprintf("### [%d] %s\n", i+1, s.Source))
				}
				sb.WriteString(s.Text)
				sb.WriteString("\n\n")
			}
			return sb.String()
		},
		"formatHistory": func(history domain.History) string {
			var sb strings.Builder
			for _, turn := range history {
				sb.WriteString("Human: ")
				sb.WriteString(turn.Query)
				sb.WriteString("\nAssistant: ")
				sb.WriteString(turn.Answer)
				sb.WriteString("\n")
			}
			return sb.String()
		},
	}
}
