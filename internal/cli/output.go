package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"docchat/internal/domain"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// renderReply prints a reply the way the user should read it: the answer,
// then its numbered sources.
func renderReply(w io.Writer, reply domain.Reply) {
	switch reply.Status {
	case domain.ReplyAnswered:
		fmt.Fprintln(w, styles.Answer.Render(strings.TrimSpace(reply.Answer)))
		if len(reply.Sources) > 0 {
			fmt.Fprintln(w)
			fmt.Fprintln(w, styles.Muted.Render("Sources:"))
			for i, s := range reply.Sources {
				fmt.Fprintf(w, "%s %s\n", styles.Muted.Render(fmt.Sprintf("%d.", i+1)), styles.Source.Render(s))
			}
		}
	case domain.ReplyNoDocuments:
		fmt.Fprintln(w, styles.Warning.Render(reply.Text))
	default:
		fmt.Fprintln(w, styles.Error.Render(reply.Text))
	}
}

func printDocuments(w io.Writer, docs []domain.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No documents loaded."))
		return
	}
	fmt.Fprintln(w, styles.Title.Render(fmt.Sprintf("%d document(s) loaded", len(docs))))
	for _, d := range docs {
		fmt.Fprintf(w, "  %-40s %-5s %4d chunks  %s\n",
			d.Name, d.Format, d.Chunks, styles.Muted.Render(d.LoadedAt.Local().Format(time.DateTime)))
	}
}

func printHistory(w io.Writer, history domain.History) {
	if len(history) == 0 {
		fmt.Fprintln(w, styles.Muted.Render("No conversation yet."))
		return
	}
	for i, turn := range history {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, styles.Prompt.Render("You: ")+turn.Query)
		fmt.Fprintln(w, styles.Title.Render("Assistant: ")+strings.TrimSpace(turn.Answer))
		if len(turn.Sources) > 0 {
			fmt.Fprintln(w, styles.Muted.Render("Sources: "+strings.Join(turn.Sources, ", ")))
		}
	}
}
