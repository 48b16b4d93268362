package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/adapter/fs"
	"docchat/internal/usecase"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive conversation",
	Long: `Start an interactive conversation with the session's documents.

Commands inside the chat:
  /load <path|glob>   load more documents
  /docs               list loaded documents
  /history            show the conversation
  /clear              forget the conversation
  /reset              remove documents and conversation
  /quit               leave the chat`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		return runChat(ctx, session, cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}

func runChat(ctx context.Context, session *usecase.Session, in io.Reader, out io.Writer) error {
	info := session.Info()
	fmt.Fprintln(out, styles.Title.Render(fmt.Sprintf("docchat · session %s", info.ID)))
	fmt.Fprintln(out, styles.Muted.Render(fmt.Sprintf("%d document(s), %d earlier turn(s). Type /quit to leave.", info.Documents, info.Turns)))

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Fprint(out, "\n"+styles.Prompt.Render("> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if strings.HasPrefix(line, "/") {
			quit, err := chatCommand(ctx, session, line, out)
			if err != nil {
				fmt.Fprintln(out, styles.Error.Render(err.Error()))
			}
			if quit {
				return nil
			}
			continue
		}

		renderReply(out, session.Ask(ctx, line))
	}
}

func chatCommand(ctx context.Context, session *usecase.Session, line string, out io.Writer) (bool, error) {
	fields := strings.Fields(line)
	switch fields[0] {
	case "/quit", "/exit":
		return true, nil
	case "/docs":
		printDocuments(out, session.ListDocuments())
	case "/history":
		printHistory(out, session.History())
	case "/clear":
		if err := session.ClearHistory(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, styles.Success.Render("Conversation cleared."))
	case "/reset":
		if err := session.ClearDocuments(ctx); err != nil {
			return false, err
		}
		fmt.Fprintln(out, styles.Success.Render("Documents and conversation removed."))
	case "/load":
		if len(fields) < 2 {
			return false, errors.New("usage: /load <path|glob>")
		}
		paths, err := fs.NewWalker(nil).Expand(fields[1:])
		if err != nil {
			return false, err
		}
		for _, path := range paths {
			doc, err := loadFile(ctx, session, path)
			if err != nil {
				fmt.Fprintln(out, styles.Warning.Render(fmt.Sprintf("Skipped %s: %v", path, err)))
				continue
			}
			fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Loaded %s (%d chunks)", doc.Name, doc.Chunks)))
		}
	default:
		return false, fmt.Errorf("unknown command %s", fields[0])
	}
	return false, nil
}
