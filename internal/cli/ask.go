package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"docchat/internal/domain"
)

var (
	askQuery string
	askJSON  bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask one question about the loaded documents",
	Long: `Ask a single question. The answer draws on the session's documents and
its earlier conversation, and the turn is added to the session history.

Examples:
  docchat ask -q "What was revenue in Q3?"
  docchat ask "Which customers churned?" --json`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question to ask")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output as JSON")
}

func runAsk(cmd *cobra.Command, args []string) error {
	query := askQuery
	if query == "" {
		query = strings.Join(args, " ")
	}
	if strings.TrimSpace(query) == "" {
		return domain.ErrEmptyQuery
	}

	ctx := cmd.Context()
	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	reply := session.Ask(ctx, query)

	if askJSON {
		if err := printJSON(cmd.OutOrStdout(), reply); err != nil {
			return err
		}
	} else {
		renderReply(cmd.OutOrStdout(), reply)
	}

	if reply.Status == domain.ReplyFailed {
		return fmt.Errorf("question could not be answered (%s)", reply.Err.Stage)
	}
	return nil
}
