package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var clearHistoryOnly bool

var clearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the session's documents and conversation",
	Long: `Remove every document, the vector index and the conversation of the
session, including its files on disk. With --history-only the documents
are kept and only the conversation is forgotten.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		session, err := openSession(ctx)
		if err != nil {
			return err
		}
		defer session.Close()

		if clearHistoryOnly {
			if err := session.ClearHistory(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render("Conversation cleared."))
			return nil
		}

		if err := session.ClearDocuments(ctx); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), styles.Success.Render(fmt.Sprintf("Session %q cleared.", session.ID())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(clearCmd)
	clearCmd.Flags().BoolVar(&clearHistoryOnly, "history-only", false, "keep documents, forget the conversation")
}
