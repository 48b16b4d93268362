package cli

import (
	"github.com/spf13/cobra"
)

var docsJSON bool

var docsCmd = &cobra.Command{
	Use:   "docs",
	Short: "List the documents loaded into the session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		session, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		defer session.Close()

		docs := session.ListDocuments()
		if docsJSON {
			return printJSON(cmd.OutOrStdout(), docs)
		}
		printDocuments(cmd.OutOrStdout(), docs)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(docsCmd)
	docsCmd.Flags().BoolVar(&docsJSON, "json", false, "output as JSON")
}
