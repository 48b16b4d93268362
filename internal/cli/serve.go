package cli

import (
	"github.com/spf13/cobra"

	"docchat/internal/builder"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session over HTTP",
	Long: `Start the HTTP API for the session:

  GET    /health      liveness
  GET    /session     session summary
  GET    /documents   loaded documents
  POST   /documents   multipart upload, field "files"
  DELETE /documents   remove documents and conversation
  POST   /ask         {"query": "..."}
  GET    /history     conversation
  DELETE /history     forget the conversation`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("addr") {
			cfg.Server.Addr = serveAddr
		}

		session, err := openSession(cmd.Context())
		if err != nil {
			return err
		}
		return builder.BuildApp(cfg, session, log).Run(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}
