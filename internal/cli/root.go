package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"docchat/config"
	"docchat/internal/builder"
	"docchat/internal/logger"
	"docchat/internal/usecase"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	sessionID string
	dataDir   string
	ephemeral bool
	logLevel  string
	log       *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "docchat",
	Short: "Chat with your documents",
	Long: `docchat loads PDF, CSV and text documents into a per-session vector index
and answers questions about them with a generative model, citing the documents
each answer was drawn from.

Example usage:
  docchat load report.pdf data/*.csv   # Load documents into the session
  docchat ask -q "What was revenue?"   # Ask one question
  docchat chat                         # Interactive conversation
  docchat serve                        # HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if err := config.LoadEnvFiles(filepath.Join(rootDir, ".env")); err != nil {
			return err
		}

		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		applyFlagOverrides(cmd)
		if err := cfg.Validate(); err != nil {
			return err
		}
		if !filepath.IsAbs(cfg.DataDir) {
			cfg.DataDir = filepath.Join(rootDir, cfg.DataDir)
		}

		log, err = logger.New(cfg.Logging.Level, cfg.Logging.Format)
		if err != nil {
			return err
		}
		cmd.SetContext(ctxzap.ToContext(cmd.Context(), log))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func applyFlagOverrides(cmd *cobra.Command) {
	flags := cmd.Flags()
	if flags.Changed("session") {
		cfg.Session.ID = sessionID
	}
	if flags.Changed("data-dir") {
		cfg.DataDir = dataDir
	}
	if flags.Changed("ephemeral") {
		cfg.Session.Ephemeral = ephemeral
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = logLevel
	}
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, styles.Error.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./docchat.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
	rootCmd.PersistentFlags().StringVarP(&sessionID, "session", "s", "", "session id (default from config)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data-dir", "", "directory holding session state (default from config)")
	rootCmd.PersistentFlags().BoolVar(&ephemeral, "ephemeral", false, "keep the session in memory only")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")
	rootCmd.SilenceErrors = true
}

func GetConfig() *config.Config {
	return cfg
}

// openSession opens the configured session; callers must Close it.
func openSession(ctx context.Context) (*usecase.Session, error) {
	return builder.BuildSession(ctx, cfg)
}
