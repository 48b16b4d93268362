package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"docchat/internal/adapter/fs"
	"docchat/internal/domain"
	"docchat/internal/usecase"
)

var loadExcludes []string

var loadCmd = &cobra.Command{
	Use:   "load <path|glob>...",
	Short: "Load documents into the session",
	Long: `Load PDF, CSV and text documents into the session's vector index.
Directories are walked recursively and glob patterns support **.
Each file is loaded on its own: a file that cannot be read is reported
and skipped without affecting the others.

Examples:
  docchat load report.pdf
  docchat load docs/ --exclude "**/drafts/**"
  docchat load "data/**/*.csv"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runLoad,
}

func init() {
	rootCmd.AddCommand(loadCmd)
	loadCmd.Flags().StringSliceVar(&loadExcludes, "exclude", nil, "glob patterns to skip")
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	paths, err := fs.NewWalker(loadExcludes).Expand(args)
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		return errors.New("no files matched")
	}

	session, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer session.Close()

	bar := progressbar.NewOptions(len(paths),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowBytes(false),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetDescription("[cyan]Loading[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(cmd.ErrOrStderr())
		}),
	)

	start := time.Now()
	var loaded, chunks int
	var failures []string
	for _, path := range paths {
		bar.Describe(fmt.Sprintf("[cyan]Loading[reset] %s", shortName(path)))

		doc, err := loadFile(ctx, session, path)
		if err != nil {
			failures = append(failures, fmt.Sprintf("%s: %v", path, err))
		} else {
			loaded++
			chunks += doc.Chunks
		}
		bar.Add(1)
	}
	bar.Finish()

	fmt.Fprintln(out, styles.Title.Render("Loading complete:"))
	fmt.Fprintf(out, "  Documents loaded: %d\n", loaded)
	fmt.Fprintf(out, "  Chunks indexed:   %d\n", chunks)
	fmt.Fprintf(out, "  Elapsed:          %s\n", formatDuration(time.Since(start)))

	if len(failures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, styles.Warning.Render("Skipped:"))
		for _, f := range failures {
			fmt.Fprintf(out, "  - %s\n", f)
		}
	}

	if dir := session.Dir(); dir != "" {
		fmt.Fprintf(out, "\nSession stored at: %s\n", dir)
	}

	if loaded == 0 {
		return fmt.Errorf("none of %d file(s) could be loaded", len(paths))
	}
	return nil
}

func loadFile(ctx context.Context, session *usecase.Session, path string) (domain.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Document{}, err
	}
	return session.LoadDocument(ctx, path, data)
}

func shortName(path string) string {
	const maxLen = 30
	r := []rune(path)
	if len(r) <= maxLen {
		return path
	}
	return "..." + string(r[len(r)-maxLen+3:])
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}
