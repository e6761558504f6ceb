package cmd

import (
	"context"
	"fmt"
	"strings"

	"vsxdl/internal/config"
	"vsxdl/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var browseCmd = &cobra.Command{
	Use:   "browse [QUERY_OR_URL]",
	Short: "Opens the interactive marketplace browser",
	Long: `Opens the interactive browser. The optional argument is either a query or a
shareable URL carrying a ?q= parameter; its search runs on start.`,
	Args: cobra.ArbitraryArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBrowse(cmd.Context(), strings.Join(args, " "))
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}

func runBrowse(ctx context.Context, seed string) error {
	cfg := config.GetConfig()

	// The alternate screen owns the terminal, so logs go to a file.
	if cfg.LogFile != "" {
		f, err := tea.LogToFile(cfg.LogFile, "vsxdl")
		if err != nil {
			return fmt.Errorf("error opening log file: %w", err)
		}
		defer f.Close()
	}

	toasts := tui.NewToasts()
	a, err := newApp(toasts, seed)
	if err != nil {
		return err
	}
	defer a.Close()

	return tui.Run(ctx, tui.New(a, toasts))
}
