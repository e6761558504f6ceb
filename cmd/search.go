package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"vsxdl/internal/app"
	"vsxdl/internal/present"
	"vsxdl/internal/search"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var searchPages int

var searchCmd = &cobra.Command{
	Use:   "search QUERY",
	Short: "Searches the marketplace and prints the results",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runSearch(strings.Join(args, " "), searchPages)
	},
}

func init() {
	searchCmd.Flags().IntVarP(&searchPages, "pages", "n", 1, "number of result pages to fetch")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(query string, pages int) error {
	a, err := newApp(&cliNotifier{}, "", search.WithMinLoading(0))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := step(a, a.Search.Submit(query)); err != nil {
		return fmt.Errorf("error searching marketplace: %w", err)
	}
	for i := 1; i < pages && a.Search.State().HasMore; i++ {
		if err := step(a, a.Search.LoadMore()); err != nil {
			return fmt.Errorf("error loading page %d: %w", i+1, err)
		}
	}

	state := a.Search.State()
	if state.NoResults() {
		fmt.Printf("No extensions found for %q\n", query)
		return nil
	}

	for i, ext := range state.Results {
		printCard(i+1, present.NewCard(ext, a.Config.ItemsURL))
	}

	var pageLabels []string
	for _, p := range search.PageRange(state.Page, state.TotalPages()) {
		label := strconv.Itoa(p)
		if p == state.Page {
			label = color.New(color.Bold).Sprintf("[%d]", p)
		}
		pageLabels = append(pageLabels, label)
	}
	fmt.Printf("Showing %d of %d results · pages %s\n", len(state.Results), state.Total, strings.Join(pageLabels, " "))
	if state.HasMore {
		fmt.Println(color.HiBlackString("Use --pages to fetch more."))
	}
	return nil
}

// step runs cmd on the calling goroutine and applies its message. A failed
// search is returned so the command can exit non-zero.
func step(a *app.App, cmd tea.Cmd) error {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	a.Update(msg)
	if res, ok := msg.(search.ResultMsg); ok {
		return res.Err()
	}
	return nil
}

func printCard(n int, card present.Card) {
	title := color.New(color.Bold, color.FgCyan).Sprint(card.Title)
	fmt.Printf("%2d. %s  %s", n, title, color.HiBlackString("by %s", card.Publisher))
	if card.LatestVersion != "" {
		fmt.Print(color.MagentaString("  v%s", card.LatestVersion))
	}
	fmt.Println()

	fmt.Printf("    %s %.1f  ⬇ %s", color.YellowString(present.StarString(card.Stars)), card.Rating, card.Installs)
	if len(card.Platforms) > 0 {
		fmt.Print(color.MagentaString("  %s", strings.Join(card.Platforms, ", ")))
	}
	fmt.Println()

	if card.Description != "" {
		fmt.Printf("    %s\n", card.Description)
	}
	fmt.Printf("    %s\n\n", color.BlueString(card.MarketplaceURL))
}
