package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:       "theme [dark|light]",
	Short:     "Shows or sets the browser color theme",
	ValidArgs: []string{"dark", "light"},
	Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		theme := ""
		if len(args) == 1 {
			theme = args[0]
		}
		return runTheme(theme)
	},
}

func init() {
	rootCmd.AddCommand(themeCmd)
}

func runTheme(theme string) error {
	a, err := newApp(nil, "")
	if err != nil {
		return err
	}
	defer a.Close()

	store, err := a.Prefs()
	if err != nil {
		return err
	}

	if theme == "" {
		dark, err := store.DarkMode()
		if err != nil {
			return fmt.Errorf("error reading theme: %w", err)
		}
		fmt.Println(themeName(dark))
		return nil
	}

	if err := store.SetDarkMode(theme == "dark"); err != nil {
		return fmt.Errorf("error saving theme: %w", err)
	}
	fmt.Printf("✅ Theme set to %s\n", theme)
	return nil
}

func themeName(dark bool) string {
	if dark {
		return "dark"
	}
	return "light"
}
