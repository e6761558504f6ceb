package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"vsxdl/internal/app"
	"vsxdl/internal/download"
	"vsxdl/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	downloadVersion  string
	downloadPlatform string
)

var downloadCmd = &cobra.Command{
	Use:   "download EXTENSION_ID",
	Short: "Downloads an extension package from the marketplace",
	Long: `Downloads the .vsix package of an extension. Without flags the latest release
is fetched; when it ships several platform builds you are asked which one to
take (the configured default platform is used when stdin is not a terminal).`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runDownload(cmd.Context(), args[0])
	},
}

func init() {
	downloadCmd.Flags().StringVarP(&downloadVersion, "version", "v", "", "version to download (default latest)")
	downloadCmd.Flags().StringVarP(&downloadPlatform, "platform", "p", "", "target platform, e.g. linux-x64")
	rootCmd.AddCommand(downloadCmd)
}

func runDownload(ctx context.Context, extensionID string) error {
	if _, err := parseExtensionID(extensionID); err != nil {
		return err
	}

	notifier := &cliNotifier{}
	a, err := newApp(notifier, "")
	if err != nil {
		return err
	}
	defer a.Close()

	fmt.Println("Getting extension information...")
	ext, err := a.Gallery.Lookup(ctx, extensionID)
	if err != nil {
		return fmt.Errorf("error getting extension information: %w", err)
	}
	printExtensionInfo(ext)

	var cmd tea.Cmd
	if downloadVersion == "" && downloadPlatform == "" {
		cmd, err = resolveLatest(a, *ext)
	} else {
		cmd, err = resolvePinned(a, *ext, downloadVersion, downloadPlatform)
	}
	if err != nil {
		return err
	}
	if cmd == nil {
		if notifier.err != nil {
			return notifier.err
		}
		return errors.New("nothing to download")
	}

	done, ok := cmd().(download.DoneMsg)
	if !ok {
		return errors.New("unexpected download result")
	}
	if done.Err != nil {
		return fmt.Errorf("error downloading extension: %w", done.Err)
	}
	printResult(done.Result)
	return nil
}

// resolveLatest follows the direct download path, answering the platform
// prompt when the latest release has several builds.
func resolveLatest(a *app.App, ext models.Extension) (tea.Cmd, error) {
	cmd := a.Resolver.BeginDirectDownload(ext)

	prompt := a.Resolver.Prompt()
	if !prompt.Open {
		return cmd, nil
	}

	platform, err := choosePlatform(prompt.Choices, prompt.Selected)
	if err != nil {
		a.Resolver.Cancel()
		return nil, err
	}
	return a.Resolver.ConfirmPlatform(platform), nil
}

// resolvePinned downloads an explicit version and/or platform from the history
// Lookup already returned.
func resolvePinned(a *app.App, ext models.Extension, version, platform string) (tea.Cmd, error) {
	if version == "" {
		latest, ok := ext.Latest()
		if !ok {
			return nil, fmt.Errorf("%s has no published versions", ext.ID())
		}
		version = latest.Version
	}

	build, err := pickBuild(models.BuildsOf(ext.Versions, version), version, platform, a.Config.DefaultPlatform)
	if err != nil {
		return nil, err
	}

	return a.Resolver.DownloadVersion(ext, build), nil
}

// pickBuild chooses one build of a version. An explicit platform must exist
// (a universal build satisfies any platform); otherwise several builds are
// resolved by prompting.
func pickBuild(builds []models.Version, version, platform, defaultPlatform string) (models.Version, error) {
	if len(builds) == 0 {
		return models.Version{}, fmt.Errorf("version %s not found", version)
	}

	platforms := models.DistinctPlatforms(builds)
	if platform != "" {
		for _, b := range builds {
			if b.TargetPlatform == platform {
				return b, nil
			}
		}
		for _, b := range builds {
			if b.TargetPlatform == "" {
				return b, nil
			}
		}
		return models.Version{}, fmt.Errorf("version %s has no %s build (available: %s)",
			version, platform, strings.Join(platforms, ", "))
	}

	if len(builds) == 1 || len(platforms) == 0 {
		return builds[0], nil
	}

	selected := platforms[0]
	if slices.Contains(platforms, defaultPlatform) {
		selected = defaultPlatform
	}
	chosen, err := choosePlatform(platforms, selected)
	if err != nil {
		return models.Version{}, err
	}
	for _, b := range builds {
		if b.TargetPlatform == chosen {
			return b, nil
		}
	}
	return builds[0], nil
}

// choosePlatform asks for a platform, or returns the preselected one when
// nobody is there to answer.
func choosePlatform(choices []string, selected string) (string, error) {
	if !isTerminalInteractive() {
		fmt.Fprintln(os.Stderr, color.YellowString("Several builds available, using %s", selected))
		return selected, nil
	}

	cursor := max(0, slices.Index(choices, selected))
	prompt := promptui.Select{
		Label:     "Select target platform",
		Items:     choices,
		CursorPos: cursor,
		Size:      min(len(choices), 10),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ . }}",
			Active:   "▸ {{ . | cyan }}",
			Inactive: "  {{ . }}",
			Selected: "✓ {{ . | green }}",
		},
	}

	idx, _, err := prompt.Run()
	if err != nil {
		return "", fmt.Errorf("platform selection cancelled: %w", err)
	}
	return choices[idx], nil
}

func isTerminalInteractive() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

func printExtensionInfo(ext *models.Extension) {
	fmt.Printf("\nExtension information:\n")
	fmt.Printf("  ID: %s\n", ext.ID())
	fmt.Printf("  Name: %s\n", ext.DisplayName)
	fmt.Printf("  Publisher: %s\n", ext.Publisher.DisplayName)
	if latest, ok := ext.Latest(); ok {
		fmt.Printf("  Latest version: %s (%s)\n", latest.Version, humanize.Time(latest.LastUpdated))
	}
	if platforms := models.DistinctPlatforms(models.LatestBuilds(ext.Versions)); len(platforms) > 0 {
		fmt.Printf("  Platforms: %s\n", strings.Join(platforms, ", "))
	}
	if ext.ShortDescription != "" {
		fmt.Printf("  Description: %s\n", ext.ShortDescription)
	}
	fmt.Println()
}

func printResult(result *download.Result) {
	size := humanize.Bytes(uint64(result.Size))
	if result.WasDownloaded {
		fmt.Printf("\n%s Extension successfully downloaded: %s (%s)\n", color.GreenString("✅"), result.FilePath, size)
	} else {
		fmt.Printf("\nℹ️  Extension already exists: %s (%s)\n", result.FilePath, size)
	}

	if m := result.Manifest; m != nil {
		fmt.Printf("  Package: %s %s\n", m.ID(), m.Version)
		if m.Description != "" {
			fmt.Printf("  %s\n", m.Description)
		}
	}
}
