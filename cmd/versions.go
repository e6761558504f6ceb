package cmd

import (
	"fmt"
	"slices"
	"strings"

	"vsxdl/internal/models"
	"vsxdl/internal/versions"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	versionsFilter   string
	versionsPlatform string
	versionsLimit    int
)

var versionsCmd = &cobra.Command{
	Use:   "versions EXTENSION_ID",
	Short: "Lists the published versions of an extension",
	Long: `Lists every published build of an extension, newest first.
EXTENSION_ID has the form publisher.extension, e.g. ms-python.python.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runVersions(args[0])
	},
}

func init() {
	versionsCmd.Flags().StringVarP(&versionsFilter, "filter", "f", "", "only show versions containing this text")
	versionsCmd.Flags().StringVarP(&versionsPlatform, "platform", "p", "", "only show builds for this target platform")
	versionsCmd.Flags().IntVarP(&versionsLimit, "limit", "l", 20, "maximum number of versions to print (0 for all)")
	rootCmd.AddCommand(versionsCmd)
}

func runVersions(extensionID string) error {
	ext, err := parseExtensionID(extensionID)
	if err != nil {
		return err
	}

	a, err := newApp(&cliNotifier{}, "")
	if err != nil {
		return err
	}
	defer a.Close()

	browser := a.Versions
	msg := a.Resolver.BeginVersionBrowse(ext)()
	a.Update(msg)
	defer browser.Close()

	if err := browser.Err(); err != nil {
		return fmt.Errorf("error fetching versions: %w", err)
	}

	if versionsPlatform != "" {
		if !slices.Contains(browser.Platforms(), versionsPlatform) {
			return fmt.Errorf("no %s builds of %s (available: %s)",
				versionsPlatform, ext.ID(), strings.Join(browser.Platforms(), ", "))
		}
		browser.PinPlatform(versionsPlatform)
	}
	browser.SetFilter(versionsFilter)

	list := browser.Filtered()
	fmt.Printf("%s %s\n", color.New(color.Bold).Sprint(ext.ID()),
		color.HiBlackString("(%d of %d builds)", len(list), len(browser.Versions())))

	if len(list) == 0 {
		fmt.Println("No matching versions.")
		return nil
	}
	for i, v := range list {
		if versionsLimit > 0 && i == versionsLimit {
			fmt.Println(color.HiBlackString("... %d more, use --limit 0 to list all", len(list)-i))
			break
		}
		fmt.Printf("  %s  %s\n", versions.DisplayString(v), color.HiBlackString(humanize.Time(v.LastUpdated)))
	}
	return nil
}

// parseExtensionID splits "publisher.extension" into a bare extension record.
func parseExtensionID(id string) (models.Extension, error) {
	publisher, name, ok := strings.Cut(strings.TrimSpace(id), ".")
	if !ok || publisher == "" || name == "" {
		return models.Extension{}, fmt.Errorf("invalid extension id %q: expected publisher.extension", id)
	}
	return models.Extension{
		ExtensionName: name,
		Publisher:     models.Publisher{PublisherName: publisher},
	}, nil
}
