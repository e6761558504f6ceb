package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"vsxdl/internal/app"
	"vsxdl/internal/config"
	"vsxdl/internal/download"
	"vsxdl/internal/location"
	"vsxdl/internal/search"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "vsxdl [QUERY_OR_URL]",
		Short: "Search and download Visual Studio Code extensions",
		Long: `Searches the Visual Studio Marketplace and downloads .vsix packages.
Without a subcommand the interactive browser is started.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return runBrowse(cmd.Context(), strings.Join(args, " "))
		},
	}
)

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file (default ./config.yaml)")
}

func initConfig() {
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("VSXDL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintf(os.Stderr, "Error reading config file: %v\n", err)
		}
	}
}

// newApp builds the component graph for one command run. seed is an optional
// query or shareable URL.
func newApp(notifier download.Notifier, seed string, opts ...search.Option) (*app.App, error) {
	cfg, err := app.ResolveProvider(config.GetConfig())
	if err != nil {
		return nil, err
	}
	return app.New(cfg, location.Parse(seed), notifier, opts...), nil
}

// cliNotifier prints resolver feedback to stderr and remembers the last
// error so the command can fail with it.
type cliNotifier struct {
	err error
}

func (n *cliNotifier) Info(message string) {
	fmt.Fprintln(os.Stderr, color.CyanString("→ %s", message))
}

func (n *cliNotifier) Error(err error) {
	n.err = err
	fmt.Fprintln(os.Stderr, color.RedString("✗ %v", err))
}
