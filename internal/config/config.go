package config

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	// Provider selects the registry; blank gallery URLs are filled in from it.
	Provider        string
	ProviderName    string
	GalleryEndpoint string
	PackageBaseURL  string
	ItemsURL        string
	RequestTimeout  time.Duration

	MinLoading time.Duration

	DownloadDir     string
	DefaultPlatform string

	DBPath      string
	AutoMigrate bool

	LogFile string
}

func SetDefaults() {
	viper.SetDefault("gallery.provider", "microsoft")
	viper.SetDefault("gallery.timeout", 30*time.Second)

	viper.SetDefault("search.min_loading", 600*time.Millisecond)

	viper.SetDefault("download.directory", "./downloads")
	viper.SetDefault("download.default_platform", "win32-x64")

	viper.SetDefault("database.path", "./data/vsxdl.db")
	viper.SetDefault("database.auto_migrate", true)

	viper.SetDefault("log.file", "vsxdl.log")
}

func GetConfig() Config {
	return Config{
		Provider:        viper.GetString("gallery.provider"),
		GalleryEndpoint: viper.GetString("gallery.endpoint"),
		PackageBaseURL:  viper.GetString("gallery.package_base"),
		ItemsURL:        viper.GetString("gallery.items_url"),
		RequestTimeout:  viper.GetDuration("gallery.timeout"),

		MinLoading: viper.GetDuration("search.min_loading"),

		DownloadDir:     viper.GetString("download.directory"),
		DefaultPlatform: viper.GetString("download.default_platform"),

		DBPath:      viper.GetString("database.path"),
		AutoMigrate: viper.GetBool("database.auto_migrate"),

		LogFile: viper.GetString("log.file"),
	}
}
