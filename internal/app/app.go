// Package app wires the client components together. One App is built per
// process by the command layer and handed to whichever front end runs.
package app

import (
	"fmt"

	"vsxdl/internal/config"
	"vsxdl/internal/download"
	"vsxdl/internal/location"
	"vsxdl/internal/marketplace"
	"vsxdl/internal/prefs"
	"vsxdl/internal/search"
	"vsxdl/internal/utils"
	"vsxdl/internal/versions"

	tea "github.com/charmbracelet/bubbletea"
)

type App struct {
	Config   config.Config
	Logger   *utils.Logger
	Gallery  *marketplace.Marketplace
	Location *location.History
	Search   *search.Controller
	Resolver *download.Resolver
	Versions *versions.Browser
	Fetcher  *download.Fetcher

	prefs *prefs.Store
}

// New builds the component graph. loc may be nil for an empty history.
func New(cfg config.Config, loc *location.History, notifier download.Notifier, opts ...search.Option) *App {
	if loc == nil {
		loc = location.New()
	}
	logger := utils.NewLogger()
	gallery := marketplace.New(cfg.GalleryEndpoint, cfg.RequestTimeout)
	fetcher := download.NewFetcher(cfg.PackageBaseURL, cfg.DownloadDir, cfg.RequestTimeout)

	searchOpts := append([]search.Option{search.WithMinLoading(cfg.MinLoading)}, opts...)
	controller := search.New(gallery, loc, logger, searchOpts...)

	resolver := download.NewResolver(fetcher, notifier, cfg.DefaultPlatform)
	browser := versions.New(gallery, logger)
	browser.Bind(resolver)
	resolver.SetBrowser(browser)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Gallery:  gallery,
		Location: loc,
		Search:   controller,
		Resolver: resolver,
		Versions: browser,
		Fetcher:  fetcher,
	}
}

// ResolveProvider fills the gallery URLs cfg leaves blank from its
// configured provider. Explicit URLs win, which lets a mirror or a test
// server stand in for either registry.
func ResolveProvider(cfg config.Config) (config.Config, error) {
	provider, err := marketplace.NewFactory().CreateByType(marketplace.MarketplaceType(cfg.Provider))
	if err != nil {
		return cfg, fmt.Errorf("invalid gallery.provider: %w", err)
	}

	cfg.ProviderName = provider.Name
	if cfg.GalleryEndpoint == "" {
		cfg.GalleryEndpoint = provider.Endpoint
	}
	if cfg.PackageBaseURL == "" {
		cfg.PackageBaseURL = provider.PackageBase
	}
	if cfg.ItemsURL == "" {
		cfg.ItemsURL = provider.ItemsURL
	}
	return cfg, nil
}

// Prefs opens the preference store on first use.
func (a *App) Prefs() (*prefs.Store, error) {
	if a.prefs != nil {
		return a.prefs, nil
	}
	store, err := prefs.Open(a.Config.DBPath, a.Config.AutoMigrate)
	if err != nil {
		return nil, fmt.Errorf("error opening preferences: %w", err)
	}
	a.prefs = store
	return store, nil
}

// DarkMode reads the theme flag, falling back to dark when the store is
// unavailable.
func (a *App) DarkMode() bool {
	store, err := a.Prefs()
	if err != nil {
		a.Logger.LogWarning("%v", err)
		return true
	}
	dark, err := store.DarkMode()
	if err != nil {
		a.Logger.LogWarning("%v", err)
	}
	return dark
}

// ToggleTheme flips and persists the theme flag, returning the new value.
func (a *App) ToggleTheme() (bool, error) {
	dark := !a.DarkMode()
	store, err := a.Prefs()
	if err != nil {
		return dark, err
	}
	return dark, store.SetDarkMode(dark)
}

// Start replays the query the location was seeded with.
func (a *App) Start() tea.Cmd {
	if a.Location.Get(utils.QueryParam) == "" {
		return nil
	}
	return a.Search.SyncFromLocation()
}

// Back steps the location history and replays it.
func (a *App) Back() tea.Cmd {
	if !a.Location.Back() {
		return nil
	}
	return a.Search.SyncFromLocation()
}

func (a *App) Forward() tea.Cmd {
	if !a.Location.Forward() {
		return nil
	}
	return a.Search.SyncFromLocation()
}

// Update routes msg to the component that issued it.
func (a *App) Update(msg tea.Msg) bool {
	return a.Search.Update(msg) || a.Versions.Update(msg)
}

func (a *App) Close() error {
	if a.prefs == nil {
		return nil
	}
	return a.prefs.Close()
}
