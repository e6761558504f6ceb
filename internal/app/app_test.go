package app

import (
	"path/filepath"
	"testing"
	"time"

	"vsxdl/internal/config"
	"vsxdl/internal/download"
	"vsxdl/internal/location"
	"vsxdl/internal/marketplace/marketplacetest"
	"vsxdl/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	infos  []string
	errors []error
}

func (r *recordingNotifier) Info(message string) { r.infos = append(r.infos, message) }
func (r *recordingNotifier) Error(err error)     { r.errors = append(r.errors, err) }

func newTestApp(t *testing.T, loc *location.History, extensions ...models.Extension) (*App, *recordingNotifier) {
	t.Helper()
	srv := marketplacetest.New(extensions...)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfg := config.Config{
		GalleryEndpoint: srv.Endpoint(),
		PackageBaseURL:  srv.PackageBase(),
		RequestTimeout:  5 * time.Second,
		DownloadDir:     filepath.Join(dir, "downloads"),
		DefaultPlatform: "linux-x64",
		DBPath:          filepath.Join(dir, "data", "vsxdl.db"),
		AutoMigrate:     true,
	}

	notifier := &recordingNotifier{}
	a := New(cfg, loc, notifier)
	t.Cleanup(func() { a.Close() })
	return a, notifier
}

func run(t *testing.T, a *App, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)
	msg := cmd()
	a.Update(msg)
	return msg
}

func TestStart(t *testing.T) {
	a, _ := newTestApp(t, location.Parse("?q=ext"), marketplacetest.Catalog("acme", 3)...)
	run(t, a, a.Start())
	assert.Len(t, a.Search.State().Results, 3)

	empty, _ := newTestApp(t, nil)
	assert.Nil(t, empty.Start())
}

func TestBackForward(t *testing.T) {
	catalog := append(marketplacetest.Catalog("acme", 2),
		marketplacetest.Extension("other", "python"))
	a, _ := newTestApp(t, nil, catalog...)

	run(t, a, a.Search.Submit("ext"))
	run(t, a, a.Search.Submit("python"))
	assert.Len(t, a.Search.State().Results, 1)

	run(t, a, a.Back())
	assert.Equal(t, "ext", a.Search.State().Query)
	assert.Len(t, a.Search.State().Results, 2)

	assert.Nil(t, a.Back())
	assert.False(t, a.Search.State().InSearchMode)
	assert.Nil(t, a.Back())

	cmd := a.Forward()
	require.NotNil(t, cmd)
	assert.True(t, a.Search.State().Searching)
	assert.Equal(t, "ext", a.Search.State().Query)
}

func TestDirectDownloadFlow(t *testing.T) {
	released := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ext := marketplacetest.Extension("ms-python", "python",
		marketplacetest.Builds("1.2.0", released, "win32-x64", "linux-x64", "darwin-arm64")...)
	a, notifier := newTestApp(t, nil, ext)

	assert.Nil(t, a.Resolver.BeginDirectDownload(ext))
	assert.Equal(t, "linux-x64", a.Resolver.Prompt().Selected)

	msg := run(t, a, a.Resolver.ConfirmPlatform("darwin-arm64"))
	done, ok := msg.(download.DoneMsg)
	require.True(t, ok)
	require.NoError(t, done.Err)
	assert.Equal(t, "ms-python.python-1.2.0@darwin-arm64.vsix", filepath.Base(done.Result.FilePath))
	assert.Len(t, notifier.infos, 1)
}

func TestVersionBrowseFlow(t *testing.T) {
	released := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ext := marketplacetest.Extension("golang", "go",
		models.Version{Version: "0.40.0", LastUpdated: released},
		models.Version{Version: "0.39.0", LastUpdated: released.AddDate(0, -1, 0)},
	)
	a, _ := newTestApp(t, nil, ext)

	run(t, a, a.Resolver.BeginVersionBrowse(ext))
	require.Len(t, a.Versions.Filtered(), 2)

	a.Versions.SetFilter("0.39")
	filtered := a.Versions.Filtered()
	require.Len(t, filtered, 1)

	msg := run(t, a, a.Resolver.ConfirmVersion(filtered[0]))
	done := msg.(download.DoneMsg)
	require.NoError(t, done.Err)
	assert.Equal(t, "0.39.0", done.Result.Manifest.Version)
}

func TestToggleTheme(t *testing.T) {
	a, _ := newTestApp(t, nil)
	assert.True(t, a.DarkMode())

	dark, err := a.ToggleTheme()
	require.NoError(t, err)
	assert.False(t, dark)
	assert.False(t, a.DarkMode())
}

func TestResolveProvider(t *testing.T) {
	cfg, err := ResolveProvider(config.Config{Provider: "open-vsx"})
	require.NoError(t, err)
	assert.Equal(t, "Open VSX Registry", cfg.ProviderName)
	assert.Equal(t, "https://open-vsx.org/vscode/gallery/extensionquery", cfg.GalleryEndpoint)
	assert.Equal(t, "https://open-vsx.org/vscode/gallery", cfg.PackageBaseURL)
	assert.Equal(t, "https://open-vsx.org/vscode/item", cfg.ItemsURL)

	// Explicit addresses are kept.
	cfg, err = ResolveProvider(config.Config{GalleryEndpoint: "http://mirror.test/extensionquery"})
	require.NoError(t, err)
	assert.Equal(t, "Visual Studio Marketplace", cfg.ProviderName)
	assert.Equal(t, "http://mirror.test/extensionquery", cfg.GalleryEndpoint)
	assert.Equal(t, "https://marketplace.visualstudio.com/_apis/public/gallery", cfg.PackageBaseURL)

	_, err = ResolveProvider(config.Config{Provider: "npm"})
	assert.ErrorContains(t, err, "unknown marketplace type: npm")
}
