package download

import (
	"testing"
	"time"

	"vsxdl/internal/marketplace/marketplacetest"
	"vsxdl/internal/models"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type firedMsg struct {
	target Target
}

type recordingTrigger struct {
	fired []Target
}

func (r *recordingTrigger) Fire(t Target) tea.Cmd {
	r.fired = append(r.fired, t)
	return func() tea.Msg { return firedMsg{target: t} }
}

type recordingNotifier struct {
	infos  []string
	errors []error
}

func (r *recordingNotifier) Info(message string) {
	r.infos = append(r.infos, message)
}

func (r *recordingNotifier) Error(err error) {
	r.errors = append(r.errors, err)
}

type recordingBrowser struct {
	opened []string
}

func (r *recordingBrowser) Open(ext models.Extension) tea.Cmd {
	r.opened = append(r.opened, ext.ID())
	return nil
}

var released = time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)

func newTestResolver() (*Resolver, *recordingTrigger, *recordingNotifier, *recordingBrowser) {
	trigger := &recordingTrigger{}
	notifier := &recordingNotifier{}
	browser := &recordingBrowser{}
	r := NewResolver(trigger, notifier, "win32-x64")
	r.SetBrowser(browser)
	return r, trigger, notifier, browser
}

func TestBeginDirectDownload_SingleBuildFires(t *testing.T) {
	r, trigger, notifier, _ := newTestResolver()
	ext := marketplacetest.Extension("esbenp", "prettier-vscode")

	cmd := r.BeginDirectDownload(ext)
	require.NotNil(t, cmd)
	assert.Equal(t, firedMsg{target: Target{PublisherName: "esbenp", ExtensionName: "prettier-vscode", Version: "1.0.0"}}, cmd())

	require.Len(t, trigger.fired, 1)
	assert.Len(t, notifier.infos, 1)
	assert.False(t, r.Prompt().Open)

	_, live := r.Target()
	assert.False(t, live)
}

func TestBeginDirectDownload_MultiPlatformOpensPrompt(t *testing.T) {
	r, trigger, _, _ := newTestResolver()
	ext := marketplacetest.Extension("ms-python", "python",
		marketplacetest.Builds("1.2.0", released, "win32-x64", "linux-x64", "darwin-arm64")...)

	assert.Nil(t, r.BeginDirectDownload(ext))
	assert.Empty(t, trigger.fired)

	prompt := r.Prompt()
	assert.True(t, prompt.Open)
	assert.Equal(t, []string{"win32-x64", "linux-x64", "darwin-arm64"}, prompt.Choices)
	assert.Equal(t, "win32-x64", prompt.Selected)

	target, live := r.Target()
	require.True(t, live)
	assert.Equal(t, "1.2.0", target.Version)
	assert.Equal(t, "win32-x64", target.TargetPlatform)

	require.NotNil(t, r.ConfirmPlatform("linux-x64"))
	require.Len(t, trigger.fired, 1)
	assert.Equal(t, Target{
		PublisherName:  "ms-python",
		ExtensionName:  "python",
		Version:        "1.2.0",
		TargetPlatform: "linux-x64",
	}, trigger.fired[0])
	assert.False(t, r.Prompt().Open)

	assert.Nil(t, r.ConfirmPlatform("linux-x64"))
	assert.Len(t, trigger.fired, 1)
}

func TestBeginDirectDownload_DefaultPlatformNotOffered(t *testing.T) {
	r, _, _, _ := newTestResolver()
	ext := marketplacetest.Extension("rust-lang", "rust-analyzer",
		marketplacetest.Builds("0.3.0", released, "linux-arm64", "darwin-x64")...)

	r.BeginDirectDownload(ext)
	assert.Equal(t, "linux-arm64", r.Prompt().Selected)
}

func TestBeginDirectDownload_NoVersionIsBlocked(t *testing.T) {
	r, trigger, notifier, _ := newTestResolver()
	ext := marketplacetest.Extension("acme", "broken")
	ext.Versions = nil

	assert.Nil(t, r.BeginDirectDownload(ext))
	assert.Empty(t, trigger.fired)

	require.Len(t, notifier.errors, 1)
	var validation *ValidationError
	require.ErrorAs(t, notifier.errors[0], &validation)
	assert.Equal(t, []string{"version"}, validation.Fields)
	assert.Contains(t, validation.Error(), "missing version")
}

func TestCancel(t *testing.T) {
	r, trigger, _, _ := newTestResolver()
	ext := marketplacetest.Extension("ms-python", "python",
		marketplacetest.Builds("1.2.0", released, "win32-x64", "linux-x64")...)

	r.BeginDirectDownload(ext)
	r.Cancel()

	assert.False(t, r.Prompt().Open)
	_, live := r.Target()
	assert.False(t, live)
	assert.Nil(t, r.ConfirmDownload())
	assert.Empty(t, trigger.fired)
}

func TestVersionBrowseSession(t *testing.T) {
	r, trigger, notifier, browser := newTestResolver()
	ext := marketplacetest.Extension("golang", "go")

	r.BeginVersionBrowse(ext)
	assert.Equal(t, []string{"golang.go"}, browser.opened)
	assert.True(t, r.Browsing())

	target, live := r.Target()
	require.True(t, live)
	assert.Empty(t, target.Version)

	// Nothing chosen yet.
	assert.Nil(t, r.ConfirmDownload())
	require.Len(t, notifier.errors, 1)
	assert.Empty(t, trigger.fired)

	r.SelectVersion(models.Version{Version: "0.40.0", TargetPlatform: "darwin-arm64"})
	assert.Empty(t, trigger.fired)
	assert.Equal(t, "darwin-arm64", r.PinnedPlatform())

	require.NotNil(t, r.ConfirmDownload())
	require.Len(t, trigger.fired, 1)
	assert.Equal(t, "0.40.0", trigger.fired[0].Version)

	// The session keeps its target for further downloads.
	require.NotNil(t, r.ConfirmVersion(models.Version{Version: "0.39.1"}))
	require.Len(t, trigger.fired, 2)
	assert.Equal(t, "0.39.1", trigger.fired[1].Version)
	assert.Equal(t, "darwin-arm64", trigger.fired[1].TargetPlatform)

	r.EndVersionBrowse()
	assert.False(t, r.Browsing())
	_, live = r.Target()
	assert.False(t, live)
}

func TestDownloadVersion(t *testing.T) {
	r, trigger, notifier, browser := newTestResolver()
	ext := marketplacetest.Extension("ms-python", "python",
		marketplacetest.Builds("1.2.0", released, "win32-x64", "linux-x64")...)

	require.NotNil(t, r.DownloadVersion(ext, models.Version{Version: "1.1.0", TargetPlatform: "linux-x64"}))
	assert.Empty(t, browser.opened)
	assert.False(t, r.Browsing())
	require.Len(t, trigger.fired, 1)
	assert.Equal(t, "1.1.0", trigger.fired[0].Version)
	assert.Equal(t, "linux-x64", trigger.fired[0].TargetPlatform)

	_, live := r.Target()
	assert.False(t, live)

	assert.Nil(t, r.DownloadVersion(ext, models.Version{}))
	require.Len(t, notifier.errors, 1)
	assert.ErrorContains(t, notifier.errors[0], "missing version")
}

func TestPinPlatform(t *testing.T) {
	r, _, _, _ := newTestResolver()

	r.PinPlatform("linux-x64")
	assert.Empty(t, r.PinnedPlatform())

	r.BeginVersionBrowse(marketplacetest.Extension("golang", "go"))
	r.PinPlatform("linux-x64")
	assert.Equal(t, "linux-x64", r.PinnedPlatform())
	r.PinPlatform("")
	assert.Empty(t, r.PinnedPlatform())
}

func TestBeginVersionBrowse_ReplacesPrompt(t *testing.T) {
	r, _, _, _ := newTestResolver()
	ext := marketplacetest.Extension("ms-python", "python",
		marketplacetest.Builds("1.2.0", released, "win32-x64", "linux-x64")...)

	r.BeginDirectDownload(ext)
	r.BeginVersionBrowse(ext)

	assert.False(t, r.Prompt().Open)
	assert.Empty(t, r.PinnedPlatform())
}
