// Package versions browses the full release history of one extension.
package versions

import (
	"context"
	"fmt"
	"strings"

	"vsxdl/internal/marketplace"
	"vsxdl/internal/models"
	"vsxdl/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/text/cases"
)

const dateLayout = "2006-01-02"

// Selector receives the user's choice. The download resolver implements it.
type Selector interface {
	SelectVersion(v models.Version)
	PinnedPlatform() string
	PinPlatform(platform string)
	EndVersionBrowse()
}

// LoadedMsg carries a finished version fetch back to the browser.
type LoadedMsg struct {
	gen         uint64
	extensionID string
	versions    []models.Version
	err         error
}

func (m LoadedMsg) Err() error {
	return m.err
}

type Browser struct {
	fetcher  marketplace.VersionFetcher
	selector Selector
	logger   *utils.Logger
	ctx      context.Context

	gen      uint64
	ext      models.Extension
	open     bool
	loading  bool
	versions []models.Version
	err      error
	filter   string
}

func New(fetcher marketplace.VersionFetcher, logger *utils.Logger) *Browser {
	return &Browser{
		fetcher: fetcher,
		logger:  logger,
		ctx:     context.Background(),
	}
}

// Bind attaches the selector that receives choices and supplies the pinned
// platform.
func (b *Browser) Bind(selector Selector) {
	b.selector = selector
}

// Open scopes the browser to ext and starts fetching its history. The list
// stays empty until the fetch lands; a later Open supersedes it.
func (b *Browser) Open(ext models.Extension) tea.Cmd {
	b.gen++
	b.ext = ext
	b.open = true
	b.loading = true
	b.versions = nil
	b.err = nil
	b.filter = ""

	gen := b.gen
	id := ext.ID()
	ctx := b.ctx
	fetcher := b.fetcher

	return func() tea.Msg {
		versions, err := fetcher.FetchVersions(ctx, id)
		return LoadedMsg{gen: gen, extensionID: id, versions: versions, err: err}
	}
}

func (b *Browser) Close() {
	if !b.open {
		return
	}
	b.gen++
	b.open = false
	b.loading = false
	b.versions = nil
	b.filter = ""
	if b.selector != nil {
		b.selector.EndVersionBrowse()
	}
}

// Update applies a LoadedMsg, reporting whether msg belonged to the browser.
func (b *Browser) Update(msg tea.Msg) bool {
	loaded, ok := msg.(LoadedMsg)
	if !ok {
		return false
	}
	if loaded.gen != b.gen {
		b.logger.LogDebug("dropping stale version list for %s", loaded.extensionID)
		return true
	}

	b.loading = false
	if loaded.err != nil {
		b.logger.LogError("fetching versions of %s failed: %v", loaded.extensionID, loaded.err)
		b.err = loaded.err
		return true
	}
	b.versions = loaded.versions
	return true
}

func (b *Browser) IsOpen() bool {
	return b.open
}

func (b *Browser) Loading() bool {
	return b.loading
}

func (b *Browser) Err() error {
	return b.err
}

func (b *Browser) Extension() models.Extension {
	return b.ext
}

func (b *Browser) Versions() []models.Version {
	return b.versions
}

func (b *Browser) FilterText() string {
	return b.filter
}

func (b *Browser) SetFilter(text string) {
	b.filter = text
}

func (b *Browser) PinnedPlatform() string {
	if b.selector == nil {
		return ""
	}
	return b.selector.PinnedPlatform()
}

// Filtered applies the pinned platform and the filter text.
func (b *Browser) Filtered() []models.Version {
	return Filter(b.versions, b.PinnedPlatform(), b.filter)
}

// Select hands v to the selector without downloading it.
func (b *Browser) Select(v models.Version) {
	if b.selector != nil {
		b.selector.SelectVersion(v)
	}
}

func (b *Browser) Platforms() []string {
	return models.DistinctPlatforms(b.versions)
}

func (b *Browser) PinPlatform(platform string) {
	if b.selector != nil {
		b.selector.PinPlatform(platform)
	}
}

// CyclePlatform pins the next known platform, wrapping to no pin after the
// last one.
func (b *Browser) CyclePlatform() string {
	platforms := b.Platforms()
	current := b.PinnedPlatform()

	next := ""
	if current == "" {
		if len(platforms) > 0 {
			next = platforms[0]
		}
	} else {
		for i, p := range platforms {
			if p == current && i+1 < len(platforms) {
				next = platforms[i+1]
				break
			}
		}
	}

	b.PinPlatform(next)
	return next
}

// DisplayString renders v the way the filter text is matched against.
func DisplayString(v models.Version) string {
	s := fmt.Sprintf("%s [%s Released]", v.Version, v.LastUpdated.UTC().Format(dateLayout))
	if v.TargetPlatform != "" {
		s += fmt.Sprintf(" [%s]", v.TargetPlatform)
	}
	return s
}

// Filter keeps the versions built for pinned (any when empty) whose display
// string contains text, ignoring case. Order is preserved.
func Filter(versions []models.Version, pinned, text string) []models.Version {
	fold := cases.Fold()
	needle := fold.String(text)

	var out []models.Version
	for _, v := range versions {
		if pinned != "" && v.TargetPlatform != pinned {
			continue
		}
		if needle != "" && !strings.Contains(fold.String(DisplayString(v)), needle) {
			continue
		}
		out = append(out, v)
	}
	return out
}
