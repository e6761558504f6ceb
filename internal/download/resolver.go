package download

import (
	"slices"

	"vsxdl/internal/models"
	"vsxdl/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
)

// Trigger starts the actual download of a complete target.
type Trigger interface {
	Fire(t Target) tea.Cmd
}

// Notifier surfaces messages to the user (toast, stderr line).
type Notifier interface {
	Info(message string)
	Error(err error)
}

// Browser is the version browser the resolver opens for an extension.
type Browser interface {
	Open(ext models.Extension) tea.Cmd
}

// Prompt is the platform choice shown before a multi-build download.
type Prompt struct {
	Open     bool
	Choices  []string
	Selected string
}

// Resolver owns the one live download target. It never touches the network;
// complete targets are handed to the Trigger.
type Resolver struct {
	trigger         Trigger
	notifier        Notifier
	browser         Browser
	logger          *utils.Logger
	defaultPlatform string

	target   *Target
	prompt   Prompt
	browsing bool
}

func NewResolver(trigger Trigger, notifier Notifier, defaultPlatform string) *Resolver {
	return &Resolver{
		trigger:         trigger,
		notifier:        notifier,
		logger:          utils.NewLogger(),
		defaultPlatform: defaultPlatform,
	}
}

func (r *Resolver) SetBrowser(b Browser) {
	r.browser = b
}

// Target returns the live target, if any.
func (r *Resolver) Target() (Target, bool) {
	if r.target == nil {
		return Target{}, false
	}
	return *r.target, true
}

func (r *Resolver) Prompt() Prompt {
	p := r.prompt
	p.Choices = slices.Clone(r.prompt.Choices)
	return p
}

// Browsing reports whether a version browse session owns the target.
func (r *Resolver) Browsing() bool {
	return r.browsing
}

// BeginDirectDownload targets the latest release of ext. A single build is
// fetched right away; several builds open the platform prompt instead.
func (r *Resolver) BeginDirectDownload(ext models.Extension) tea.Cmd {
	r.reset()
	r.target = &Target{
		PublisherName: ext.Publisher.PublisherName,
		ExtensionName: ext.ExtensionName,
	}

	latest, ok := ext.Latest()
	if !ok {
		return r.fire()
	}
	r.target.Version = latest.Version
	r.target.TargetPlatform = latest.TargetPlatform

	if len(ext.Versions) == 1 {
		return r.fire()
	}

	choices := models.DistinctPlatforms(models.LatestBuilds(ext.Versions))
	if len(choices) == 0 {
		return r.fire()
	}

	selected := choices[0]
	if slices.Contains(choices, r.defaultPlatform) {
		selected = r.defaultPlatform
	}
	r.target.TargetPlatform = selected
	r.prompt = Prompt{Open: true, Choices: choices, Selected: selected}
	return nil
}

// BeginVersionBrowse targets ext without choosing a version and opens the
// version browser on it.
func (r *Resolver) BeginVersionBrowse(ext models.Extension) tea.Cmd {
	r.reset()
	r.target = &Target{
		PublisherName: ext.Publisher.PublisherName,
		ExtensionName: ext.ExtensionName,
	}
	r.browsing = true

	if r.browser == nil {
		return nil
	}
	return r.browser.Open(ext)
}

// DownloadVersion targets one known build of ext and fires it without opening
// the version browser. The target is consumed like a direct download.
func (r *Resolver) DownloadVersion(ext models.Extension, v models.Version) tea.Cmd {
	r.reset()
	r.target = &Target{
		PublisherName:  ext.Publisher.PublisherName,
		ExtensionName:  ext.ExtensionName,
		Version:        v.Version,
		TargetPlatform: v.TargetPlatform,
	}
	return r.fire()
}

// ConfirmPlatform answers the platform prompt and fires.
func (r *Resolver) ConfirmPlatform(platform string) tea.Cmd {
	if !r.prompt.Open || r.target == nil {
		return nil
	}
	r.target.TargetPlatform = platform
	r.prompt = Prompt{}
	return r.fire()
}

// SelectVersion records v as the pending choice without downloading.
func (r *Resolver) SelectVersion(v models.Version) {
	if r.target == nil {
		return
	}
	r.target.Version = v.Version
	if v.TargetPlatform != "" {
		r.target.TargetPlatform = v.TargetPlatform
	}
}

// ConfirmVersion selects v and downloads it.
func (r *Resolver) ConfirmVersion(v models.Version) tea.Cmd {
	if r.target == nil {
		return nil
	}
	r.SelectVersion(v)
	return r.fire()
}

// ConfirmDownload fires whatever is pending.
func (r *Resolver) ConfirmDownload() tea.Cmd {
	if r.target == nil {
		return nil
	}
	return r.fire()
}

// PinPlatform narrows the version browser to one platform ("" clears it).
func (r *Resolver) PinPlatform(platform string) {
	if r.target == nil {
		return
	}
	r.target.TargetPlatform = platform
}

func (r *Resolver) PinnedPlatform() string {
	if r.target == nil {
		return ""
	}
	return r.target.TargetPlatform
}

// Cancel drops the live target and closes the prompt.
func (r *Resolver) Cancel() {
	r.reset()
}

// EndVersionBrowse closes a browse session.
func (r *Resolver) EndVersionBrowse() {
	if r.browsing {
		r.reset()
	}
}

func (r *Resolver) reset() {
	r.target = nil
	r.prompt = Prompt{}
	r.browsing = false
}

// fire hands a complete target to the trigger. Outside a browse session the
// target is consumed either way.
func (r *Resolver) fire() tea.Cmd {
	t := *r.target
	if !r.browsing {
		r.target = nil
	}

	if err := t.Validate(); err != nil {
		r.logger.LogWarning("download blocked: %v", err)
		if r.notifier != nil {
			r.notifier.Error(err)
		}
		return nil
	}

	r.logger.LogDownloadRequest(t.ID(), t.Version, t.TargetPlatform)
	if r.notifier != nil {
		r.notifier.Info("Downloading " + t.String())
	}
	return r.trigger.Fire(t)
}
