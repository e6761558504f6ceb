// Package tui is the interactive front end: a search box, a scrolling result
// list, the platform prompt and the version browser.
package tui

import (
	"context"
	"fmt"
	"time"

	"vsxdl/internal/app"
	"vsxdl/internal/download"
	"vsxdl/internal/search"
	"vsxdl/internal/versions"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

const (
	// nearEndRows is how close the cursor gets to the last result before the
	// next page is requested.
	nearEndRows = 3
	cardHeight  = 5
	chromeRows  = 8
)

type focus int

const (
	focusInput focus = iota
	focusResults
)

type Model struct {
	app      *app.App
	toasts   *Toasts
	styles   *Styles
	dark     bool
	toastTTL time.Duration

	input    textinput.Model
	filter   textinput.Model
	spinner  spinner.Model
	viewport viewport.Model

	width  int
	height int
	focus  focus

	cursor        int
	promptCursor  int
	versionCursor int
	quitting      bool
}

// New builds the model. toasts must be the notifier a was built with.
func New(a *app.App, toasts *Toasts) *Model {
	input := textinput.New()
	input.Placeholder = "Search extensions"
	input.Prompt = "🔍 "
	input.CharLimit = 200
	input.SetValue(a.Location.Get("q"))
	input.Focus()

	filter := textinput.New()
	filter.Placeholder = "Filter versions"
	filter.Prompt = "› "

	s := spinner.New()
	s.Spinner = spinner.Dot

	dark := a.DarkMode()

	return &Model{
		app:      a,
		toasts:   toasts,
		styles:   NewStyles(dark),
		dark:     dark,
		toastTTL: toastTTL,
		input:    input,
		filter:   filter,
		spinner:  s,
		viewport: viewport.New(80, 20),
		width:    80,
		height:   24,
	}
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, m *Model) error {
	program := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("TUI application failed: %w", err)
	}
	return nil
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{textinput.Blink, m.spinner.Tick}
	if cmd := m.app.Start(); cmd != nil {
		m.setFocus(focusResults)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(10, msg.Width-6)
		m.viewport.Width = msg.Width
		m.viewport.Height = max(cardHeight, msg.Height-chromeRows)

	case search.ResultMsg:
		m.app.Search.Update(msg)
		m.clampCursor()

	case versions.LoadedMsg:
		m.app.Versions.Update(msg)
		m.versionCursor = 0

	case download.DoneMsg:
		m.handleDownloadDone(msg)

	case toastExpiredMsg:
		m.toasts.expire(msg.id)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		cmds = append(cmds, cmd)

	case tea.KeyMsg:
		cmds = append(cmds, m.handleKey(msg))

	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}

	cmds = append(cmds, m.toasts.schedule(m.toastTTL)...)
	return m, tea.Batch(cmds...)
}

func (m *Model) handleDownloadDone(msg download.DoneMsg) {
	if msg.Err != nil {
		m.toasts.Error(fmt.Errorf("download of %s failed: %w", msg.Target, msg.Err))
		return
	}

	verb := "Saved"
	if !msg.Result.WasDownloaded {
		verb = "Already have"
	}
	m.toasts.Info(fmt.Sprintf("%s %s (%s)", verb, msg.Result.FilePath, humanize.Bytes(uint64(msg.Result.Size))))
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return tea.Quit
	}

	switch {
	case m.app.Resolver.Prompt().Open:
		return m.handlePromptKey(msg)
	case m.app.Versions.IsOpen():
		return m.handleVersionKey(msg)
	case m.focus == focusInput:
		return m.handleInputKey(msg)
	default:
		return m.handleResultKey(msg)
	}
}

func (m *Model) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		cmd := m.app.Search.Submit(m.input.Value())
		m.cursor = 0
		if m.app.Search.State().InSearchMode {
			m.setFocus(focusResults)
		}
		return cmd
	case "esc", "down", "tab":
		if m.app.Search.State().InSearchMode {
			m.setFocus(focusResults)
		}
		return nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.app.Search.SetQuery(m.input.Value())
	return cmd
}

func (m *Model) handleResultKey(msg tea.KeyMsg) tea.Cmd {
	state := m.app.Search.State()

	switch msg.String() {
	case "q":
		m.quitting = true
		return tea.Quit
	case "/", "i", "tab", "esc":
		m.setFocus(focusInput)
		return textinput.Blink
	case "j", "down":
		if m.cursor < len(state.Results)-1 {
			m.cursor++
		}
		if m.cursor >= len(state.Results)-nearEndRows {
			return m.app.Search.NearEnd()
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "G", "end":
		m.cursor = max(0, len(state.Results)-1)
		return m.app.Search.NearEnd()
	case "n", "pgdown":
		m.cursor = 0
		return m.app.Search.GoToPage(state.Page + 1)
	case "p", "pgup":
		m.cursor = 0
		return m.app.Search.GoToPage(state.Page - 1)
	case "enter", "d":
		if ext, ok := m.selected(); ok {
			cmd := m.app.Resolver.BeginDirectDownload(ext)
			m.syncPromptCursor()
			return cmd
		}
	case "v":
		if ext, ok := m.selected(); ok {
			m.filter.SetValue("")
			m.filter.Focus()
			m.versionCursor = 0
			return m.app.Resolver.BeginVersionBrowse(ext)
		}
	case "h":
		m.app.Search.ReturnToHome()
		m.input.SetValue("")
		m.cursor = 0
		m.setFocus(focusInput)
	case "t":
		m.toggleTheme()
	case "[":
		return m.navigate(m.app.Back())
	case "]":
		return m.navigate(m.app.Forward())
	}
	return nil
}

func (m *Model) handlePromptKey(msg tea.KeyMsg) tea.Cmd {
	choices := m.app.Resolver.Prompt().Choices

	switch msg.String() {
	case "j", "down":
		if m.promptCursor < len(choices)-1 {
			m.promptCursor++
		}
	case "k", "up":
		if m.promptCursor > 0 {
			m.promptCursor--
		}
	case "enter":
		if m.promptCursor < len(choices) {
			return m.app.Resolver.ConfirmPlatform(choices[m.promptCursor])
		}
	case "esc", "q":
		m.app.Resolver.Cancel()
	}
	return nil
}

func (m *Model) handleVersionKey(msg tea.KeyMsg) tea.Cmd {
	filtered := m.app.Versions.Filtered()

	switch msg.String() {
	case "esc":
		m.app.Versions.Close()
		m.filter.Blur()
		return nil
	case "down", "ctrl+n":
		if m.versionCursor < len(filtered)-1 {
			m.versionCursor++
		}
		return nil
	case "up", "ctrl+p":
		if m.versionCursor > 0 {
			m.versionCursor--
		}
		return nil
	case "tab":
		m.app.Versions.CyclePlatform()
		m.versionCursor = 0
		return nil
	case "enter":
		if m.versionCursor < len(filtered) {
			v := filtered[m.versionCursor]
			m.app.Versions.Select(v)
			m.toasts.Info("Selected " + versions.DisplayString(v))
		}
		return nil
	case "ctrl+d":
		return m.app.Resolver.ConfirmDownload()
	}

	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	if m.filter.Value() != m.app.Versions.FilterText() {
		m.app.Versions.SetFilter(m.filter.Value())
		m.versionCursor = 0
	}
	return cmd
}

// navigate applies a history step and mirrors the replayed query.
func (m *Model) navigate(cmd tea.Cmd) tea.Cmd {
	state := m.app.Search.State()
	m.input.SetValue(state.Query)
	m.cursor = 0
	if !state.InSearchMode {
		m.setFocus(focusInput)
	}
	return cmd
}

func (m *Model) toggleTheme() {
	dark, err := m.app.ToggleTheme()
	if err != nil {
		m.toasts.Error(err)
	}
	m.dark = dark
	m.styles = NewStyles(dark)
}

func (m *Model) setFocus(f focus) {
	m.focus = f
	if f == focusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) syncPromptCursor() {
	prompt := m.app.Resolver.Prompt()
	m.promptCursor = 0
	for i, choice := range prompt.Choices {
		if choice == prompt.Selected {
			m.promptCursor = i
		}
	}
}

func (m *Model) clampCursor() {
	n := len(m.app.Search.State().Results)
	if m.cursor >= n {
		m.cursor = max(0, n-1)
	}
}
