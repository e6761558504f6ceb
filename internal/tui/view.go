package tui

import (
	"fmt"
	"strconv"
	"strings"

	"vsxdl/internal/models"
	"vsxdl/internal/present"
	"vsxdl/internal/search"
	"vsxdl/internal/versions"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

func (m *Model) selected() (models.Extension, bool) {
	results := m.app.Search.State().Results
	if m.cursor < 0 || m.cursor >= len(results) {
		return models.Extension{}, false
	}
	return results[m.cursor], true
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{m.renderHeader(), m.input.View()}

	switch {
	case m.app.Resolver.Prompt().Open:
		sections = append(sections, m.renderPrompt())
	case m.app.Versions.IsOpen():
		sections = append(sections, m.renderVersions())
	default:
		sections = append(sections, m.renderBody())
	}

	sections = append(sections, m.renderFooter())
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}

	return m.styles.Container.Render(lipgloss.JoinVertical(lipgloss.Left, sections...))
}

func (m *Model) renderHeader() string {
	theme := "dark"
	if !m.dark {
		theme = "light"
	}
	title := "vsxdl · " + theme
	if name := m.app.Config.ProviderName; name != "" {
		title = fmt.Sprintf("vsxdl · %s · %s", name, theme)
	}
	return m.styles.Header.Render(title)
}

func (m *Model) renderBody() string {
	state := m.app.Search.State()

	switch {
	case !state.InSearchMode:
		return m.styles.MutedText.Render("\nType a query and press enter. Results can be downloaded straight to " + m.app.Fetcher.Dir() + ".")
	case state.Searching && len(state.Results) == 0:
		return fmt.Sprintf("\n%s Searching for %q...", m.spinner.View(), state.Query)
	case state.NoResults():
		return m.styles.WarningText.Render(fmt.Sprintf("\nNo extensions found for %q.", state.Query))
	}

	m.viewport.SetContent(m.renderCards(state.Results))
	m.scrollToCursor()
	return m.viewport.View()
}

func (m *Model) renderCards(results []models.Extension) string {
	width := max(20, m.width-4)
	var b strings.Builder

	for i, ext := range results {
		card := present.NewCard(ext, m.app.Config.ItemsURL)

		title := fmt.Sprintf("%s  %s", card.Title, m.styles.MutedText.Render("by "+card.Publisher))
		if card.LatestVersion != "" {
			title += m.styles.Badge.Render("  v" + card.LatestVersion)
		}
		if i == m.cursor && m.focus == focusResults {
			title = m.styles.Selected.Render("▶ "+card.Title) + "  " + m.styles.MutedText.Render("by "+card.Publisher)
		}

		stats := fmt.Sprintf("%s %.1f  ⬇ %s",
			m.styles.Stars.Render(present.StarString(card.Stars)), card.Rating, card.Installs)
		if len(card.Platforms) > 0 {
			stats += m.styles.Badge.Render(fmt.Sprintf("  %d platforms", len(card.Platforms)))
		}

		b.WriteString(title + "\n")
		b.WriteString(stats + "\n")
		b.WriteString(runewidth.Truncate(card.Description, width, "…") + "\n")
		b.WriteString(m.styles.MutedText.Render(runewidth.Truncate(card.MarketplaceURL, width, "…")) + "\n")
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// scrollToCursor keeps the selected card inside the viewport.
func (m *Model) scrollToCursor() {
	top := m.cursor * cardHeight
	bottom := top + cardHeight
	switch {
	case top < m.viewport.YOffset:
		m.viewport.SetYOffset(top)
	case bottom > m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(bottom - m.viewport.Height)
	}
}

func (m *Model) renderPrompt() string {
	prompt := m.app.Resolver.Prompt()
	target, _ := m.app.Resolver.Target()

	lines := []string{
		m.styles.Title.Render("Choose a platform"),
		m.styles.MutedText.Render(target.String()),
		"",
	}
	for i, choice := range prompt.Choices {
		line := m.styles.Unselected.Render("  " + choice)
		if choice == prompt.Selected {
			line += m.styles.MutedText.Render(" (default)")
		}
		if i == m.promptCursor {
			line = m.styles.Selected.Render("▶ " + choice)
		}
		lines = append(lines, line)
	}
	lines = append(lines, "", m.styles.MutedText.Render("enter download · esc cancel"))

	return "\n" + m.styles.Prompt.Render(strings.Join(lines, "\n"))
}

func (m *Model) renderVersions() string {
	browser := m.app.Versions
	ext := browser.Extension()

	header := m.styles.Title.Render("Versions of " + ext.ID())
	if pinned := browser.PinnedPlatform(); pinned != "" {
		header += m.styles.Badge.Render("  [" + pinned + "]")
	}

	lines := []string{"", header, m.filter.View(), ""}

	switch {
	case browser.Loading():
		lines = append(lines, m.spinner.View()+" Loading versions...")
	case browser.Err() != nil:
		lines = append(lines, m.styles.ErrorText.Render("Could not load versions: "+browser.Err().Error()))
	default:
		filtered := browser.Filtered()
		if len(filtered) == 0 {
			lines = append(lines, m.styles.MutedText.Render("No matching versions."))
		}

		visible := max(1, m.height-chromeRows-4)
		start := 0
		if m.versionCursor >= visible {
			start = m.versionCursor - visible + 1
		}
		end := min(len(filtered), start+visible)

		target, _ := m.app.Resolver.Target()
		for i := start; i < end; i++ {
			v := filtered[i]
			line := m.styles.Unselected.Render("  " + versions.DisplayString(v))
			if v.Version == target.Version && v.TargetPlatform == target.TargetPlatform {
				line = m.styles.SuccessText.Render("✓ " + versions.DisplayString(v))
			}
			if i == m.versionCursor {
				line = m.styles.Selected.Render("▶ " + versions.DisplayString(v))
			}
			lines = append(lines, line)
		}
	}

	lines = append(lines, "", m.styles.MutedText.Render("enter select · ctrl+d download · tab platform · esc close"))
	return strings.Join(lines, "\n")
}

func (m *Model) renderFooter() string {
	state := m.app.Search.State()

	var parts []string
	if state.InSearchMode && state.Total > 0 {
		parts = append(parts, fmt.Sprintf("%d of %d", len(state.Results), state.Total))
		parts = append(parts, "pages "+renderPageRange(state, m.styles))
	}
	if state.LoadingMore {
		parts = append(parts, m.spinner.View()+" loading more")
	} else if state.InSearchMode && !state.HasMore && len(state.Results) > 0 {
		parts = append(parts, "end of results")
	}
	parts = append(parts, "j/k move · enter download · v versions · h home · [ ] history · t theme · q quit")

	return m.styles.Footer.Render(strings.Join(parts, " · "))
}

func renderPageRange(state search.State, styles *Styles) string {
	var pages []string
	for _, p := range search.PageRange(state.Page, state.TotalPages()) {
		label := strconv.Itoa(p)
		if p == state.Page {
			label = styles.PrimaryText.Render("[" + label + "]")
		}
		pages = append(pages, label)
	}
	return strings.Join(pages, " ")
}

func (m *Model) renderToasts() string {
	var lines []string
	for _, t := range m.toasts.items {
		if t.level == toastError {
			lines = append(lines, m.styles.ErrorText.Render("✗ "+t.text))
		} else {
			lines = append(lines, m.styles.SuccessText.Render("• "+t.text))
		}
	}
	return strings.Join(lines, "\n")
}
