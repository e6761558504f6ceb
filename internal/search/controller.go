// Package search owns the search state of the client: the fresh search, the
// infinite-scroll append, explicit page jumps and the return to the home view.
//
// All methods must be called from the goroutine that owns the controller.
// Network work is handed back as a tea.Cmd; its ResultMsg goes to Update.
package search

import (
	"context"
	"slices"
	"strings"
	"time"

	"vsxdl/internal/location"
	"vsxdl/internal/marketplace"
	"vsxdl/internal/models"
	"vsxdl/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
)

const DefaultMinLoading = 600 * time.Millisecond

type State struct {
	Query        string
	Page         int
	Results      []models.Extension
	Total        int
	HasMore      bool
	Searching    bool
	LoadingMore  bool
	InSearchMode bool
}

// TotalPages derives the page count from Total.
func (s State) TotalPages() int {
	return marketplace.TotalPages(s.Total)
}

// NoResults reports a finished search that found nothing, as opposed to a
// session that never searched.
func (s State) NoResults() bool {
	return s.InSearchMode && !s.Searching && len(s.Results) == 0
}

type fetchMode int

const (
	modeFresh fetchMode = iota
	modeAppend
	modeJump
)

// ResultMsg carries a finished page request back to the controller.
type ResultMsg struct {
	gen    uint64
	mode   fetchMode
	query  string
	page   int
	result *models.SearchResult
	err    error
}

func (m ResultMsg) Err() error {
	return m.err
}

type Controller struct {
	searcher marketplace.Searcher
	params   location.Params
	logger   *utils.Logger

	ctx        context.Context
	minLoading time.Duration
	now        func() time.Time
	sleep      func(time.Duration)

	state       State
	gen         uint64
	subscribers []func(State)
}

type Option func(*Controller)

// WithMinLoading sets the floor a request's completion is held back to.
func WithMinLoading(d time.Duration) Option {
	return func(c *Controller) {
		c.minLoading = d
	}
}

func WithClock(now func() time.Time, sleep func(time.Duration)) Option {
	return func(c *Controller) {
		c.now = now
		c.sleep = sleep
	}
}

func WithContext(ctx context.Context) Option {
	return func(c *Controller) {
		c.ctx = ctx
	}
}

func New(searcher marketplace.Searcher, params location.Params, logger *utils.Logger, opts ...Option) *Controller {
	c := &Controller{
		searcher:   searcher,
		params:     params,
		logger:     logger,
		ctx:        context.Background(),
		minLoading: DefaultMinLoading,
		now:        time.Now,
		sleep:      time.Sleep,
		state:      State{Page: 1, HasMore: true},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// State returns a snapshot; callers may keep it across updates.
func (c *Controller) State() State {
	s := c.state
	s.Results = slices.Clone(c.state.Results)
	return s
}

// Subscribe registers fn to run after every committed state change.
func (c *Controller) Subscribe(fn func(State)) {
	c.subscribers = append(c.subscribers, fn)
}

func (c *Controller) notify() {
	if len(c.subscribers) == 0 {
		return
	}
	snapshot := c.State()
	for _, fn := range c.subscribers {
		fn(snapshot)
	}
}

// SetQuery records typed text without searching.
func (c *Controller) SetQuery(text string) {
	if c.state.Query == text {
		return
	}
	c.state.Query = text
	c.notify()
}

// Submit is the search box action. Blank text while showing results goes
// home; otherwise the query is mirrored into a new history entry and searched.
func (c *Controller) Submit(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		if c.state.InSearchMode {
			c.ReturnToHome()
		}
		return nil
	}

	c.params.Set(utils.QueryParam, text, false)
	return c.StartSearch(text)
}

// StartSearch replaces the result list with page 1 of text.
func (c *Controller) StartSearch(text string) tea.Cmd {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	c.gen++
	c.state = State{
		Query:        text,
		Page:         1,
		HasMore:      true,
		Searching:    true,
		InSearchMode: true,
	}
	c.notify()

	return c.fetch(modeFresh, text, 1)
}

// LoadMore appends the next page. It is ignored while any request is in
// flight or when there is nothing left to load.
func (c *Controller) LoadMore() tea.Cmd {
	if c.state.LoadingMore || c.state.Searching || !c.state.HasMore || !c.state.InSearchMode {
		return nil
	}

	c.state.LoadingMore = true
	c.notify()

	return c.fetch(modeAppend, c.state.Query, c.state.Page+1)
}

// NearEnd is the boundary signal of the presentation layer: the visible
// window reached the end of the list.
func (c *Controller) NearEnd() tea.Cmd {
	return c.LoadMore()
}

// GoToPage replaces the results with one explicit page.
func (c *Controller) GoToPage(page int) tea.Cmd {
	if c.state.LoadingMore || c.state.Searching || !c.state.InSearchMode {
		return nil
	}
	if page < 1 || page > c.state.TotalPages() || page == c.state.Page {
		return nil
	}

	c.state.Searching = true
	c.notify()

	return c.fetch(modeJump, c.state.Query, page)
}

// ReturnToHome drops every piece of search state. Requests still in flight
// are ignored when they land.
func (c *Controller) ReturnToHome() {
	c.gen++
	c.state = State{Page: 1, HasMore: true}
	c.params.Set(utils.QueryParam, "", true)
	c.notify()
}

// SyncFromLocation replays the query held by the location, e.g. on start-up
// or after back/forward navigation. It never pushes a history entry.
func (c *Controller) SyncFromLocation() tea.Cmd {
	query := c.params.Get(utils.QueryParam)
	if strings.TrimSpace(query) == "" {
		c.ReturnToHome()
		return nil
	}
	return c.StartSearch(query)
}

func (c *Controller) fetch(mode fetchMode, query string, page int) tea.Cmd {
	gen := c.gen
	ctx := c.ctx
	searcher := c.searcher
	minLoading, now, sleep := c.minLoading, c.now, c.sleep

	return func() tea.Msg {
		start := now()
		result, err := searcher.Search(ctx, query, page)
		if remaining := minLoading - now().Sub(start); remaining > 0 {
			sleep(remaining)
		}
		return ResultMsg{gen: gen, mode: mode, query: query, page: page, result: result, err: err}
	}
}

// Update applies a ResultMsg. It reports whether msg belonged to the
// controller.
func (c *Controller) Update(msg tea.Msg) bool {
	res, ok := msg.(ResultMsg)
	if !ok {
		return false
	}

	if res.gen != c.gen {
		c.logger.LogDebug("dropping stale result for '%s' page %d", res.query, res.page)
		return true
	}

	switch res.mode {
	case modeFresh:
		c.state.Searching = false
		if res.err != nil {
			c.logger.LogError("search '%s' failed: %v", res.query, res.err)
			c.state.Results = nil
			break
		}
		c.state.Results = res.result.Extensions
		c.state.Total = res.result.TotalCount
		c.state.Page = res.page
		c.state.HasMore = hasMore(res.page, res.result.TotalCount, len(res.result.Extensions))

	case modeAppend:
		c.state.LoadingMore = false
		if res.err != nil {
			c.logger.LogError("loading page %d of '%s' failed: %v", res.page, res.query, res.err)
			break
		}
		c.state.Results = append(c.state.Results, res.result.Extensions...)
		c.state.Total = res.result.TotalCount
		c.state.Page = res.page
		c.state.HasMore = hasMore(res.page, res.result.TotalCount, len(res.result.Extensions))

	case modeJump:
		c.state.Searching = false
		if res.err != nil {
			c.logger.LogError("jumping to page %d of '%s' failed: %v", res.page, res.query, res.err)
			break
		}
		c.state.Results = res.result.Extensions
		c.state.Total = res.result.TotalCount
		c.state.Page = res.page
		c.state.HasMore = hasMore(res.page, res.result.TotalCount, len(res.result.Extensions))
	}

	c.notify()
	return true
}

func hasMore(page, total, got int) bool {
	return got > 0 && page*marketplace.PageSize < total
}

// PageRange is the window of page buttons around current (two either side).
func PageRange(current, totalPages int) []int {
	start := max(1, current-2)
	end := min(totalPages, current+2)

	var pages []int
	for p := start; p <= end; p++ {
		pages = append(pages, p)
	}
	return pages
}
