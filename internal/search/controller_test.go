package search

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"vsxdl/internal/location"
	"vsxdl/internal/marketplace"
	"vsxdl/internal/marketplace/marketplacetest"
	"vsxdl/internal/models"
	"vsxdl/internal/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func (f *fakeClock) Now() time.Time {
	return f.now
}

func (f *fakeClock) Sleep(d time.Duration) {
	f.slept = append(f.slept, d)
	f.now = f.now.Add(d)
}

// fakeSearcher serves a fixed-size catalog of total entries.
type fakeSearcher struct {
	total   int
	latency time.Duration
	clock   *fakeClock
	err     error
	calls   []int
}

func (f *fakeSearcher) Search(_ context.Context, query string, page int) (*models.SearchResult, error) {
	f.calls = append(f.calls, page)
	if f.clock != nil {
		f.clock.now = f.clock.now.Add(f.latency)
	}
	if f.err != nil {
		return nil, f.err
	}

	var extensions []models.Extension
	for i := (page - 1) * marketplace.PageSize; i < page*marketplace.PageSize && i < f.total; i++ {
		extensions = append(extensions, models.Extension{
			ExtensionName: fmt.Sprintf("%s-%02d", query, i),
			Publisher:     models.Publisher{PublisherName: "acme"},
		})
	}
	return &models.SearchResult{Page: page, TotalCount: f.total, Extensions: extensions}, nil
}

func newTestController(searcher marketplace.Searcher, opts ...Option) (*Controller, *location.History) {
	loc := location.New()
	opts = append([]Option{WithMinLoading(0)}, opts...)
	return New(searcher, loc, utils.NewLogger(), opts...), loc
}

// run executes cmd synchronously and feeds the result back.
func run(t *testing.T, c *Controller, cmd tea.Cmd) {
	t.Helper()
	require.NotNil(t, cmd)
	assert.True(t, c.Update(cmd()))
}

func TestStartSearch_BlankIsNoop(t *testing.T) {
	searcher := &fakeSearcher{total: 5}
	c, _ := newTestController(searcher)

	assert.Nil(t, c.StartSearch("   "))
	assert.False(t, c.State().InSearchMode)
	assert.Empty(t, searcher.calls)
}

func TestStartSearch_GuardsLoadMoreWhileSearching(t *testing.T) {
	searcher := &fakeSearcher{total: 40}
	c, _ := newTestController(searcher)

	cmd := c.StartSearch("python")
	require.NotNil(t, cmd)

	state := c.State()
	assert.True(t, state.Searching)
	assert.True(t, state.InSearchMode)
	assert.True(t, state.HasMore)
	assert.Empty(t, state.Results)

	assert.Nil(t, c.LoadMore())
	assert.Nil(t, c.NearEnd())

	run(t, c, cmd)
	assert.Equal(t, []int{1}, searcher.calls)
	assert.False(t, c.State().Searching)
}

func TestLoadMore_IgnoredWhileLoading(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 60})
	run(t, c, c.StartSearch("go"))

	first := c.LoadMore()
	require.NotNil(t, first)
	assert.True(t, c.State().LoadingMore)
	assert.Nil(t, c.LoadMore())

	run(t, c, first)
	assert.False(t, c.State().LoadingMore)
}

func TestHasMore_Arithmetic(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 37})

	run(t, c, c.StartSearch("ext"))
	state := c.State()
	assert.Equal(t, 1, state.Page)
	assert.Equal(t, 37, state.Total)
	assert.True(t, state.HasMore)

	run(t, c, c.LoadMore())
	assert.Equal(t, 2, c.State().Page)
	assert.True(t, c.State().HasMore)

	run(t, c, c.LoadMore())
	state = c.State()
	assert.Equal(t, 3, state.Page)
	assert.False(t, state.HasMore)
	assert.Len(t, state.Results, 37)

	assert.Nil(t, c.LoadMore())
}

func TestHasMore_EmptyPageStops(t *testing.T) {
	assert.False(t, hasMore(2, 100, 0))
	assert.True(t, hasMore(2, 100, 15))
	assert.False(t, hasMore(3, 45, 15))
	assert.True(t, hasMore(2, 31, 15))
}

func TestLoadMore_AppendsWithoutReordering(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 50})
	run(t, c, c.StartSearch("vim"))
	before := c.State().Results

	run(t, c, c.LoadMore())
	afterFirst := c.State().Results
	require.Len(t, afterFirst, len(before)+15)
	assert.Equal(t, before, afterFirst[:len(before)])

	run(t, c, c.LoadMore())
	afterSecond := c.State().Results
	require.Len(t, afterSecond, len(afterFirst)+15)
	assert.Equal(t, afterFirst, afterSecond[:len(afterFirst)])
	assert.Equal(t, "vim-44", afterSecond[44].ExtensionName)
}

func TestLoadMore_FailureKeepsResults(t *testing.T) {
	searcher := &fakeSearcher{total: 50}
	c, _ := newTestController(searcher)
	run(t, c, c.StartSearch("vim"))
	before := c.State()

	searcher.err = &marketplace.NetworkError{Op: "search", StatusCode: 503}
	run(t, c, c.LoadMore())

	after := c.State()
	assert.Equal(t, before.Results, after.Results)
	assert.Equal(t, before.Page, after.Page)
	assert.True(t, after.HasMore)
	assert.False(t, after.LoadingMore)

	searcher.err = nil
	run(t, c, c.LoadMore())
	assert.Len(t, c.State().Results, 30)
}

func TestStartSearch_FailureClearsResults(t *testing.T) {
	searcher := &fakeSearcher{total: 20}
	c, _ := newTestController(searcher)
	run(t, c, c.StartSearch("first"))
	require.NotEmpty(t, c.State().Results)

	searcher.err = errors.New("connection reset")
	run(t, c, c.StartSearch("second"))

	state := c.State()
	assert.Empty(t, state.Results)
	assert.True(t, state.HasMore)
	assert.False(t, state.Searching)
	assert.True(t, state.InSearchMode)
	assert.Equal(t, "second", state.Query)
}

func TestStartSearch_ZeroResults(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 0})
	assert.False(t, c.State().NoResults())

	run(t, c, c.StartSearch("zzz"))

	state := c.State()
	assert.False(t, state.Searching)
	assert.Empty(t, state.Results)
	assert.False(t, state.HasMore)
	assert.True(t, state.NoResults())
}

func TestReturnToHome_Idempotent(t *testing.T) {
	c, loc := newTestController(&fakeSearcher{total: 20})
	run(t, c, c.Submit("rust"))
	require.Equal(t, "rust", loc.Get("q"))

	c.ReturnToHome()
	once := c.State()
	entries := loc.Len()

	c.ReturnToHome()
	twice := c.State()

	assert.Equal(t, once, twice)
	assert.Equal(t, entries, loc.Len())
	assert.False(t, twice.InSearchMode)
	assert.Empty(t, twice.Results)
	assert.Equal(t, 1, twice.Page)
	assert.Equal(t, "", loc.Get("q"))
}

func TestReturnToHome_DropsInFlightResults(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 20})
	cmd := c.StartSearch("late")

	c.ReturnToHome()
	run(t, c, cmd)

	state := c.State()
	assert.False(t, state.InSearchMode)
	assert.Empty(t, state.Results)
}

func TestStaleSearchDiscarded(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 20})

	older := c.StartSearch("older")
	newer := c.StartSearch("newer")

	run(t, c, newer)
	run(t, c, older)

	state := c.State()
	assert.Equal(t, "newer", state.Query)
	assert.Equal(t, "newer-00", state.Results[0].ExtensionName)
}

func TestSubmit(t *testing.T) {
	c, loc := newTestController(&fakeSearcher{total: 3})

	assert.Nil(t, c.Submit(""))
	assert.Equal(t, 1, loc.Len())

	run(t, c, c.Submit("docker"))
	assert.Equal(t, 2, loc.Len())
	assert.Equal(t, "docker", loc.Get("q"))

	assert.Nil(t, c.Submit("  "))
	assert.False(t, c.State().InSearchMode)
	assert.Equal(t, "", loc.Get("q"))
}

func TestSyncFromLocation(t *testing.T) {
	searcher := &fakeSearcher{total: 4}
	loc := location.Parse("https://downloader.test/?q=remote")
	c := New(searcher, loc, utils.NewLogger(), WithMinLoading(0))

	run(t, c, c.SyncFromLocation())
	assert.Equal(t, "remote", c.State().Query)
	assert.Len(t, c.State().Results, 4)
	assert.Equal(t, 1, loc.Len())

	loc.Set("q", "", false)
	assert.Nil(t, c.SyncFromLocation())
	assert.False(t, c.State().InSearchMode)

	require.True(t, loc.Back())
	run(t, c, c.SyncFromLocation())
	assert.Equal(t, "remote", c.State().Query)
	assert.Equal(t, 2, loc.Len())
}

func TestMinLoadingFloor(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}

	fast := &fakeSearcher{total: 5, latency: 100 * time.Millisecond, clock: clock}
	c := New(fast, location.New(), utils.NewLogger(),
		WithMinLoading(600*time.Millisecond), WithClock(clock.Now, clock.Sleep))

	run(t, c, c.StartSearch("fast"))
	assert.Equal(t, []time.Duration{500 * time.Millisecond}, clock.slept)

	clock.slept = nil
	fast.latency = 900 * time.Millisecond
	run(t, c, c.StartSearch("slow"))
	assert.Empty(t, clock.slept)
}

func TestGoToPage(t *testing.T) {
	searcher := &fakeSearcher{total: 37}
	c, _ := newTestController(searcher)
	run(t, c, c.StartSearch("ext"))

	assert.Nil(t, c.GoToPage(0))
	assert.Nil(t, c.GoToPage(4))
	assert.Nil(t, c.GoToPage(1))

	cmd := c.GoToPage(3)
	require.NotNil(t, cmd)
	assert.True(t, c.State().Searching)
	assert.Nil(t, c.LoadMore())

	run(t, c, cmd)
	state := c.State()
	assert.Equal(t, 3, state.Page)
	assert.Len(t, state.Results, 7)
	assert.Equal(t, "ext-30", state.Results[0].ExtensionName)
	assert.False(t, state.HasMore)
}

func TestSubscribe(t *testing.T) {
	c, _ := newTestController(&fakeSearcher{total: 2})

	var seen []State
	c.Subscribe(func(s State) {
		seen = append(seen, s)
	})

	run(t, c, c.StartSearch("x"))

	require.Len(t, seen, 2)
	assert.True(t, seen[0].Searching)
	assert.False(t, seen[1].Searching)
	assert.Len(t, seen[1].Results, 2)
}

func TestPageRange(t *testing.T) {
	assert.Equal(t, []int{1, 2, 3}, PageRange(1, 10))
	assert.Equal(t, []int{3, 4, 5, 6, 7}, PageRange(5, 10))
	assert.Equal(t, []int{8, 9, 10}, PageRange(10, 10))
	assert.Nil(t, PageRange(1, 0))
}

func TestController_AgainstCatalog(t *testing.T) {
	srv := marketplacetest.New(marketplacetest.Catalog("acme", 20)...)
	t.Cleanup(srv.Close)

	c, _ := newTestController(marketplace.New(srv.Endpoint(), 5*time.Second))

	run(t, c, c.Submit("ext"))
	assert.Len(t, c.State().Results, 15)
	assert.True(t, c.State().HasMore)

	run(t, c, c.NearEnd())
	assert.Len(t, c.State().Results, 20)
	assert.False(t, c.State().HasMore)

	srv.FailWith(500)
	run(t, c, c.StartSearch("ext"))
	assert.True(t, c.State().NoResults())
}
