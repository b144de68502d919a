package tabs

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/surf/pkg/browser"
)

func openN(r *Registry, n int) []*Tab {
	opened := make([]*Tab, n)
	for i := 0; i < n; i++ {
		opened[i], _ = r.Open(&browser.FakePage{}, "", "")
	}
	return opened
}

func TestRegistry_OpenActivatesNewTab(t *testing.T) {
	r := NewRegistry()

	_, err := r.Active()
	assert.ErrorIs(t, err, ErrNoActiveTab)

	first, index := r.Open(&browser.FakePage{}, "https://example.com", "research")
	assert.Equal(t, 1, index)
	second, index := r.Open(&browser.FakePage{}, "", "")
	assert.Equal(t, 2, index)

	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, second, active)
	assert.Equal(t, 2, r.Len())

	title, url := first.Info()
	assert.Equal(t, "New Tab", title)
	assert.Equal(t, "https://example.com", url)
	assert.Equal(t, "research", first.Purpose)

	_, url = second.Info()
	assert.Equal(t, "about:blank", url)
}

func TestRegistry_IDsAreMonotonicAndNeverReused(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 3)

	for i := 1; i < len(opened); i++ {
		assert.Greater(t, opened[i].ID, opened[i-1].ID)
	}

	require.NoError(t, r.Close(2))
	reopened, index := r.Open(&browser.FakePage{}, "", "")
	assert.Greater(t, reopened.ID, opened[2].ID)

	// The reported position reflects the order after the close.
	assert.Equal(t, 3, index)
}

func TestRegistry_Switch(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 3)

	tab, err := r.Switch(1)
	require.NoError(t, err)
	assert.Same(t, opened[0], tab)

	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, opened[0], active)

	for _, index := range []int{0, -1, 4} {
		_, err := r.Switch(index)
		assert.ErrorIs(t, err, ErrTabNotFound, "index %d", index)

		// A failed switch leaves the active tab unchanged.
		active, aerr := r.Active()
		require.NoError(t, aerr)
		assert.Same(t, opened[0], active)
	}
}

func TestRegistry_At(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 2)

	tab, err := r.At(2)
	require.NoError(t, err)
	assert.Same(t, opened[1], tab)

	_, err = r.At(3)
	assert.ErrorIs(t, err, ErrTabNotFound)
}

func TestRegistry_CloseActivatesPredecessor(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 3) // third tab active

	require.NoError(t, r.Close(3))
	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, opened[1], active)
}

func TestRegistry_CloseFirstActiveActivatesNewFirst(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 3)
	_, err := r.Switch(1)
	require.NoError(t, err)

	require.NoError(t, r.Close(1))
	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, opened[1], active)
}

func TestRegistry_CloseNonActiveKeepsActive(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 3) // third tab active

	require.NoError(t, r.Close(1))
	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, opened[2], active)
}

func TestRegistry_CloseZeroClosesActive(t *testing.T) {
	r := NewRegistry()
	openN(r, 2)

	page := &browser.FakePage{}
	r.Open(page, "", "")

	require.NoError(t, r.Close(0))
	assert.True(t, page.Closed())
	assert.Equal(t, 2, r.Len())
}

func TestRegistry_CloseLastTabEmptiesRegistry(t *testing.T) {
	r := NewRegistry()
	openN(r, 1)

	require.NoError(t, r.Close(1))
	assert.Equal(t, 0, r.Len())
	_, err := r.Active()
	assert.ErrorIs(t, err, ErrNoActiveTab)

	assert.ErrorIs(t, r.Close(1), ErrNoActiveTab)
}

func TestRegistry_CloseOutOfRange(t *testing.T) {
	r := NewRegistry()
	opened := openN(r, 2)

	assert.ErrorIs(t, r.Close(5), ErrTabNotFound)
	assert.Equal(t, 2, r.Len())

	active, err := r.Active()
	require.NoError(t, err)
	assert.Same(t, opened[1], active)
}

func TestRegistry_ListSnapshot(t *testing.T) {
	r := NewRegistry()
	r.Open(&browser.FakePage{}, "https://a.test", "first")
	second, _ := r.Open(&browser.FakePage{}, "https://b.test", "")
	second.SetInfo("B", "https://b.test/page")

	infos := r.List()
	require.Len(t, infos, 2)

	assert.Equal(t, 1, infos[0].Index)
	assert.Equal(t, "New Tab", infos[0].Title)
	assert.Equal(t, "https://a.test", infos[0].URL)
	assert.Equal(t, "first", infos[0].Purpose)
	assert.False(t, infos[0].Active)

	assert.Equal(t, 2, infos[1].Index)
	assert.Equal(t, "B", infos[1].Title)
	assert.Equal(t, "https://b.test/page", infos[1].URL)
	assert.True(t, infos[1].Active)

	// Later mutation must not be visible through the snapshot.
	second.SetInfo("changed", "https://elsewhere.test")
	require.NoError(t, r.Close(1))
	assert.Equal(t, "B", infos[1].Title)
	assert.Len(t, infos, 2)
}

func TestRegistry_SizeTracksOpensAndCloses(t *testing.T) {
	r := NewRegistry()

	opens, closes := 0, 0
	for i := 0; i < 5; i++ {
		r.Open(&browser.FakePage{}, "", "")
		opens++
	}
	for i := 0; i < 3; i++ {
		require.NoError(t, r.Close(1))
		closes++
	}
	assert.Equal(t, opens-closes, r.Len())
}

func TestRegistry_CloseAll(t *testing.T) {
	r := NewRegistry()
	pages := make([]*browser.FakePage, 3)
	for i := range pages {
		pages[i] = &browser.FakePage{}
		r.Open(pages[i], "", "")
	}

	require.NoError(t, r.CloseAll())
	assert.Equal(t, 0, r.Len())
	for i, page := range pages {
		assert.True(t, page.Closed(), "page %d", i)
	}

	_, err := r.Active()
	assert.ErrorIs(t, err, ErrNoActiveTab)
}

func TestRegistry_ConcurrentOpenAndList(t *testing.T) {
	r := NewRegistry()
	openN(r, 1)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.Open(&browser.FakePage{}, "", "")
		}()
		go func() {
			defer wg.Done()
			// Whenever the registry is non-empty the snapshot marks exactly
			// one tab active.
			infos := r.List()
			activeCount := 0
			for _, info := range infos {
				if info.Active {
					activeCount++
				}
			}
			assert.Equal(t, 1, activeCount)
		}()
	}
	wg.Wait()
	assert.Equal(t, 9, r.Len())

	seen := map[int64]bool{}
	for _, info := range r.List() {
		assert.False(t, seen[info.ID], "duplicate id %d", info.ID)
		seen[info.ID] = true
	}
}

func TestTab_WithPageAfterCloseFails(t *testing.T) {
	r := NewRegistry()
	tab, _ := r.Open(&browser.FakePage{}, "", "")

	// A handler can resolve the tab, lose the race to a close on another
	// connection, and only then run its operation.
	require.NoError(t, r.Close(0))

	called := false
	err := tab.WithPage(func(browser.Page) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, ErrTabClosed)
	assert.False(t, called, "operation ran on a released page handle")
}

func TestTab_DistinctTabsDoNotBlockEachOther(t *testing.T) {
	r := NewRegistry()
	busy, _ := r.Open(&browser.FakePage{}, "", "")
	idle, _ := r.Open(&browser.FakePage{}, "", "")

	release := make(chan struct{})
	holding := make(chan struct{})
	go func() {
		_ = busy.WithPage(func(browser.Page) error {
			close(holding)
			<-release
			return nil
		})
	}()
	<-holding
	defer close(release)

	done := make(chan struct{})
	go func() {
		_ = idle.WithPage(func(browser.Page) error { return nil })
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("operation on an idle tab blocked behind a busy tab")
	}
}

func TestTab_WithPageSerializes(t *testing.T) {
	r := NewRegistry()
	tab, _ := r.Open(&browser.FakePage{}, "", "")

	inFlight := 0
	maxInFlight := 0
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = tab.WithPage(func(browser.Page) error {
				mu.Lock()
				inFlight++
				if inFlight > maxInFlight {
					maxInFlight = inFlight
				}
				mu.Unlock()

				mu.Lock()
				inFlight--
				mu.Unlock()
				return nil
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, maxInFlight)
}
