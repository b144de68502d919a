// Package tabs tracks the set of open tabs in the browser session: an
// ordered sequence plus the active-tab pointer. Tab ids are assigned
// monotonically and never reused, even after closure. Whenever the registry
// is non-empty the active pointer resolves to a live tab; restoration after
// a close happens inside the same critical section, so the pointer never
// dangles, even transiently, under concurrent access.
package tabs

import (
	"errors"
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/browser"
)

var (
	// ErrTabNotFound reports a tab index outside the current range.
	ErrTabNotFound = errors.New("tab not found")

	// ErrNoActiveTab reports an operation that needs a tab when none is open.
	ErrNoActiveTab = errors.New("no active tab")

	// ErrTabClosed reports an operation on a tab that was closed while the
	// caller still held a reference to it.
	ErrTabClosed = errors.New("tab closed")
)

// Info is an immutable snapshot of one tab, unaffected by later mutation.
type Info struct {
	Index   int    `json:"index"` // 1-based position in current order
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	URL     string `json:"url"`
	Purpose string `json:"purpose,omitempty"`
	Active  bool   `json:"active"`
}

// Registry is the in-memory tab collection. Structural mutations and List
// snapshots are atomic with respect to each other.
type Registry struct {
	mu     sync.RWMutex
	tabs   []*Tab
	active int // index into tabs, -1 when empty
	nextID int64
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{active: -1}
}

// Open appends a new tab owning the given page handle, makes it active, and
// returns it with its 1-based position. The position is taken inside the
// critical section, so it is accurate even under concurrent mutation.
func (r *Registry) Open(page browser.Page, url, purpose string) (*Tab, int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	tab := &Tab{
		ID:        r.nextID,
		Purpose:   purpose,
		CreatedAt: time.Now(),
		page:      page,
		title:     "New Tab",
		url:       url,
	}
	if tab.url == "" {
		tab.url = "about:blank"
	}
	r.tabs = append(r.tabs, tab)
	r.active = len(r.tabs) - 1
	return tab, len(r.tabs)
}

// Switch makes the tab at the 1-based index active and returns it.
func (r *Registry) Switch(index int) (*Tab, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if index < 1 || index > len(r.tabs) {
		return nil, ErrTabNotFound
	}
	r.active = index - 1
	return r.tabs[r.active], nil
}

// Active returns the active tab.
func (r *Registry) Active() (*Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.active < 0 {
		return nil, ErrNoActiveTab
	}
	return r.tabs[r.active], nil
}

// At returns the tab at the 1-based index.
func (r *Registry) At(index int) (*Tab, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if index < 1 || index > len(r.tabs) {
		return nil, ErrTabNotFound
	}
	return r.tabs[index-1], nil
}

// Close removes the tab at the 1-based index (0 means the active tab) and
// releases its driver handle. If the closed tab was active, the new active
// tab is the immediately preceding one in order, else the new first tab,
// else none when the registry becomes empty. The active pointer is restored
// before the registry lock is released.
func (r *Registry) Close(index int) error {
	r.mu.Lock()

	if len(r.tabs) == 0 {
		r.mu.Unlock()
		return ErrNoActiveTab
	}
	idx := index - 1
	if index == 0 {
		idx = r.active
	}
	if idx < 0 || idx >= len(r.tabs) {
		r.mu.Unlock()
		return ErrTabNotFound
	}

	closed := r.tabs[idx]
	r.tabs = append(r.tabs[:idx], r.tabs[idx+1:]...)

	switch {
	case len(r.tabs) == 0:
		r.active = -1
	case idx < r.active:
		r.active--
	case idx == r.active:
		if idx > 0 {
			r.active = idx - 1
		} else {
			r.active = 0
		}
	}
	r.mu.Unlock()

	// The handle release happens outside the registry lock so a slow driver
	// close cannot stall unrelated registry operations.
	return closed.closePage()
}

// List returns an immutable snapshot of all tabs in order.
func (r *Registry) List() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, len(r.tabs))
	for i, tab := range r.tabs {
		title, url := tab.Info()
		infos[i] = Info{
			Index:   i + 1,
			ID:      tab.ID,
			Title:   title,
			URL:     url,
			Purpose: tab.Purpose,
			Active:  i == r.active,
		}
	}
	return infos
}

// All returns the live tabs in order. Callers must not retain the slice
// across registry mutations.
func (r *Registry) All() []*Tab {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*Tab(nil), r.tabs...)
}

// Len returns the number of open tabs.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tabs)
}

// CloseAll removes every tab and releases every handle. Used at daemon
// shutdown.
func (r *Registry) CloseAll() error {
	r.mu.Lock()
	closing := r.tabs
	r.tabs = nil
	r.active = -1
	r.mu.Unlock()

	var errs []error
	for _, tab := range closing {
		if err := tab.closePage(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
