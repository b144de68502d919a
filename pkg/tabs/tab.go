package tabs

import (
	"sync"
	"time"

	"github.com/entrhq/surf/pkg/browser"
)

// Tab is one open page in the session. The driver page handle is owned
// exclusively by the tab: all page operations go through WithPage, which
// serializes them, so two requests can never interleave mid-action on the
// same tab.
type Tab struct {
	ID        int64
	Purpose   string
	CreatedAt time.Time

	// opMu serializes driver operations on this tab.
	opMu sync.Mutex
	page browser.Page

	// infoMu guards the last-known page metadata, which list snapshots
	// read while a navigation may be in flight.
	infoMu sync.Mutex
	title  string
	url    string
}

// WithPage runs fn with exclusive access to the tab's page handle. A tab
// closed between resolution and the call yields ErrTabClosed; fn is never
// invoked with a released handle.
func (t *Tab) WithPage(fn func(browser.Page) error) error {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	if t.page == nil {
		return ErrTabClosed
	}
	return fn(t.page)
}

// SetInfo records the last-known title and URL for list snapshots.
func (t *Tab) SetInfo(title, url string) {
	t.infoMu.Lock()
	defer t.infoMu.Unlock()
	t.title = title
	t.url = url
}

// Info returns the last-known title and URL.
func (t *Tab) Info() (title, url string) {
	t.infoMu.Lock()
	defer t.infoMu.Unlock()
	return t.title, t.url
}

// closePage releases the driver handle. Called once, by the registry, when
// the tab is removed.
func (t *Tab) closePage() error {
	t.opMu.Lock()
	defer t.opMu.Unlock()
	if t.page == nil {
		return nil
	}
	err := t.page.Close()
	t.page = nil
	return err
}
