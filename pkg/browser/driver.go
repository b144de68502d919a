// Package browser is the boundary to the external browser engine. The
// daemon core only speaks the Driver and Page interfaces; the playwright
// implementation lives behind them, and tests substitute a fake.
package browser

import (
	"errors"
	"time"
)

// ErrTimeout marks a page operation that expired while waiting on a page
// condition (element appearance, navigation completion). Callers detect it
// with errors.Is.
var ErrTimeout = errors.New("operation timed out")

// Driver owns the browser engine instance. One driver is launched per
// daemon and stopped at shutdown.
type Driver interface {
	// Launch starts the engine. Must be called before NewPage.
	Launch() error

	// NewPage opens a fresh page in the shared browser context.
	NewPage() (Page, error)

	// Stop releases the engine and every resource it holds.
	Stop() error
}

// Page is one navigation context. Implementations are not assumed safe for
// concurrent use; the tab registry serializes access.
type Page interface {
	Navigate(url string, timeout time.Duration) error
	Click(selector string, timeout time.Duration) error
	Fill(selector, text string, timeout time.Duration) error
	Text(selector string) (string, error)
	WaitFor(selector string, timeout time.Duration) error
	Screenshot(path string, fullPage bool) error
	Evaluate(script string) (any, error)
	Content() (*PageContent, error)
	Title() (string, error)
	URL() string
	BringToFront() error
	Close() error
}

// Link is a hyperlink found during content extraction.
type Link struct {
	Text string `json:"text"`
	Href string `json:"href"`
}

// Image is an image reference found during content extraction.
type Image struct {
	Alt string `json:"alt"`
	Src string `json:"src"`
}

// PageContent is the digest of a page: visible text plus links and images,
// truncated to keep responses bounded.
type PageContent struct {
	Title  string  `json:"title"`
	URL    string  `json:"url"`
	Text   string  `json:"text"`
	Links  []Link  `json:"links"`
	Images []Image `json:"images"`
}
