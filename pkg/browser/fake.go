package browser

import (
	"fmt"
	"sync"
	"time"
)

// FakeDriver is an in-memory Driver for tests. Pages it creates record
// their calls; individual operations can be overridden per page to fail or
// block.
type FakeDriver struct {
	mu       sync.Mutex
	launched bool
	stopped  bool
	pages    []*FakePage

	// LaunchErr and NewPageErr, when set, are returned by the matching call.
	LaunchErr  error
	NewPageErr error

	// OnNewPage, when set, runs on each page as it is created, before it is
	// returned. Used to script failures on pages the test never sees made.
	OnNewPage func(*FakePage)
}

// NewFakeDriver returns an unlaunched fake.
func NewFakeDriver() *FakeDriver {
	return &FakeDriver{}
}

func (d *FakeDriver) Launch() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.LaunchErr != nil {
		return d.LaunchErr
	}
	d.launched = true
	return nil
}

func (d *FakeDriver) NewPage() (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.NewPageErr != nil {
		return nil, d.NewPageErr
	}
	if !d.launched {
		return nil, fmt.Errorf("driver not launched")
	}
	page := &FakePage{title: "New Tab", url: "about:blank"}
	if d.OnNewPage != nil {
		d.OnNewPage(page)
	}
	d.pages = append(d.pages, page)
	return page, nil
}

func (d *FakeDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	return nil
}

// Launched reports whether Launch succeeded.
func (d *FakeDriver) Launched() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.launched
}

// Stopped reports whether Stop was called.
func (d *FakeDriver) Stopped() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.stopped
}

// Pages returns every page the driver has created.
func (d *FakeDriver) Pages() []*FakePage {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*FakePage(nil), d.pages...)
}

// FakePage is a scriptable Page. Zero-value operations succeed and update
// the fake's title/url state; set the corresponding *Err field or hook to
// change behavior.
type FakePage struct {
	mu     sync.Mutex
	calls  []string
	title  string
	url    string
	closed bool

	NavigateErr   error
	ClickErr      error
	FillErr       error
	WaitForErr    error
	ScreenshotErr error
	EvaluateErr   error
	ContentErr    error

	// EvaluateResult is returned by Evaluate on success.
	EvaluateResult any

	// OnNavigate, when set, runs inside Navigate before the default
	// behavior. Used to assert serialization ordering in tests.
	OnNavigate func(url string)
}

func (p *FakePage) record(call string) {
	p.calls = append(p.calls, call)
}

// Calls returns the operations performed on this page, in order.
func (p *FakePage) Calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

// Closed reports whether the page handle was released.
func (p *FakePage) Closed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// SetTitle sets the title returned by Title.
func (p *FakePage) SetTitle(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.title = title
}

func (p *FakePage) Navigate(url string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.OnNavigate != nil {
		p.OnNavigate(url)
	}
	p.record("navigate " + url)
	if p.NavigateErr != nil {
		return p.NavigateErr
	}
	p.url = url
	p.title = url
	return nil
}

func (p *FakePage) Click(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("click " + selector)
	return p.ClickErr
}

func (p *FakePage) Fill(selector, text string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(fmt.Sprintf("fill %s=%s", selector, text))
	return p.FillErr
}

func (p *FakePage) Text(selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("text " + selector)
	return "text of " + selector, nil
}

func (p *FakePage) WaitFor(selector string, _ time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("wait_for " + selector)
	return p.WaitForErr
}

func (p *FakePage) Screenshot(path string, fullPage bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record(fmt.Sprintf("screenshot %s full=%t", path, fullPage))
	return p.ScreenshotErr
}

func (p *FakePage) Evaluate(script string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("evaluate " + script)
	if p.EvaluateErr != nil {
		return nil, p.EvaluateErr
	}
	return p.EvaluateResult, nil
}

func (p *FakePage) Content() (*PageContent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("content")
	if p.ContentErr != nil {
		return nil, p.ContentErr
	}
	return &PageContent{Title: p.title, URL: p.url, Text: "fake page text"}, nil
}

func (p *FakePage) Title() (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.title, nil
}

func (p *FakePage) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *FakePage) BringToFront() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("bring_to_front")
	return nil
}

func (p *FakePage) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.record("close")
	p.closed = true
	return nil
}
