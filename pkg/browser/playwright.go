package browser

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"
)

// Default driver settings.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultViewportWidth  = 1280
	DefaultViewportHeight = 720
)

// Options configures the playwright driver.
type Options struct {
	// Headless controls whether the browser runs without a visible window.
	Headless bool

	// ViewportWidth and ViewportHeight set the page viewport. Zero means
	// the defaults.
	ViewportWidth  int
	ViewportHeight int

	// Timeout is the default bound for page operations. Zero means
	// DefaultTimeout.
	Timeout time.Duration
}

// PlaywrightDriver drives a Chromium instance through playwright-go. One
// browser and one browser context are shared; each tab gets its own page.
type PlaywrightDriver struct {
	mu      sync.Mutex
	opts    Options
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// NewPlaywrightDriver returns an unlaunched driver.
func NewPlaywrightDriver(opts Options) *PlaywrightDriver {
	if opts.ViewportWidth == 0 {
		opts.ViewportWidth = DefaultViewportWidth
	}
	if opts.ViewportHeight == 0 {
		opts.ViewportHeight = DefaultViewportHeight
	}
	if opts.Timeout == 0 {
		opts.Timeout = DefaultTimeout
	}
	return &PlaywrightDriver{opts: opts}
}

// Launch installs and starts playwright, launches Chromium, and creates the
// shared browser context.
func (d *PlaywrightDriver) Launch() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw != nil {
		return nil
	}

	// Discard the installer's output so it cannot interleave with daemon
	// logging on stdout.
	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if err := playwright.Install(runOpts); err != nil {
		return fmt.Errorf("failed to install playwright: %w", err)
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(d.opts.Headless),
	})
	if err != nil {
		pw.Stop()
		return fmt.Errorf("failed to launch browser: %w", err)
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		Viewport: &playwright.Size{
			Width:  d.opts.ViewportWidth,
			Height: d.opts.ViewportHeight,
		},
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return fmt.Errorf("failed to create context: %w", err)
	}

	d.pw = pw
	d.browser = browser
	d.context = context
	return nil
}

// NewPage opens a page in the shared context.
func (d *PlaywrightDriver) NewPage() (Page, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.context == nil {
		return nil, fmt.Errorf("driver not launched")
	}
	page, err := d.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(float64(d.opts.Timeout.Milliseconds()))
	return &playwrightPage{page: page, timeout: d.opts.Timeout}, nil
}

// Stop closes the context, the browser, and the playwright process.
func (d *PlaywrightDriver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pw == nil {
		return nil
	}
	if d.context != nil {
		_ = d.context.Close()
	}
	if d.browser != nil {
		_ = d.browser.Close()
	}
	err := d.pw.Stop()
	d.pw = nil
	d.browser = nil
	d.context = nil
	if err != nil {
		return fmt.Errorf("failed to stop playwright: %w", err)
	}
	return nil
}

// playwrightPage adapts a playwright page to the Page interface.
type playwrightPage struct {
	page    playwright.Page
	timeout time.Duration
}

func (p *playwrightPage) effective(timeout time.Duration) float64 {
	if timeout <= 0 {
		timeout = p.timeout
	}
	return float64(timeout.Milliseconds())
}

// wrapErr folds driver errors into our taxonomy: playwright timeout errors
// become ErrTimeout so dispatchers can report a distinct timeout failure.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(err.Error(), "Timeout") ||
		strings.Contains(err.Error(), "timeout") {
		return fmt.Errorf("%s: %w: %v", op, ErrTimeout, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func (p *playwrightPage) Navigate(url string, timeout time.Duration) error {
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateLoad,
		Timeout:   playwright.Float(p.effective(timeout)),
	})
	return wrapErr("navigation failed", err)
}

func (p *playwrightPage) Click(selector string, timeout time.Duration) error {
	err := p.page.Click(selector, playwright.PageClickOptions{
		Timeout: playwright.Float(p.effective(timeout)),
	})
	return wrapErr("click failed", err)
}

func (p *playwrightPage) Fill(selector, text string, timeout time.Duration) error {
	err := p.page.Fill(selector, text, playwright.PageFillOptions{
		Timeout: playwright.Float(p.effective(timeout)),
	})
	return wrapErr("fill failed", err)
}

func (p *playwrightPage) Text(selector string) (string, error) {
	element, err := p.page.QuerySelector(selector)
	if err != nil {
		return "", wrapErr("selector query failed", err)
	}
	if element == nil {
		return "", fmt.Errorf("no element found matching selector: %s", selector)
	}
	text, err := element.TextContent()
	if err != nil {
		return "", wrapErr("text extraction failed", err)
	}
	return text, nil
}

func (p *playwrightPage) WaitFor(selector string, timeout time.Duration) error {
	_, err := p.page.WaitForSelector(selector, playwright.PageWaitForSelectorOptions{
		Timeout: playwright.Float(p.effective(timeout)),
	})
	return wrapErr("wait failed", err)
}

func (p *playwrightPage) Screenshot(path string, fullPage bool) error {
	_, err := p.page.Screenshot(playwright.PageScreenshotOptions{
		Path:     playwright.String(path),
		FullPage: playwright.Bool(fullPage),
	})
	return wrapErr("screenshot failed", err)
}

func (p *playwrightPage) Evaluate(script string) (any, error) {
	result, err := p.page.Evaluate(script)
	if err != nil {
		return nil, wrapErr("script evaluation failed", err)
	}
	return result, nil
}

func (p *playwrightPage) Content() (*PageContent, error) {
	raw, err := p.page.Content()
	if err != nil {
		return nil, wrapErr("content extraction failed", err)
	}
	title, _ := p.page.Title()
	return ExtractContent(raw, title, p.page.URL())
}

func (p *playwrightPage) Title() (string, error) {
	title, err := p.page.Title()
	if err != nil {
		return "", wrapErr("title query failed", err)
	}
	return title, nil
}

func (p *playwrightPage) URL() string {
	return p.page.URL()
}

func (p *playwrightPage) BringToFront() error {
	return wrapErr("failed to bring page to front", p.page.BringToFront())
}

func (p *playwrightPage) Close() error {
	return wrapErr("failed to close page", p.page.Close())
}
