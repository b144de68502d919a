// Package dispatch executes parsed actions against the tab registry and the
// browser driver and folds the outcome into a wire response. Actions
// targeting the same tab are serialized through the tab's page lock; actions
// against distinct tabs proceed independently. Side effects are durable:
// once a step has executed it stands, even if a later step of the same
// compound instruction fails.
package dispatch

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/action"
	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/protocol"
	"github.com/entrhq/surf/pkg/tabs"
)

// DefaultScreenshotFile is used when an instruction names no filename.
const DefaultScreenshotFile = "screenshot.png"

// Dispatcher resolves each action's target tab, invokes the matching driver
// capability, and reports results.
type Dispatcher struct {
	registry *tabs.Registry
	driver   browser.Driver
	timeout  time.Duration
	logger   *logging.Logger
}

// New creates a dispatcher. timeout bounds page operations; zero means the
// driver default.
func New(registry *tabs.Registry, driver browser.Driver, timeout time.Duration, logger *logging.Logger) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		driver:   driver,
		timeout:  timeout,
		logger:   logger,
	}
}

// Execute runs an action sequence in order and builds the response. The
// returned shutdown flag is true when the sequence contained close_browser;
// the caller flushes the response and then stops the daemon. Execution
// stops at the first failing step; earlier side effects are not rolled
// back, and the per-step report says exactly which steps stood.
func (d *Dispatcher) Execute(actions []action.Action) (protocol.Response, bool) {
	if len(actions) == 0 {
		return protocol.ErrorResponse("nothing to do"), false
	}

	var (
		steps    []protocol.StepResult
		lastMsg  string
		lastData any
		shutdown bool
	)
	for _, act := range actions {
		msg, data, err := d.run(act)
		if err != nil {
			d.logf("action %s failed: %v", act, err)
			steps = append(steps, protocol.StepResult{
				Action:  act.String(),
				Status:  protocol.StatusError,
				Message: err.Error(),
			})
			return failureResponse(actions, steps, err), false
		}
		d.logf("action %s: %s", act, msg)
		steps = append(steps, protocol.StepResult{
			Action:  act.String(),
			Status:  protocol.StatusOK,
			Message: msg,
		})
		lastMsg, lastData = msg, data
		if act.Verb == action.CloseBrowser {
			shutdown = true
		}
	}

	resp := protocol.OKResponse(lastMsg, lastData)
	if len(actions) > 1 {
		resp.Steps = steps
	}
	return resp, shutdown
}

func failureResponse(actions []action.Action, steps []protocol.StepResult, err error) protocol.Response {
	resp := protocol.ErrorResponse(err.Error())
	if len(actions) > 1 {
		resp.Steps = steps
		ok := len(steps) - 1
		resp.Message = fmt.Sprintf("%d of %d steps completed; %s failed: %v",
			ok, len(actions), steps[len(steps)-1].Action, err)
	}
	return resp
}

// run executes one action. Registry errors are detected before any driver
// call, so they never leave a side effect behind.
func (d *Dispatcher) run(act action.Action) (message string, data any, err error) {
	switch act.Verb {
	case action.OpenTab:
		return d.openTab(act)
	case action.SwitchTab:
		return d.switchTab(act)
	case action.CloseTab:
		return d.closeTab(act)
	case action.ListTabs:
		return d.listTabs()
	case action.CurrentTab:
		return d.currentTab()
	case action.CloseBrowser:
		return d.closeBrowser()
	}

	if !act.Verb.RequiresTab() {
		return "", nil, fmt.Errorf("unsupported verb: %s", act.Verb)
	}
	tab, err := d.resolveTab(act)
	if err != nil {
		return "", nil, err
	}
	return d.runOnTab(tab, act)
}

// resolveTab picks the explicit tab index when given, else the active tab.
func (d *Dispatcher) resolveTab(act action.Action) (*tabs.Tab, error) {
	if act.TabIndex > 0 {
		return d.registry.At(act.TabIndex)
	}
	return d.registry.Active()
}

func (d *Dispatcher) runOnTab(tab *tabs.Tab, act action.Action) (message string, data any, err error) {
	err = tab.WithPage(func(page browser.Page) error {
		var opErr error
		message, data, opErr = d.pageOp(tab, page, act)
		return opErr
	})
	if err != nil {
		return "", nil, err
	}
	return message, data, nil
}

func (d *Dispatcher) pageOp(tab *tabs.Tab, page browser.Page, act action.Action) (string, any, error) {
	switch act.Verb {
	case action.Navigate:
		url := NormalizeURL(act.Target)
		if err := page.Navigate(url, d.timeout); err != nil {
			return "", nil, err
		}
		title, _ := page.Title()
		tab.SetInfo(title, page.URL())
		return fmt.Sprintf("Navigated to %s", url),
			map[string]string{"url": page.URL(), "title": title}, nil

	case action.Click:
		if err := page.Click(act.Target, d.timeout); err != nil {
			return "", nil, err
		}
		title, _ := page.Title()
		tab.SetInfo(title, page.URL())
		return fmt.Sprintf("Clicked %s", act.Target), nil, nil

	case action.Fill:
		if err := page.Fill(act.Target, act.Payload, d.timeout); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Filled %s with %q", act.Target, act.Payload), nil, nil

	case action.WaitFor:
		if err := page.WaitFor(act.Target, d.timeout); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Element appeared: %s", act.Target), nil, nil

	case action.GetText:
		text, err := page.Text(act.Target)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Text of %s", act.Target), map[string]string{"text": text}, nil

	case action.Screenshot:
		path := act.Payload
		if path == "" {
			path = DefaultScreenshotFile
		}
		if err := page.Screenshot(path, act.FullPage); err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("Screenshot saved as %s", path),
			map[string]string{"filename": path}, nil

	case action.ExecuteScript:
		result, err := page.Evaluate(act.Payload)
		if err != nil {
			return "", nil, err
		}
		return "Script executed", map[string]any{"result": result}, nil

	case action.Scroll:
		script := fmt.Sprintf("window.scrollBy(0, %d)", act.Amount)
		if _, err := page.Evaluate(script); err != nil {
			return "", nil, err
		}
		direction := "down"
		if act.Amount < 0 {
			direction = "up"
		}
		return fmt.Sprintf("Scrolled %s", direction), nil, nil

	case action.GetContent:
		content, err := page.Content()
		if err != nil {
			return "", nil, err
		}
		return "Page content retrieved", content, nil

	case action.GetTitle:
		title, err := page.Title()
		if err != nil {
			return "", nil, err
		}
		tab.SetInfo(title, page.URL())
		return fmt.Sprintf("Page title: %s", title),
			map[string]string{"title": title}, nil
	}

	return "", nil, fmt.Errorf("unsupported verb: %s", act.Verb)
}

func (d *Dispatcher) openTab(act action.Action) (string, any, error) {
	page, err := d.driver.NewPage()
	if err != nil {
		return "", nil, fmt.Errorf("failed to open tab: %w", err)
	}
	tab, index := d.registry.Open(page, "", act.Payload)

	// Navigation is part of the open when the instruction named a URL. On
	// failure the tab still exists and stays active.
	if act.Target != "" {
		url := NormalizeURL(act.Target)
		navErr := tab.WithPage(func(p browser.Page) error {
			return p.Navigate(url, d.timeout)
		})
		if navErr != nil {
			return "", nil, fmt.Errorf("opened tab %d but navigation failed: %w", index, navErr)
		}
		_ = tab.WithPage(func(p browser.Page) error {
			title, _ := p.Title()
			tab.SetInfo(title, p.URL())
			return nil
		})
	}

	title, url := tab.Info()
	return fmt.Sprintf("New tab opened (tab %d)", index), map[string]any{
		"index":   index,
		"id":      tab.ID,
		"title":   title,
		"url":     url,
		"purpose": tab.Purpose,
	}, nil
}

func (d *Dispatcher) switchTab(act action.Action) (string, any, error) {
	tab, err := d.registry.Switch(act.TabIndex)
	if err != nil {
		return "", nil, err
	}
	_ = tab.WithPage(func(p browser.Page) error {
		return p.BringToFront()
	})
	title, url := tab.Info()
	return fmt.Sprintf("Switched to tab %d", act.TabIndex), map[string]any{
		"index": act.TabIndex,
		"id":    tab.ID,
		"title": title,
		"url":   url,
	}, nil
}

func (d *Dispatcher) closeTab(act action.Action) (string, any, error) {
	if err := d.registry.Close(act.TabIndex); err != nil {
		return "", nil, err
	}
	if act.TabIndex > 0 {
		return fmt.Sprintf("Closed tab %d", act.TabIndex), nil, nil
	}
	return "Closed tab", nil, nil
}

func (d *Dispatcher) listTabs() (string, any, error) {
	d.refreshTabInfo()
	infos := d.registry.List()
	return fmt.Sprintf("Found %d tabs", len(infos)), map[string]any{"tabs": infos}, nil
}

func (d *Dispatcher) currentTab() (string, any, error) {
	tab, err := d.registry.Active()
	if err != nil {
		return "", nil, err
	}
	_ = tab.WithPage(func(p browser.Page) error {
		title, _ := p.Title()
		tab.SetInfo(title, p.URL())
		return nil
	})
	title, url := tab.Info()
	return "Current tab", map[string]any{
		"id":    tab.ID,
		"title": title,
		"url":   url,
	}, nil
}

func (d *Dispatcher) closeBrowser() (string, any, error) {
	if err := d.registry.CloseAll(); err != nil {
		d.logf("closing tabs: %v", err)
	}
	if err := d.driver.Stop(); err != nil {
		return "", nil, fmt.Errorf("failed to stop browser: %w", err)
	}
	return "Browser closed", nil, nil
}

// refreshTabInfo updates each tab's recorded title and URL from the live
// page, queueing behind any in-flight operation on that tab.
func (d *Dispatcher) refreshTabInfo() {
	for _, tab := range d.registry.All() {
		_ = tab.WithPage(func(p browser.Page) error {
			title, err := p.Title()
			if err != nil {
				return nil
			}
			tab.SetInfo(title, p.URL())
			return nil
		})
	}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Debugf(format, args...)
	}
}

// NormalizeURL prefixes scheme-less URLs with https so "go to example.com"
// works the way a person means it.
func NormalizeURL(url string) string {
	if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
		return url
	}
	return "https://" + url
}

// IsTimeout reports whether err represents a bounded wait that expired.
func IsTimeout(err error) bool {
	return errors.Is(err, browser.ErrTimeout)
}
