// Package daemon owns the long-lived browser session: it binds the IPC
// endpoint, launches the driver, and serves the accept loop. The driver
// instance and the tab registry are process-wide resources owned
// exclusively by the daemon; clients reach them only through the command
// channel.
package daemon

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/dispatch"
	"github.com/entrhq/surf/pkg/logging"
	"github.com/entrhq/surf/pkg/parser"
	"github.com/entrhq/surf/pkg/protocol"
	"github.com/entrhq/surf/pkg/tabs"
)

// Lifecycle errors.
var (
	ErrAlreadyRunning = errors.New("daemon already running")
	ErrNotRunning     = errors.New("daemon not started")
)

// State is the daemon lifecycle state.
type State int32

const (
	Stopped State = iota
	Starting
	Running
	Stopping
)

func (s State) String() string {
	switch s {
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Stopping:
		return "stopping"
	default:
		return "stopped"
	}
}

// Daemon holds the session state: one driver instance, one tab registry,
// one bound endpoint. It is constructed at start and passed explicitly into
// every request handler, so tests can substitute a fake driver.
type Daemon struct {
	cfg        config.Config
	driver     browser.Driver
	registry   *tabs.Registry
	parser     *parser.Parser
	dispatcher *dispatch.Dispatcher
	logger     *logging.Logger

	state    atomic.Int32
	listener net.Listener
	stopOnce sync.Once
	stopCh   chan struct{}
	handlers sync.WaitGroup
}

// New wires a daemon around the given driver. The driver is not launched
// until Start.
func New(cfg config.Config, driver browser.Driver) *Daemon {
	logger, _ := logging.NewLogger("daemon")
	registry := tabs.NewRegistry()

	p := parser.New()
	if err := p.LoadCustomRules(cfg.Rules()); err != nil {
		logger.Warnf("custom rules not loaded: %v", err)
	}

	return &Daemon{
		cfg:        cfg,
		driver:     driver,
		registry:   registry,
		parser:     p,
		dispatcher: dispatch.New(registry, driver, cfg.Timeout(), logger),
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Registry exposes the tab registry, mainly for tests.
func (d *Daemon) Registry() *tabs.Registry { return d.registry }

// State returns the current lifecycle state.
func (d *Daemon) State() State { return State(d.state.Load()) }

// Addr returns the bound endpoint, empty before Start.
func (d *Daemon) Addr() string {
	if d.listener == nil {
		return ""
	}
	return d.listener.Addr().String()
}

// Start binds the endpoint, launches the driver, optionally opens the
// initial tab, and serves requests until Shutdown. It returns once the
// daemon has fully stopped.
func (d *Daemon) Start() error {
	d.state.Store(int32(Starting))

	listener, err := bind(d.cfg.Socket())
	if err != nil {
		d.state.Store(int32(Stopped))
		return err
	}
	d.listener = listener

	if err := d.driver.Launch(); err != nil {
		listener.Close()
		os.Remove(d.cfg.Socket())
		d.state.Store(int32(Stopped))
		return fmt.Errorf("failed to launch driver: %w", err)
	}

	if d.cfg.OpenInitialTab {
		d.openInitialTab()
	}

	d.state.Store(int32(Running))
	d.logger.Infof("daemon listening on %s", d.cfg.Socket())

	go d.acceptLoop()

	<-d.stopCh
	d.state.Store(int32(Stopping))

	d.handlers.Wait()
	if err := d.registry.CloseAll(); err != nil {
		d.logger.Warnf("closing tabs: %v", err)
	}
	if err := d.driver.Stop(); err != nil {
		d.logger.Warnf("stopping driver: %v", err)
	}
	if err := os.Remove(d.cfg.Socket()); err != nil && !errors.Is(err, os.ErrNotExist) {
		d.logger.Warnf("removing socket: %v", err)
	}

	d.state.Store(int32(Stopped))
	d.logger.Infof("daemon stopped")
	return nil
}

// Shutdown signals the daemon to stop. Safe to call more than once and from
// any goroutine, including a request handler.
func (d *Daemon) Shutdown() {
	d.stopOnce.Do(func() {
		if d.listener != nil {
			d.listener.Close()
		}
		close(d.stopCh)
	})
}

func (d *Daemon) openInitialTab() {
	page, err := d.driver.NewPage()
	if err != nil {
		d.logger.Warnf("initial tab: %v", err)
		return
	}
	tab, _ := d.registry.Open(page, "", "")
	if d.cfg.StartURL == "" {
		return
	}
	url := dispatch.NormalizeURL(d.cfg.StartURL)
	err = tab.WithPage(func(p browser.Page) error {
		if navErr := p.Navigate(url, d.cfg.Timeout()); navErr != nil {
			return navErr
		}
		title, _ := p.Title()
		tab.SetInfo(title, p.URL())
		return nil
	})
	if err != nil {
		d.logger.Warnf("initial navigation to %s: %v", url, err)
	}
}

func (d *Daemon) acceptLoop() {
	for {
		conn, err := d.listener.Accept()
		if err != nil {
			select {
			case <-d.stopCh:
				return
			default:
			}
			d.logger.Warnf("accept: %v", err)
			return
		}
		d.handlers.Add(1)
		go func() {
			defer d.handlers.Done()
			d.handleConn(conn)
		}()
	}
}

// handleConn serves one request/response exchange. A per-request failure is
// reported to the client and never crashes the daemon; only close_browser
// ends the process, after its response has been flushed.
func (d *Daemon) handleConn(conn net.Conn) {
	defer conn.Close()

	req, err := protocol.ReadRequest(bufio.NewReader(conn))
	if err != nil {
		d.logger.Warnf("bad request: %v", err)
		_ = protocol.WriteFrame(conn, protocol.ErrorResponse(fmt.Sprintf("bad request: %v", err)))
		return
	}

	d.logger.Infof("request %s: %q", req.ID, req.Text)

	actions, err := d.parser.Parse(req.Text)
	if err != nil {
		resp := protocol.ErrorResponse(err.Error())
		resp.ID = req.ID
		_ = protocol.WriteFrame(conn, resp)
		return
	}

	resp, shutdown := d.dispatcher.Execute(actions)
	resp.ID = req.ID
	if err := protocol.WriteFrame(conn, resp); err != nil {
		// The action already completed; only the ack was lost.
		d.logger.Warnf("write response: %v", err)
	}
	if shutdown {
		d.logger.Infof("close_browser received, shutting down")
		d.Shutdown()
	}
}

// bind claims the well-known endpoint. A live listener on the socket means
// another daemon owns the session and binding fails fast; a stale socket
// file left by a crashed daemon is removed and rebound.
func bind(socketPath string) (net.Listener, error) {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create socket directory: %w", err)
	}

	if _, err := os.Stat(socketPath); err == nil {
		if conn, dialErr := net.Dial("unix", socketPath); dialErr == nil {
			conn.Close()
			return nil, ErrAlreadyRunning
		}
		if err := os.Remove(socketPath); err != nil {
			return nil, fmt.Errorf("failed to remove stale socket: %w", err)
		}
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("failed to set socket permissions: %w", err)
	}
	return listener, nil
}

// IsRunning reports whether a daemon is serving the given socket.
func IsRunning(socketPath string) bool {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}
