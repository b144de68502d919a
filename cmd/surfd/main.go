// Command surfd is the browser session daemon. It launches one browser
// instance, binds the local command socket, and serves natural-language
// instructions from surf clients until it receives a close_browser command
// or a termination signal.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/entrhq/surf/pkg/browser"
	"github.com/entrhq/surf/pkg/config"
	"github.com/entrhq/surf/pkg/daemon"
)

const version = "0.1.0"

func main() {
	var (
		configPath   = flag.String("config", "", "config file path (default ~/.surf/config.json)")
		socketPath   = flag.String("socket", "", "override the command socket path")
		headless     = flag.Bool("headless", false, "run the browser without a window")
		startURL     = flag.String("start-url", "", "URL to load in the initial tab")
		timeout      = flag.Int("timeout", 0, "page operation timeout in seconds")
		noInitialTab = flag.Bool("no-initial-tab", false, "do not open a tab at startup")
		showVersion  = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("surfd v%s\n", version)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surfd: %v\n", err)
		os.Exit(1)
	}
	if *socketPath != "" {
		cfg.SocketPath = *socketPath
	}
	if *headless {
		cfg.Headless = true
	}
	if *startURL != "" {
		cfg.StartURL = *startURL
	}
	if *timeout > 0 {
		cfg.TimeoutSeconds = *timeout
	}
	if *noInitialTab {
		cfg.OpenInitialTab = false
	}

	driver := browser.NewPlaywrightDriver(browser.Options{
		Headless:       cfg.Headless,
		ViewportWidth:  cfg.ViewportWidth,
		ViewportHeight: cfg.ViewportHeight,
		Timeout:        time.Duration(cfg.TimeoutSeconds) * time.Second,
	})

	d := daemon.New(cfg, driver)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		d.Shutdown()
	}()

	fmt.Printf("surfd v%s listening on %s\n", version, cfg.Socket())
	if err := d.Start(); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Fprintf(os.Stderr, "surfd: already running on %s\n", cfg.Socket())
		} else {
			fmt.Fprintf(os.Stderr, "surfd: %v\n", err)
		}
		os.Exit(1)
	}
}
