// Command surf sends one natural-language instruction to the running surfd
// daemon and prints the response. With -i it opens an interactive prompt
// instead, sending each submitted line as its own request.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/entrhq/surf/pkg/client"
	"github.com/entrhq/surf/pkg/config"
)

const version = "0.1.0"

func main() {
	var (
		socketPath  = flag.String("socket", "", "daemon socket path (default ~/.surf/surfd.sock)")
		interactive = flag.Bool("i", false, "interactive prompt")
		timeout     = flag.Int("timeout", 0, "response timeout in seconds")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("surf v%s\n", version)
		return
	}

	socket := *socketPath
	if socket == "" {
		cfg, err := config.Load("")
		if err != nil {
			fmt.Fprintf(os.Stderr, "surf: %v\n", err)
			os.Exit(1)
		}
		socket = cfg.Socket()
	}

	c := client.New(socket)
	if *timeout > 0 {
		c.SetTimeout(time.Duration(*timeout) * time.Second)
	}

	if *interactive {
		if err := client.RunREPL(c); err != nil {
			fmt.Fprintf(os.Stderr, "surf: %v\n", err)
			os.Exit(1)
		}
		return
	}

	text := strings.TrimSpace(strings.Join(flag.Args(), " "))
	if text == "" {
		fmt.Fprintln(os.Stderr, `usage: surf "<instruction>"
examples:
  surf "go to example.com"
  surf "open a new tab and go to golang.org"
  surf "list tabs"
  surf "close the browser"`)
		os.Exit(2)
	}

	resp, err := c.Send(text)
	if err != nil {
		fmt.Fprintf(os.Stderr, "surf: %v\n", err)
		os.Exit(1)
	}

	fmt.Println(client.Render(resp))
	if !resp.OK() {
		os.Exit(1)
	}
}
