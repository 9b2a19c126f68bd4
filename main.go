// cc-statusline renders the status line for Claude Code.
//
// The host runs `cc-statusline render` with a JSON session document on
// stdin and shows the first line of stdout. Other commands run the line
// continuously, diagnose modules, and install the command into the host's
// settings.
//
// Usage:
//
//	cc-statusline render [--input file]
//	cc-statusline watch
//	cc-statusline health [--deep] [--json] [--test-command cmd]
//	cc-statusline install | uninstall | export | import <file>
//	cc-statusline themes [show <name>] | modules | status | version
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

var (
	version = "0.1.0"
	commit  = "dev"
	date    = "unknown"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cc-statusline: %v\n", err)
		os.Exit(1)
	}
}
