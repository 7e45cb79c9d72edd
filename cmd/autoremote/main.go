// autoremote sends messages to Android devices through the AutoRemote relay.
//
// It keeps a local registry of named devices and their keys, and can register
// this computer on a device so AutoRemote can reach it.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/autoremote/internal/cli"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

func main() {
	// Cancel in-flight relay requests on Ctrl+C or SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx, os.Args[1:])
	cancel()
	if err != nil {
		os.Exit(1)
	}
}

// run executes the CLI with args, separated from main for testability.
func run(ctx context.Context, args []string) error {
	root := cli.NewRootCommand(cli.BuildInfo{Version: version, Commit: commit, Date: date})
	root.SetArgs(args)
	return cli.Run(ctx, root)
}
