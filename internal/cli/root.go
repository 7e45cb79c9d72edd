// Package cli implements the autoremote command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/nerrad567/autoremote/internal/autoremote"
	"github.com/nerrad567/autoremote/internal/infrastructure/config"
	"github.com/nerrad567/autoremote/internal/ui"
)

// BuildInfo is stamped into the binary at link time.
type BuildInfo struct {
	Version string
	Commit  string
	Date    string
}

// rootOptions carries persistent flags to subcommands.
type rootOptions struct {
	configPath string
	verbose    bool
	build      BuildInfo
}

// NewRootCommand builds the full command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	opts := &rootOptions{build: build}

	rootCmd := &cobra.Command{
		Use:   "autoremote",
		Short: "Send messages to your Android devices through AutoRemote",
		Long: `autoremote keeps a local list of named AutoRemote devices and talks to
the AutoRemote relay for them: adding devices by key or personal short URL,
sending messages, and registering this computer on a device.

Devices are stored in ` + "~/.autoremote/devices.db" + ` unless configured otherwise.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		fmt.Sprintf("config file (default: %s, or $%s)", config.DefaultPath(), configEnv))
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(
		newAddCommand(opts),
		newRemoveCommand(opts),
		newListCommand(opts),
		newGetCommand(opts),
		newSendCommand(opts),
		newRegisterCommand(opts),
		newHistoryCommand(opts),
		newVersionCommand(opts),
	)

	return rootCmd
}

// Run executes rootCmd and reports any failure on its stderr.
func Run(ctx context.Context, rootCmd *cobra.Command) error {
	err := rootCmd.ExecuteContext(ctx)
	if err != nil {
		reportError(rootCmd.ErrOrStderr(), err)
	}
	return err
}

// withApp opens the app for the duration of fn.
func withApp(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, a *app) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, opts, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close()

	return fn(ctx, a)
}

// withService is withApp for commands that only need the Service.
func withService(cmd *cobra.Command, opts *rootOptions, fn func(ctx context.Context, svc *autoremote.Service) error) error {
	return withApp(cmd, opts, func(ctx context.Context, a *app) error {
		return fn(ctx, a.svc)
	})
}

// errorHints maps error kinds to a title and a suggestion.
var errorHints = []struct {
	err        error
	title      string
	suggestion string
}{
	{autoremote.ErrDeviceNotFound, "Device not found", "run 'autoremote list' to see registered devices"},
	{autoremote.ErrDeviceAlreadyExists, "Device already exists", "pick another name, or 'autoremote remove' the existing device first"},
	{autoremote.ErrInvalidKey, "The key is invalid", "copy the key or personal URL from the AutoRemote app"},
	{autoremote.ErrInvalidArgument, "Invalid argument", ""},
	{autoremote.ErrNetwork, "Could not reach the AutoRemote relay", "check your internet connection"},
	{autoremote.ErrNoHostname, "Could not determine this computer's name", ""},
	{autoremote.ErrNoLocalAddress, "No local network address", "connect this computer to a LAN with a private IPv4 address"},
	{autoremote.ErrRegistrationFailed, "Registration failed", "check that the device key is still valid"},
}

// reportError prints err in the styled error format.
func reportError(w io.Writer, err error) {
	title, suggestion := "Command failed", ""
	for _, h := range errorHints {
		if errors.Is(err, h.err) {
			title, suggestion = h.title, h.suggestion
			break
		}
	}
	fmt.Fprint(w, ui.FormatError(title, err.Error(), suggestion))
}
