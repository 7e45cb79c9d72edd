package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nerrad567/autoremote/internal/audit"
	"github.com/nerrad567/autoremote/internal/autoremote"
	"github.com/nerrad567/autoremote/internal/device"
	"github.com/nerrad567/autoremote/internal/ui"
)

func newAddCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME KEY|URL",
		Short: "Add a device by key or personal short URL",
		Long: `Add a device under NAME. The second argument is either the device key
or its personal short URL (for example goo.gl/AbC123), which is resolved to
the key. The key is checked with the relay before the device is stored.`,
		Example: `  autoremote add Phone APA91bH...
  autoremote add Tablet goo.gl/AbC123`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				dev, err := svc.AddDevice(ctx, args[0], args[1])
				if err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), fmt.Sprintf("Added device %s %s", dev.Name, ui.Dim("("+dev.KeyHint()+")")))
				return nil
			})
		},
	}
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "remove NAME",
		Aliases: []string{"rm"},
		Short:   "Remove a device",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				if err := svc.RemoveDevice(ctx, args[0]); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "Removed device "+args[0])
				return nil
			})
		},
	}
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List registered devices",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				devices, err := svc.ListDevices(ctx)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(devices)
				}

				if len(devices) == 0 {
					fmt.Fprintln(out, ui.Hint("No devices registered. Add one with 'autoremote add NAME KEY'."))
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tKEY\tADDED")
				for i := range devices {
					d := &devices[i]
					fmt.Fprintf(tw, "%s\t%s\t%s\n", d.Name, d.KeyHint(), d.CreatedAt.Local().Format(time.DateOnly))
				}
				return tw.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print devices as JSON, including full keys")
	return cmd
}

func newGetCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get NAME",
		Short: "Show one device, including its key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				dev, found, err := svc.GetDevice(ctx, args[0])
				if err != nil {
					return err
				}
				if !found {
					return &autoremote.Error{Op: "get_device", Device: args[0], Err: autoremote.ErrDeviceNotFound}
				}

				out := cmd.OutOrStdout()
				ui.Field(out, "name", dev.Name)
				ui.Field(out, "key", dev.Key)
				ui.Field(out, "id", dev.ID)
				ui.Field(out, "added", dev.CreatedAt.Local().Format(time.RFC1123))
				return nil
			})
		},
	}
}

func newSendCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "send NAME MESSAGE...",
		Short: "Send a message to a device",
		Long: `Send MESSAGE to the device called NAME. Remaining arguments are joined
with single spaces, so quoting is optional.`,
		Example: `  autoremote send Phone lights=:=off
  autoremote send Phone "hello world"`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			message := strings.Join(args[1:], " ")
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				if err := svc.SendMessage(ctx, device.Name(args[0]), message); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "Message sent to "+args[0])
				return nil
			})
		},
	}
}

func newRegisterCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "register NAME REMOTE_HOST",
		Short: "Register this computer on a device",
		Long: `Register this computer on the device called NAME, so AutoRemote on the
device can reach it. REMOTE_HOST is the public host name or address the
device should use outside your LAN; inside it, this computer's private IPv4
address is used.`,
		Example: `  autoremote register Phone home.example.org`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(ctx context.Context, svc *autoremote.Service) error {
				if err := svc.RegisterOnDevice(ctx, device.Name(args[0]), args[1]); err != nil {
					return err
				}
				ui.Success(cmd.OutOrStdout(), "Registered this computer on "+args[0])
				return nil
			})
		},
	}
}

func newVersionCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			b := opts.build
			fmt.Fprintf(cmd.OutOrStdout(), "autoremote %s %s\n", ui.Bold(b.Version), ui.Dim(fmt.Sprintf("(commit %s, built %s)", b.Commit, b.Date)))
		},
	}
}

func newHistoryCommand(opts *rootOptions) *cobra.Command {
	var (
		deviceName string
		eventType  string
		limit      int
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent activity, newest first",
		Example: `  autoremote history
  autoremote history --device Phone --type message.sent --limit 10`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, opts, func(ctx context.Context, a *app) error {
				result, err := a.history.List(ctx, audit.Filter{
					Device: deviceName,
					Type:   eventType,
					Limit:  limit,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if asJSON {
					enc := json.NewEncoder(out)
					enc.SetIndent("", "  ")
					return enc.Encode(result)
				}

				if len(result.Entries) == 0 {
					fmt.Fprintln(out, ui.Hint("No activity recorded."))
					return nil
				}

				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "TIME\tEVENT\tDEVICE\tDETAIL")
				for _, e := range result.Entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
						e.CreatedAt.Local().Format(time.DateTime), e.Type, e.Device, formatDetail(e.Detail))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				if result.Total > len(result.Entries) {
					fmt.Fprintln(out, ui.Dim(fmt.Sprintf("showing %d of %d", len(result.Entries), result.Total)))
				}
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&deviceName, "device", "d", "", "only show activity for this device")
	cmd.Flags().StringVarP(&eventType, "type", "t", "", "only show this event type (device.added, device.removed, message.sent, device.registered)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print activity as JSON")
	return cmd
}

// formatDetail renders detail as sorted key=value pairs.
func formatDetail(detail map[string]string) string {
	keys := make([]string, 0, len(detail))
	for k := range detail {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + detail[k]
	}
	return strings.Join(parts, " ")
}
