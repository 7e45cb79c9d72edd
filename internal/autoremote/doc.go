// Package autoremote manages a local registry of AutoRemote devices and
// talks to the AutoRemote relay on their behalf.
//
// A Service combines three collaborators:
//
//   - a device.Registry holding name to key bindings
//   - a Relay (normally *remote.Client) for key validation, message
//     delivery and PC registration
//   - a hostinfo.Environment supplying this host's name and LAN address
//
// Typical use:
//
//	svc := autoremote.New(registry, client, hostinfo.NewSystem(),
//	    autoremote.WithLogger(log),
//	)
//
//	if _, err := svc.AddDevice(ctx, "Phone", "goo.gl/AbC123"); err != nil {
//	    return err
//	}
//	err := svc.SendMessage(ctx, device.Name("Phone"), "lights=>off")
//
// Every error returned by a Service method is an *Error and matches one of
// the package's Err* values with errors.Is.
package autoremote
