// Package hostinfo reports the identity of the machine running AutoRemote:
// its hostname and the private IPv4 address a device on the same LAN can
// reach it on.
package hostinfo

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"os"
	"slices"
	"strings"

	psnet "github.com/shirou/gopsutil/v3/net"
)

var (
	// ErrNoLocalAddress is returned when no interface has a private IPv4 address.
	ErrNoLocalAddress = errors.New("hostinfo: no private IPv4 address")

	// ErrNoHostname is returned when the hostname cannot be determined.
	ErrNoHostname = errors.New("hostinfo: hostname unavailable")
)

// virtualPrefixes are container bridge interfaces whose addresses are not
// reachable from the LAN.
var virtualPrefixes = []string{"docker", "br-", "veth", "virbr", "cni", "flannel"}

// Environment supplies host facts. System is the real implementation;
// tests substitute fixed values.
type Environment interface {
	Hostname(ctx context.Context) (string, error)
	LocalIPv4(ctx context.Context) (string, error)
}

// System reads host facts from the operating system. Interfaces come from
// gopsutil; the hostname comes from the kernel directly so that a masked
// or partial /proc does not hide it.
type System struct {
	// The collectors are fields so tests can stub the OS.
	hostnameCollector  func() (string, error)
	interfaceCollector func(context.Context) (psnet.InterfaceStatList, error)
}

// NewSystem returns an Environment backed by the running host.
func NewSystem() *System {
	return &System{
		hostnameCollector:  os.Hostname,
		interfaceCollector: psnet.InterfacesWithContext,
	}
}

// Hostname returns the host's name.
func (s *System) Hostname(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := s.hostnameCollector()
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoHostname, err)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return "", ErrNoHostname
	}
	return name, nil
}

// LocalIPv4 returns the first private IPv4 address on an up,
// non-loopback, non-bridge interface, in interface order.
func (s *System) LocalIPv4(ctx context.Context) (string, error) {
	ifaces, err := s.interfaceCollector(ctx)
	if err != nil {
		return "", fmt.Errorf("listing interfaces: %w", err)
	}

	addr, ok := FirstPrivateIPv4(ifaces)
	if !ok {
		return "", ErrNoLocalAddress
	}
	return addr.String(), nil
}

// FirstPrivateIPv4 picks the first RFC 1918 IPv4 address from ifaces.
func FirstPrivateIPv4(ifaces []psnet.InterfaceStat) (netip.Addr, bool) {
	for _, iface := range ifaces {
		if !usable(iface) {
			continue
		}
		for _, a := range iface.Addrs {
			addr, ok := parseAddr(a.Addr)
			if !ok {
				continue
			}
			if addr.Is4() && addr.IsPrivate() {
				return addr, true
			}
		}
	}
	return netip.Addr{}, false
}

func usable(iface psnet.InterfaceStat) bool {
	if len(iface.Flags) > 0 {
		if !slices.Contains(iface.Flags, "up") || slices.Contains(iface.Flags, "loopback") {
			return false
		}
	}
	for _, prefix := range virtualPrefixes {
		if strings.HasPrefix(iface.Name, prefix) {
			return false
		}
	}
	return true
}

// parseAddr accepts both CIDR ("10.0.0.2/24") and bare forms.
func parseAddr(s string) (netip.Addr, bool) {
	if p, err := netip.ParsePrefix(s); err == nil {
		return p.Addr().Unmap(), true
	}
	if a, err := netip.ParseAddr(s); err == nil {
		return a.Unmap(), true
	}
	return netip.Addr{}, false
}
