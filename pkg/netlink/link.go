// Package netlink reports the live address of the network interface the
// node publishes from.
package netlink

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// ErrNoAddress indicates the interface has no IPv4 address.
var ErrNoAddress = errors.New("no IPv4 address")

// Link exposes the live interface state.
type Link interface {
	LocalAddr() (netip.Addr, error)
	HardwareAddr() (net.HardwareAddr, error)
}

// InterfaceLink reads an OS network interface by name. An empty name
// selects the first up, non-loopback interface with an IPv4 address.
type InterfaceLink struct {
	Name string
}

func (l *InterfaceLink) iface() (*net.Interface, error) {
	if l.Name != "" {
		iface, err := net.InterfaceByName(l.Name)
		if err != nil {
			return nil, fmt.Errorf("interface %s: %w", l.Name, err)
		}
		return iface, nil
	}
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}
	for i := range ifaces {
		iface := &ifaces[i]
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if _, err := ipv4Of(iface); err == nil {
			return iface, nil
		}
	}
	return nil, fmt.Errorf("no usable interface: %w", ErrNoAddress)
}

// LocalAddr implements Link.
func (l *InterfaceLink) LocalAddr() (netip.Addr, error) {
	iface, err := l.iface()
	if err != nil {
		return netip.Addr{}, err
	}
	return ipv4Of(iface)
}

// HardwareAddr implements Link.
func (l *InterfaceLink) HardwareAddr() (net.HardwareAddr, error) {
	iface, err := l.iface()
	if err != nil {
		return nil, err
	}
	return iface.HardwareAddr, nil
}

func ipv4Of(iface *net.Interface) (netip.Addr, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return netip.Addr{}, err
	}
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if addr, ok := netip.AddrFromSlice(ipnet.IP); ok && addr.Unmap().Is4() {
			return addr.Unmap(), nil
		}
	}
	return netip.Addr{}, fmt.Errorf("interface %s: %w", iface.Name, ErrNoAddress)
}

// Static is a Link with fixed values.
type Static struct {
	Addr netip.Addr
	MAC  net.HardwareAddr
	Err  error
}

// LocalAddr implements Link.
func (s *Static) LocalAddr() (netip.Addr, error) {
	return s.Addr, s.Err
}

// HardwareAddr implements Link.
func (s *Static) HardwareAddr() (net.HardwareAddr, error) {
	return s.MAC, s.Err
}

// FormatMAC formats a hardware address in upper case, colon separated.
func FormatMAC(mac net.HardwareAddr) string {
	const hex = "0123456789ABCDEF"
	if len(mac) == 0 {
		return "00:00:00:00:00:00"
	}
	b := make([]byte, 0, len(mac)*3-1)
	for i, octet := range mac {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, hex[octet>>4], hex[octet&0xf])
	}
	return string(b)
}

// DescribeIP renders the live local address, "0.0.0.0" when unknown.
func DescribeIP(l Link) string {
	addr, err := l.LocalAddr()
	if err != nil || !addr.IsValid() {
		return "0.0.0.0"
	}
	return addr.String()
}

// DescribeMAC renders the live hardware address.
func DescribeMAC(l Link) string {
	mac, err := l.HardwareAddr()
	if err != nil {
		return FormatMAC(nil)
	}
	return FormatMAC(mac)
}
