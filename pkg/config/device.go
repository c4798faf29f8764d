// Package config owns the persisted device configuration: the record
// itself, its defaults, the store that reads and writes it key by key, and
// the Holder that every component reads it through.
package config

import (
	"fmt"
	"net/netip"
)

// DeviceConfig is the persisted configuration of the node.
type DeviceConfig struct {
	DeviceID   uint8
	Threshold  uint16
	LocalAddr  netip.Addr
	SubnetMask netip.Addr
	Gateway    netip.Addr
	DestAddr   netip.Addr
	InPort     uint16
	OutPort    uint16
}

// Defaults.
var (
	DefaultLocalAddr  = netip.AddrFrom4([4]byte{10, 255, 250, 150})
	DefaultSubnetMask = netip.AddrFrom4([4]byte{255, 255, 254, 0})
	DefaultGateway    = netip.AddrFrom4([4]byte{10, 255, 250, 1})
	DefaultDestAddr   = netip.AddrFrom4([4]byte{10, 255, 250, 129})
)

// More defaults.
const (
	DefaultDeviceID  uint8  = 1
	DefaultThreshold uint16 = 100
	DefaultInPort    uint16 = 7001
	DefaultOutPort   uint16 = 7000
)

// Default returns the configuration used on first boot.
func Default() DeviceConfig {
	return DeviceConfig{
		DeviceID:   DefaultDeviceID,
		Threshold:  DefaultThreshold,
		LocalAddr:  DefaultLocalAddr,
		SubnetMask: DefaultSubnetMask,
		Gateway:    DefaultGateway,
		DestAddr:   DefaultDestAddr,
		InPort:     DefaultInPort,
		OutPort:    DefaultOutPort,
	}
}

// Validate checks the invariants a stored record must satisfy.
func (c DeviceConfig) Validate() error {
	for _, a := range []struct {
		name string
		addr netip.Addr
	}{
		{"IP", c.LocalAddr},
		{"Subnet", c.SubnetMask},
		{"Gateway", c.Gateway},
		{"OutIP", c.DestAddr},
	} {
		if !a.addr.Is4() {
			return fmt.Errorf("%s %v is not an IPv4 address", a.name, a.addr)
		}
	}
	if c.Threshold == 0 {
		return fmt.Errorf("threshold must be greater than 0")
	}
	if c.InPort == 0 || c.OutPort == 0 {
		return fmt.Errorf("ports must be between 1 and 65535")
	}
	return nil
}

// Destination is the event sink address.
func (c DeviceConfig) Destination() netip.AddrPort {
	return netip.AddrPortFrom(c.DestAddr, c.OutPort)
}
