// Package command implements the line oriented configuration protocol:
// parsing a line into a Command, validating it, applying it to the live
// configuration and producing the text response.
package command

import "net/netip"

// Command is the parsed form of one console line. The set of variants is
// closed: SetAddress, SetPort, SetThreshold, SetDeviceID, GetLocalAddress,
// GetMACAddress, GetConfig and Unrecognized.
type Command interface {
	command()
}

// AddressField selects one of the configured addresses.
type AddressField int

// Address fields.
const (
	LocalAddr AddressField = iota
	SubnetMask
	Gateway
	DestAddr
)

// Name is the field name used in responses.
func (f AddressField) Name() string {
	switch f {
	case LocalAddr:
		return "IP"
	case SubnetMask:
		return "Subnet"
	case Gateway:
		return "Gateway"
	case DestAddr:
		return "OutIP"
	}
	return "address"
}

// PortField selects one of the configured ports.
type PortField int

// Port fields.
const (
	InPort PortField = iota
	OutPort
)

// Name is the field name used in responses.
func (f PortField) Name() string {
	if f == InPort {
		return "Input port"
	}
	return "Output port"
}

// SetAddress is SET_IP, SET_SUBNET, SET_GATEWAY or SET_OUTIP.
type SetAddress struct {
	Field AddressField
	Addr  netip.Addr
}

// SetPort is SET_INPORT or SET_OUTPORT.
type SetPort struct {
	Field PortField
	Port  uint16
}

// SetThreshold is SET_THRESHOLD.
type SetThreshold struct {
	Value uint16
}

// SetDeviceID is SET_ID.
type SetDeviceID struct {
	Value uint8
}

// GetLocalAddress is IP.
type GetLocalAddress struct{}

// GetMACAddress is MAC.
type GetMACAddress struct{}

// GetConfig is GET_CONFIG.
type GetConfig struct{}

// Unrecognized is any other line.
type Unrecognized struct {
	Raw string
}

func (SetAddress) command()      {}
func (SetPort) command()         {}
func (SetThreshold) command()    {}
func (SetDeviceID) command()     {}
func (GetLocalAddress) command() {}
func (GetMACAddress) command()   {}
func (GetConfig) command()       {}
func (Unrecognized) command()    {}
