// Package osc maps edge events onto OSC 1.0 messages: one int32 argument
// sent to /device<id>/.
package osc

import (
	"errors"
	"fmt"

	goosc "github.com/hypebeast/go-osc/osc"
)

// ErrNotMessage is returned by Parse for packets that are bundles.
var ErrNotMessage = errors.New("osc: packet is not a message")

// DeviceAddress is the address edge events for a device are sent to.
func DeviceAddress(deviceID uint8) string {
	return fmt.Sprintf("/device%d/", deviceID)
}

// EventMessage creates the message carrying value for deviceID.
func EventMessage(deviceID uint8, value int32) *goosc.Message {
	return goosc.NewMessage(DeviceAddress(deviceID), value)
}

// Encode returns the wire bytes of the event message.
func Encode(deviceID uint8, value int32) ([]byte, error) {
	return EventMessage(deviceID, value).MarshalBinary()
}

// Parse decodes a single OSC message.
func Parse(data []byte) (*goosc.Message, error) {
	pkt, err := goosc.ParsePacket(string(data))
	if err != nil {
		return nil, err
	}
	msg, ok := pkt.(*goosc.Message)
	if !ok {
		return nil, ErrNotMessage
	}
	return msg, nil
}

// Value returns the event value carried by msg.
func Value(msg *goosc.Message) (int32, bool) {
	if len(msg.Arguments) != 1 {
		return 0, false
	}
	v, ok := msg.Arguments[0].(int32)
	return v, ok
}
