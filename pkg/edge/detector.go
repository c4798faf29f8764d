// Package edge turns distance readings into one-shot threshold crossing
// events, one Detector per sensor channel.
package edge

import "fmt"

// Value is the event payload sent for a crossing.
type Value int32

// Values.
const (
	Reset   Value = 0
	Trigger Value = 1
)

func (v Value) String() string {
	switch v {
	case Reset:
		return "reset"
	case Trigger:
		return "trigger"
	}
	return fmt.Sprintf("Value(%d)", int32(v))
}

// Event is a threshold crossing on one channel.
type Event struct {
	Channel  int
	Value    Value
	Distance int
}

// ChannelState is the per-channel detector memory.
type ChannelState struct {
	LastDistance int
	Triggered    bool
}

// Detector tracks one channel. The zero value is idle.
type Detector struct {
	Channel int
	State   ChannelState
}

// NewDetector creates an idle Detector for channel.
func NewDetector(channel int) *Detector {
	return &Detector{Channel: channel}
}

// Feed processes one reading against threshold. A reading strictly below
// the threshold triggers an idle channel; a reading at or above it resets
// a triggered one. Every other reading only updates LastDistance.
func (d *Detector) Feed(distance int, threshold uint16) (Event, bool) {
	d.State.LastDistance = distance
	below := distance < int(threshold)
	switch {
	case below && !d.State.Triggered:
		d.State.Triggered = true
		return Event{Channel: d.Channel, Value: Trigger, Distance: distance}, true
	case !below && d.State.Triggered:
		d.State.Triggered = false
		return Event{Channel: d.Channel, Value: Reset, Distance: distance}, true
	}
	return Event{}, false
}

// Triggered reports whether the channel is in the triggered state.
func (d *Detector) Triggered() bool {
	return d.State.Triggered
}

// LastDistance is the most recent reading.
func (d *Detector) LastDistance() int {
	return d.State.LastDistance
}
