package mqtt

import (
	"github.com/golang/protobuf/proto"

	"github.com/robotalks/lidargate/pkg/edge"
)

// EdgeEvent is the mirror payload published on <node>/events.
type EdgeEvent struct {
	Node      string `protobuf:"bytes,1,opt,name=node,proto3" json:"node,omitempty"`
	Device    uint32 `protobuf:"varint,2,opt,name=device,proto3" json:"device,omitempty"`
	Channel   uint32 `protobuf:"varint,3,opt,name=channel,proto3" json:"channel,omitempty"`
	Value     int32  `protobuf:"varint,4,opt,name=value,proto3" json:"value,omitempty"`
	Distance  int32  `protobuf:"varint,5,opt,name=distance,proto3" json:"distance,omitempty"`
	Timestamp int64  `protobuf:"varint,6,opt,name=timestamp,proto3" json:"timestamp,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *EdgeEvent) ProtoMessage() {}

// Reset implements proto.Message.
func (m *EdgeEvent) Reset() { *m = EdgeEvent{} }

// String implements proto.Message.
func (m *EdgeEvent) String() string { return proto.CompactTextString(m) }

// Event converts back to edge.Event.
func (m *EdgeEvent) Event() edge.Event {
	return edge.Event{Channel: int(m.Channel), Value: edge.Value(m.Value), Distance: int(m.Distance)}
}

// EncodeEvent serializes an edge event.
func EncodeEvent(node string, deviceID uint8, ev edge.Event, timestampMs int64) ([]byte, error) {
	return proto.Marshal(&EdgeEvent{
		Node:      node,
		Device:    uint32(deviceID),
		Channel:   uint32(ev.Channel),
		Value:     int32(ev.Value),
		Distance:  int32(ev.Distance),
		Timestamp: timestampMs,
	})
}

// DecodeEvent parses a mirror payload.
func DecodeEvent(payload []byte) (*EdgeEvent, error) {
	m := &EdgeEvent{}
	if err := proto.Unmarshal(payload, m); err != nil {
		return nil, err
	}
	return m, nil
}
