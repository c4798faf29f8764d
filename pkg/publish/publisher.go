// Package publish sends edge events as OSC datagrams over UDP.
package publish

import (
	"fmt"
	"net"
	"strconv"

	"github.com/golang/glog"
	"golang.org/x/net/ipv4"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/edge"
	"github.com/robotalks/lidargate/pkg/osc"
)

// Options tunes the publishing socket.
type Options struct {
	// ListenAddr overrides the local address, default ":<InPort>".
	ListenAddr string
	// TOS and TTL are applied when positive.
	TOS int
	TTL int
}

// Publisher sends one datagram per event, fire-and-forget. The socket is
// bound once; the destination is read from the Holder on every publish.
type Publisher struct {
	holder *config.Holder
	conn   net.PacketConn
	pconn  *ipv4.PacketConn
}

// Listen binds the publishing socket to the configured InPort.
func Listen(holder *config.Holder, opts Options) (*Publisher, error) {
	addr := opts.ListenAddr
	if addr == "" {
		addr = ":" + strconv.Itoa(int(holder.Current().InPort))
	}
	conn, err := net.ListenPacket("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", addr, err)
	}
	p := &Publisher{holder: holder, conn: conn, pconn: ipv4.NewPacketConn(conn)}
	if opts.TOS > 0 {
		if err := p.pconn.SetTOS(opts.TOS); err != nil {
			glog.Warningf("set TOS %d: %v", opts.TOS, err)
		}
	}
	if opts.TTL > 0 {
		if err := p.pconn.SetTTL(opts.TTL); err != nil {
			glog.Warningf("set TTL %d: %v", opts.TTL, err)
		}
	}
	return p, nil
}

// LocalAddr returns the bound address.
func (p *Publisher) LocalAddr() net.Addr {
	return p.conn.LocalAddr()
}

// Publish sends value for deviceID to the current destination. Send
// failures are logged and dropped.
func (p *Publisher) Publish(deviceID uint8, value edge.Value) {
	dst := p.holder.Current().Destination()
	b, err := osc.Encode(deviceID, int32(value))
	if err != nil {
		glog.Errorf("encode event: %v", err)
		return
	}
	if _, err := p.pconn.WriteTo(b, nil, net.UDPAddrFromAddrPort(dst)); err != nil {
		glog.V(1).Infof("send %s %d to %s dropped: %v", osc.DeviceAddress(deviceID), value, dst, err)
		return
	}
	glog.V(2).Infof("sent %s %d to %s", osc.DeviceAddress(deviceID), value, dst)
}

// Emit implements edge.Sink.
func (p *Publisher) Emit(deviceID uint8, ev edge.Event) {
	p.Publish(deviceID, ev.Value)
}

// Close closes the socket.
func (p *Publisher) Close() error {
	return p.conn.Close()
}
