// Package node assembles a lidargate node: sensor feeds, edge detection,
// event sinks and console transports around one poll loop.
package node

import (
	"context"
	"io"
	"time"

	"github.com/golang/glog"

	"github.com/robotalks/lidargate/pkg/command"
	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/console"
	"github.com/robotalks/lidargate/pkg/edge"
	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/netlink"
)

// Channels is the number of sensor channels.
const Channels = 2

// DefaultLinkDelay is the settle time before the loop starts.
const DefaultLinkDelay = 5 * time.Second

// Node is an assembled node.
type Node struct {
	Holder    *config.Holder
	Link      netlink.Link
	Loop      *fx.Loop
	Sense     *Sense
	Handler   *command.Handler
	LinkDelay time.Duration

	closers []io.Closer
}

// New creates a Node with the sense and command stages in place. Sensor
// feeds, consoles and other transports are added with Add.
func New(holder *config.Holder, link netlink.Link, sinks ...edge.Sink) *Node {
	n := &Node{
		Holder:    holder,
		Link:      link,
		Loop:      fx.NewLoop(),
		Sense:     NewSense(holder, edge.Sinks(sinks), Channels),
		Handler:   command.NewHandler(holder, link),
		LinkDelay: DefaultLinkDelay,
	}
	n.Loop.Add(n.Sense, &console.Dispatcher{Handler: n.Handler})
	return n
}

// Add adds components to the loop.
func (n *Node) Add(adders ...fx.LoopAdder) *Node {
	n.Loop.Add(adders...)
	return n
}

// AddCloser registers resources closed when Run returns.
func (n *Node) AddCloser(closers ...io.Closer) *Node {
	n.closers = append(n.closers, closers...)
	return n
}

// AddSink appends an event sink.
func (n *Node) AddSink(sink edge.Sink) *Node {
	if sinks, ok := n.Sense.Sink.(edge.Sinks); ok {
		n.Sense.Sink = append(sinks, sink)
	} else {
		n.Sense.Sink = edge.Sinks{n.Sense.Sink, sink}
	}
	return n
}

// Run waits for the link to settle and runs the loop until ctx is done.
func (n *Node) Run(ctx context.Context) error {
	defer n.close()
	if n.LinkDelay > 0 {
		glog.Infof("waiting %s for the network link", n.LinkDelay)
		select {
		case <-time.After(n.LinkDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	glog.Infof("ETH IP: %s", netlink.DescribeIP(n.Link))
	glog.Infof("ETH MAC: %s", netlink.DescribeMAC(n.Link))
	return n.Loop.Run(ctx)
}

func (n *Node) close() {
	var errs fx.AggregatedError
	for i := len(n.closers) - 1; i >= 0; i-- {
		errs.Add(n.closers[i].Close())
	}
	if err := errs.Aggregate(); err != nil {
		glog.Warningf("close: %v", err)
	}
}

// LogLoaded logs the configuration loaded at startup.
func LogLoaded(cfg config.DeviceConfig) {
	glog.Infof("Loaded IP: %s", cfg.LocalAddr)
	glog.Infof("Subnet: %s", cfg.SubnetMask)
	glog.Infof("Gateway: %s", cfg.Gateway)
	glog.Infof("OutIP: %s", cfg.DestAddr)
	glog.Infof("deviceID: %d, threshold: %d, ports in %d out %d", cfg.DeviceID, cfg.Threshold, cfg.InPort, cfg.OutPort)
}
