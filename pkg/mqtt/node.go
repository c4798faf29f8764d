package mqtt

import (
	"context"
	"strings"
	"time"

	"github.com/denisbrodbeck/machineid"
	"github.com/golang/glog"

	"github.com/robotalks/lidargate/pkg/console"
	"github.com/robotalks/lidargate/pkg/edge"
	fx "github.com/robotalks/lidargate/pkg/framework"
)

// Topics relative to the node name.
const (
	TopicStatus     = "status"
	TopicEvents     = "events"
	TopicConsoleIn  = "console/in"
	TopicConsoleOut = "console/out"
)

// Status payloads.
const (
	StatusOnline  = "online"
	StatusOffline = "offline"
)

// NodeTopic joins a node name and a relative topic.
func NodeTopic(node, topic string) string {
	return node + "/" + topic
}

// DefaultNodeName derives a stable node name from the machine id.
func DefaultNodeName() string {
	id, err := machineid.ProtectedID("lidargate")
	if err != nil || len(id) < 8 {
		glog.Warningf("machine id unavailable: %v", err)
		return "lidargate"
	}
	return "lidar-" + id[:8]
}

// Node is the MQTT presence of a node: it owns the connection and the
// retained status topic, with an offline will.
type Node struct {
	Name  string
	Queue *Queue
}

// Dial prepares the connection to brokerURL. It connects on Run.
func Dial(brokerURL, name string) (*Node, error) {
	opts, topicPrefix, err := ClientOptionsFromURL(brokerURL)
	if err != nil {
		return nil, err
	}
	opts.SetWill(topicPrefix+NodeTopic(name, TopicStatus), StatusOffline, 1, true)
	if opts.ClientID == "" {
		opts.SetClientID("lidargate:" + strings.ReplaceAll(name, "/", "-"))
	}
	n := &Node{Name: name, Queue: NewQueue(opts, topicPrefix)}
	n.Queue.OnConnect = func(q *Queue) {
		q.PubWith(NodeTopic(name, TopicStatus), []byte(StatusOnline), 1, true)
	}
	return n, nil
}

// AddToLoop implements fx.LoopAdder.
func (n *Node) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("mqtt", n))
}

// Run implements fx.Runnable.
func (n *Node) Run(ctx context.Context) error {
	token := n.Queue.Connect()
	if token.WaitTimeout(5*time.Second) && token.Error() != nil {
		glog.Warningf("mqtt connect: %v, retrying in background", token.Error())
	}
	<-ctx.Done()
	n.Queue.PubWith(NodeTopic(n.Name, TopicStatus), []byte(StatusOffline), 1, true).WaitTimeout(time.Second)
	n.Queue.Close()
	return ctx.Err()
}

// Mirror publishes every edge event to <node>/events.
type Mirror struct {
	Node string
	Pub  Publisher
	Now  func() time.Time
}

// Emit implements edge.Sink.
func (m *Mirror) Emit(deviceID uint8, ev edge.Event) {
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	payload, err := EncodeEvent(m.Node, deviceID, ev, now().UnixMilli())
	if err != nil {
		glog.Errorf("encode mirror event: %v", err)
		return
	}
	m.Pub.PubWith(NodeTopic(m.Node, TopicEvents), payload, 0, false)
}

// Console serves command lines from <node>/console/in and publishes the
// replies to <node>/console/out.
type Console struct {
	Node  string
	Queue *Queue
	Out   Publisher

	inCh chan string
}

const consoleBacklog = 16

// NewConsole creates a Console.
func NewConsole(node string, q *Queue) *Console {
	return &Console{Node: node, Queue: q, Out: q, inCh: make(chan string, consoleBacklog)}
}

// AddToLoop implements fx.LoopAdder.
func (c *Console) AddToLoop(l *fx.Loop) {
	l.AddRunnable(fx.NamedRun("console-mqtt", c))
}

// Run implements fx.Runnable.
func (c *Console) Run(ctx context.Context) error {
	sub := c.Queue.Sub(NodeTopic(c.Node, TopicConsoleIn), c.handleInput)
	defer sub.Close()
	return c.serve(ctx)
}

func (c *Console) handleInput(topic string, payload []byte) {
	for _, line := range strings.Split(strings.TrimRight(string(payload), "\r\n"), "\n") {
		select {
		case c.inCh <- line:
		default:
			glog.Warningf("mqtt console backlog full, dropped %q", line)
		}
	}
}

func (c *Console) serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line := <-c.inCh:
			reply, err := console.Submit(ctx, "mqtt", line)
			if err != nil {
				return err
			}
			c.Out.PubWith(NodeTopic(c.Node, TopicConsoleOut), []byte(strings.Join(reply, "\n")), 0, false)
		}
	}
}
