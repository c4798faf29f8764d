package publish

import (
	"net"
	"net/netip"
	"testing"
	"time"

	goosc "github.com/hypebeast/go-osc/osc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/edge"
	"github.com/robotalks/lidargate/pkg/osc"
)

func listen(t *testing.T) (*net.UDPConn, uint16) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn, uint16(conn.LocalAddr().(*net.UDPAddr).Port)
}

func receive(t *testing.T, conn *net.UDPConn) *goosc.Message {
	buf := make([]byte, 512)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	n, _, err := conn.ReadFromUDP(buf)
	require.NoError(t, err)
	msg, err := osc.Parse(buf[:n])
	require.NoError(t, err)
	return msg
}

func newPublisher(t *testing.T, port uint16) (*Publisher, *config.Holder) {
	cfg := config.Default()
	cfg.DestAddr = netip.MustParseAddr("127.0.0.1")
	cfg.OutPort = port
	holder := config.NewHolderWith(nil, cfg)
	p, err := Listen(holder, Options{ListenAddr: "127.0.0.1:0", TTL: 4})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, holder
}

func TestPublishSendsOSC(t *testing.T) {
	conn, port := listen(t)
	p, _ := newPublisher(t, port)

	p.Emit(3, edge.Event{Channel: 1, Value: edge.Trigger, Distance: 42})
	msg := receive(t, conn)
	assert.Equal(t, "/device3/", msg.Address)
	assert.Equal(t, []interface{}{int32(1)}, msg.Arguments)

	p.Publish(3, edge.Reset)
	msg = receive(t, conn)
	assert.Equal(t, []interface{}{int32(0)}, msg.Arguments)
}

func TestPublishFollowsConfig(t *testing.T) {
	first, port1 := listen(t)
	second, port2 := listen(t)
	p, holder := newPublisher(t, port1)

	p.Publish(1, edge.Trigger)
	assert.Equal(t, "/device1/", receive(t, first).Address)

	require.NoError(t, holder.Update(func(c *config.DeviceConfig) {
		c.OutPort = port2
		c.DeviceID = 9
	}))
	p.Publish(holder.Current().DeviceID, edge.Trigger)
	assert.Equal(t, "/device9/", receive(t, second).Address)
}

func TestPublishSwallowsErrors(t *testing.T) {
	_, port := listen(t)
	p, _ := newPublisher(t, port)
	require.NoError(t, p.Close())
	assert.NotPanics(t, func() { p.Publish(1, edge.Trigger) })
}

func TestListenBindsInPort(t *testing.T) {
	cfg := config.Default()
	cfg.InPort = 0
	p, err := Listen(config.NewHolderWith(nil, cfg), Options{})
	require.NoError(t, err)
	defer p.Close()
	assert.NotZero(t, p.LocalAddr().(*net.UDPAddr).Port)
}
