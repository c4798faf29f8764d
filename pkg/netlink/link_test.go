package netlink

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDescribe(t *testing.T) {
	mac, err := net.ParseMAC("a4:cf:12:0b:3e:ff")
	require.NoError(t, err)
	l := &Static{Addr: netip.MustParseAddr("10.255.250.150"), MAC: mac}
	assert.Equal(t, "10.255.250.150", DescribeIP(l))
	assert.Equal(t, "A4:CF:12:0B:3E:FF", DescribeMAC(l))

	down := &Static{Err: errors.New("link down")}
	assert.Equal(t, "0.0.0.0", DescribeIP(down))
	assert.Equal(t, "00:00:00:00:00:00", DescribeMAC(down))
}

func TestInterfaceLinkUnknown(t *testing.T) {
	l := &InterfaceLink{Name: "does-not-exist0"}
	_, err := l.LocalAddr()
	require.Error(t, err)
	_, err = l.HardwareAddr()
	require.Error(t, err)
}
