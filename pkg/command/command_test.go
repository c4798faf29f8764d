package command

import (
	"errors"
	"net"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lidargate/pkg/config"
	"github.com/robotalks/lidargate/pkg/netlink"
	"github.com/robotalks/lidargate/pkg/prefs"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		line   string
		expect Command
	}{
		{"SET_IP 192.168.0.10", SetAddress{Field: LocalAddr, Addr: netip.MustParseAddr("192.168.0.10")}},
		{"  SET_SUBNET 255.255.255.0\r\n", SetAddress{Field: SubnetMask, Addr: netip.MustParseAddr("255.255.255.0")}},
		{"SET_GATEWAY 192.168.0.1", SetAddress{Field: Gateway, Addr: netip.MustParseAddr("192.168.0.1")}},
		{"SET_OUTIP 192.168.0.255", SetAddress{Field: DestAddr, Addr: netip.MustParseAddr("192.168.0.255")}},
		{"SET_INPORT 1", SetPort{Field: InPort, Port: 1}},
		{"SET_OUTPORT 65535", SetPort{Field: OutPort, Port: 65535}},
		{"SET_THRESHOLD 250", SetThreshold{Value: 250}},
		{"SET_ID 0", SetDeviceID{Value: 0}},
		{"SET_ID 255", SetDeviceID{Value: 255}},
		{"IP", GetLocalAddress{}},
		{"MAC\n", GetMACAddress{}},
		{"GET_CONFIG", GetConfig{}},
		{"get_config", Unrecognized{Raw: "get_config"}},
		{"SET_IP", Unrecognized{Raw: "SET_IP"}},
		{"SET_IP   ", Unrecognized{Raw: "SET_IP"}},
		{"IPX", Unrecognized{Raw: "IPX"}},
		{"", Unrecognized{Raw: ""}},
	}
	for _, tc := range testCases {
		t.Run(tc.line, func(t *testing.T) {
			cmd, err := Parse(tc.line)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, cmd)
		})
	}
}

func TestParseErrors(t *testing.T) {
	formatCases := []string{
		"SET_IP not.an.address",
		"SET_IP 1.2.3",
		"SET_IP 256.1.1.1",
		"SET_IP ::1",
		"SET_OUTIP 1.2.3.4 5",
	}
	for _, line := range formatCases {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			var formatErr *FormatError
			require.ErrorAs(t, err, &formatErr)
		})
	}
	rangeCases := []string{
		"SET_INPORT 70000",
		"SET_INPORT 0",
		"SET_OUTPORT -1",
		"SET_OUTPORT abc",
		"SET_THRESHOLD 0",
		"SET_THRESHOLD 65536",
		"SET_THRESHOLD 1.5",
		"SET_ID 256",
		"SET_ID -1",
	}
	for _, line := range rangeCases {
		t.Run(line, func(t *testing.T) {
			_, err := Parse(line)
			var rangeErr *RangeError
			require.ErrorAs(t, err, &rangeErr)
		})
	}
}

func newHandler(t *testing.T) (*Handler, *prefs.MemoryEngine) {
	engine := prefs.NewMemoryEngine()
	holder, err := config.NewHolder(config.NewPrefsStore(engine))
	require.NoError(t, err)
	mac, err := net.ParseMAC("a4:cf:12:0b:3e:ff")
	require.NoError(t, err)
	return NewHandler(holder, &netlink.Static{Addr: netip.MustParseAddr("10.0.0.7"), MAC: mac}), engine
}

func TestHandleResponses(t *testing.T) {
	h, _ := newHandler(t)
	testCases := []struct {
		line   string
		expect string
	}{
		{"SET_IP 192.168.0.10", "✅ IP set to 192.168.0.10 and saved."},
		{"SET_SUBNET 255.255.255.0", "✅ Subnet set to 255.255.255.0 and saved."},
		{"SET_GATEWAY 192.168.0.1", "✅ Gateway set to 192.168.0.1 and saved."},
		{"SET_OUTIP 192.168.0.2", "✅ OutIP set to 192.168.0.2 and saved."},
		{"SET_IP nope", "❌ Invalid IP format."},
		{"SET_GATEWAY 1.2.3", "❌ Invalid Gateway format."},
		{"SET_INPORT 8001", "✅ Input port set to 8001 and saved."},
		{"SET_OUTPORT 8000", "✅ Output port set to 8000 and saved."},
		{"SET_INPORT 70000", "❌ Invalid port. Must be between 1 and 65535."},
		{"SET_THRESHOLD 120", "✅ Threshold distance set to 120 and saved."},
		{"SET_THRESHOLD 0", "❌ Invalid threshold. Must be greater than 0."},
		{"SET_ID 12", "✅ deviceID set to 12 and saved."},
		{"SET_ID 300", "❌ Invalid ID. Must be between 0 and 255."},
		{"IP", "ETH IP: 10.0.0.7"},
		{"MAC", "ETH MAC: A4:CF:12:0B:3E:FF"},
		{"REBOOT", "Invalid command."},
	}
	for _, tc := range testCases {
		assert.Equal(t, []string{tc.expect}, h.Handle(tc.line), tc.line)
	}
}

func TestGetConfigReflectsAppliedValues(t *testing.T) {
	h, engine := newHandler(t)
	h.Handle("SET_THRESHOLD 120")
	h.Handle("SET_IP 192.168.0.10")
	h.Handle("SET_IP not.an.address")
	h.Handle("SET_INPORT 70000")
	h.Handle("SET_ID 7")

	assert.Equal(t, []string{
		"deviceID: 7",
		"Threshold dist: 120",
		"Input port: 7001",
		"Output port: 7000",
		"IP: 192.168.0.10",
		"Subnet: 255.255.254.0",
		"Gateway: 10.255.250.1",
		"OutIP: 10.255.250.129",
	}, h.Handle("GET_CONFIG"))

	loaded, err := config.NewPrefsStore(engine).Load()
	require.NoError(t, err)
	assert.Equal(t, h.Config.Current(), loaded)
}

func TestSetThresholdIdempotent(t *testing.T) {
	h, engine := newHandler(t)
	for i := 0; i < 2; i++ {
		assert.Equal(t, []string{"✅ Threshold distance set to 100 and saved."}, h.Handle("SET_THRESHOLD 100"))
	}
	assert.Equal(t, uint32(100), engine.Keys(config.Namespace)["thresh_dist"])
}

func TestRejectedInputLeavesConfig(t *testing.T) {
	h, engine := newHandler(t)
	h.Handle("SET_IP not.an.address")
	h.Handle("SET_INPORT 70000")
	assert.Equal(t, config.Default(), h.Config.Current())
	assert.Empty(t, engine.Keys(config.Namespace))
}

type brokenStore struct{}

func (brokenStore) Load() (config.DeviceConfig, error) { return config.Default(), nil }
func (brokenStore) Save(config.DeviceConfig) error     { return errors.New("flash full") }

func TestSaveFailureKeepsValue(t *testing.T) {
	h := NewHandler(config.NewHolderWith(brokenStore{}, config.Default()), &netlink.Static{})
	assert.Equal(t, []string{"⚠️ Output port set to 9000 but not saved: flash full"}, h.Handle("SET_OUTPORT 9000"))
	assert.Equal(t, uint16(9000), h.Config.Current().OutPort)
	assert.Equal(t, []string{"ETH IP: 0.0.0.0"}, h.Handle("IP"))
}
