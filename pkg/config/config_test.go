package config

import (
	"errors"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robotalks/lidargate/pkg/prefs"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := NewPrefsStore(prefs.NewMemoryEngine()).Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
	assert.Equal(t, "10.255.250.150", cfg.LocalAddr.String())
	assert.Equal(t, "255.255.254.0", cfg.SubnetMask.String())
	assert.Equal(t, "10.255.250.1", cfg.Gateway.String())
	assert.Equal(t, "10.255.250.129:7000", cfg.Destination().String())
	assert.NoError(t, cfg.Validate())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	cfg := DeviceConfig{
		DeviceID:   0,
		Threshold:  65535,
		LocalAddr:  netip.MustParseAddr("192.168.1.20"),
		SubnetMask: netip.MustParseAddr("255.255.255.0"),
		Gateway:    netip.MustParseAddr("192.168.1.1"),
		DestAddr:   netip.MustParseAddr("192.168.1.255"),
		InPort:     1,
		OutPort:    65535,
	}
	store := NewPrefsStore(prefs.NewMemoryEngine())
	require.NoError(t, store.Save(cfg))
	loaded, err := store.Load()
	require.NoError(t, err)
	require.Equal(t, cfg, loaded)
}

func TestStoredKeyLayout(t *testing.T) {
	engine := prefs.NewMemoryEngine()
	require.NoError(t, NewPrefsStore(engine).Save(Default()))
	keys := engine.Keys(Namespace)
	assert.Len(t, keys, 20)
	assert.Equal(t, uint32(10), keys["ip0"])
	assert.Equal(t, uint32(150), keys["ip3"])
	assert.Equal(t, uint32(254), keys["sub2"])
	assert.Equal(t, uint32(129), keys["out3"])
	assert.Equal(t, uint32(100), keys["thresh_dist"])
	assert.Equal(t, uint32(7001), keys["inPort"])
	assert.Equal(t, uint32(7000), keys["outPort"])
	assert.Equal(t, uint32(1), keys["deviceID"])
}

func TestLoadOutOfRangeFallsBack(t *testing.T) {
	engine := prefs.NewMemoryEngine()
	ns, err := engine.Begin(Namespace, false)
	require.NoError(t, err)
	require.NoError(t, ns.PutUint("deviceID", 300))
	require.NoError(t, ns.PutUint("thresh_dist", 0))
	require.NoError(t, ns.PutUint("inPort", 70000))
	require.NoError(t, ns.PutUint("ip1", 256))
	require.NoError(t, ns.PutUint("outPort", 9000))
	require.NoError(t, ns.End())

	cfg, err := NewPrefsStore(engine).Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultDeviceID, cfg.DeviceID)
	assert.Equal(t, DefaultThreshold, cfg.Threshold)
	assert.Equal(t, DefaultInPort, cfg.InPort)
	assert.Equal(t, uint16(9000), cfg.OutPort)
	assert.Equal(t, "10.255.250.150", cfg.LocalAddr.String())
}

func TestPartialSave(t *testing.T) {
	engine := &prefs.MemoryEngine{FailAfter: 4}
	cfg := Default()
	cfg.LocalAddr = netip.MustParseAddr("1.2.3.4")
	cfg.SubnetMask = netip.MustParseAddr("255.0.0.0")
	err := NewPrefsStore(engine).Save(cfg)
	require.ErrorIs(t, err, prefs.ErrInjected)

	loaded, err := NewPrefsStore(engine).Load()
	require.NoError(t, err)
	assert.Equal(t, "1.2.3.4", loaded.LocalAddr.String())
	assert.Equal(t, "255.255.254.0", loaded.SubnetMask.String())
}

type failingStore struct {
	saved []DeviceConfig
	err   error
}

func (s *failingStore) Load() (DeviceConfig, error) {
	return Default(), s.err
}

func (s *failingStore) Save(cfg DeviceConfig) error {
	s.saved = append(s.saved, cfg)
	return s.err
}

func TestHolderUpdateSaves(t *testing.T) {
	engine := prefs.NewMemoryEngine()
	h, err := NewHolder(NewPrefsStore(engine))
	require.NoError(t, err)
	require.NoError(t, h.Update(func(c *DeviceConfig) { c.Threshold = 250 }))
	assert.Equal(t, uint16(250), h.Current().Threshold)
	assert.Equal(t, uint32(250), engine.Keys(Namespace)["thresh_dist"])
}

func TestHolderKeepsValueWhenSaveFails(t *testing.T) {
	store := &failingStore{err: errors.New("flash worn out")}
	h, err := NewHolder(store)
	require.Error(t, err)
	require.Equal(t, Default(), h.Current())

	err = h.Update(func(c *DeviceConfig) { c.OutPort = 9000 })
	require.EqualError(t, err, "flash worn out")
	assert.Equal(t, uint16(9000), h.Current().OutPort)
	require.Len(t, store.saved, 1)
	assert.Equal(t, uint16(9000), store.saved[0].OutPort)
}

func TestHolderConcurrentReaders(t *testing.T) {
	h := NewHolderWith(nil, Default())
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				cfg := h.Current()
				assert.Equal(t, cfg.InPort, cfg.OutPort+1)
			}
		}()
	}
	for j := 0; j < 100; j++ {
		require.NoError(t, h.Update(func(c *DeviceConfig) {
			c.OutPort = uint16(1000 + j)
			c.InPort = c.OutPort + 1
		}))
	}
	wg.Wait()
}
