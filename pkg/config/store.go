package config

import (
	"fmt"
	"math"
	"net/netip"
	"strconv"

	"github.com/golang/glog"

	fx "github.com/robotalks/lidargate/pkg/framework"
	"github.com/robotalks/lidargate/pkg/prefs"
)

// Namespace is the prefs namespace holding DeviceConfig.
const Namespace = "network"

// Persisted keys. Addresses use one key per octet: <prefix>0..<prefix>3.
const (
	KeyLocalAddrPrefix  = "ip"
	KeySubnetMaskPrefix = "sub"
	KeyGatewayPrefix    = "gw"
	KeyDestAddrPrefix   = "out"
	KeyDeviceID         = "deviceID"
	KeyThreshold        = "thresh_dist"
	KeyInPort           = "inPort"
	KeyOutPort          = "outPort"
)

// Store loads and saves DeviceConfig.
type Store interface {
	// Load always returns a fully populated record; absent or invalid
	// keys resolve to defaults. A non-nil error reports an engine
	// problem, the returned record is still usable.
	Load() (DeviceConfig, error)
	// Save writes every field. It is not atomic across keys.
	Save(DeviceConfig) error
}

// PrefsStore implements Store on a prefs.Engine, one key per field.
type PrefsStore struct {
	Engine    prefs.Engine
	Namespace string
}

// NewPrefsStore creates a PrefsStore using the default namespace.
func NewPrefsStore(engine prefs.Engine) *PrefsStore {
	return &PrefsStore{Engine: engine, Namespace: Namespace}
}

// Load implements Store.
func (s *PrefsStore) Load() (DeviceConfig, error) {
	cfg := Default()
	ns, err := s.Engine.Begin(s.namespace(), true)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	r := &reader{ns: ns}
	cfg.LocalAddr = r.addr(KeyLocalAddrPrefix, DefaultLocalAddr)
	cfg.SubnetMask = r.addr(KeySubnetMaskPrefix, DefaultSubnetMask)
	cfg.Gateway = r.addr(KeyGatewayPrefix, DefaultGateway)
	cfg.DestAddr = r.addr(KeyDestAddrPrefix, DefaultDestAddr)
	cfg.DeviceID = uint8(r.uint(KeyDeviceID, uint32(DefaultDeviceID), 0, math.MaxUint8))
	cfg.Threshold = uint16(r.uint(KeyThreshold, uint32(DefaultThreshold), 1, math.MaxUint16))
	cfg.InPort = uint16(r.uint(KeyInPort, uint32(DefaultInPort), 1, math.MaxUint16))
	cfg.OutPort = uint16(r.uint(KeyOutPort, uint32(DefaultOutPort), 1, math.MaxUint16))
	r.errs.Add(ns.End())
	if err := r.errs.Aggregate(); err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// Save implements Store. The first failing put aborts the save, leaving
// the keys written so far in place.
func (s *PrefsStore) Save(cfg DeviceConfig) error {
	ns, err := s.Engine.Begin(s.namespace(), false)
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	err = writeAll(ns, cfg)
	if endErr := ns.End(); err == nil {
		err = endErr
	}
	if err != nil {
		return fmt.Errorf("save config: %w", err)
	}
	return nil
}

func writeAll(ns prefs.Namespace, cfg DeviceConfig) error {
	for _, a := range []struct {
		prefix string
		addr   netip.Addr
	}{
		{KeyLocalAddrPrefix, cfg.LocalAddr},
		{KeySubnetMaskPrefix, cfg.SubnetMask},
		{KeyGatewayPrefix, cfg.Gateway},
		{KeyDestAddrPrefix, cfg.DestAddr},
	} {
		octets := a.addr.As4()
		for i, octet := range octets {
			if err := ns.PutUint(a.prefix+strconv.Itoa(i), uint32(octet)); err != nil {
				return err
			}
		}
	}
	for _, kv := range []struct {
		key string
		val uint32
	}{
		{KeyDeviceID, uint32(cfg.DeviceID)},
		{KeyThreshold, uint32(cfg.Threshold)},
		{KeyInPort, uint32(cfg.InPort)},
		{KeyOutPort, uint32(cfg.OutPort)},
	} {
		if err := ns.PutUint(kv.key, kv.val); err != nil {
			return err
		}
	}
	return nil
}

func (s *PrefsStore) namespace() string {
	if s.Namespace == "" {
		return Namespace
	}
	return s.Namespace
}

type reader struct {
	ns   prefs.Namespace
	errs fx.AggregatedError
}

// uint reads a key, falling back to def when absent, unreadable or out
// of [min, max].
func (r *reader) uint(key string, def, min, max uint32) uint32 {
	val, err := r.ns.GetUint(key, def)
	if err != nil {
		r.errs.Add(err)
		return def
	}
	if val < min || val > max {
		glog.Warningf("config key %s=%d out of range [%d, %d], using default %d", key, val, min, max, def)
		return def
	}
	return val
}

func (r *reader) addr(prefix string, def netip.Addr) netip.Addr {
	defOctets := def.As4()
	var octets [4]byte
	for i := range octets {
		octets[i] = byte(r.uint(prefix+strconv.Itoa(i), uint32(defOctets[i]), 0, math.MaxUint8))
	}
	return netip.AddrFrom4(octets)
}
