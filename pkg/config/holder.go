package config

import (
	"sync"

	"github.com/golang/glog"
)

// Holder owns the live DeviceConfig. Components fetch it on every use.
type Holder struct {
	store Store
	mu    sync.RWMutex
	cfg   DeviceConfig
}

// NewHolder loads the configuration from store. The returned Holder is
// always usable; a load error is returned alongside it.
func NewHolder(store Store) (*Holder, error) {
	cfg, err := store.Load()
	return &Holder{store: store, cfg: cfg}, err
}

// NewHolderWith creates a Holder around an already loaded configuration.
func NewHolderWith(store Store, cfg DeviceConfig) *Holder {
	return &Holder{store: store, cfg: cfg}
}

// Current returns a snapshot of the configuration.
func (h *Holder) Current() DeviceConfig {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.cfg
}

// Update applies fn to the configuration and saves the full result. The
// in-memory change stays in effect even when saving fails.
func (h *Holder) Update(fn func(*DeviceConfig)) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.cfg)
	if h.store == nil {
		return nil
	}
	if err := h.store.Save(h.cfg); err != nil {
		glog.Errorf("config not saved: %v", err)
		return err
	}
	return nil
}
