package notify

import (
	"sync"

	"go.uber.org/zap"
)

var (
	defaultMu  sync.RWMutex
	defaultHub *Hub
)

// Init creates the process-wide hub. It must run once before Default is used.
func Init(log *zap.Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHub != nil {
		panic("notify: Init called twice")
	}
	defaultHub = NewHub(log)
}

// Default returns the process-wide hub and panics if Init has not run.
func Default() *Hub {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	if defaultHub == nil {
		panic("notify: hub used before Init")
	}
	return defaultHub
}

// Shutdown closes the process-wide hub and forgets it.
func Shutdown() {
	defaultMu.Lock()
	h := defaultHub
	defaultHub = nil
	defaultMu.Unlock()

	if h != nil {
		h.Close()
	}
}
