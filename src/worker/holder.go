package worker

import (
	"sync"

	"github.com/lsproxy-dev/lsproxy/src/worker/rpcmux"
)

// MultiplexerHolder publishes the worker's Multiplexer once it exists.
// The LSP child is launched from an fx.Lifecycle OnStart hook rather than
// a provide constructor, so the router can be wired up before the child
// process exists; handlers that arrive before OnStart has run see a nil
// Multiplexer and report ChildNotReady, the same as they would for a
// child still mid-handshake.
type MultiplexerHolder struct {
	mu  sync.RWMutex
	mux *rpcmux.Multiplexer
}

// NewMultiplexerHolder constructs an empty holder.
func NewMultiplexerHolder() *MultiplexerHolder {
	return &MultiplexerHolder{}
}

// Get returns the current Multiplexer, or nil if OnStart hasn't run yet.
func (h *MultiplexerHolder) Get() *rpcmux.Multiplexer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.mux
}

// set publishes m. Called once, from OnStart.
func (h *MultiplexerHolder) set(m *rpcmux.Multiplexer) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.mux = m
}
