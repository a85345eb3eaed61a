package services

import (
	"sync"

	"github.com/vocollect/vocollect/internal/models"
	"github.com/vocollect/vocollect/internal/turn"
)

// ActiveCall is one in-flight call. finalizeOnce collapses the three
// finalize triggers (farewell, provider completed event, transport
// disconnect) into a single execution; later triggers are no-ops.
type ActiveCall struct {
	Session     *models.CallSession
	Coordinator *turn.Coordinator

	// Pending marks a call that was dialed but not yet answered. The answer
	// webhook replaces the entry with a full session; a terminal provider
	// event on a still-pending call only releases the borrower.
	Pending bool

	finalizeOnce sync.Once
}

// FinalizeOnce runs fn the first time any trigger fires for this call.
func (a *ActiveCall) FinalizeOnce(fn func()) {
	a.finalizeOnce.Do(fn)
}

// CallRegistry tracks in-flight calls by call UUID.
type CallRegistry struct {
	mu    sync.RWMutex
	calls map[string]*ActiveCall
}

func NewCallRegistry() *CallRegistry {
	return &CallRegistry{calls: make(map[string]*ActiveCall)}
}

func (r *CallRegistry) Put(callUUID string, call *ActiveCall) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[callUUID] = call
}

func (r *CallRegistry) Get(callUUID string) (*ActiveCall, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.calls[callUUID]
	return c, ok
}

func (r *CallRegistry) Remove(callUUID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.calls, callUUID)
}

func (r *CallRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.calls)
}
