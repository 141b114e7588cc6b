// Package call owns the per-call in-process state: the session registry and
// the response handoff between the generation pipeline and the webhook
// protocol controller.
package call

import (
	"sync"
	"time"

	"github.com/voxlane/frontdesk/internal/domain"
)

// Registry maps active call SIDs to their sessions. Calls are independent,
// so a single mutex around the map is all the coordination required.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*domain.CallSession
}

// NewRegistry creates an empty session registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*domain.CallSession)}
}

// Create registers a new session for an inbound call. An existing session
// for the same SID is returned untouched (duplicate webhook delivery).
func (r *Registry) Create(callSID, from, to, tenantID string) *domain.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	if sess, ok := r.sessions[callSID]; ok {
		return sess
	}
	sess := &domain.CallSession{
		CallSID:   callSID,
		From:      from,
		To:        to,
		TenantID:  tenantID,
		State:     domain.StateGreeting,
		StartedAt: time.Now(),
	}
	r.sessions[callSID] = sess
	return sess
}

// Get returns the session for a call SID, or nil. Absence is a recoverable
// condition for the controller, not an error.
func (r *Registry) Get(callSID string) *domain.CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sessions[callSID]
}

// Remove deletes a session and returns it, or nil if already gone. Exactly
// one caller observes the non-nil return for a given SID, which is what
// makes terminal-event finalization idempotent.
func (r *Registry) Remove(callSID string) *domain.CallSession {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess := r.sessions[callSID]
	delete(r.sessions, callSID)
	return sess
}

// Len returns the number of active calls.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// Active returns a snapshot of the active sessions.
func (r *Registry) Active() []*domain.CallSession {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*domain.CallSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}
