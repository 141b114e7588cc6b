package call

import (
	"sync"

	"github.com/voxlane/frontdesk/internal/domain"
)

// Outcome is the state of an in-flight response generation.
type Outcome string

const (
	// OutcomePending means generation is still running.
	OutcomePending Outcome = "pending"
	// OutcomeReady means a spoken reply is available.
	OutcomeReady Outcome = "ready"
	// OutcomeForward means the call should be transferred to a human.
	OutcomeForward Outcome = "forward"
	// OutcomeError means generation failed and the caller should hear
	// an apology.
	OutcomeError Outcome = "error"
)

// Result is the settled value of a response promise.
type Result struct {
	Outcome Outcome
	// Text is the reply to speak when Outcome is OutcomeReady.
	Text string
	// ForwardTo is the dial target when Outcome is OutcomeForward.
	ForwardTo string
	// AudioRef keys synthesized audio for Text; empty when no TTS is
	// available and the reply falls back to robotic speech.
	AudioRef string
	// Booked is the appointment confirmed on this turn, if any.
	Booked *domain.Appointment
}

// promise holds one pending result. It settles at most once.
type promise struct {
	mu      sync.Mutex
	settled bool
	result  Result
}

// Promises tracks one response promise per call SID. The generation worker
// settles it, the poll handler consumes it. A worker that finishes after the
// poll handler has given up and deleted the promise writes into nothing.
type Promises struct {
	mu      sync.Mutex
	pending map[string]*promise
}

// NewPromises creates an empty promise table.
func NewPromises() *Promises {
	return &Promises{pending: make(map[string]*promise)}
}

// Begin opens a pending promise for a call, replacing any stale one from an
// earlier turn. Each caller turn gets a fresh promise.
func (p *Promises) Begin(callSID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pending[callSID] = &promise{}
}

// Settle records the result for a call. Only the first settle wins; later
// writers and writers arriving after the promise was dropped are ignored.
func (p *Promises) Settle(callSID string, res Result) bool {
	p.mu.Lock()
	pr := p.pending[callSID]
	p.mu.Unlock()
	if pr == nil {
		return false
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if pr.settled {
		return false
	}
	pr.settled = true
	pr.result = res
	return true
}

// Poll reports the current state of a call's promise without consuming it.
// A missing promise reads as still pending so a racing redirect does not
// observe a phantom error.
func (p *Promises) Poll(callSID string) (Result, bool) {
	p.mu.Lock()
	pr := p.pending[callSID]
	p.mu.Unlock()
	if pr == nil {
		return Result{Outcome: OutcomePending}, false
	}
	pr.mu.Lock()
	defer pr.mu.Unlock()
	if !pr.settled {
		return Result{Outcome: OutcomePending}, false
	}
	return pr.result, true
}

// Take consumes a settled promise, removing it from the table. Returns
// false if the promise is missing or still pending.
func (p *Promises) Take(callSID string) (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	pr := p.pending[callSID]
	if pr == nil {
		return Result{}, false
	}
	pr.mu.Lock()
	settled := pr.settled
	res := pr.result
	pr.mu.Unlock()
	if !settled {
		return Result{}, false
	}
	delete(p.pending, callSID)
	return res, true
}

// Drop discards a call's promise, if any. Used when the poll budget is
// exhausted or the call ends mid-generation.
func (p *Promises) Drop(callSID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.pending, callSID)
}
