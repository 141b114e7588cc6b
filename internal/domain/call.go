package domain

import (
	"strings"
	"time"
)

// CallState is the per-call conversation state machine position.
type CallState string

const (
	StateGreeting   CallState = "greeting"
	StateListening  CallState = "listening"
	StateAwaiting   CallState = "awaiting_generation"
	StateSpeaking   CallState = "speaking"
	StateForwarding CallState = "forwarding"
	StateEnded      CallState = "ended"
)

// CallOutcome classifies how a call concluded.
type CallOutcome string

const (
	OutcomeAnswered  CallOutcome = "answered"
	OutcomeForwarded CallOutcome = "forwarded"
	OutcomeMissed    CallOutcome = "missed"
	OutcomeError     CallOutcome = "error"
)

// Turn is a single utterance in a call conversation.
type Turn struct {
	Role      string    `json:"role"` // "caller" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	RoleCaller    = "caller"
	RoleAssistant = "assistant"
)

// CallSession is the mutable state of one active phone call, keyed by the
// provider-assigned call SID. It is owned by the protocol controller for the
// lifetime of the call and is never shared across calls.
type CallSession struct {
	CallSID   string    `json:"callSid"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	TenantID  string    `json:"tenantId"`
	State     CallState `json:"state"`
	Turns     []Turn    `json:"turns,omitempty"`
	Language  string    `json:"language,omitempty"` // empty until first utterance
	Memory    *CallerMemory `json:"memory,omitempty"`
	Outcome   CallOutcome   `json:"outcome,omitempty"`
	StartedAt time.Time     `json:"startedAt"`

	// Learned during the call, flushed to caller memory when it ends.
	CallerName string `json:"callerName,omitempty"`
	CallReason string `json:"callReason,omitempty"`
}

// FirstUtterance reports whether no caller turn has been recorded yet.
func (s *CallSession) FirstUtterance() bool {
	for _, t := range s.Turns {
		if t.Role == RoleCaller {
			return false
		}
	}
	return true
}

// CallLogEntry is the immutable record of a finished call.
type CallLogEntry struct {
	CallSID   string      `json:"callSid"`
	TenantID  string      `json:"tenantId"`
	From      string      `json:"from"`
	To        string      `json:"to"`
	StartedAt time.Time   `json:"startedAt"`
	EndedAt   time.Time   `json:"endedAt"`
	Duration  int         `json:"durationSec"`
	Outcome   CallOutcome `json:"outcome"`
	Category  string      `json:"category,omitempty"`
}

// CallerMemory is what the receptionist remembers about a phone number.
type CallerMemory struct {
	TenantID   string    `json:"tenantId"`
	Phone      string    `json:"phone"` // normalized: digits only
	Name       string    `json:"name,omitempty"`
	CallCount  int       `json:"callCount"`
	LastCallAt time.Time `json:"lastCallAt"`
	LastReason string    `json:"lastReason,omitempty"`
}

// NormalizePhone strips everything but digits so "+1 (555) 123-4567" and
// "15551234567" key the same memory row.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
