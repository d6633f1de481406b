package domain

import (
	"strings"
	"time"
)

type CallState string

const (
	CallQueued    CallState = "queued"
	CallRinging   CallState = "ringing"
	CallAnswered  CallState = "answered"
	CallCompleted CallState = "completed"
	CallFailed    CallState = "failed"
)

var callTransitions = map[CallState][]CallState{
	CallQueued:    {CallRinging, CallFailed},
	CallRinging:   {CallAnswered, CallFailed},
	CallAnswered:  {CallCompleted},
	CallCompleted: nil,
	CallFailed:    nil,
}

// providerStates maps the telephony provider's status vocabulary, plus the
// canonical state names, onto CallState.
var providerStates = map[string]CallState{
	"queued":      CallQueued,
	"initiated":   CallQueued,
	"ringing":     CallRinging,
	"in-progress": CallAnswered,
	"answered":    CallAnswered,
	"completed":   CallCompleted,
	"busy":        CallFailed,
	"failed":      CallFailed,
	"no-answer":   CallFailed,
	"canceled":    CallFailed,
}

func ParseCallState(raw string) (CallState, bool) {
	state, ok := providerStates[strings.ToLower(strings.TrimSpace(raw))]
	return state, ok
}

func (s CallState) IsTerminal() bool {
	return s == CallCompleted || s == CallFailed
}

// CanAdvanceTo reports whether next is reachable from s through one or more
// transitions. Callbacks may skip intermediate states, so reachability rather
// than adjacency decides whether the current state moves.
func (s CallState) CanAdvanceTo(next CallState) bool {
	seen := map[CallState]bool{s: true}
	frontier := []CallState{s}
	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]
		for _, candidate := range callTransitions[current] {
			if candidate == next {
				return true
			}
			if !seen[candidate] {
				seen[candidate] = true
				frontier = append(frontier, candidate)
			}
		}
	}
	return false
}

type StateEntry struct {
	State      CallState `json:"state"`
	Timestamp  time.Time `json:"timestamp"`
	RecordedAt time.Time `json:"recorded_at"`
	Applied    bool      `json:"applied"`
	Source     string    `json:"source"`
}

const (
	ProviderEventSource = "provider"
	LocalEventSource    = "local"
)

type CallAttempt struct {
	ID             string       `json:"id"`
	ProviderCallID string       `json:"provider_call_id"`
	CampaignID     string       `json:"campaign_id,omitempty"`
	CustomerIndex  int          `json:"customer_index"`
	ToNumber       string       `json:"to_number"`
	AudioRef       string       `json:"audio_ref"`
	State          CallState    `json:"state"`
	CreatedAt      time.Time    `json:"created_at"`
	History        []StateEntry `json:"history"`
	FailureReason  string       `json:"failure_reason,omitempty"`
}

func NewCallAttempt(id string, providerCallID string, toNumber string, audioRef string, createdAt time.Time) CallAttempt {
	return CallAttempt{
		ID:             id,
		ProviderCallID: providerCallID,
		ToNumber:       toNumber,
		AudioRef:       audioRef,
		State:          CallQueued,
		CreatedAt:      createdAt,
		History:        make([]StateEntry, 0, 4),
	}
}

func (a CallAttempt) IsActive() bool {
	return !a.State.IsTerminal()
}

// Clone returns a copy whose history does not alias the receiver's.
func (a CallAttempt) Clone() CallAttempt {
	history := make([]StateEntry, len(a.History))
	copy(history, a.History)
	a.History = history
	return a
}

type AttemptUpdate struct {
	Attempt CallAttempt
	Entry   StateEntry
}
