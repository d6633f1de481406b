package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseCallState(t *testing.T) {
	tests := map[string]CallState{
		"queued":      CallQueued,
		"initiated":   CallQueued,
		"Ringing":     CallRinging,
		"in-progress": CallAnswered,
		"answered":    CallAnswered,
		" completed ": CallCompleted,
		"busy":        CallFailed,
		"no-answer":   CallFailed,
		"canceled":    CallFailed,
		"failed":      CallFailed,
	}
	for raw, want := range tests {
		got, ok := ParseCallState(raw)
		assert.True(t, ok, raw)
		assert.Equal(t, want, got, raw)
	}

	_, ok := ParseCallState("voicemail")
	assert.False(t, ok)
}

func TestCallState_CanAdvanceTo(t *testing.T) {
	assert.True(t, CallQueued.CanAdvanceTo(CallRinging))
	assert.True(t, CallQueued.CanAdvanceTo(CallCompleted))
	assert.True(t, CallRinging.CanAdvanceTo(CallFailed))
	assert.True(t, CallAnswered.CanAdvanceTo(CallCompleted))

	assert.False(t, CallAnswered.CanAdvanceTo(CallFailed))
	assert.False(t, CallCompleted.CanAdvanceTo(CallRinging))
	assert.False(t, CallFailed.CanAdvanceTo(CallCompleted))
	assert.False(t, CallRinging.CanAdvanceTo(CallRinging))
	assert.False(t, CallRinging.CanAdvanceTo(CallQueued))
}

func TestCallAttempt_Clone(t *testing.T) {
	attempt := NewCallAttempt("a1", "CA1", "+905321112233", "https://a", time.Now())
	assert.Equal(t, CallQueued, attempt.State)
	assert.True(t, attempt.IsActive())

	attempt.History = append(attempt.History, StateEntry{State: CallRinging, Applied: true})
	clone := attempt.Clone()
	clone.History[0].State = CallFailed

	assert.Equal(t, CallRinging, attempt.History[0].State)
}
