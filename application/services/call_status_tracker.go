package services

import (
	"context"
	"sync"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
)

const recordEventOp = "record call event"

type trackedAttempt struct {
	mu      sync.Mutex
	attempt domain.CallAttempt

	// unmirrored holds the newest snapshot not yet handed to the recorder.
	// Only the caller that set mirroring writes to the recorder; later
	// callers replace the snapshot and return.
	unmirrored *domain.CallAttempt
	mirroring  bool
}

// stage queues a snapshot for the recorder and reports whether the caller
// must run mirror. Called with mu held.
func (t *trackedAttempt) stage(snapshot domain.CallAttempt) bool {
	t.unmirrored = &snapshot
	if t.mirroring {
		return false
	}
	t.mirroring = true
	return true
}

type callStatusTracker struct {
	logger   outbound.LoggerPort
	recorder outbound.AttemptRecorderPort
	backlog  int
	now      func() time.Time

	mu         sync.RWMutex
	attempts   map[string]*trackedAttempt
	byProvider map[string]string

	subMu       sync.RWMutex
	subscribers map[int]chan domain.AttemptUpdate
	nextSubID   int
}

func NewCallStatusTracker(logger outbound.LoggerPort, recorder outbound.AttemptRecorderPort, backlog int) inbound.CallStatusTrackerPort {
	if backlog <= 0 {
		backlog = 1
	}
	return &callStatusTracker{
		logger:      logger,
		recorder:    recorder,
		backlog:     backlog,
		now:         time.Now,
		attempts:    make(map[string]*trackedAttempt),
		byProvider:  make(map[string]string),
		subscribers: make(map[int]chan domain.AttemptUpdate),
	}
}

func (s *callStatusTracker) Register(ctx context.Context, attempt domain.CallAttempt) error {
	if attempt.ID == "" {
		return domain.NewValidationError("register attempt", "attempt id must not be empty")
	}
	if attempt.State != domain.CallQueued {
		return domain.NewValidationError("register attempt", "attempt %s must start %s, got %s", attempt.ID, domain.CallQueued, attempt.State)
	}

	tracked := &trackedAttempt{attempt: attempt.Clone()}
	tracked.mu.Lock()

	s.mu.Lock()
	if _, exists := s.attempts[attempt.ID]; exists {
		s.mu.Unlock()
		tracked.mu.Unlock()
		return domain.NewValidationError("register attempt", "attempt %s is already registered", attempt.ID)
	}
	s.attempts[attempt.ID] = tracked
	if attempt.ProviderCallID != "" {
		s.byProvider[attempt.ProviderCallID] = attempt.ID
	}
	s.mu.Unlock()

	s.commit(ctx, tracked, domain.StateEntry{})
	return nil
}

// BindProviderCall records the provider's id for an attempt registered
// before origination, so callbacks without the attempt id still resolve.
func (s *callStatusTracker) BindProviderCall(ctx context.Context, attemptID string, providerCallID string) (domain.CallAttempt, error) {
	if providerCallID == "" {
		return domain.CallAttempt{}, domain.NewValidationError("bind provider call", "provider call id must not be empty")
	}
	tracked, err := s.lookup(attemptID, "")
	if err != nil {
		return domain.CallAttempt{}, err
	}

	tracked.mu.Lock()
	if current := tracked.attempt.ProviderCallID; current != "" && current != providerCallID {
		tracked.mu.Unlock()
		return domain.CallAttempt{}, domain.NewValidationError("bind provider call", "attempt %s is already bound to %s", attemptID, current)
	}
	tracked.attempt.ProviderCallID = providerCallID
	s.mu.Lock()
	s.byProvider[providerCallID] = attemptID
	s.mu.Unlock()

	return s.commit(ctx, tracked, domain.StateEntry{}), nil
}

// RecordEvent appends the event to the attempt's history. The current state
// only moves forward to a state reachable from it; duplicates and late events
// stay in the history with Applied unset.
func (s *callStatusTracker) RecordEvent(ctx context.Context, event inbound.StatusEvent) (domain.CallAttempt, error) {
	state, ok := domain.ParseCallState(event.RawState)
	if !ok {
		s.logger.WarnWithFields("Dropping callback with unrecognized call state", map[string]interface{}{
			"attempt_id":       event.AttemptID,
			"provider_call_id": event.ProviderCallID,
			"state":            event.RawState,
		})
		return domain.CallAttempt{}, domain.NewProtocolError(recordEventOp, "unrecognized call state %q", event.RawState)
	}

	tracked, err := s.lookup(event.AttemptID, event.ProviderCallID)
	if err != nil {
		s.logger.WarnWithFields("Dropping callback for unknown attempt", map[string]interface{}{
			"attempt_id":       event.AttemptID,
			"provider_call_id": event.ProviderCallID,
			"state":            event.RawState,
		})
		return domain.CallAttempt{}, err
	}

	timestamp := event.Timestamp
	if timestamp.IsZero() {
		timestamp = s.now()
	}

	tracked.mu.Lock()
	entry := s.apply(&tracked.attempt, state, timestamp, domain.ProviderEventSource)
	if entry.Applied && state == domain.CallFailed {
		tracked.attempt.FailureReason = event.RawState
	}
	if !entry.Applied {
		s.logger.WarnWithFields("Anomalous call event kept for audit only", map[string]interface{}{
			"attempt_id": tracked.attempt.ID,
			"current":    tracked.attempt.State,
			"received":   state,
		})
	}
	return s.commit(ctx, tracked, entry), nil
}

// MarkFailed records a terminal failure observed locally rather than reported
// by the provider.
func (s *callStatusTracker) MarkFailed(ctx context.Context, attemptID string, reason string) (domain.CallAttempt, error) {
	tracked, err := s.lookup(attemptID, "")
	if err != nil {
		return domain.CallAttempt{}, err
	}

	tracked.mu.Lock()
	entry := s.apply(&tracked.attempt, domain.CallFailed, s.now(), domain.LocalEventSource)
	if entry.Applied {
		tracked.attempt.FailureReason = reason
	}
	return s.commit(ctx, tracked, entry), nil
}

// commit publishes the attempt's current snapshot, releases the attempt's
// lock and mirrors the snapshot to the recorder. Called with tracked.mu held.
func (s *callStatusTracker) commit(ctx context.Context, tracked *trackedAttempt, entry domain.StateEntry) domain.CallAttempt {
	snapshot := tracked.attempt.Clone()
	s.publish(domain.AttemptUpdate{Attempt: snapshot.Clone(), Entry: entry})
	owner := tracked.stage(snapshot.Clone())
	tracked.mu.Unlock()

	if owner {
		s.mirror(context.WithoutCancel(ctx), tracked)
	}
	return snapshot
}

// mirror writes staged snapshots until none is left. Snapshots staged while
// a write is in flight collapse into the newest one.
func (s *callStatusTracker) mirror(ctx context.Context, tracked *trackedAttempt) {
	for {
		tracked.mu.Lock()
		snapshot := tracked.unmirrored
		tracked.unmirrored = nil
		if snapshot == nil {
			tracked.mirroring = false
			tracked.mu.Unlock()
			return
		}
		tracked.mu.Unlock()

		s.persist(ctx, *snapshot)
	}
}

func (s *callStatusTracker) Get(attemptID string) (domain.CallAttempt, error) {
	tracked, err := s.lookup(attemptID, "")
	if err != nil {
		return domain.CallAttempt{}, err
	}
	tracked.mu.Lock()
	defer tracked.mu.Unlock()
	return tracked.attempt.Clone(), nil
}

// Subscribe returns a channel receiving every attempt change. Slow
// subscribers miss updates rather than blocking callbacks.
func (s *callStatusTracker) Subscribe() (<-chan domain.AttemptUpdate, func()) {
	ch := make(chan domain.AttemptUpdate, s.backlog)

	s.subMu.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subscribers, id)
			close(ch)
			s.subMu.Unlock()
		})
	}
	return ch, cancel
}

// apply must be called with the attempt's lock held.
func (s *callStatusTracker) apply(attempt *domain.CallAttempt, state domain.CallState, timestamp time.Time, source string) domain.StateEntry {
	recordedAt := s.now()
	if n := len(attempt.History); n > 0 && recordedAt.Before(attempt.History[n-1].RecordedAt) {
		recordedAt = attempt.History[n-1].RecordedAt
	}

	applied := false
	switch {
	case attempt.State.CanAdvanceTo(state):
		applied = true
		attempt.State = state
	case attempt.State == state && !hasAppliedEntry(attempt.History, state):
		applied = true
	}

	entry := domain.StateEntry{
		State:      state,
		Timestamp:  timestamp,
		RecordedAt: recordedAt,
		Applied:    applied,
		Source:     source,
	}
	attempt.History = append(attempt.History, entry)
	return entry
}

func hasAppliedEntry(history []domain.StateEntry, state domain.CallState) bool {
	for _, entry := range history {
		if entry.Applied && entry.State == state {
			return true
		}
	}
	return false
}

func (s *callStatusTracker) lookup(attemptID string, providerCallID string) (*trackedAttempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if attemptID != "" {
		if tracked, ok := s.attempts[attemptID]; ok {
			return tracked, nil
		}
	}
	if providerCallID != "" {
		if id, ok := s.byProvider[providerCallID]; ok {
			return s.attempts[id], nil
		}
	}
	return nil, domain.NewNotFoundError(recordEventOp, "no attempt for id %q / call %q", attemptID, providerCallID)
}

func (s *callStatusTracker) persist(ctx context.Context, attempt domain.CallAttempt) {
	if err := s.recorder.Save(ctx, attempt); err != nil {
		s.logger.ErrorWithFields(err, "Failed to mirror call attempt", map[string]interface{}{
			"attempt_id": attempt.ID,
			"state":      attempt.State,
		})
	}
}

func (s *callStatusTracker) publish(update domain.AttemptUpdate) {
	s.subMu.RLock()
	defer s.subMu.RUnlock()
	for id, ch := range s.subscribers {
		select {
		case ch <- update:
		default:
			s.logger.DebugWithFields("Subscriber backlog full, update dropped", map[string]interface{}{
				"subscriber": id,
				"attempt_id": update.Attempt.ID,
			})
		}
	}
}
