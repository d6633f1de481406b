package domain

import (
	"sort"
	"sync"
	"time"
)

type Stage string

const (
	ScriptStage Stage = "script"
	VoiceStage  Stage = "voice"
	StoreStage  Stage = "store"
	CallStage   Stage = "call"
	QueueStage  Stage = "queue"
)

const retryCampaignOp = "retry campaign"

type CampaignStatus string

const (
	CampaignRunning  CampaignStatus = "running"
	CampaignFinished CampaignStatus = "finished"
)

type CampaignRequest struct {
	Customers     []CustomerRecord
	Character     CharacterProfile
	FlowPrompt    string
	VoiceSelector string
}

// CustomerOutcome is the result of one customer's pipeline: either the id of
// the attempt it placed or the failure that stopped it.
type CustomerOutcome struct {
	CampaignID    string `json:"campaign_id"`
	CustomerIndex int    `json:"customer_index"`
	AttemptID     string `json:"attempt_id,omitempty"`
	AudioURL      string `json:"audio_url,omitempty"`
	Stage         Stage  `json:"stage,omitempty"`
	Err           *Error `json:"error,omitempty"`
}

func (o CustomerOutcome) Failed() bool {
	return o.Err != nil
}

// Campaign owns its customer records and the outcome of every customer it
// has run. Outcomes are keyed by customer index and written by at most one
// pipeline at a time.
type Campaign struct {
	ID        string
	Request   CampaignRequest
	CreatedAt time.Time

	mu         sync.RWMutex
	status     CampaignStatus
	finishedAt time.Time
	outcomes   map[int]CustomerOutcome
	inFlight   map[int]bool
	watchers   map[int]chan CustomerOutcome
	nextWatch  int
	// runSize is the number of customers scheduled by the latest run.
	runSize int
}

func NewCampaign(id string, request CampaignRequest, createdAt time.Time) *Campaign {
	return &Campaign{
		ID:        id,
		Request:   request,
		CreatedAt: createdAt,
		status:    CampaignRunning,
		outcomes:  make(map[int]CustomerOutcome, len(request.Customers)),
		inFlight:  make(map[int]bool),
		watchers:  make(map[int]chan CustomerOutcome),
		runSize:   len(request.Customers),
	}
}

// Claim marks a customer's pipeline as running. It fails when a pipeline for
// that customer is already running or when the customer already owns an
// attempt that has not failed.
func (c *Campaign) Claim(customerIndex int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inFlight[customerIndex] {
		return false
	}
	if outcome, ok := c.outcomes[customerIndex]; ok && !outcome.Failed() {
		return false
	}
	c.inFlight[customerIndex] = true
	return true
}

func (c *Campaign) Complete(outcome CustomerOutcome) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.inFlight, outcome.CustomerIndex)
	c.outcomes[outcome.CustomerIndex] = outcome
	for _, ch := range c.watchers {
		select {
		case ch <- outcome:
		default:
		}
	}
}

// Watch streams outcomes recorded from now on. The channel is closed when the
// run finishes or the returned stop function is called; a watcher that falls
// more than backlog outcomes behind misses the overflow.
func (c *Campaign) Watch(backlog int) (<-chan CustomerOutcome, func()) {
	if backlog <= 0 {
		backlog = 1
	}
	ch := make(chan CustomerOutcome, backlog)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == CampaignFinished {
		close(ch)
		return ch, func() {}
	}
	id := c.nextWatch
	c.nextWatch++
	c.watchers[id] = ch

	stop := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if watcher, ok := c.watchers[id]; ok {
			delete(c.watchers, id)
			close(watcher)
		}
	}
	return ch, stop
}

func (c *Campaign) Outcome(customerIndex int) (CustomerOutcome, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	outcome, ok := c.outcomes[customerIndex]
	return outcome, ok
}

// Outcomes returns the recorded outcomes ordered by customer index.
func (c *Campaign) Outcomes() []CustomerOutcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]CustomerOutcome, 0, len(c.outcomes))
	for _, outcome := range c.outcomes {
		out = append(out, outcome)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CustomerIndex < out[j].CustomerIndex
	})
	return out
}

func (c *Campaign) FailedCustomers() []CustomerRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.failedLocked()
}

func (c *Campaign) failedLocked() []CustomerRecord {
	var failed []CustomerRecord
	for _, customer := range c.Request.Customers {
		if outcome, ok := c.outcomes[customer.Index]; ok && outcome.Failed() && !c.inFlight[customer.Index] {
			failed = append(failed, customer)
		}
	}
	return failed
}

// BeginRetry moves a finished campaign back to running and returns the
// customers whose last outcome failed. Only one caller can win the switch.
func (c *Campaign) BeginRetry() ([]CustomerRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status == CampaignRunning {
		return nil, NewValidationError(retryCampaignOp, "campaign %s is still running", c.ID)
	}
	failed := c.failedLocked()
	if len(failed) == 0 {
		return nil, NewValidationError(retryCampaignOp, "campaign %s has no failed customers", c.ID)
	}
	c.status = CampaignRunning
	c.finishedAt = time.Time{}
	c.runSize = len(failed)
	return failed, nil
}

func (c *Campaign) RunSize() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runSize
}

func (c *Campaign) Status() (CampaignStatus, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.status, c.finishedAt
}

func (c *Campaign) MarkFinished(at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.status = CampaignFinished
	c.finishedAt = at
	for id, ch := range c.watchers {
		delete(c.watchers, id)
		close(ch)
	}
}

type CampaignEvent struct {
	Type    string           `json:"type"`
	Outcome *CustomerOutcome `json:"outcome,omitempty"`
	Attempt *CallAttempt     `json:"attempt,omitempty"`
}

const (
	OutcomeEventType = "outcome"
	AttemptEventType = "attempt"
)
