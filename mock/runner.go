package mock_telephony

import (
	"context"
	"net/url"
	"sort"
	"sync"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"github.com/google/uuid"
)

const originateOp = "originate simulated call"

// EventSink receives the status callbacks a real provider would POST.
type EventSink interface {
	RecordEvent(ctx context.Context, event inbound.StatusEvent) (domain.CallAttempt, error)
}

// Runner stands in for the telephony provider. Every originated call plays
// its scripted steps into the sink on the worker pool.
type Runner struct {
	logger     outbound.LoggerPort
	workerPool outbound.TaskDispatcher
	sink       EventSink
	scenario   Scenario

	wg    sync.WaitGroup
	mu    sync.Mutex
	calls map[string]*SimulatedCall
}

func NewRunner(workerPool outbound.TaskDispatcher, sink EventSink, scenario Scenario, logger outbound.LoggerPort) *Runner {
	return &Runner{
		logger:     logger,
		workerPool: workerPool,
		sink:       sink,
		scenario:   scenario,
		calls:      make(map[string]*SimulatedCall),
	}
}

func (r *Runner) Originate(ctx context.Context, req outbound.OriginateCallRequest) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", domain.NewUpstreamError(originateOp, 0, "call origination cancelled", err)
	}
	if r.scenario.Rejects(req.To) {
		return "", domain.NewUpstreamError(originateOp, 400, "number rejected by simulated provider", nil)
	}

	callback, err := url.Parse(req.CallbackURL)
	if err != nil {
		return "", domain.NewValidationError(originateOp, "invalid callback URL: %v", err)
	}

	call := &SimulatedCall{
		CallSid:   "SM" + uuid.NewString(),
		AttemptID: callback.Query().Get("attempt_id"),
		To:        req.To,
		MediaURL:  req.MediaURL,
		Steps:     r.scenario.StepsFor(req.To),
	}

	r.mu.Lock()
	r.calls[call.CallSid] = call
	r.mu.Unlock()

	r.wg.Add(1)
	playCtx := context.WithoutCancel(ctx)
	err = r.workerPool.Submit(func() {
		defer r.wg.Done()
		r.play(playCtx, call)
	})
	if err != nil {
		r.wg.Done()
		return "", domain.NewUpstreamError(originateOp, 0, "simulator could not schedule the call", err)
	}

	r.logger.InfoWithFields("Simulated call originated", map[string]interface{}{
		"call_sid": call.CallSid,
		"to":       req.To,
	})
	return call.CallSid, nil
}

func (r *Runner) play(ctx context.Context, call *SimulatedCall) {
	for _, step := range call.Steps {
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Duration(step.Delay) * time.Millisecond):
		}

		event := inbound.StatusEvent{
			AttemptID:      call.AttemptID,
			ProviderCallID: call.CallSid,
			RawState:       step.State,
			Timestamp:      time.Now().UTC(),
		}
		if _, err := r.sink.RecordEvent(ctx, event); err != nil {
			r.logger.ErrorWithFields(err, "Simulated callback rejected", map[string]interface{}{
				"call_sid": call.CallSid,
				"state":    step.State,
			})
		}

		r.mu.Lock()
		call.Delivered++
		r.mu.Unlock()
	}
}

// Calls returns a snapshot of every simulated call ordered by sid.
func (r *Runner) Calls() []SimulatedCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	calls := make([]SimulatedCall, 0, len(r.calls))
	for _, call := range r.calls {
		calls = append(calls, *call)
	}
	sort.Slice(calls, func(i, j int) bool {
		return calls[i].CallSid < calls[j].CallSid
	})
	return calls
}

// Wait blocks until every scheduled call has played its script.
func (r *Runner) Wait() {
	r.wg.Wait()
}
