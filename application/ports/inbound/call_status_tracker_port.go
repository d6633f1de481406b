package inbound

import (
	"context"
	"time"
	"voice-campaign-api/domain"
)

// StatusEvent is one lifecycle notification for a placed call. AttemptID is
// preferred for lookup; ProviderCallID is used when the callback did not carry
// the attempt id.
type StatusEvent struct {
	AttemptID      string
	ProviderCallID string
	RawState       string
	Timestamp      time.Time
}

type CallStatusTrackerPort interface {
	Register(ctx context.Context, attempt domain.CallAttempt) error
	RecordEvent(ctx context.Context, event StatusEvent) (domain.CallAttempt, error)
	BindProviderCall(ctx context.Context, attemptID string, providerCallID string) (domain.CallAttempt, error)
	MarkFailed(ctx context.Context, attemptID string, reason string) (domain.CallAttempt, error)
	Get(attemptID string) (domain.CallAttempt, error)
	Subscribe() (<-chan domain.AttemptUpdate, func())
}
