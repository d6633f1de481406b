package outbound

import (
	"context"
	"voice-campaign-api/domain"
)

type AttemptRecorderPort interface {
	Save(ctx context.Context, attempt domain.CallAttempt) error
}
