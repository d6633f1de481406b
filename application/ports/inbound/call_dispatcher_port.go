package inbound

import (
	"context"
	"voice-campaign-api/domain"
)

type PlaceCallParams struct {
	ToNumber      string
	AudioRef      string
	CampaignID    string
	CustomerIndex int
}

// CallDispatcherPort places calls. The returned attempt is already tracked;
// when the provider rejects the call it comes back failed together with the
// error.
type CallDispatcherPort interface {
	Place(ctx context.Context, params PlaceCallParams) (domain.CallAttempt, error)
}
