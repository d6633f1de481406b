package outbound

import "context"

type OriginateCallRequest struct {
	To          string
	MediaURL    string
	CallbackURL string
}

type TelephonyPort interface {
	Originate(ctx context.Context, req OriginateCallRequest) (string, error)
}
