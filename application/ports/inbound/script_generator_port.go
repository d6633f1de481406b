package inbound

import (
	"context"
	"voice-campaign-api/domain"
)

type ScriptGeneratorPort interface {
	Generate(ctx context.Context, req domain.ScriptRequest) (domain.Script, error)
}
