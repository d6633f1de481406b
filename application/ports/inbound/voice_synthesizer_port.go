package inbound

import (
	"context"
	"voice-campaign-api/domain"
)

type VoiceSynthesizerPort interface {
	Synthesize(ctx context.Context, req domain.VoiceRequest) (domain.AudioArtifact, error)
	ListVoices() []domain.Voice
}
