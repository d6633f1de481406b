package outbound

import (
	"context"
	"voice-campaign-api/domain"
)

type AudioStorePort interface {
	Save(ctx context.Context, artifact domain.AudioArtifact, campaignID string) (*domain.StoredAudio, error)
}
