package inbound

import (
	"context"
	"voice-campaign-api/domain"
)

type CampaignOrchestratorPort interface {
	Run(ctx context.Context, req domain.CampaignRequest) (*domain.Campaign, error)
	Start(ctx context.Context, req domain.CampaignRequest) (*domain.Campaign, <-chan domain.CustomerOutcome, error)
	Retry(ctx context.Context, campaignID string) (*domain.Campaign, <-chan domain.CustomerOutcome, error)
}

type CampaignRegistryPort interface {
	Add(campaign *domain.Campaign)
	Get(campaignID string) (*domain.Campaign, error)
}
