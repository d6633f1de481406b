package services

import (
	"sync"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/domain"
)

type campaignRegistry struct {
	mu        sync.RWMutex
	campaigns map[string]*domain.Campaign
}

func NewCampaignRegistry() inbound.CampaignRegistryPort {
	return &campaignRegistry{campaigns: make(map[string]*domain.Campaign)}
}

func (r *campaignRegistry) Add(campaign *domain.Campaign) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.campaigns[campaign.ID] = campaign
}

func (r *campaignRegistry) Get(campaignID string) (*domain.Campaign, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	campaign, ok := r.campaigns[campaignID]
	if !ok {
		return nil, domain.NewNotFoundError("get campaign", "campaign %q does not exist", campaignID)
	}
	return campaign, nil
}
