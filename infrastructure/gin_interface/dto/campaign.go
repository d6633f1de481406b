package dto

import (
	"time"
	"voice-campaign-api/domain"
)

type StartCampaignResponse struct {
	CampaignID string `json:"campaign_id"`
	Status     string `json:"status"`
	Customers  int    `json:"customers"`
}

type CampaignReport struct {
	CampaignID string           `json:"campaign_id"`
	Status     string           `json:"status"`
	CreatedAt  time.Time        `json:"created_at"`
	FinishedAt *time.Time       `json:"finished_at,omitempty"`
	Customers  []CustomerReport `json:"customers"`
}

// CustomerReport joins a customer with its pipeline outcome and, once a call
// was placed, the attempt's current state.
type CustomerReport struct {
	Index         int           `json:"index"`
	Name          string        `json:"name"`
	Phone         string        `json:"phone"`
	Stage         string        `json:"stage,omitempty"`
	Error         *domain.Error `json:"error,omitempty"`
	AttemptID     string        `json:"attempt_id,omitempty"`
	AudioURL      string        `json:"audio_url,omitempty"`
	CallState     string        `json:"call_state,omitempty"`
	FailureReason string        `json:"failure_reason,omitempty"`
	Pending       bool          `json:"pending,omitempty"`
}
