package dto

import "voice-campaign-api/domain"

type GenerateVoiceRequest struct {
	Text  string `json:"text" binding:"required"`
	Voice string `json:"voice"`
}

type GenerateVoiceResponse struct {
	AudioURL string   `json:"audio_url"`
	Key      string   `json:"key"`
	VoiceID  string   `json:"voice_id"`
	Duration *float64 `json:"duration_seconds,omitempty"`
}

type ListVoicesResponse struct {
	Voices []domain.Voice `json:"voices"`
}
