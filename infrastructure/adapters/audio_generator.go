package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"
)

const synthesizeOp = "synthesize speech"

type ElevenLabsRequest struct {
	Text          string        `json:"text"`
	ModelId       string        `json:"model_id,omitempty"`
	VoiceSettings VoiceSettings `json:"voice_settings"`
}

type VoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

type audioGenerator struct {
	ContentFetcher
	elevenLabsConfig *config.ElevenLabsConfig
	logger           outbound.LoggerPort
}

func NewAudioGenerator(contentFetcher ContentFetcher, elevenLabsConfig *config.ElevenLabsConfig, logger outbound.LoggerPort) outbound.SpeechSynthesisPort {
	return &audioGenerator{
		ContentFetcher:   contentFetcher,
		elevenLabsConfig: elevenLabsConfig,
		logger:           logger,
	}
}

func (a *audioGenerator) Synthesize(ctx context.Context, params outbound.SynthesizeSpeechRequest) (*outbound.SynthesizedSpeech, error) {
	if a.elevenLabsConfig.ApiKey == "" {
		return nil, domain.NewConfigurationError(synthesizeOp, "ELEVEN_LABS_API_KEY is not configured")
	}

	req, err := a.getRequest(ctx, params.Text, params.VoiceID)
	if err != nil {
		a.logger.ErrorWithFields(err, "Failed to construct the HTTP request for audio fetching", map[string]interface{}{
			"action":   "Fetching Audio",
			"voice_id": params.VoiceID,
		})
		return nil, err
	}

	content, header, err := a.FetchContent(synthesizeOp, req)
	if err != nil {
		return nil, err
	}

	contentType := header.Get("Content-Type")
	if contentType == "" {
		contentType = "audio/mpeg"
	}

	return &outbound.SynthesizedSpeech{
		Content:     content,
		ContentType: contentType,
	}, nil
}

func (a *audioGenerator) getRequest(ctx context.Context, text string, voiceID string) (*http.Request, error) {
	reqBody := ElevenLabsRequest{
		Text:    text,
		ModelId: a.elevenLabsConfig.ModelId,
		VoiceSettings: VoiceSettings{
			Stability:       a.elevenLabsConfig.Stability,
			SimilarityBoost: a.elevenLabsConfig.SimilarityBoost,
		},
	}

	jsonPayload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, err
	}

	url := strings.TrimRight(a.elevenLabsConfig.ApiUrl, "/") + "/" + voiceID
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	reqHeaders := map[string]string{
		"Accept":       "audio/mpeg",
		"xi-api-key":   a.elevenLabsConfig.ApiKey,
		"Content-Type": "application/json",
	}
	for key, value := range reqHeaders {
		req.Header.Add(key, value)
	}

	return req, nil
}
