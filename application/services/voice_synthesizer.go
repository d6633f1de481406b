package services

import (
	"context"
	"sort"
	"strings"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"github.com/google/uuid"
)

const (
	synthesizeVoiceOp = "synthesize voice"
	// mp3 output is requested at 128 kbit/s, which gives a duration estimate
	// without decoding.
	mpegBytesPerSecond = 128000 / 8
)

// VoiceCatalog lists the selectable voices by display name.
var VoiceCatalog = []domain.Voice{
	{Name: "Bella", VoiceID: "EXAVITQu4vr4xnSDxMaL", Label: "female, warm"},
	{Name: "Clara", VoiceID: "XB0fDUnXU5powFXDhCwa", Label: "female, corporate"},
	{Name: "Rachel", VoiceID: "21m00Tcm4TlvDq8ikWAM", Label: "female, clear"},
	{Name: "Adam", VoiceID: "pNInz6obpgDQGcFmaJgB", Label: "male, calm"},
	{Name: "Josh", VoiceID: "TxGEqnHWrfWFTfGW9XjX", Label: "male, dynamic"},
}

type voiceSynthesizer struct {
	logger       outbound.LoggerPort
	speech       outbound.SpeechSynthesisPort
	voices       map[string]domain.Voice
	voiceIDs     map[string]bool
	defaultVoice domain.Voice
}

func NewVoiceSynthesizer(logger outbound.LoggerPort, speech outbound.SpeechSynthesisPort, catalog []domain.Voice,
	defaultVoiceName string) inbound.VoiceSynthesizerPort {
	voices := make(map[string]domain.Voice, len(catalog))
	voiceIDs := make(map[string]bool, len(catalog))
	for _, voice := range catalog {
		voices[strings.ToLower(voice.Name)] = voice
		voiceIDs[voice.VoiceID] = true
	}

	defaultVoice, ok := voices[strings.ToLower(defaultVoiceName)]
	if !ok && len(catalog) > 0 {
		defaultVoice = catalog[0]
	}

	return &voiceSynthesizer{
		logger:       logger,
		speech:       speech,
		voices:       voices,
		voiceIDs:     voiceIDs,
		defaultVoice: defaultVoice,
	}
}

func (s *voiceSynthesizer) Synthesize(ctx context.Context, req domain.VoiceRequest) (domain.AudioArtifact, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return domain.AudioArtifact{}, domain.NewValidationError(synthesizeVoiceOp, "text must not be empty")
	}

	voiceID := s.resolveVoice(req.VoiceSelector)

	speech, err := s.speech.Synthesize(ctx, outbound.SynthesizeSpeechRequest{
		Text:    text,
		VoiceID: voiceID,
	})
	if err != nil {
		return domain.AudioArtifact{}, err
	}
	if len(speech.Content) == 0 {
		return domain.AudioArtifact{}, domain.NewUpstreamError(synthesizeVoiceOp, 0, "speech synthesis returned no audio", nil)
	}

	artifact := domain.AudioArtifact{
		Ref:         uuid.NewString(),
		VoiceID:     voiceID,
		ContentType: speech.ContentType,
		Content:     speech.Content,
	}
	if strings.HasPrefix(speech.ContentType, "audio/mpeg") {
		duration := float64(len(speech.Content)) / mpegBytesPerSecond
		artifact.Duration = &duration
	}

	s.logger.DebugWithFields("Voice synthesized", map[string]interface{}{
		"ref":      artifact.Ref,
		"voice_id": voiceID,
		"bytes":    len(speech.Content),
	})
	return artifact, nil
}

// resolveVoice maps a display name or a known provider id to a provider id.
// Unknown selectors use the default voice instead of failing.
func (s *voiceSynthesizer) resolveVoice(selector string) string {
	selector = strings.TrimSpace(selector)
	if voice, ok := s.voices[strings.ToLower(selector)]; ok {
		return voice.VoiceID
	}
	if s.voiceIDs[selector] {
		return selector
	}

	s.logger.WarnWithFields("Unknown voice selector, using default voice", map[string]interface{}{
		"selector": selector,
		"default":  s.defaultVoice.Name,
	})
	return s.defaultVoice.VoiceID
}

func (s *voiceSynthesizer) ListVoices() []domain.Voice {
	voices := make([]domain.Voice, 0, len(s.voices))
	for _, voice := range s.voices {
		voices = append(voices, voice)
	}
	sort.Slice(voices, func(i, j int) bool {
		return voices[i].Name < voices[j].Name
	})
	return voices
}
