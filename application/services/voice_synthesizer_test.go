package services

import (
	"context"
	"testing"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/adapters"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVoiceSynthesizer_ResolvesSelector(t *testing.T) {
	tests := []struct {
		selector string
		voiceID  string
	}{
		{selector: "Clara", voiceID: "XB0fDUnXU5powFXDhCwa"},
		{selector: "josh", voiceID: "TxGEqnHWrfWFTfGW9XjX"},
		{selector: "21m00Tcm4TlvDq8ikWAM", voiceID: "21m00Tcm4TlvDq8ikWAM"},
		{selector: "Unknown", voiceID: "EXAVITQu4vr4xnSDxMaL"},
		{selector: "", voiceID: "EXAVITQu4vr4xnSDxMaL"},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			speech := &fakeSpeech{}
			synthesizer := NewVoiceSynthesizer(adapters.NewNopLogger(), speech, VoiceCatalog, "Bella")

			artifact, err := synthesizer.Synthesize(context.Background(), domain.VoiceRequest{Text: "Merhaba", VoiceSelector: tt.selector})
			require.NoError(t, err)

			assert.Equal(t, tt.voiceID, artifact.VoiceID)
			assert.Equal(t, []string{tt.voiceID}, speech.voiceIDs)
		})
	}
}

func TestVoiceSynthesizer_Artifact(t *testing.T) {
	synthesizer := NewVoiceSynthesizer(adapters.NewNopLogger(), &fakeSpeech{}, VoiceCatalog, "Bella")

	artifact, err := synthesizer.Synthesize(context.Background(), domain.VoiceRequest{Text: "Merhaba", VoiceSelector: "Bella"})
	require.NoError(t, err)

	assert.NotEmpty(t, artifact.Ref)
	assert.Equal(t, "audio/mpeg", artifact.ContentType)
	assert.Len(t, artifact.Content, 32000)
	require.NotNil(t, artifact.Duration)
	assert.InDelta(t, 2.0, *artifact.Duration, 0.001)
}

func TestVoiceSynthesizer_Failures(t *testing.T) {
	speech := &fakeSpeech{}
	synthesizer := NewVoiceSynthesizer(adapters.NewNopLogger(), speech, VoiceCatalog, "Bella")

	_, err := synthesizer.Synthesize(context.Background(), domain.VoiceRequest{Text: "  "})
	assert.True(t, domain.IsKind(err, domain.ValidationErrorKind))
	assert.Zero(t, speech.calls.Load())

	speech.err = domain.NewConfigurationError("synthesize speech", "api key is not set")
	_, err = synthesizer.Synthesize(context.Background(), domain.VoiceRequest{Text: "Merhaba"})
	assert.True(t, domain.IsKind(err, domain.ConfigurationErrorKind))
}

func TestVoiceSynthesizer_ListVoices(t *testing.T) {
	synthesizer := NewVoiceSynthesizer(adapters.NewNopLogger(), &fakeSpeech{}, VoiceCatalog, "Bella")

	voices := synthesizer.ListVoices()
	require.Len(t, voices, len(VoiceCatalog))
	assert.Equal(t, "Adam", voices[0].Name)
	assert.Equal(t, "Rachel", voices[len(voices)-1].Name)
}
