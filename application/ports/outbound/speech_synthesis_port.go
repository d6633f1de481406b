package outbound

import "context"

type SynthesizeSpeechRequest struct {
	Text    string
	VoiceID string
}

type SynthesizedSpeech struct {
	Content     []byte
	ContentType string
}

type SpeechSynthesisPort interface {
	Synthesize(ctx context.Context, req SynthesizeSpeechRequest) (*SynthesizedSpeech, error)
}
