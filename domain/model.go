package domain

type CustomerRecord struct {
	Index      int               `json:"index"`
	Name       string            `json:"name"`
	Phone      string            `json:"phone"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

type CharacterProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ScriptRequest struct {
	CharacterName        string
	CharacterDescription string
	FlowPrompt           string
}

func NewScriptRequest(profile CharacterProfile, flowPrompt string) ScriptRequest {
	return ScriptRequest{
		CharacterName:        profile.Name,
		CharacterDescription: profile.Description,
		FlowPrompt:           flowPrompt,
	}
}

type Script struct {
	Text string `json:"text"`
}

type VoiceRequest struct {
	Text          string
	VoiceSelector string
}

// AudioArtifact holds synthesized audio. Ref only identifies the bytes
// locally; the artifact has to go through an audio store before a call can
// play it.
type AudioArtifact struct {
	Ref         string
	VoiceID     string
	ContentType string
	Content     []byte
	Duration    *float64
}

type StoredAudio struct {
	Key string `json:"key"`
	URL string `json:"url"`
}

type Voice struct {
	Name    string `json:"name"`
	VoiceID string `json:"voice_id"`
	Label   string `json:"label"`
}
