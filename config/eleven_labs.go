package config

import "fmt"

const (
	defaultElevenLabsApiUrl  = "https://api.elevenlabs.io/v1/text-to-speech"
	defaultElevenLabsModelId = "eleven_multilingual_v2"
	defaultElevenLabsVoice   = "Bella"
)

type ElevenLabsConfig struct {
	ApiUrl          string
	ApiKey          string
	ModelId         string
	DefaultVoice    string
	Stability       float64
	SimilarityBoost float64
}

func GetElevenLabsConfig() (*ElevenLabsConfig, error) {
	stability, err := getFloatEnv("ELEVEN_LABS_STABILITY", 0.5)
	if err != nil {
		return nil, err
	}
	similarityBoost, err := getFloatEnv("ELEVEN_LABS_SIMILARITY_BOOST", 0.75)
	if err != nil {
		return nil, err
	}
	if stability < 0 || stability > 1 || similarityBoost < 0 || similarityBoost > 1 {
		return nil, fmt.Errorf("eleven labs stability and similarity boost must be within [0, 1]")
	}

	return &ElevenLabsConfig{
		ApiUrl:          getEnvOrDefault("ELEVEN_LABS_API_URL", defaultElevenLabsApiUrl),
		ApiKey:          getEnvOrDefault("ELEVEN_LABS_API_KEY", getEnvOrDefault("ELEVENLABS_API_KEY", "")),
		ModelId:         getEnvOrDefault("ELEVEN_LABS_MODEL_ID", defaultElevenLabsModelId),
		DefaultVoice:    getEnvOrDefault("ELEVEN_LABS_DEFAULT_VOICE", defaultElevenLabsVoice),
		Stability:       stability,
		SimilarityBoost: similarityBoost,
	}, nil
}
