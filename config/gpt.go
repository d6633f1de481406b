package config

const (
	defaultGptApiUrl       = "https://api.openai.com/v1/chat/completions"
	defaultGptModel        = "gpt-4"
	defaultGptSystemPrompt = "You are a sales-oriented voice assistant. Write a short, natural phone script."
)

// GptConfig configures the chat-completion capability. An empty ApiKey is
// allowed here; script generation reports it per request.
type GptConfig struct {
	ApiUrl       string
	ApiKey       string
	Model        string
	SystemPrompt string
}

func GetGptConfig() (*GptConfig, error) {
	return &GptConfig{
		ApiUrl:       getEnvOrDefault("GPT_API_URL", defaultGptApiUrl),
		ApiKey:       getEnvOrDefault("GPT_API_KEY", getEnvOrDefault("OPENAI_API_KEY", "")),
		Model:        getEnvOrDefault("GPT_MODEL", defaultGptModel),
		SystemPrompt: getEnvOrDefault("GPT_SYSTEM_PROMPT", defaultGptSystemPrompt),
	}, nil
}
