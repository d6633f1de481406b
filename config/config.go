package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
)

// Config is built once at start-up and handed to each adapter.
type Config struct {
	Port       string
	LogLevel   string
	Gpt        *GptConfig
	ElevenLabs *ElevenLabsConfig
	Twilio     *TwilioConfig
	S3         *S3Config
	Dynamo     *DynamoConfig
	Auth       *AuthConfig
	Campaign   *CampaignConfig
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file: %w", err)
	}

	gptConfig, err := GetGptConfig()
	if err != nil {
		return nil, err
	}
	elevenLabsConfig, err := GetElevenLabsConfig()
	if err != nil {
		return nil, err
	}
	twilioConfig, err := GetTwilioConfig()
	if err != nil {
		return nil, err
	}
	s3Config, err := GetS3Config()
	if err != nil {
		return nil, err
	}
	dynamoConfig, err := GetDynamoConfig()
	if err != nil {
		return nil, err
	}
	authConfig, err := GetAuthConfig()
	if err != nil {
		return nil, err
	}
	campaignConfig, err := GetCampaignConfig()
	if err != nil {
		return nil, err
	}

	return &Config{
		Port:       getEnvOrDefault("PORT", "8080"),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "info"),
		Gpt:        gptConfig,
		ElevenLabs: elevenLabsConfig,
		Twilio:     twilioConfig,
		S3:         s3Config,
		Dynamo:     dynamoConfig,
		Auth:       authConfig,
		Campaign:   campaignConfig,
	}, nil
}
