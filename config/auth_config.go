package config

import "os"

type AuthConfig struct {
	JwksURL string
}

func (c *AuthConfig) Enabled() bool {
	return c.JwksURL != ""
}

func GetAuthConfig() (*AuthConfig, error) {
	return &AuthConfig{
		JwksURL: os.Getenv("JWKS_URL"),
	}, nil
}
