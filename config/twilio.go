package config

import (
	"fmt"
	"strings"
)

const (
	TwilioTelephonyMode    = "twilio"
	SimulatedTelephonyMode = "simulated"
)

type TwilioConfig struct {
	Mode              string
	AccountSid        string
	AuthToken         string
	CallerNumber      string
	PublicBaseURL     string
	ValidateSignature bool
	SimulationFile    string
}

func (c *TwilioConfig) StatusCallbackURL() string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/calls/status"
}

func GetTwilioConfig() (*TwilioConfig, error) {
	mode := strings.ToLower(getEnvOrDefault("TELEPHONY_MODE", TwilioTelephonyMode))
	if mode != TwilioTelephonyMode && mode != SimulatedTelephonyMode {
		return nil, fmt.Errorf("TELEPHONY_MODE must be %q or %q", TwilioTelephonyMode, SimulatedTelephonyMode)
	}

	validate, err := getBoolEnv("TWILIO_VALIDATE_SIGNATURE", false)
	if err != nil {
		return nil, err
	}

	publicBaseURL := getEnvOrDefault("PUBLIC_BASE_URL", "")
	if publicBaseURL == "" && mode == TwilioTelephonyMode {
		return nil, fmt.Errorf("PUBLIC_BASE_URL must be set so the provider can deliver status callbacks")
	}

	return &TwilioConfig{
		Mode:              mode,
		AccountSid:        getEnvOrDefault("TWILIO_ACCOUNT_SID", ""),
		AuthToken:         getEnvOrDefault("TWILIO_AUTH_TOKEN", ""),
		CallerNumber:      getEnvOrDefault("TWILIO_CALLER_NUMBER", getEnvOrDefault("TWILIO_PHONE_NUMBER", "")),
		PublicBaseURL:     publicBaseURL,
		ValidateSignature: validate,
		SimulationFile:    getEnvOrDefault("TELEPHONY_SIMULATION_FILE", ""),
	}, nil
}
