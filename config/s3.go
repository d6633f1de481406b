package config

import (
	"fmt"
	"os"
	"time"
)

type S3Config struct {
	BucketName    string
	Region        string
	KeyPrefix     string
	PresignExpiry time.Duration
}

func GetS3Config() (*S3Config, error) {
	region := os.Getenv("REGION")
	if region == "" {
		return nil, fmt.Errorf("REGION must be set")
	}

	presignExpiry, err := getDurationEnv("S3_PRESIGN_EXPIRY", time.Hour)
	if err != nil {
		return nil, err
	}

	return &S3Config{
		BucketName:    getEnvOrDefault("BUCKET_NAME", ""),
		Region:        region,
		KeyPrefix:     getEnvOrDefault("S3_KEY_PREFIX", "campaigns"),
		PresignExpiry: presignExpiry,
	}, nil
}
