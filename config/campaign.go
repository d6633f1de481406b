package config

import (
	"fmt"
	"time"
)

type CampaignConfig struct {
	WorkerPoolSize    int
	PipelineWorkers   int
	HttpTimeout       time.Duration
	MaxUploadBytes    int64
	ReuseArtifacts    bool
	SSEHeartbeat      time.Duration
	SubscriberBacklog int
	// StreamWorkers bounds the goroutines serving campaign event streams.
	StreamWorkers int
}

func GetCampaignConfig() (*CampaignConfig, error) {
	workerPoolSize, err := getIntEnv("WORKER_POOL_SIZE", 120)
	if err != nil {
		return nil, err
	}
	pipelineWorkers, err := getIntEnv("CAMPAIGN_WORKERS", 8)
	if err != nil {
		return nil, err
	}
	if workerPoolSize <= 0 || pipelineWorkers <= 0 {
		return nil, fmt.Errorf("WORKER_POOL_SIZE and CAMPAIGN_WORKERS must be positive")
	}
	httpTimeout, err := getDurationEnv("HTTP_CLIENT_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}
	maxUploadMB, err := getIntEnv("MAX_UPLOAD_MB", 10)
	if err != nil {
		return nil, err
	}
	reuse, err := getBoolEnv("CAMPAIGN_REUSE_ARTIFACTS", true)
	if err != nil {
		return nil, err
	}
	heartbeat, err := getDurationEnv("SSE_HEARTBEAT", 15*time.Second)
	if err != nil {
		return nil, err
	}
	backlog, err := getIntEnv("SUBSCRIBER_BACKLOG", 64)
	if err != nil {
		return nil, err
	}
	streamWorkers, err := getIntEnv("SSE_STREAM_WORKERS", 500)
	if err != nil {
		return nil, err
	}
	if streamWorkers <= 0 {
		return nil, fmt.Errorf("SSE_STREAM_WORKERS must be positive")
	}

	return &CampaignConfig{
		WorkerPoolSize:    workerPoolSize,
		PipelineWorkers:   pipelineWorkers,
		HttpTimeout:       httpTimeout,
		MaxUploadBytes:    int64(maxUploadMB) << 20,
		ReuseArtifacts:    reuse,
		SSEHeartbeat:      heartbeat,
		SubscriberBacklog: backlog,
		StreamWorkers:     streamWorkers,
	}, nil
}
