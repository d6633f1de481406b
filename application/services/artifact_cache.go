package services

import (
	"strconv"
	"sync"
	"voice-campaign-api/domain"

	"golang.org/x/sync/singleflight"
)

type campaignArtifact struct {
	Script domain.Script
	Audio  domain.StoredAudio
}

type stagedError struct {
	stage domain.Stage
	err   error
}

func (e *stagedError) Error() string {
	return string(e.stage) + ": " + e.err.Error()
}

func (e *stagedError) Unwrap() error {
	return e.err
}

// artifactCache shares script and audio between customers whose rendered
// prompt and voice are identical. Failures are cached too, so a rejected
// generation is not repeated for every customer of the run.
type artifactCache struct {
	shared bool
	group  singleflight.Group

	mu      sync.Mutex
	results map[string]artifactResult
}

type artifactResult struct {
	artifact campaignArtifact
	err      error
}

func newArtifactCache(shared bool) *artifactCache {
	return &artifactCache{
		shared:  shared,
		results: make(map[string]artifactResult),
	}
}

func (c *artifactCache) key(prompt string, voice string, customerIndex int) string {
	key := voice + "\x00" + prompt
	if !c.shared {
		key = strconv.Itoa(customerIndex) + "\x00" + key
	}
	return key
}

func (c *artifactCache) get(key string, produce func() (campaignArtifact, error)) (campaignArtifact, error) {
	c.mu.Lock()
	if result, ok := c.results[key]; ok {
		c.mu.Unlock()
		return result.artifact, result.err
	}
	c.mu.Unlock()

	value, err, _ := c.group.Do(key, func() (interface{}, error) {
		artifact, err := produce()
		c.mu.Lock()
		c.results[key] = artifactResult{artifact: artifact, err: err}
		c.mu.Unlock()
		return artifact, err
	})
	if err != nil {
		return campaignArtifact{}, err
	}
	return value.(campaignArtifact), nil
}
