package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
)

type goroutineDispatcher struct{}

func (goroutineDispatcher) Submit(task func()) error {
	go task()
	return nil
}

type rejectingDispatcher struct{}

func (rejectingDispatcher) Submit(func()) error {
	return errors.New("pool overloaded")
}

type fakeLanguageModel struct {
	calls    atomic.Int32
	reply    func(req outbound.CompletionRequest) (string, error)
	mu       sync.Mutex
	requests []outbound.CompletionRequest
}

func (f *fakeLanguageModel) Complete(_ context.Context, req outbound.CompletionRequest) (string, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.reply != nil {
		return f.reply(req)
	}
	return "Hello from the campaign.", nil
}

type fakeSpeech struct {
	calls    atomic.Int32
	err      error
	mu       sync.Mutex
	voiceIDs []string
}

func (f *fakeSpeech) Synthesize(_ context.Context, req outbound.SynthesizeSpeechRequest) (*outbound.SynthesizedSpeech, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.voiceIDs = append(f.voiceIDs, req.VoiceID)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &outbound.SynthesizedSpeech{Content: make([]byte, 32000), ContentType: "audio/mpeg"}, nil
}

type fakeAudioStore struct {
	calls atomic.Int32
	err   error
}

func (f *fakeAudioStore) Save(_ context.Context, artifact domain.AudioArtifact, campaignID string) (*domain.StoredAudio, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	key := "campaigns/" + campaignID + "/audio/" + artifact.Ref + ".mp3"
	return &domain.StoredAudio{Key: key, URL: "https://audio.example.com/" + key}, nil
}

type fakeTelephony struct {
	mu       sync.Mutex
	requests []outbound.OriginateCallRequest
	reject   map[string]error
	next     atomic.Int32
}

func (f *fakeTelephony) Originate(_ context.Context, req outbound.OriginateCallRequest) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	err := f.reject[req.To]
	f.mu.Unlock()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("CA%04d", f.next.Add(1)), nil
}

func (f *fakeTelephony) originated() []outbound.OriginateCallRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]outbound.OriginateCallRequest, len(f.requests))
	copy(out, f.requests)
	return out
}

type memoryRecorder struct {
	mu    sync.Mutex
	saved map[string]domain.CallAttempt
	err   error
}

func newMemoryRecorder() *memoryRecorder {
	return &memoryRecorder{saved: make(map[string]domain.CallAttempt)}
}

func (r *memoryRecorder) Save(_ context.Context, attempt domain.CallAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved[attempt.ID] = attempt.Clone()
	return r.err
}

func (r *memoryRecorder) get(id string) (domain.CallAttempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	attempt, ok := r.saved[id]
	return attempt, ok
}
