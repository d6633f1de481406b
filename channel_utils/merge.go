package channel_utils

import (
	"context"
	"sync"
	"voice-campaign-api/application/ports/outbound"
)

// MergeChannels fans the given channels into one. Forwarding stops when ctx
// is cancelled; the merged channel is closed once every forwarder returned.
func MergeChannels[T any](ctx context.Context, workerPool outbound.TaskDispatcher, channels ...<-chan T) (<-chan T, error) {
	var wg sync.WaitGroup
	merged := make(chan T)

	forward := func(c <-chan T) {
		defer wg.Done()
		for val := range c {
			select {
			case merged <- val:
			case <-ctx.Done():
				return
			}
		}
	}

	wg.Add(len(channels))
	for i, c := range channels {
		ch := c
		if err := workerPool.Submit(func() { forward(ch) }); err != nil {
			wg.Add(i - len(channels))
			go func() {
				wg.Wait()
				close(merged)
			}()
			return nil, err
		}
	}

	err := workerPool.Submit(func() {
		wg.Wait()
		close(merged)
	})
	if err != nil {
		go func() {
			wg.Wait()
			close(merged)
		}()
		return nil, err
	}

	return merged, nil
}
