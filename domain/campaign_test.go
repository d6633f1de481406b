package domain

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCampaign() *Campaign {
	return NewCampaign("c1", CampaignRequest{
		Customers: []CustomerRecord{{Index: 0, Name: "Ayşe"}, {Index: 1, Name: "Mehmet"}},
	}, time.Now())
}

func TestCampaign_ClaimAndComplete(t *testing.T) {
	campaign := newTestCampaign()

	require.True(t, campaign.Claim(0))
	assert.False(t, campaign.Claim(0), "pipeline already in flight")

	campaign.Complete(CustomerOutcome{CustomerIndex: 0, AttemptID: "a1"})
	assert.False(t, campaign.Claim(0), "customer owns a placed attempt")

	require.True(t, campaign.Claim(1))
	campaign.Complete(CustomerOutcome{CustomerIndex: 1, Stage: CallStage, Err: NewUpstreamError("originate call", 400, "rejected", nil)})

	failed := campaign.FailedCustomers()
	require.Len(t, failed, 1)
	assert.Equal(t, 1, failed[0].Index)
	assert.True(t, campaign.Claim(1), "failed customers can be claimed again")
	assert.Empty(t, campaign.FailedCustomers())

	outcomes := campaign.Outcomes()
	require.Len(t, outcomes, 2)
	assert.Equal(t, 0, outcomes[0].CustomerIndex)
}

func TestCampaign_Status(t *testing.T) {
	campaign := newTestCampaign()

	status, finishedAt := campaign.Status()
	assert.Equal(t, CampaignRunning, status)
	assert.True(t, finishedAt.IsZero())

	at := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	campaign.MarkFinished(at)
	status, finishedAt = campaign.Status()
	assert.Equal(t, CampaignFinished, status)
	assert.Equal(t, at, finishedAt)
	assert.Equal(t, 2, campaign.RunSize())
}

func TestCampaign_BeginRetry(t *testing.T) {
	campaign := newTestCampaign()
	require.True(t, campaign.Claim(0))
	campaign.Complete(CustomerOutcome{CustomerIndex: 0, AttemptID: "a1"})
	require.True(t, campaign.Claim(1))
	campaign.Complete(CustomerOutcome{CustomerIndex: 1, Stage: ScriptStage, Err: NewUpstreamError("complete prompt", 503, "busy", nil)})

	_, err := campaign.BeginRetry()
	assert.True(t, IsKind(err, ValidationErrorKind), "campaign still running")

	campaign.MarkFinished(time.Now())

	var (
		wg      sync.WaitGroup
		winners atomic.Int32
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if failed, err := campaign.BeginRetry(); err == nil {
				winners.Add(1)
				assert.Len(t, failed, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), winners.Load())
	assert.Equal(t, 1, campaign.RunSize())
	status, finishedAt := campaign.Status()
	assert.Equal(t, CampaignRunning, status)
	assert.True(t, finishedAt.IsZero())
}

func TestCampaign_Watch(t *testing.T) {
	campaign := newTestCampaign()
	outcomes, stop := campaign.Watch(4)
	_, stopped := campaign.Watch(4)
	stopped()
	stopped()

	campaign.Complete(CustomerOutcome{CustomerIndex: 0, AttemptID: "a1"})
	campaign.MarkFinished(time.Now())

	first, ok := <-outcomes
	require.True(t, ok)
	assert.Equal(t, "a1", first.AttemptID)
	_, ok = <-outcomes
	assert.False(t, ok, "finishing the run closes watchers")
	stop()

	late, _ := campaign.Watch(4)
	_, ok = <-late
	assert.False(t, ok)
}
