package mock_telephony

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/application/services"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/adapters"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type goroutineDispatcher struct{}

func (goroutineDispatcher) Submit(task func()) error {
	go task()
	return nil
}

type nopRecorder struct{}

func (nopRecorder) Save(context.Context, domain.CallAttempt) error {
	return nil
}

func TestRunner_PlaysScenarioIntoTracker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	logger := adapters.NewNopLogger()
	tracker := services.NewCallStatusTracker(logger, nopRecorder{}, 8)
	scenario := Scenario{
		Default: []ScenarioStep{
			{State: "queued"},
			{State: "ringing", Delay: 5},
			{State: "in-progress", Delay: 5},
			{State: "completed", Delay: 5},
		},
		Numbers: map[string][]ScenarioStep{
			"+905334445566": {{State: "ringing"}, {State: "busy", Delay: 5}},
		},
	}
	runner := NewRunner(goroutineDispatcher{}, tracker, scenario, logger)
	dispatcher := services.NewCallDispatcher(logger, runner, tracker, "http://localhost:8080/calls/status")

	var attemptIDs []string
	for _, number := range []string{"+905321112233", "+905334445566"} {
		attempt, err := dispatcher.Place(context.Background(), inboundParams(number))
		require.NoError(t, err)
		attemptIDs = append(attemptIDs, attempt.ID)
	}
	runner.Wait()

	completed, err := tracker.Get(attemptIDs[0])
	require.NoError(t, err)
	assert.Equal(t, domain.CallCompleted, completed.State)
	assert.Len(t, completed.History, 4)

	busy, err := tracker.Get(attemptIDs[1])
	require.NoError(t, err)
	assert.Equal(t, domain.CallFailed, busy.State)
	assert.Equal(t, "busy", busy.FailureReason)

	calls := runner.Calls()
	require.Len(t, calls, 2)
	for _, call := range calls {
		assert.Equal(t, len(call.Steps), call.Delivered)
		assert.NotEmpty(t, call.AttemptID)
	}
}

func TestRunner_RejectsScriptedNumbers(t *testing.T) {
	runner := NewRunner(goroutineDispatcher{}, nil, Scenario{Rejected: []string{"+905321112233"}}, adapters.NewNopLogger())

	_, err := runner.Originate(context.Background(), outbound.OriginateCallRequest{
		To:          "+905321112233",
		MediaURL:    "https://audio.example.com/a.mp3",
		CallbackURL: "http://localhost/calls/status?attempt_id=a",
	})
	require.Error(t, err)
	assert.Equal(t, 400, domain.AsError(err).Status)
	assert.Empty(t, runner.Calls())
}

func TestFileScenarioReader(t *testing.T) {
	reader := NewFileScenarioReader(adapters.NewNopLogger())

	scenario, err := reader.Read("")
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario, scenario)

	file := filepath.Join(t.TempDir(), "scenario.json")
	require.NoError(t, os.WriteFile(file, []byte(`{"numbers":{"+905321112233":[{"state":"failed","delay":10}]},"rejected":["+15550000000"]}`), 0o600))

	scenario, err = reader.Read(file)
	require.NoError(t, err)
	assert.Equal(t, DefaultScenario.Default, scenario.Default)
	assert.Equal(t, []ScenarioStep{{State: "failed", Delay: 10}}, scenario.StepsFor("+905321112233"))
	assert.True(t, scenario.Rejects("+15550000000"))

	_, err = reader.Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSimulatorController_ListCalls(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	runner, err := Init(router, goroutineDispatcher{}, nil, "", adapters.NewNopLogger())
	require.NoError(t, err)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/simulator/calls", nil))

	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.JSONEq(t, `{"calls":[]}`, recorder.Body.String())
	assert.Empty(t, runner.Calls())
}

func inboundParams(number string) inbound.PlaceCallParams {
	return inbound.PlaceCallParams{
		ToNumber: number,
		AudioRef: "https://audio.example.com/a.mp3",
	}
}
