package mock_telephony

import (
	"voice-campaign-api/application/ports/outbound"

	"github.com/gin-gonic/gin"
)

// Init builds the simulated provider from a scenario file and exposes its
// call log on the router.
func Init(g *gin.Engine, workerPool outbound.TaskDispatcher, sink EventSink, scenarioFile string,
	logger outbound.LoggerPort) (*Runner, error) {
	scenario, err := NewFileScenarioReader(logger).Read(scenarioFile)
	if err != nil {
		return nil, err
	}
	runner := NewRunner(workerPool, sink, scenario, logger)
	NewSimulatorController(runner).RegisterRoutes(g)

	logger.Info("Telephony simulator enabled")
	return runner, nil
}
