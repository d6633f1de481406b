package mock_telephony

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SimulatorController interface {
	ListCalls(c *gin.Context)
	RegisterRoutes(g *gin.Engine)
}

type simulatorController struct {
	runner *Runner
}

func NewSimulatorController(runner *Runner) SimulatorController {
	return &simulatorController{
		runner: runner,
	}
}

func (m *simulatorController) ListCalls(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"calls": m.runner.Calls()})
}

func (m *simulatorController) RegisterRoutes(g *gin.Engine) {
	g.GET("/simulator/calls", m.ListCalls)
}
