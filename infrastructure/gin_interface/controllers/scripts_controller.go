package controllers

import (
	"net/http"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
)

type ScriptsController interface {
	Generate(c *gin.Context)
	RegisterRoutes(g gin.IRoutes)
}

type scriptsController struct {
	logger  outbound.LoggerPort
	scripts inbound.ScriptGeneratorPort
}

func NewScriptsController(logger outbound.LoggerPort, scripts inbound.ScriptGeneratorPort) ScriptsController {
	return &scriptsController{
		logger:  logger,
		scripts: scripts,
	}
}

func (s *scriptsController) Generate(c *gin.Context) {
	var request dto.GenerateScriptRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithBindError(c, err)
		return
	}

	script, err := s.scripts.Generate(c.Request.Context(), domain.ScriptRequest{
		CharacterName:        request.CharacterName,
		CharacterDescription: request.CharacterDescription,
		FlowPrompt:           request.FlowPrompt,
	})
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateScriptResponse{Script: script.Text})
}

func (s *scriptsController) RegisterRoutes(g gin.IRoutes) {
	g.POST("/scripts", s.Generate)
}
