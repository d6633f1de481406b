package controllers

import (
	"net/http"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
)

type VoicesController interface {
	List(c *gin.Context)
	Generate(c *gin.Context)
	RegisterRoutes(g gin.IRoutes)
}

type voicesController struct {
	logger     outbound.LoggerPort
	voices     inbound.VoiceSynthesizerPort
	audioStore outbound.AudioStorePort
}

func NewVoicesController(logger outbound.LoggerPort, voices inbound.VoiceSynthesizerPort, audioStore outbound.AudioStorePort) VoicesController {
	return &voicesController{
		logger:     logger,
		voices:     voices,
		audioStore: audioStore,
	}
}

func (s *voicesController) List(c *gin.Context) {
	c.JSON(http.StatusOK, dto.ListVoicesResponse{Voices: s.voices.ListVoices()})
}

// Generate synthesizes the text and uploads it, returning a URL a call can
// play.
func (s *voicesController) Generate(c *gin.Context) {
	var request dto.GenerateVoiceRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithBindError(c, err)
		return
	}

	artifact, err := s.voices.Synthesize(c.Request.Context(), domain.VoiceRequest{
		Text:          request.Text,
		VoiceSelector: request.Voice,
	})
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	stored, err := s.audioStore.Save(c.Request.Context(), artifact, "")
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.GenerateVoiceResponse{
		AudioURL: stored.URL,
		Key:      stored.Key,
		VoiceID:  artifact.VoiceID,
		Duration: artifact.Duration,
	})
}

func (s *voicesController) RegisterRoutes(g gin.IRoutes) {
	g.GET("/voices", s.List)
	g.POST("/voices", s.Generate)
}
