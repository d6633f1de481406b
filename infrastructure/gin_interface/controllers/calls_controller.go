package controllers

import (
	"net/http"
	"strings"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"

	"github.com/gin-gonic/gin"
)

const statusCallbackOp = "status callback"

var callbackTimeLayouts = []string{time.RFC1123Z, time.RFC1123, time.RFC3339Nano}

type CallsController interface {
	Place(c *gin.Context)
	Get(c *gin.Context)
	StatusCallback(c *gin.Context)
	RegisterRoutes(g gin.IRoutes, webhookMiddleware ...gin.HandlerFunc)
}

type callsController struct {
	logger     outbound.LoggerPort
	dispatcher inbound.CallDispatcherPort
	tracker    inbound.CallStatusTrackerPort
}

func NewCallsController(logger outbound.LoggerPort, dispatcher inbound.CallDispatcherPort, tracker inbound.CallStatusTrackerPort) CallsController {
	return &callsController{
		logger:     logger,
		dispatcher: dispatcher,
		tracker:    tracker,
	}
}

func (s *callsController) Place(c *gin.Context) {
	var request dto.PlaceCallRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		abortWithBindError(c, err)
		return
	}

	attempt, err := s.dispatcher.Place(c.Request.Context(), inbound.PlaceCallParams{
		ToNumber: request.ToNumber,
		AudioRef: request.AudioURL,
	})
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusCreated, attempt)
}

func (s *callsController) Get(c *gin.Context) {
	attempt, err := s.tracker.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, attempt)
}

// StatusCallback accepts provider form posts (CallSid, CallStatus,
// Timestamp) as well as JSON bodies. The attempt id travels in the query
// string of the callback URL registered at origination.
func (s *callsController) StatusCallback(c *gin.Context) {
	event, err := s.parseStatusEvent(c)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	attempt, err := s.tracker.RecordEvent(c.Request.Context(), event)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	applied := false
	if n := len(attempt.History); n > 0 {
		applied = attempt.History[n-1].Applied
	}
	c.JSON(http.StatusOK, dto.CallStatusResponse{
		AttemptID: attempt.ID,
		State:     string(attempt.State),
		Applied:   applied,
	})
}

func (s *callsController) parseStatusEvent(c *gin.Context) (inbound.StatusEvent, error) {
	event := inbound.StatusEvent{AttemptID: c.Query("attempt_id")}

	var rawTimestamp string
	if c.ContentType() == gin.MIMEJSON {
		var request dto.CallStatusRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			return event, domain.NewProtocolError(statusCallbackOp, "malformed callback body: %v", err)
		}
		if request.AttemptID != "" {
			event.AttemptID = request.AttemptID
		}
		event.ProviderCallID = request.CallID
		event.RawState = request.State
		rawTimestamp = request.Timestamp
	} else {
		event.ProviderCallID = c.PostForm("CallSid")
		event.RawState = c.PostForm("CallStatus")
		rawTimestamp = c.PostForm("Timestamp")
	}

	if event.RawState == "" {
		return event, domain.NewProtocolError(statusCallbackOp, "callback carries no call state")
	}
	if event.AttemptID == "" && event.ProviderCallID == "" {
		return event, domain.NewProtocolError(statusCallbackOp, "callback identifies no call")
	}

	timestamp, err := parseCallbackTime(rawTimestamp)
	if err != nil {
		return event, err
	}
	event.Timestamp = timestamp
	return event, nil
}

// parseCallbackTime returns the zero time for an empty value; the tracker
// then stamps the event with its receipt time.
func parseCallbackTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range callbackTimeLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed.UTC(), nil
		}
	}
	return time.Time{}, domain.NewProtocolError(statusCallbackOp, "unparseable timestamp %q", raw)
}

func (s *callsController) RegisterRoutes(g gin.IRoutes, webhookMiddleware ...gin.HandlerFunc) {
	g.POST("/calls", s.Place)
	g.GET("/calls/:id", s.Get)
	g.POST("/calls/status", append(webhookMiddleware, s.StatusCallback)...)
}
