package controllers

import (
	"context"
	"net/http"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/channel_utils"
	"voice-campaign-api/domain"
	"voice-campaign-api/infrastructure/gin_interface/dto"
	"voice-campaign-api/middleware"

	"github.com/gin-gonic/gin"
)

const (
	finishedEventType = "finished"
	doneEventType     = "done"
)

type CampaignsController interface {
	Start(c *gin.Context)
	Report(c *gin.Context)
	Retry(c *gin.Context)
	Events(c *gin.Context)
	RegisterRoutes(g gin.IRoutes, sse gin.HandlerFunc)
}

type campaignsController struct {
	logger       outbound.LoggerPort
	streamPool   outbound.TaskDispatcher
	ingestor     inbound.CustomerIngestorPort
	orchestrator inbound.CampaignOrchestratorPort
	registry     inbound.CampaignRegistryPort
	tracker      inbound.CallStatusTrackerPort
	// runCtx outlives requests so a campaign keeps running after the
	// response that started it has been written.
	runCtx  context.Context
	backlog int
}

func NewCampaignsController(
	runCtx context.Context,
	logger outbound.LoggerPort,
	streamPool outbound.TaskDispatcher,
	ingestor inbound.CustomerIngestorPort,
	orchestrator inbound.CampaignOrchestratorPort,
	registry inbound.CampaignRegistryPort,
	tracker inbound.CallStatusTrackerPort,
	backlog int,
) CampaignsController {
	return &campaignsController{
		logger:       logger,
		streamPool:   streamPool,
		ingestor:     ingestor,
		orchestrator: orchestrator,
		registry:     registry,
		tracker:      tracker,
		runCtx:       runCtx,
		backlog:      backlog,
	}
}

// Start ingests the uploaded customer list and launches the campaign. The
// response is sent as soon as the campaign is registered.
func (s *campaignsController) Start(c *gin.Context) {
	customers, err := ingestUpload(c, s.ingestor)
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	campaign, _, err := s.orchestrator.Start(s.runCtx, domain.CampaignRequest{
		Customers: customers,
		Character: domain.CharacterProfile{
			Name:        c.PostForm("character_name"),
			Description: c.PostForm("character_description"),
		},
		FlowPrompt:    c.PostForm("flow_prompt"),
		VoiceSelector: c.PostForm("voice"),
	})
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.StartCampaignResponse{
		CampaignID: campaign.ID,
		Status:     string(domain.CampaignRunning),
		Customers:  len(customers),
	})
}

func (s *campaignsController) Report(c *gin.Context) {
	campaign, err := s.registry.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}
	c.JSON(http.StatusOK, s.report(campaign))
}

func (s *campaignsController) Retry(c *gin.Context) {
	campaign, _, err := s.orchestrator.Retry(s.runCtx, c.Param("id"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	c.JSON(http.StatusAccepted, dto.StartCampaignResponse{
		CampaignID: campaign.ID,
		Status:     string(domain.CampaignRunning),
		Customers:  campaign.RunSize(),
	})
}

// Events streams a snapshot of the recorded outcomes followed by live
// outcome and attempt events. The stream ends with a done event once the
// campaign has finished and every placed call reached a terminal state.
func (s *campaignsController) Events(c *gin.Context) {
	campaign, err := s.registry.Get(c.Param("id"))
	if err != nil {
		abortWithError(c, s.logger, err)
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	outcomes, stopOutcomes := campaign.Watch(s.backlog)
	updates, stopUpdates := s.tracker.Subscribe()

	events, err := s.campaignEvents(ctx, campaign, outcomes, updates)
	defer func() {
		cancel()
		stopOutcomes()
		stopUpdates()
		if events != nil {
			for range events {
			}
		}
	}()
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to start campaign event stream", map[string]interface{}{
			"campaign_id": campaign.ID,
		})
		c.Writer.Header().Del("Content-Type")
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{
			Error:  err.Error(),
			Detail: "too many open event streams",
		})
		return
	}

	s.stream(ctx, c, campaign, events)
}

func (s *campaignsController) campaignEvents(ctx context.Context, campaign *domain.Campaign,
	outcomes <-chan domain.CustomerOutcome, updates <-chan domain.AttemptUpdate) (<-chan domain.CampaignEvent, error) {
	outcomeCh, err := s.outcomeEvents(ctx, campaign, outcomes)
	if err != nil {
		return nil, err
	}
	attemptCh, err := s.attemptEvents(ctx, campaign.ID, updates)
	if err != nil {
		return nil, err
	}
	return channel_utils.MergeChannels(ctx, s.streamPool, outcomeCh, attemptCh)
}

func (s *campaignsController) stream(ctx context.Context, c *gin.Context, campaign *domain.Campaign, events <-chan domain.CampaignEvent) {
	c.Status(http.StatusOK)
	for _, outcome := range campaign.Outcomes() {
		outcome := outcome
		c.SSEvent(domain.OutcomeEventType, domain.CampaignEvent{Type: domain.OutcomeEventType, Outcome: &outcome})
	}
	c.Writer.Flush()
	if s.settled(campaign) {
		c.SSEvent(doneEventType, s.report(campaign))
		c.Writer.Flush()
		return
	}

	ticker := time.NewTicker(middleware.HeartbeatInterval(c))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := c.Writer.WriteString(": heartbeat\n\n"); err != nil {
				return
			}
			c.Writer.Flush()
		case event, ok := <-events:
			if !ok {
				return
			}
			c.SSEvent(event.Type, event)
			if s.settled(campaign) {
				c.SSEvent(doneEventType, s.report(campaign))
				c.Writer.Flush()
				return
			}
			c.Writer.Flush()
		}
	}
}

func (s *campaignsController) outcomeEvents(ctx context.Context, campaign *domain.Campaign,
	outcomes <-chan domain.CustomerOutcome) (<-chan domain.CampaignEvent, error) {
	out := make(chan domain.CampaignEvent)
	err := s.streamPool.Submit(func() {
		defer close(out)
		for outcome := range outcomes {
			outcome := outcome
			select {
			case out <- domain.CampaignEvent{Type: domain.OutcomeEventType, Outcome: &outcome}:
			case <-ctx.Done():
				return
			}
		}
		if status, _ := campaign.Status(); status == domain.CampaignFinished {
			select {
			case out <- domain.CampaignEvent{Type: finishedEventType}:
			case <-ctx.Done():
			}
		}
	})
	return out, err
}

func (s *campaignsController) attemptEvents(ctx context.Context, campaignID string,
	updates <-chan domain.AttemptUpdate) (<-chan domain.CampaignEvent, error) {
	out := make(chan domain.CampaignEvent)
	err := s.streamPool.Submit(func() {
		defer close(out)
		for update := range updates {
			if update.Attempt.CampaignID != campaignID {
				continue
			}
			attempt := update.Attempt
			select {
			case out <- domain.CampaignEvent{Type: domain.AttemptEventType, Attempt: &attempt}:
			case <-ctx.Done():
				return
			}
		}
	})
	return out, err
}

// settled reports whether the run has finished and no placed call can still
// change state.
func (s *campaignsController) settled(campaign *domain.Campaign) bool {
	if status, _ := campaign.Status(); status != domain.CampaignFinished {
		return false
	}
	for _, outcome := range campaign.Outcomes() {
		if outcome.Failed() || outcome.AttemptID == "" {
			continue
		}
		attempt, err := s.tracker.Get(outcome.AttemptID)
		if err == nil && attempt.IsActive() {
			return false
		}
	}
	return true
}

func (s *campaignsController) report(campaign *domain.Campaign) dto.CampaignReport {
	status, finishedAt := campaign.Status()
	report := dto.CampaignReport{
		CampaignID: campaign.ID,
		Status:     string(status),
		CreatedAt:  campaign.CreatedAt,
		Customers:  make([]dto.CustomerReport, 0, len(campaign.Request.Customers)),
	}
	if !finishedAt.IsZero() {
		report.FinishedAt = &finishedAt
	}

	for _, customer := range campaign.Request.Customers {
		entry := dto.CustomerReport{
			Index: customer.Index,
			Name:  customer.Name,
			Phone: customer.Phone,
		}
		outcome, ok := campaign.Outcome(customer.Index)
		if !ok {
			entry.Pending = true
			report.Customers = append(report.Customers, entry)
			continue
		}
		entry.Stage = string(outcome.Stage)
		entry.Error = outcome.Err
		entry.AttemptID = outcome.AttemptID
		entry.AudioURL = outcome.AudioURL
		if outcome.AttemptID != "" {
			if attempt, err := s.tracker.Get(outcome.AttemptID); err == nil {
				entry.CallState = string(attempt.State)
				entry.FailureReason = attempt.FailureReason
			}
		}
		report.Customers = append(report.Customers, entry)
	}
	return report
}

func (s *campaignsController) RegisterRoutes(g gin.IRoutes, sse gin.HandlerFunc) {
	g.POST("/campaigns", s.Start)
	g.GET("/campaigns/:id", s.Report)
	g.POST("/campaigns/:id/retry", s.Retry)
	g.GET("/campaigns/:id/events", sse, s.Events)
}
