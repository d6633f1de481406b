package services

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"

	"github.com/google/uuid"
)

const runCampaignOp = "run campaign"

type campaignOrchestrator struct {
	logger         outbound.LoggerPort
	workerPool     outbound.TaskDispatcher
	registry       inbound.CampaignRegistryPort
	scripts        inbound.ScriptGeneratorPort
	voices         inbound.VoiceSynthesizerPort
	audioStore     outbound.AudioStorePort
	dispatcher     inbound.CallDispatcherPort
	reuseArtifacts bool
	now            func() time.Time
}

func NewCampaignOrchestrator(
	logger outbound.LoggerPort,
	workerPool outbound.TaskDispatcher,
	registry inbound.CampaignRegistryPort,
	scripts inbound.ScriptGeneratorPort,
	voices inbound.VoiceSynthesizerPort,
	audioStore outbound.AudioStorePort,
	dispatcher inbound.CallDispatcherPort,
	reuseArtifacts bool,
) inbound.CampaignOrchestratorPort {
	return &campaignOrchestrator{
		logger:         logger,
		workerPool:     workerPool,
		registry:       registry,
		scripts:        scripts,
		voices:         voices,
		audioStore:     audioStore,
		dispatcher:     dispatcher,
		reuseArtifacts: reuseArtifacts,
		now:            time.Now,
	}
}

// Run starts the campaign and waits until every customer has an outcome.
func (s *campaignOrchestrator) Run(ctx context.Context, req domain.CampaignRequest) (*domain.Campaign, error) {
	campaign, outcomes, err := s.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	for range outcomes {
	}
	return campaign, nil
}

func (s *campaignOrchestrator) Start(ctx context.Context, req domain.CampaignRequest) (*domain.Campaign, <-chan domain.CustomerOutcome, error) {
	if err := validateCampaignRequest(req); err != nil {
		return nil, nil, err
	}

	campaign := domain.NewCampaign(uuid.NewString(), req, s.now())
	s.registry.Add(campaign)

	s.logger.InfoWithFields("Campaign started", map[string]interface{}{
		"campaign_id": campaign.ID,
		"customers":   len(req.Customers),
	})
	return campaign, s.launch(ctx, campaign, req.Customers), nil
}

// Retry re-runs every customer whose last outcome is a failure. Customers
// with a placed call are never dialled again.
func (s *campaignOrchestrator) Retry(ctx context.Context, campaignID string) (*domain.Campaign, <-chan domain.CustomerOutcome, error) {
	campaign, err := s.registry.Get(campaignID)
	if err != nil {
		return nil, nil, err
	}
	failed, err := campaign.BeginRetry()
	if err != nil {
		return nil, nil, err
	}

	s.logger.InfoWithFields("Campaign retry started", map[string]interface{}{
		"campaign_id": campaign.ID,
		"customers":   len(failed),
	})
	return campaign, s.launch(ctx, campaign, failed), nil
}

// launch schedules one pipeline per customer on the worker pool. Cancelling
// ctx stops scheduling; pipelines already running finish on a context that
// is detached from the batch.
func (s *campaignOrchestrator) launch(ctx context.Context, campaign *domain.Campaign, customers []domain.CustomerRecord) <-chan domain.CustomerOutcome {
	out := make(chan domain.CustomerOutcome, len(customers))
	artifacts := newArtifactCache(s.reuseArtifacts)
	pipelineCtx := context.WithoutCancel(ctx)

	go func() {
		defer close(out)

		var wg sync.WaitGroup
		for _, customer := range customers {
			if err := ctx.Err(); err != nil {
				s.finish(campaign, out, domain.CustomerOutcome{
					CampaignID:    campaign.ID,
					CustomerIndex: customer.Index,
					Stage:         domain.QueueStage,
					Err:           domain.NewCancelledError(runCampaignOp, err),
				})
				continue
			}
			if !campaign.Claim(customer.Index) {
				s.logger.WarnWithFields("Customer already has an active attempt, skipping", map[string]interface{}{
					"campaign_id": campaign.ID,
					"customer":    customer.Index,
				})
				continue
			}

			wg.Add(1)
			err := s.workerPool.Submit(func() {
				defer wg.Done()
				s.finish(campaign, out, s.runCustomer(pipelineCtx, campaign, customer, artifacts))
			})
			if err != nil {
				wg.Done()
				s.logger.Error(err, "Failed to submit customer pipeline to worker pool")
				s.finish(campaign, out, domain.CustomerOutcome{
					CampaignID:    campaign.ID,
					CustomerIndex: customer.Index,
					Stage:         domain.QueueStage,
					Err:           domain.NewUpstreamError(runCampaignOp, 0, "worker pool rejected the pipeline", err),
				})
			}
		}

		wg.Wait()
		campaign.MarkFinished(s.now())
		s.logger.InfoWithFields("Campaign finished", map[string]interface{}{
			"campaign_id": campaign.ID,
		})
	}()

	return out
}

func (s *campaignOrchestrator) finish(campaign *domain.Campaign, out chan<- domain.CustomerOutcome, outcome domain.CustomerOutcome) {
	campaign.Complete(outcome)
	out <- outcome
}

func (s *campaignOrchestrator) runCustomer(ctx context.Context, campaign *domain.Campaign, customer domain.CustomerRecord,
	artifacts *artifactCache) domain.CustomerOutcome {
	req := campaign.Request
	outcome := domain.CustomerOutcome{
		CampaignID:    campaign.ID,
		CustomerIndex: customer.Index,
	}

	prompt := RenderFlowPrompt(req.FlowPrompt, customer)
	key := artifacts.key(prompt, req.VoiceSelector, customer.Index)
	artifact, err := artifacts.get(key, func() (campaignArtifact, error) {
		return s.produceArtifact(ctx, campaign, prompt)
	})
	if err != nil {
		var staged *stagedError
		if errors.As(err, &staged) {
			return s.failed(outcome, staged.stage, staged.err)
		}
		return s.failed(outcome, domain.ScriptStage, err)
	}
	outcome.AudioURL = artifact.Audio.URL

	attempt, err := s.dispatcher.Place(ctx, inbound.PlaceCallParams{
		ToNumber:      customer.Phone,
		AudioRef:      artifact.Audio.URL,
		CampaignID:    campaign.ID,
		CustomerIndex: customer.Index,
	})
	outcome.AttemptID = attempt.ID
	if err != nil {
		return s.failed(outcome, domain.CallStage, err)
	}
	return outcome
}

func (s *campaignOrchestrator) produceArtifact(ctx context.Context, campaign *domain.Campaign, prompt string) (campaignArtifact, error) {
	req := campaign.Request

	script, err := s.scripts.Generate(ctx, domain.NewScriptRequest(req.Character, prompt))
	if err != nil {
		return campaignArtifact{}, &stagedError{stage: domain.ScriptStage, err: err}
	}

	audio, err := s.voices.Synthesize(ctx, domain.VoiceRequest{Text: script.Text, VoiceSelector: req.VoiceSelector})
	if err != nil {
		return campaignArtifact{}, &stagedError{stage: domain.VoiceStage, err: err}
	}

	stored, err := s.audioStore.Save(ctx, audio, campaign.ID)
	if err != nil {
		return campaignArtifact{}, &stagedError{stage: domain.StoreStage, err: err}
	}

	return campaignArtifact{Script: script, Audio: *stored}, nil
}

func (s *campaignOrchestrator) failed(outcome domain.CustomerOutcome, stage domain.Stage, err error) domain.CustomerOutcome {
	outcome.Stage = stage
	outcome.Err = domain.AsError(err)
	s.logger.WarnWithFields("Customer pipeline failed", map[string]interface{}{
		"campaign_id": outcome.CampaignID,
		"customer":    outcome.CustomerIndex,
		"stage":       stage,
		"kind":        outcome.Err.Kind,
		"detail":      outcome.Err.Detail,
	})
	return outcome
}

// RenderFlowPrompt substitutes {{name}}, {{phone}} and {{<column>}}
// placeholders with the customer's values.
func RenderFlowPrompt(prompt string, customer domain.CustomerRecord) string {
	if !strings.Contains(prompt, "{{") {
		return prompt
	}
	pairs := []string{"{{name}}", customer.Name, "{{phone}}", customer.Phone}
	for key, value := range customer.Attributes {
		pairs = append(pairs, "{{"+key+"}}", value)
	}
	return strings.NewReplacer(pairs...).Replace(prompt)
}

func validateCampaignRequest(req domain.CampaignRequest) error {
	if len(req.Customers) == 0 {
		return domain.NewValidationError(runCampaignOp, "campaign needs at least one customer")
	}
	if strings.TrimSpace(req.Character.Name) == "" {
		return domain.NewValidationError(runCampaignOp, "character name must not be empty")
	}
	if strings.TrimSpace(req.FlowPrompt) == "" {
		return domain.NewValidationError(runCampaignOp, "flow prompt must not be empty")
	}
	seen := make(map[int]bool, len(req.Customers))
	for _, customer := range req.Customers {
		if seen[customer.Index] {
			return domain.NewValidationError(runCampaignOp, "customer index %d appears more than once", customer.Index)
		}
		seen[customer.Index] = true
	}
	return nil
}
