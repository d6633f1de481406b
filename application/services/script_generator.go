package services

import (
	"context"
	"fmt"
	"strings"
	"voice-campaign-api/application/ports/inbound"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/domain"
)

const generateScriptOp = "generate script"

type scriptGenerator struct {
	logger       outbound.LoggerPort
	model        outbound.LanguageModelPort
	systemPrompt string
}

func NewScriptGenerator(logger outbound.LoggerPort, model outbound.LanguageModelPort, systemPrompt string) inbound.ScriptGeneratorPort {
	return &scriptGenerator{
		logger:       logger,
		model:        model,
		systemPrompt: systemPrompt,
	}
}

func (s *scriptGenerator) Generate(ctx context.Context, req domain.ScriptRequest) (domain.Script, error) {
	if strings.TrimSpace(req.CharacterName) == "" {
		return domain.Script{}, domain.NewValidationError(generateScriptOp, "character name must not be empty")
	}
	if strings.TrimSpace(req.FlowPrompt) == "" {
		return domain.Script{}, domain.NewValidationError(generateScriptOp, "flow prompt must not be empty")
	}

	text, err := s.model.Complete(ctx, outbound.CompletionRequest{
		SystemPrompt: s.systemPrompt,
		UserPrompt:   composePrompt(req),
	})
	if err != nil {
		s.logger.ErrorWithFields(err, "Script generation failed", map[string]interface{}{
			"character": req.CharacterName,
		})
		return domain.Script{}, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.Script{}, domain.NewUpstreamError(generateScriptOp, 0, "language model returned an empty script", nil)
	}

	return domain.Script{Text: text}, nil
}

func composePrompt(req domain.ScriptRequest) string {
	return fmt.Sprintf("Character name: %s\nCharacter description: %s\nConversation flow: %s",
		strings.TrimSpace(req.CharacterName),
		strings.TrimSpace(req.CharacterDescription),
		strings.TrimSpace(req.FlowPrompt))
}
