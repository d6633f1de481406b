package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"

	"github.com/donovanhide/eventsource"
)

const (
	DoneSignal       = "[DONE]"
	completionOp     = "complete prompt"
	maxRejectionBody = 4096
)

type chatGptRequest struct {
	Stream   bool             `json:"stream"`
	Model    string           `json:"model"`
	Messages []chatGptMessage `json:"messages"`
}

type chatGptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatGptChunkBody struct {
	Choices []chatGptResponseChoice `json:"choices"`
	Error   *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

type chatGptResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type chatCompletionClient struct {
	logger     outbound.LoggerPort
	gptConfig  *config.GptConfig
	httpClient *http.Client
}

func NewChatCompletionClient(gptConfig *config.GptConfig, httpClient *http.Client, logger outbound.LoggerPort) outbound.LanguageModelPort {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &chatCompletionClient{
		logger:     logger,
		gptConfig:  gptConfig,
		httpClient: httpClient,
	}
}

// Complete streams the completion and returns the concatenated deltas once
// the provider signals the end of the stream. The body is decoded in place
// and never reconnected, so nothing outlives the call.
func (c *chatCompletionClient) Complete(ctx context.Context, req outbound.CompletionRequest) (string, error) {
	if c.gptConfig.ApiKey == "" {
		return "", domain.NewConfigurationError(completionOp, "GPT_API_KEY is not configured")
	}

	httpReq, err := c.createRequest(ctx, req)
	if err != nil {
		c.logger.Error(err, "Failed to create HTTP request for completion stream")
		return "", domain.NewUpstreamError(completionOp, 0, "failed to build request", err)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", c.streamError(ctx, err, "failed to open completion stream")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		message, _ := io.ReadAll(io.LimitReader(resp.Body, maxRejectionBody))
		c.logger.ErrorWithFields(fmt.Errorf("status %d", resp.StatusCode), "Completion request rejected", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return "", domain.NewUpstreamError(completionOp, resp.StatusCode, strings.TrimSpace(string(message)), nil)
	}

	decoder := eventsource.NewDecoder(resp.Body)
	var builder strings.Builder
	for {
		ev, err := decoder.Decode()
		if errors.Is(err, io.EOF) {
			return c.finish(builder.String())
		}
		if err != nil {
			return "", c.streamError(ctx, err, "completion stream interrupted")
		}

		data := strings.TrimSpace(ev.Data())
		if data == DoneSignal {
			return c.finish(builder.String())
		}
		if data == "" {
			continue
		}
		payload, err := c.extractPayload(ev)
		if err != nil {
			return "", err
		}
		builder.WriteString(payload)
	}
}

func (c *chatCompletionClient) streamError(ctx context.Context, err error, detail string) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return domain.NewUpstreamError(completionOp, 0, "completion interrupted", ctxErr)
	}
	c.logger.Error(err, "Error occurred during completion streaming")
	return domain.NewUpstreamError(completionOp, 0, detail, err)
}

func (c *chatCompletionClient) finish(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", domain.NewUpstreamError(completionOp, 0, "language model returned an empty completion", nil)
	}
	return text, nil
}

func (c *chatCompletionClient) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatGptChunkBody
	err := json.Unmarshal([]byte(event.Data()), &chunkBody)
	if err != nil {
		c.logger.Error(err, "Failed to unmarshal event data")
		return "", domain.NewUpstreamError(completionOp, 0, "malformed completion chunk", err)
	}
	if chunkBody.Error != nil {
		return "", domain.NewUpstreamError(completionOp, 0, chunkBody.Error.Message, nil)
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}

	return chunkBody.Choices[0].Delta.Content, nil
}

func (c *chatCompletionClient) createRequest(ctx context.Context, req outbound.CompletionRequest) (*http.Request, error) {
	messages := make([]chatGptMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatGptMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatGptMessage{Role: "user", Content: req.UserPrompt})

	promptReq := chatGptRequest{
		Stream:   true,
		Model:    c.gptConfig.Model,
		Messages: messages,
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.gptConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, err
	}

	httpReq.Header.Set("Authorization", "Bearer "+c.gptConfig.ApiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	return httpReq, nil
}
