package adapters

import (
	"context"
	"time"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbiface"
)

type dynamoStateEntry struct {
	State      string `dynamodbav:"state"`
	Timestamp  string `dynamodbav:"timestamp"`
	RecordedAt string `dynamodbav:"recorded_at"`
	Applied    bool   `dynamodbav:"applied"`
	Source     string `dynamodbav:"source"`
}

type dynamoAttemptItem struct {
	AttemptId      string             `dynamodbav:"attempt_id"`
	ProviderCallId string             `dynamodbav:"provider_call_id"`
	CampaignId     string             `dynamodbav:"campaign_id,omitempty"`
	CustomerIndex  int                `dynamodbav:"customer_index"`
	ToNumber       string             `dynamodbav:"to_number"`
	AudioRef       string             `dynamodbav:"audio_ref"`
	State          string             `dynamodbav:"state"`
	CreatedAt      string             `dynamodbav:"created_at"`
	FailureReason  string             `dynamodbav:"failure_reason,omitempty"`
	History        []dynamoStateEntry `dynamodbav:"history"`
	TTL            int64              `dynamodbav:"ttl"`
}

type dynamoAttemptRecorder struct {
	logger       outbound.LoggerPort
	dynamoSvc    dynamodbiface.DynamoDBAPI
	dynamoConfig *config.DynamoConfig
	now          func() time.Time
}

func NewDynamoAttemptRecorder(logger outbound.LoggerPort, dynamoSvc dynamodbiface.DynamoDBAPI, dynamoConfig *config.DynamoConfig) outbound.AttemptRecorderPort {
	return &dynamoAttemptRecorder{
		logger:       logger,
		dynamoSvc:    dynamoSvc,
		dynamoConfig: dynamoConfig,
		now:          time.Now,
	}
}

// Save writes the full attempt snapshot; later snapshots overwrite earlier
// ones for the same attempt id.
func (c *dynamoAttemptRecorder) Save(ctx context.Context, attempt domain.CallAttempt) error {
	item := c.toItem(attempt)
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to marshal attempt item", map[string]interface{}{
			"attempt_id": attempt.ID,
		})
		return err
	}

	input := &dynamodb.PutItemInput{
		Item:      av,
		TableName: aws.String(c.dynamoConfig.TableName),
	}

	_, err = c.dynamoSvc.PutItemWithContext(ctx, input)
	if err != nil {
		c.logger.ErrorWithFields(err, "Failed to save attempt item", map[string]interface{}{
			"attempt_id": attempt.ID,
			"state":      attempt.State,
		})
		return err
	}

	return nil
}

func (c *dynamoAttemptRecorder) toItem(attempt domain.CallAttempt) dynamoAttemptItem {
	history := make([]dynamoStateEntry, 0, len(attempt.History))
	for _, entry := range attempt.History {
		history = append(history, dynamoStateEntry{
			State:      string(entry.State),
			Timestamp:  entry.Timestamp.UTC().Format(time.RFC3339Nano),
			RecordedAt: entry.RecordedAt.UTC().Format(time.RFC3339Nano),
			Applied:    entry.Applied,
			Source:     entry.Source,
		})
	}

	return dynamoAttemptItem{
		AttemptId:      attempt.ID,
		ProviderCallId: attempt.ProviderCallID,
		CampaignId:     attempt.CampaignID,
		CustomerIndex:  attempt.CustomerIndex,
		ToNumber:       attempt.ToNumber,
		AudioRef:       attempt.AudioRef,
		State:          string(attempt.State),
		CreatedAt:      attempt.CreatedAt.UTC().Format(time.RFC3339Nano),
		FailureReason:  attempt.FailureReason,
		History:        history,
		TTL:            c.now().Add(time.Duration(c.dynamoConfig.TtlMinutes) * time.Minute).Unix(),
	}
}

type nopAttemptRecorder struct{}

func NewNopAttemptRecorder() outbound.AttemptRecorderPort {
	return nopAttemptRecorder{}
}

func (nopAttemptRecorder) Save(context.Context, domain.CallAttempt) error {
	return nil
}
