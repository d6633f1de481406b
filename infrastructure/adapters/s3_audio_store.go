package adapters

import (
	"bytes"
	"context"
	"fmt"
	"voice-campaign-api/application/ports/outbound"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

const storeAudioOp = "store audio"

type s3AudioStore struct {
	logger   outbound.LoggerPort
	s3Svc    s3iface.S3API
	s3Config *config.S3Config
}

func NewS3AudioStore(s3Svc s3iface.S3API, s3Config *config.S3Config, logger outbound.LoggerPort) outbound.AudioStorePort {
	return &s3AudioStore{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Save uploads the artifact and returns a URL the telephony provider can
// fetch: a presigned GET when an expiry is configured, the plain object URL
// otherwise.
func (s *s3AudioStore) Save(ctx context.Context, artifact domain.AudioArtifact, campaignID string) (*domain.StoredAudio, error) {
	if s.s3Config.BucketName == "" {
		return nil, domain.NewConfigurationError(storeAudioOp, "BUCKET_NAME is not configured")
	}
	if len(artifact.Content) == 0 {
		return nil, domain.NewValidationError(storeAudioOp, "audio artifact %s is empty", artifact.Ref)
	}

	itemPath := s.getS3ItemPath(artifact, campaignID)

	putInput := &s3.PutObjectInput{
		Bucket:        aws.String(s.s3Config.BucketName),
		Key:           aws.String(itemPath),
		Body:          bytes.NewReader(artifact.Content),
		ContentLength: aws.Int64(int64(len(artifact.Content))),
		ContentType:   aws.String(artifact.ContentType),
	}

	_, err := s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to upload object to S3", map[string]interface{}{
			"bucket":   s.s3Config.BucketName,
			"fileName": itemPath,
		})
		return nil, domain.NewUpstreamError(storeAudioOp, 0, "failed to upload audio", err)
	}

	url, err := s.objectURL(itemPath)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to presign audio URL", map[string]interface{}{
			"bucket":   s.s3Config.BucketName,
			"fileName": itemPath,
		})
		return nil, domain.NewUpstreamError(storeAudioOp, 0, "failed to presign audio url", err)
	}

	s.logger.DebugWithFields("Successfully uploaded object to S3", map[string]interface{}{
		"key": itemPath,
	})

	return &domain.StoredAudio{Key: itemPath, URL: url}, nil
}

func (s *s3AudioStore) objectURL(itemPath string) (string, error) {
	if s.s3Config.PresignExpiry <= 0 {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.s3Config.BucketName, s.s3Config.Region, itemPath), nil
	}

	req, _ := s.s3Svc.GetObjectRequest(&s3.GetObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(itemPath),
	})
	return req.Presign(s.s3Config.PresignExpiry)
}

func (s *s3AudioStore) getS3ItemPath(artifact domain.AudioArtifact, campaignID string) string {
	if campaignID == "" {
		campaignID = "adhoc"
	}
	return fmt.Sprintf("%s/%s/audio/%s.mp3", s.s3Config.KeyPrefix, campaignID, artifact.Ref)
}
