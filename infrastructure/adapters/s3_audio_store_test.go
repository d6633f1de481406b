package adapters

import (
	"context"
	"errors"
	"io"
	"testing"
	"voice-campaign-api/config"
	"voice-campaign-api/domain"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeS3 struct {
	s3iface.S3API
	puts []*s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakeS3) PutObjectWithContext(_ aws.Context, input *s3.PutObjectInput, _ ...request.Option) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.puts = append(f.puts, input)
	f.body, _ = io.ReadAll(input.Body)
	return &s3.PutObjectOutput{}, nil
}

func TestS3AudioStore_Save(t *testing.T) {
	svc := &fakeS3{}
	store := NewS3AudioStore(svc, &config.S3Config{BucketName: "voice-bucket", Region: "eu-central-1", KeyPrefix: "campaigns"}, NewNopLogger())

	stored, err := store.Save(context.Background(), domain.AudioArtifact{
		Ref:         "artifact-1",
		ContentType: "audio/mpeg",
		Content:     []byte("mp3"),
	}, "campaign-9")
	require.NoError(t, err)

	require.Len(t, svc.puts, 1)
	assert.Equal(t, "campaigns/campaign-9/audio/artifact-1.mp3", aws.StringValue(svc.puts[0].Key))
	assert.Equal(t, "audio/mpeg", aws.StringValue(svc.puts[0].ContentType))
	assert.Equal(t, []byte("mp3"), svc.body)
	assert.Equal(t, "https://voice-bucket.s3.eu-central-1.amazonaws.com/campaigns/campaign-9/audio/artifact-1.mp3", stored.URL)
}

func TestS3AudioStore_Failures(t *testing.T) {
	artifact := domain.AudioArtifact{Ref: "a", Content: []byte("x")}

	store := NewS3AudioStore(&fakeS3{}, &config.S3Config{Region: "eu-central-1"}, NewNopLogger())
	_, err := store.Save(context.Background(), artifact, "c")
	assert.True(t, domain.IsKind(err, domain.ConfigurationErrorKind))

	store = NewS3AudioStore(&fakeS3{err: errors.New("access denied")}, &config.S3Config{BucketName: "b", Region: "eu-central-1"}, NewNopLogger())
	_, err = store.Save(context.Background(), artifact, "c")
	assert.True(t, domain.IsKind(err, domain.UpstreamErrorKind))
}
