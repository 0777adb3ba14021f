package s3infra

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/lead-capture-api/internal/config"
	"github.com/lead-capture-api/internal/infrastructure/awsconf"
)

// PutAPI is the subset of the S3 client used by Archive.
type PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes raw form submissions to a bucket.
type Archive struct {
	client PutAPI
	bucket string
}

// NewClient creates an S3 client. When cfg.AWSEndpointURL is set (LocalStack),
// it overrides the endpoint and enables path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg, "")
	if err != nil {
		return nil, fmt.Errorf("load AWS config for S3: %w", err)
	}
	endpoint := awsconf.Endpoint(cfg)
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != nil {
			o.BaseEndpoint = endpoint
			o.UsePathStyle = true
		}
	}), nil
}

// NewArchive creates an Archive with the given S3 client and bucket name.
func NewArchive(client PutAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: bucket}
}

// PutJSON stores data under key and returns the object URL.
func (a *Archive) PutJSON(ctx context.Context, key string, data []byte) (string, error) {
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return fmt.Sprintf("s3://%s/%s", a.bucket, key), nil
}
