package bucket

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is an object-store Client backed by an S3-compatible bucket
// service, grounded on the aws-sdk-go-v2 usage pattern in
// storage/s3aws.go: a config-loaded client plus an upload manager for
// concurrency-safe PutObject calls.
type S3Client struct {
	s3         *s3.Client
	uploader   *manager.Uploader
	endpoint   string
	publicBase string
}

// NewS3Client builds an S3Client against endpoint using static
// credentials, matching the TTPEDIA_BUCKET_* environment variables from
// spec.md §6. publicBase is the TTPEDIA_PUBLIC_DATA_URL root used to
// build redirect targets.
func NewS3Client(ctx context.Context, endpoint, username, password, publicBase string) (*S3Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(username, password, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: load aws config: %v", ErrUpload, err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
		o.UsePathStyle = true
	})

	return &S3Client{
		s3:         client,
		uploader:   manager.NewUploader(client),
		endpoint:   endpoint,
		publicBase: publicBase,
	}, nil
}

func (c *S3Client) Upload(ctx context.Context, bucketName, key, contentType string, data []byte) error {
	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("%w: put %s/%s: %v", ErrUpload, bucketName, key, err)
	}
	return nil
}

func (c *S3Client) PublicURL(bucketName, key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBase, bucketName, key)
}
