package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/courtsidehq/courtside/internal/config"
)

type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

type ListResult struct {
	Objects   []Object
	NextToken string
	HasMore   bool
}

// Client wraps the S3 API for presigned media access. Works against AWS
// or any S3-compatible endpoint (MinIO, R2) via MEDIA_ENDPOINT.
type Client struct {
	client    *s3.Client
	presigner *s3.PresignClient
	bucket    string
	expiry    time.Duration
	log       *zap.Logger
}

func NewClient(cfg config.Config, log *zap.Logger) (*Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.MediaRegion),
	}
	if cfg.MediaAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.MediaAccessKey, cfg.MediaSecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.MediaEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.MediaEndpoint)
			o.UsePathStyle = true
		}
	})

	expiry := time.Duration(cfg.MediaPresignExpiry) * time.Second
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	return &Client{
		client:    client,
		presigner: s3.NewPresignClient(client),
		bucket:    cfg.MediaBucket,
		expiry:    expiry,
		log:       log.Named("media.storage"),
	}, nil
}

func (c *Client) Expiry() time.Duration {
	return c.expiry
}

func (c *Client) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	req, err := c.presigner.PresignPutObject(ctx, input, s3.WithPresignExpires(c.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign PUT: %w", err)
	}
	return req.URL, nil
}

func (c *Client) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(c.expiry))
	if err != nil {
		return "", fmt.Errorf("failed to presign GET: %w", err)
	}
	return req.URL, nil
}

func (c *Client) Head(ctx context.Context, key string) (bool, int64, error) {
	out, err := c.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return false, 0, nil
	}
	return true, aws.ToInt64(out.ContentLength), nil
}

func (c *Client) List(ctx context.Context, prefix, continuationToken string, limit int32) (ListResult, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		Prefix:  aws.String(prefix),
		MaxKeys: aws.Int32(limit),
	}
	if continuationToken != "" {
		input.ContinuationToken = aws.String(continuationToken)
	}

	out, err := c.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ListResult{}, fmt.Errorf("failed to list objects: %w", err)
	}

	result := ListResult{
		Objects: make([]Object, 0, len(out.Contents)),
		HasMore: aws.ToBool(out.IsTruncated),
	}
	if out.NextContinuationToken != nil {
		result.NextToken = *out.NextContinuationToken
	}
	for _, item := range out.Contents {
		result.Objects = append(result.Objects, Object{
			Key:          aws.ToString(item.Key),
			Size:         aws.ToInt64(item.Size),
			LastModified: aws.ToTime(item.LastModified),
		})
	}
	return result, nil
}

func (c *Client) Delete(ctx context.Context, key string) error {
	_, err := c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}
