package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds configuration for S3 compatible storage
type S3Config struct {
	AccessKeyID     string
	AccessKeySecret string
	Endpoint        string
	Bucket          string
	BaseURL         string
	Region          string
}

// S3Provider stores objects in an S3 bucket
type S3Provider struct {
	client   *s3.Client
	bucket   string
	endpoint string
	baseURL  string
}

func NewS3Provider(config S3Config) (*S3Provider, error) {
	endpoint := config.Endpoint
	if endpoint == "" {
		endpoint = "s3.amazonaws.com"
	}
	region := config.Region
	if region == "" {
		region = "us-east-1"
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.AccessKeySecret,
			"",
		)),
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if config.Endpoint != "" {
			o.BaseEndpoint = aws.String(withScheme(config.Endpoint))
		}
	})

	return &S3Provider{
		client:   client,
		bucket:   config.Bucket,
		endpoint: strings.TrimPrefix(strings.TrimPrefix(endpoint, "https://"), "http://"),
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
	}, nil
}

func (p *S3Provider) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error {
	// ACLs are deprecated, bucket policies control public access
	_, err := p.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(p.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}
	return nil
}

func (p *S3Provider) Delete(ctx context.Context, key string) error {
	_, err := p.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(p.bucket),
		Key:    aws.String(key),
	})
	return err
}

func (p *S3Provider) URL(key string) string {
	if p.baseURL != "" {
		return p.baseURL + "/" + key
	}
	return fmt.Sprintf("https://%s/%s/%s", p.endpoint, p.bucket, key)
}

func withScheme(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return "https://" + endpoint
}
