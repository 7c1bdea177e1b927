package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Config holds configuration for Cloudflare R2 storage
type R2Config struct {
	AccessKeyID     string
	AccessKeySecret string
	AccountID       string
	Bucket          string
	BaseURL         string
	CDN             string
}

// R2Provider is an S3Provider pointed at R2 that prefers the CDN for URLs
type R2Provider struct {
	*S3Provider
	cdn string
}

func NewR2Provider(config R2Config) (*R2Provider, error) {
	if config.AccountID == "" {
		return nil, fmt.Errorf("r2 storage requires an account id")
	}
	// R2 endpoint format: https://<account_id>.r2.cloudflarestorage.com
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", config.AccountID)

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.AccessKeyID,
			config.AccessKeySecret,
			"",
		)),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create R2 config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.UsePathStyle = true
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &R2Provider{
		S3Provider: &S3Provider{
			client:   client,
			bucket:   config.Bucket,
			endpoint: strings.TrimPrefix(endpoint, "https://"),
			baseURL:  strings.TrimRight(config.BaseURL, "/"),
		},
		cdn: strings.TrimRight(config.CDN, "/"),
	}, nil
}

func (p *R2Provider) URL(key string) string {
	if p.cdn != "" {
		return p.cdn + "/" + key
	}
	return p.S3Provider.URL(key)
}
