package config

import (
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ResolvedEndpoint returns the S3 API endpoint. An explicit S3_ENDPOINT wins,
// otherwise the Cloudflare R2 endpoint for the account is used.
func (c StorageConfig) ResolvedEndpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.AccountID)
}

func NewS3Client(cfg StorageConfig) *s3.Client {
	return s3.New(s3.Options{
		BaseEndpoint: aws.String(cfg.ResolvedEndpoint()),
		Credentials: credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		),
		Region:       cfg.Region,
		UsePathStyle: cfg.Endpoint != "",
	})
}
