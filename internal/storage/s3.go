package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	mdserr "github.com/user/mds-pull/internal/errors"
)

const DefaultEndpoint = "s3.amazonaws.com"

// CredentialsHelp is printed when S3 credentials or region cannot be resolved.
const CredentialsHelp = `You must configure AWS credentials to use S3.
Set the environment variables AWS_ACCESS_KEY_ID and AWS_SECRET_ACCESS_KEY,
or configure credentials in the default location (usually ~/.aws/credentials).
The AWS_DEFAULT_REGION environment variable or the --aws_region flag is also required.`

// Env carries the ambient AWS settings explicitly so callers and tests control them.
type Env struct {
	// Region is the --aws_region flag value.
	Region string
	// DefaultRegion is AWS_DEFAULT_REGION.
	DefaultRegion string
	// FallbackRegion is AWS_REGION.
	FallbackRegion string
}

// EnvFromLookup builds an Env from a flag value and an environment lookup such as os.Getenv.
func EnvFromLookup(flagRegion string, getenv func(string) string) Env {
	return Env{
		Region:         flagRegion,
		DefaultRegion:  getenv("AWS_DEFAULT_REGION"),
		FallbackRegion: getenv("AWS_REGION"),
	}
}

// ResolveRegion returns the first non-empty region: flag, AWS_DEFAULT_REGION, AWS_REGION.
func (e Env) ResolveRegion() (string, error) {
	for _, r := range []string{e.Region, e.DefaultRegion, e.FallbackRegion} {
		if r = strings.TrimSpace(r); r != "" {
			return r, nil
		}
	}
	return "", mdserr.Config("no AWS region configured", nil)
}

// Config configures an S3Client.
type Config struct {
	Endpoint string
	Region   string
	Insecure bool
	// Creds defaults to DefaultCredentials when nil.
	Creds *credentials.Credentials
}

// DefaultCredentials resolves AWS environment variables, then the shared credentials file.
func DefaultCredentials() *credentials.Credentials {
	return credentials.NewChainCredentials([]credentials.Provider{
		&credentials.EnvAWS{},
		&credentials.FileAWSCredentials{},
	})
}

// S3Client implements ObjectStore with minio-go.
type S3Client struct {
	client *minio.Client
	region string
}

// NewS3Client validates region and credentials and builds the client. It does not contact the endpoint.
func NewS3Client(cfg Config) (*S3Client, error) {
	if cfg.Region == "" {
		return nil, mdserr.Config("no AWS region configured", nil)
	}
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	creds := cfg.Creds
	if creds == nil {
		creds = DefaultCredentials()
	}

	v, err := creds.Get()
	if err != nil {
		return nil, mdserr.Config("resolve AWS credentials", err)
	}
	if v.AccessKeyID == "" || v.SecretAccessKey == "" {
		return nil, mdserr.Config("no AWS credentials found", nil)
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: !cfg.Insecure,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, mdserr.Config("create S3 client", err).WithContext("endpoint", endpoint)
	}

	return &S3Client{client: client, region: cfg.Region}, nil
}

func (s *S3Client) Region() string {
	return s.region
}

func (s *S3Client) PutObject(ctx context.Context, bucket, key string, data []byte, contentType string) error {
	if bucket == "" {
		return mdserr.Storage("upload", errors.New("bucket is required"))
	}
	if key == "" {
		return mdserr.Storage("upload", errors.New("object key is required"))
	}

	_, err := s.client.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return classifyError(bucket, key, err)
	}
	return nil
}

// classifyError converts minio-go errors into storage errors carrying the S3 error code.
func classifyError(bucket, key string, err error) error {
	e := mdserr.Storage(fmt.Sprintf("upload s3://%s/%s", bucket, key), err)

	var resp minio.ErrorResponse
	if errors.As(err, &resp) {
		e.WithContext("code", resp.Code)
		switch resp.Code {
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			e.Type = mdserr.TypeConfig
		}
	}
	return e
}
