package store

import (
	"context"
	"errors"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// objectGetter is the subset of the S3 client the fetcher needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3 reads a build that was uploaded to a bucket, optionally under a key prefix.
type S3 struct {
	client objectGetter
	bucket string
	prefix string
}

// NewS3 loads the default AWS credential chain. region may be empty to use the
// environment's region.
func NewS3(ctx context.Context, bucket, prefix, region string) (*S3, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("store: source.bucket is required for the s3 source")
	}
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return newS3WithClient(s3.NewFromConfig(cfg), bucket, prefix), nil
}

func newS3WithClient(client objectGetter, bucket, prefix string) *S3 {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	return &S3{client: client, bucket: bucket, prefix: prefix}
}

func (s *S3) Fetch(ctx context.Context, name string) ([]byte, error) {
	clean, ok := cleanName(name)
	if !ok {
		return nil, ErrNotFound
	}
	key := clean
	if s.prefix != "" {
		key = s.prefix + "/" + clean
	}
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isS3NotFound(err) {
			return nil, ErrNotFound
		}
		return nil, &FetchError{Name: name, Err: err}
	}
	defer out.Body.Close()
	return readBody(name, out.Body, maxBodyBytes)
}

func isS3NotFound(err error) bool {
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
