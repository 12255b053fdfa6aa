package publish

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"
)

type S3Options struct {
	// Endpoint overrides the AWS endpoint for S3-compatible services.
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	UsePathStyle    bool
	// PublicBaseURL is prefixed to "bucket/key" to build public URLs.
	PublicBaseURL string
	// PresignTTL enables presigned GET URLs when no PublicBaseURL is set.
	PresignTTL time.Duration
}

// S3 uploads posters to an object-storage bucket. PutObject replaces an
// existing object with the same key.
type S3 struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
	presignTTL    time.Duration
}

// NewS3Client builds the storage client once at startup. Static credentials
// are used when given, otherwise the default AWS credential chain.
func NewS3Client(ctx context.Context, o S3Options) (*s3.Client, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(o.Region),
	}
	if o.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKeyID, o.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(so *s3.Options) {
		if o.Endpoint != "" {
			so.BaseEndpoint = aws.String(o.Endpoint)
		}
		so.UsePathStyle = o.UsePathStyle
		// send checksums only when an operation requires them
		so.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
		so.APIOptions = append(so.APIOptions, forwardSessionCookies)
	}), nil
}

func NewS3(client *s3.Client, o S3Options) *S3 {
	return &S3{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        o.Bucket,
		publicBaseURL: o.PublicBaseURL,
		presignTTL:    o.PresignTTL,
	}
}

// Publish uploads data under name and resolves its URL. An object whose URL
// cannot be resolved is left in the bucket.
func (s *S3) Publish(ctx context.Context, name string, data []byte) (string, error) {
	logger := log.Ctx(ctx).With().Str("bucket", s.bucket).Str("key", name).Logger()

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("image/jpeg"),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) {
			logger.Error().Str("code", apiErr.ErrorCode()).Msg(apiErr.ErrorMessage())
		}
		return "", fmt.Errorf("%w: put object: %v", ErrStorage, err)
	}

	u, err := s.resolveURL(ctx, name)
	if err != nil {
		return "", fmt.Errorf("%w: resolve url: %v", ErrStorage, err)
	}
	if u == "" {
		return "", fmt.Errorf("%w: resolve url: empty url for %s", ErrStorage, name)
	}

	logger.Info().Int("bytes", len(data)).Msg("poster uploaded")
	return u, nil
}

func (s *S3) resolveURL(ctx context.Context, key string) (string, error) {
	if s.publicBaseURL != "" {
		return strings.TrimRight(s.publicBaseURL, "/") + "/" + url.PathEscape(s.bucket) + "/" + url.PathEscape(key), nil
	}
	if s.presignTTL <= 0 {
		return "", nil
	}

	presigned, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(s.presignTTL))
	if err != nil {
		return "", err
	}
	return presigned.URL, nil
}
