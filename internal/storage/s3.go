package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/fittrackproapp-droid/fittrackProApp/internal/config"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	// minPartSize is the minimum S3 multipart part size (5 MB).
	minPartSize int64 = 5 * 1024 * 1024
	// videoKeyPrefix namespaces uploaded clips inside the bucket.
	videoKeyPrefix = "videos/"
)

// s3API is the subset of *s3.Client used by the backend.
type s3API interface {
	CreateMultipartUpload(ctx context.Context, params *s3.CreateMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CreateMultipartUploadOutput, error)
	UploadPart(ctx context.Context, params *s3.UploadPartInput, optFns ...func(*s3.Options)) (*s3.UploadPartOutput, error)
	CompleteMultipartUpload(ctx context.Context, params *s3.CompleteMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.CompleteMultipartUploadOutput, error)
	AbortMultipartUpload(ctx context.Context, params *s3.AbortMultipartUploadInput, optFns ...func(*s3.Options)) (*s3.AbortMultipartUploadOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type s3Presigner interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error)
}

// PresignedRequest mirrors the part of the SDK's presign result we need.
type PresignedRequest struct {
	URL string
}

type sdkPresigner struct {
	client *s3.PresignClient
}

func (p sdkPresigner) PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*PresignedRequest, error) {
	req, err := p.client.PresignGetObject(ctx, params, optFns...)
	if err != nil {
		return nil, err
	}
	return &PresignedRequest{URL: req.URL}, nil
}

// s3Backend stores clips as keyed objects using resumable multipart uploads.
type s3Backend struct {
	client     s3API       // Regular client for uploads, reads and deletes
	presigner  s3Presigner // Generates presigned GET URLs for playback
	bucketName string
	partSize   int64
}

// NewS3Backend creates the keyed backend for an S3-compatible endpoint.
func NewS3Backend(ctx context.Context, cfg config.S3Config) (Backend, error) {
	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fallback to default AWS endpoint resolution if no custom endpoint is set
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	opts := []func(*awsCfg.LoadOptions) error{
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load AWS SDK config for S3")
		return nil, err
	}

	// Force path-style addressing required by most S3-compatible services (like MinIO)
	client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})

	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.BucketName).Msg("S3 storage backend initialized")

	return newS3Backend(client, sdkPresigner{client: s3.NewPresignClient(client)}, cfg.BucketName, cfg.PartSize), nil
}

func newS3Backend(client s3API, presigner s3Presigner, bucket string, partSize int64) *s3Backend {
	if partSize < minPartSize {
		partSize = minPartSize
	}
	return &s3Backend{client: client, presigner: presigner, bucketName: bucket, partSize: partSize}
}

func (s *s3Backend) Kind() Kind   { return KindKeyed }
func (s *s3Backend) Name() string { return config.ProviderS3 }

// Store uploads the clip part by part, reporting progress after each part.
// The upload is aborted on any failure so no partial object is left behind.
func (s *s3Backend) Store(ctx context.Context, obj Object, onProgress ProgressFunc) (Ref, error) {
	if onProgress == nil {
		onProgress = func(float64) {}
	}
	key := videoKeyPrefix + uuid.NewString()
	contentType := obj.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	created, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return Ref{}, &UploadError{Backend: s.Name(), Err: fmt.Errorf("create multipart upload: %w", err)}
	}
	uploadID := aws.ToString(created.UploadId)

	parts, err := s.uploadParts(ctx, key, uploadID, obj.Content, onProgress)
	if err != nil {
		s.abort(key, uploadID)
		return Ref{}, &UploadError{Backend: s.Name(), Err: err}
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucketName),
		Key:             aws.String(key),
		UploadId:        aws.String(uploadID),
		MultipartUpload: &s3types.CompletedMultipartUpload{Parts: parts},
	})
	if err != nil {
		s.abort(key, uploadID)
		return Ref{}, &UploadError{Backend: s.Name(), Err: fmt.Errorf("complete multipart upload: %w", err)}
	}

	log.Info().Str("key", key).Int("parts", len(parts)).Int("bytes", len(obj.Content)).Msg("Multipart upload completed")
	return Ref{Kind: KindKeyed, Value: key}, nil
}

func (s *s3Backend) uploadParts(ctx context.Context, key, uploadID string, content []byte, onProgress ProgressFunc) ([]s3types.CompletedPart, error) {
	total := int64(len(content))
	var parts []s3types.CompletedPart

	// An empty clip still needs one (empty) part to complete the upload.
	for offset, partNum := int64(0), int32(1); offset < total || partNum == 1; partNum++ {
		end := offset + s.partSize
		if end > total {
			end = total
		}
		chunk := content[offset:end]

		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucketName),
			Key:           aws.String(key),
			UploadId:      aws.String(uploadID),
			PartNumber:    aws.Int32(partNum),
			Body:          bytes.NewReader(chunk),
			ContentLength: aws.Int64(int64(len(chunk))),
		})
		if err != nil {
			return nil, fmt.Errorf("upload part %d: %w", partNum, err)
		}
		parts = append(parts, s3types.CompletedPart{
			ETag:       out.ETag,
			PartNumber: aws.Int32(partNum),
		})

		offset = end
		if total == 0 {
			onProgress(100)
			break
		}
		onProgress(float64(offset) / float64(total) * 100)
	}
	return parts, nil
}

func (s *s3Backend) abort(key, uploadID string) {
	// The request context may already be cancelled, abort on a fresh one.
	_, err := s.client.AbortMultipartUpload(context.Background(), &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(key),
		UploadId: aws.String(uploadID),
	})
	if err != nil {
		log.Warn().Err(err).Str("key", key).Str("uploadId", uploadID).Msg("Failed to abort multipart upload")
	}
}

// Resolve creates a temporary URL for downloading (GET).
func (s *s3Backend) Resolve(ctx context.Context, ref Ref) (string, error) {
	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref.Value),
	}, s3.WithPresignExpires(DefaultPresignedURLExpiry))
	if err != nil {
		log.Error().Err(err).Str("key", ref.Value).Msg("Failed to generate presigned GET URL")
		return "", err
	}
	return req.URL, nil
}

func (s *s3Backend) Open(ctx context.Context, ref Ref) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref.Value),
	})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", ref.Value, err)
	}
	return out.Body, nil
}

// Remove deletes the object from the bucket.
func (s *s3Backend) Remove(ctx context.Context, ref Ref) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(ref.Value),
	})
	if err != nil {
		return fmt.Errorf("delete object %s from bucket %s: %w", ref.Value, s.bucketName, err)
	}

	log.Info().Str("key", ref.Value).Str("bucket", s.bucketName).Msg("Deleted object")
	return nil
}
