package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"edupulse/lms-backend/internal/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	// S3 rejects multipart parts smaller than 5 MiB (except the last one).
	minPartSize = 5 * 1024 * 1024

	// Time allowed for aborting a failed multipart upload. Uses its own
	// context so an already-cancelled request context cannot leave parts
	// behind on the service.
	abortTimeout = 30 * time.Second
)

// s3Storage implements the ObjectStorage interface using an S3-compatible
// backend. A process has exactly one instance, built at bootstrap; if the
// configuration is invalid the instance is constructed in an unavailable
// state and every operation fails fast with ErrUnavailable.
type s3Storage struct {
	client          *s3.Client        // Regular client for object operations
	presignClient   *s3.PresignClient // Special client for generating presigned URLs
	bucketName      string
	region          string
	endpoint        string
	partSize        int64
	partConcurrency int
	logger          *zap.Logger
	initErr         error // non-nil when construction failed
}

// NewS3Storage creates the process-wide S3 storage service. It never
// returns an error: misconfiguration yields a client whose Available()
// reports ErrUnavailable, so bootstrap can continue and requests degrade
// with a configuration error instead of the process refusing to start.
func NewS3Storage(cfg config.S3Config, upload config.UploadConfig, logger *zap.Logger) ObjectStorage {
	store := &s3Storage{
		bucketName:      cfg.BucketName,
		region:          cfg.Region,
		endpoint:        strings.TrimRight(cfg.Endpoint, "/"),
		partSize:        upload.PartSize(),
		partConcurrency: upload.PartConcurrency,
		logger:          logger,
	}
	if store.partSize < minPartSize {
		store.partSize = minPartSize
	}
	if store.partConcurrency < 1 {
		store.partConcurrency = 1
	}

	if err := validateS3Config(cfg); err != nil {
		store.initErr = fmt.Errorf("%w: %v", ErrUnavailable, err)
		logger.Error("s3 storage disabled, configuration invalid", zap.Error(err))
		return store
	}

	// Custom resolver for S3-compatible endpoints (like MinIO, DigitalOcean Spaces)
	customResolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		if cfg.Endpoint != "" {
			return aws.Endpoint{
				PartitionID:   "aws",
				URL:           cfg.Endpoint,
				SigningRegion: cfg.Region,
			}, nil
		}
		// Fall back to default AWS endpoint resolution
		return aws.Endpoint{}, &aws.EndpointNotFoundError{}
	})

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(context.TODO(),
		awsCfg.WithRegion(cfg.Region),
		awsCfg.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
		awsCfg.WithEndpointResolverWithOptions(customResolver),
	)
	if err != nil {
		store.initErr = fmt.Errorf("%w: load aws sdk config: %v", ErrUnavailable, err)
		logger.Error("s3 storage disabled, sdk config failed", zap.Error(err))
		return store
	}

	// Force path-style addressing required by most S3-compatible services.
	store.client = s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		o.UsePathStyle = true
	})
	store.presignClient = s3.NewPresignClient(store.client)

	logger.Info("s3 storage initialized",
		zap.String("bucket", cfg.BucketName),
		zap.String("region", cfg.Region),
		zap.String("endpoint", cfg.Endpoint),
		zap.Int64("part_size", store.partSize),
		zap.Int("part_concurrency", store.partConcurrency),
	)
	return store
}

func validateS3Config(cfg config.S3Config) error {
	var missing []string
	if cfg.BucketName == "" {
		missing = append(missing, "bucket_name")
	}
	if cfg.Region == "" {
		missing = append(missing, "region")
	}
	if cfg.AccessKeyID == "" {
		missing = append(missing, "access_key_id")
	}
	if cfg.SecretAccessKey == "" {
		missing = append(missing, "secret_access_key")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing s3 settings: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Available reports whether the client was constructed successfully.
func (s *s3Storage) Available() error {
	return s.initErr
}

// Put uploads a fully buffered object in a single atomic request.
func (s *s3Storage) Put(ctx context.Context, objectKey string, contentType string, body io.Reader, size int64) error {
	if err := s.Available(); err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		Body:        body,
		ContentType: aws.String(contentType),
	}
	if size > 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return &TransferError{Key: objectKey, Err: err}
	}

	s.logger.Debug("object stored", zap.String("key", objectKey), zap.Int64("size", size))
	return nil
}

// partRange describes one slice of a file for a multipart upload.
type partRange struct {
	number int32
	offset int64
	size   int64
}

// partRanges splits totalSize into fixed-size parts. The last part carries
// the remainder. Part numbers start at 1, as S3 requires.
func partRanges(totalSize, partSize int64) []partRange {
	var ranges []partRange
	number := int32(1)
	for offset := int64(0); offset < totalSize; offset += partSize {
		size := partSize
		if offset+size > totalSize {
			size = totalSize - offset
		}
		ranges = append(ranges, partRange{number: number, offset: offset, size: size})
		number++
	}
	return ranges
}

// partUploadFunc transfers a single part and returns its completion record.
type partUploadFunc func(ctx context.Context, pr partRange) (types.CompletedPart, error)

// uploadParts runs the part transfers with at most limit in flight. The
// first failure cancels the remaining parts and is returned, tagged with
// its part number; completed parts come back sorted as S3 requires.
func uploadParts(ctx context.Context, ranges []partRange, limit int, uploadPart partUploadFunc) ([]types.CompletedPart, error) {
	completed := make([]types.CompletedPart, len(ranges))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, pr := range ranges {
		g.Go(func() error {
			out, err := uploadPart(gctx, pr)
			if err != nil {
				return fmt.Errorf("upload part %d: %w", pr.number, err)
			}
			completed[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(completed, func(i, j int) bool {
		return aws.ToInt32(completed[i].PartNumber) < aws.ToInt32(completed[j].PartNumber)
	})
	return completed, nil
}

// UploadFile streams a disk-backed file as a multipart upload with bounded
// part-level concurrency. Any part failure aborts the multipart operation
// on the service so no truncated object is ever visible.
func (s *s3Storage) UploadFile(ctx context.Context, objectKey string, contentType string, path string) error {
	if err := s.Available(); err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return &TransferError{Key: objectKey, Err: err}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &TransferError{Key: objectKey, Err: err}
	}
	if info.Size() == 0 {
		return &TransferError{Key: objectKey, Err: fmt.Errorf("source file %q is empty", path)}
	}

	create, err := s.client.CreateMultipartUpload(ctx, &s3.CreateMultipartUploadInput{
		Bucket:      aws.String(s.bucketName),
		Key:         aws.String(objectKey),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return &TransferError{Key: objectKey, Err: fmt.Errorf("create multipart upload: %w", err)}
	}
	uploadID := create.UploadId

	ranges := partRanges(info.Size(), s.partSize)
	completed, err := uploadParts(ctx, ranges, s.partConcurrency, func(ctx context.Context, pr partRange) (types.CompletedPart, error) {
		// SectionReader uses ReadAt, safe across concurrent parts.
		body := io.NewSectionReader(f, pr.offset, pr.size)
		out, err := s.client.UploadPart(ctx, &s3.UploadPartInput{
			Bucket:        aws.String(s.bucketName),
			Key:           aws.String(objectKey),
			UploadId:      uploadID,
			PartNumber:    aws.Int32(pr.number),
			Body:          body,
			ContentLength: aws.Int64(pr.size),
		})
		if err != nil {
			return types.CompletedPart{}, err
		}
		return types.CompletedPart{
			ETag:       out.ETag,
			PartNumber: aws.Int32(pr.number),
		}, nil
	})
	if err != nil {
		s.abortMultipart(objectKey, uploadID, &err)
		return &TransferError{Key: objectKey, Err: err}
	}

	_, err = s.client.CompleteMultipartUpload(ctx, &s3.CompleteMultipartUploadInput{
		Bucket:          aws.String(s.bucketName),
		Key:             aws.String(objectKey),
		UploadId:        uploadID,
		MultipartUpload: &types.CompletedMultipartUpload{Parts: completed},
	})
	if err != nil {
		err = fmt.Errorf("complete multipart upload: %w", err)
		s.abortMultipart(objectKey, uploadID, &err)
		return &TransferError{Key: objectKey, Err: err}
	}

	s.logger.Debug("multipart object stored",
		zap.String("key", objectKey),
		zap.Int64("size", info.Size()),
		zap.Int("parts", len(ranges)),
	)
	return nil
}

// abortMultipart tells the service to discard all buffered parts. An abort
// failure is joined onto *err so neither error is lost.
func (s *s3Storage) abortMultipart(objectKey string, uploadID *string, err *error) {
	abortCtx, cancel := context.WithTimeout(context.Background(), abortTimeout)
	defer cancel()

	_, abortErr := s.client.AbortMultipartUpload(abortCtx, &s3.AbortMultipartUploadInput{
		Bucket:   aws.String(s.bucketName),
		Key:      aws.String(objectKey),
		UploadId: uploadID,
	})
	if abortErr != nil {
		s.logger.Error("failed to abort multipart upload, parts may linger",
			zap.String("key", objectKey), zap.Error(abortErr))
		*err = multierr.Append(*err, fmt.Errorf("abort multipart upload: %w", abortErr))
	}
}

// Head probes an object's metadata without fetching its body.
func (s *s3Storage) Head(ctx context.Context, objectKey string) (*ObjectMetadata, error) {
	if err := s.Available(); err != nil {
		return nil, err
	}

	out, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return nil, ErrObjectNotFound
		}
		return nil, err
	}

	return &ObjectMetadata{
		Size:         aws.ToInt64(out.ContentLength),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		ContentType:  aws.ToString(out.ContentType),
	}, nil
}

// GeneratePresignedDownloadURL creates a temporary URL for downloading (GET).
func (s *s3Storage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, expires time.Duration) (string, error) {
	if err := s.Available(); err != nil {
		return "", err
	}
	if expires <= 0 {
		expires = DefaultPresignedURLExpiry
	}

	req, err := s.presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		return "", fmt.Errorf("presign GET for key %q: %w", objectKey, err)
	}

	return req.URL, nil
}

// ObjectURL returns the unsigned direct URL for an object. Path style for
// custom endpoints, virtual-hosted style for AWS proper.
func (s *s3Storage) ObjectURL(objectKey string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", s.endpoint, s.bucketName, objectKey)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucketName, s.region, objectKey)
}

// DeleteObject removes an object from the S3 bucket.
func (s *s3Storage) DeleteObject(ctx context.Context, objectKey string) error {
	if err := s.Available(); err != nil {
		return err
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(objectKey),
	}); err != nil {
		return err
	}

	s.logger.Info("object deleted", zap.String("key", objectKey))
	return nil
}
