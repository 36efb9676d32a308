// Package s3client stores generated archives in an S3 compatible bucket.
package s3client

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	appConfig "github.com/Vitalii2594/zip-password-app/config"
	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

// S3 caps DeleteObjects at 1000 keys per call.
const deleteBatchSize = 1000

// API is the subset of *s3.Client the store needs.
type API interface {
	manager.UploadAPIClient
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// Client keeps each archive as one object under prefix. S3 has no atomic
// claim, so Take reads the object and Discard deletes it.
type Client struct {
	api      API
	uploader *manager.Uploader
	bucket   string
	prefix   string
	endpoint string
	logger   *logging.Logger
}

func New(ctx context.Context, cfg *appConfig.Config, logger *logging.Logger) (*Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.StaticCredentialsProvider{
			Value: aws.Credentials{
				AccessKeyID:     cfg.AccessKey,
				SecretAccessKey: cfg.SecretKey,
			},
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var s3Client *s3.Client
	if cfg.ApiURL != "" {
		s3Client = s3.NewFromConfig(awsConfig, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(cfg.ApiURL)
			o.UsePathStyle = true
		})
	} else {
		s3Client = s3.NewFromConfig(awsConfig)
	}

	c := NewWithAPI(s3Client, cfg.BucketName, cfg.S3Prefix, logger)
	c.endpoint = cfg.ApiURL
	return c, nil
}

// NewWithAPI builds a store on top of an existing S3 API implementation.
func NewWithAPI(api API, bucket, prefix string, logger *logging.Logger) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Client{
		api:      api,
		uploader: manager.NewUploader(api),
		bucket:   bucket,
		prefix:   normalizePrefix(prefix),
		logger:   logger,
	}
}

func (c *Client) Backend() string  { return "s3" }
func (c *Client) Location() string { return "s3://" + c.bucket + "/" + c.prefix }
func (c *Client) Endpoint() string { return c.endpoint }

func (c *Client) Put(ctx context.Context, locator string, data []byte) error {
	if !utils.ValidLocator(locator) {
		return fmt.Errorf("%w: invalid locator %q", common.ErrValidation, locator)
	}

	_, err := c.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucket),
		Key:         aws.String(c.key(locator)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/zip"),
	})
	if err != nil {
		return fmt.Errorf("%w: failed to upload %s to S3: %v", common.ErrIO, locator, err)
	}

	c.logger.Debug("Stored archive", zap.String("bucket", c.bucket), zap.String("locator", locator), zap.Int("bytes", len(data)))
	return nil
}

func (c *Client) Take(ctx context.Context, locator string) (*models.StoredObject, error) {
	if !utils.ValidLocator(locator) {
		return nil, fmt.Errorf("%w: %q", common.ErrNotFound, locator)
	}
	key := c.key(locator)

	out, err := c.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, locator)
		}
		return nil, fmt.Errorf("%w: failed to get %s: %v", common.ErrIO, locator, err)
	}

	obj := &models.StoredObject{
		Locator: locator,
		Name:    utils.LocatorDisplayName(locator),
		Size:    aws.ToInt64(out.ContentLength),
		ModTime: aws.ToTime(out.LastModified),
		Body:    out.Body,
		Discard: func() error {
			// The request context may already be gone once the transfer ends.
			delCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_, err := c.api.DeleteObject(delCtx, &s3.DeleteObjectInput{
				Bucket: aws.String(c.bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("failed to delete %s: %w", key, err)
			}
			return nil
		},
	}
	return obj, nil
}

func (c *Client) List(ctx context.Context) ([]models.StoredArchive, error) {
	var out []models.StoredArchive

	paginator := s3.NewListObjectsV2Paginator(c.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(c.bucket),
		Prefix: aws.String(c.prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to list objects: %v", common.ErrIO, err)
		}

		for _, obj := range page.Contents {
			out = append(out, models.StoredArchive{
				Locator:      strings.TrimPrefix(aws.ToString(obj.Key), c.prefix),
				Size:         aws.ToInt64(obj.Size),
				LastModified: aws.ToTime(obj.LastModified),
			})
		}
	}

	return out, nil
}

func (c *Client) Purge(ctx context.Context, olderThan time.Time, dryRun bool) ([]models.StoredArchive, error) {
	archives, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	var toDelete []types.ObjectIdentifier
	var purged []models.StoredArchive
	for _, a := range archives {
		if a.LastModified.Before(olderThan) {
			toDelete = append(toDelete, types.ObjectIdentifier{Key: aws.String(c.key(a.Locator))})
			purged = append(purged, a)
		}
	}

	if dryRun {
		return purged, nil
	}

	for i := 0; i < len(toDelete); i += deleteBatchSize {
		end := min(i+deleteBatchSize, len(toDelete))

		_, err := c.api.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(c.bucket),
			Delete: &types.Delete{
				Objects: toDelete[i:end],
				Quiet:   aws.Bool(true),
			},
		})
		if err != nil {
			return purged[:i], fmt.Errorf("%w: failed to delete objects batch: %v", common.ErrIO, err)
		}
	}

	c.logger.Info("Purged archives",
		zap.String("bucket", c.bucket),
		zap.Int("count", len(purged)),
		zap.Time("cutoff", olderThan),
	)
	return purged, nil
}

func (c *Client) key(locator string) string {
	return c.prefix + locator
}

func normalizePrefix(prefix string) string {
	prefix = strings.TrimPrefix(prefix, "/")
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return prefix
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return true
		}
	}
	return false
}
