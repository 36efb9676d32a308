// Package store keeps generated archives on durable temporary storage until
// they are retrieved once.
package store

import (
	"context"
	"fmt"
	"time"

	appConfig "github.com/Vitalii2594/zip-password-app/config"
	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/internal/s3client"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

// Store is implemented by LocalStore and s3client.Client.
//
// Take hands out an archive for a single retrieval. Invalid locators and
// locators that were never stored or were already discarded yield
// common.ErrNotFound.
type Store interface {
	Put(ctx context.Context, locator string, data []byte) error
	Take(ctx context.Context, locator string) (*models.StoredObject, error)
	List(ctx context.Context) ([]models.StoredArchive, error)
	Purge(ctx context.Context, olderThan time.Time, dryRun bool) ([]models.StoredArchive, error)
	Backend() string
	Location() string
}

// New opens the store selected by STORE_BACKEND.
func New(ctx context.Context, cfg *appConfig.Config, logger *logging.Logger) (Store, error) {
	switch cfg.StoreBackend {
	case appConfig.BackendLocal, "":
		local, err := NewLocalStore(cfg.TempDir, logger)
		if err != nil {
			return nil, err
		}
		return local, nil
	case appConfig.BackendS3:
		client, err := s3client.New(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%w: unknown store backend %q", common.ErrValidation, cfg.StoreBackend)
	}
}

// Sink adapts a Store to the batch pipeline: every archive is written under
// its request-scoped locator.
type Sink struct {
	store Store
}

func NewSink(s Store) *Sink {
	return &Sink{store: s}
}

func (s *Sink) Store(ctx context.Context, requestID string, index int, a *models.GeneratedArchive, data []byte) (string, error) {
	locator := utils.Locator(requestID, index, a.DisplayName)
	if err := s.store.Put(ctx, locator, data); err != nil {
		return "", err
	}
	return locator, nil
}

// Info summarises the archives currently held by s.
func Info(ctx context.Context, s Store) (*models.StoreInfo, error) {
	archives, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	var totalSize int64
	var lastModified time.Time
	for _, a := range archives {
		totalSize += a.Size
		if a.LastModified.After(lastModified) {
			lastModified = a.LastModified
		}
	}

	info := &models.StoreInfo{
		Backend:        s.Backend(),
		Location:       s.Location(),
		ArchiveCount:   int64(len(archives)),
		TotalSizeBytes: totalSize,
		TotalSizeHuman: utils.FormatBytes(totalSize),
		LastModified:   lastModified,
	}
	if e, ok := s.(interface{ Endpoint() string }); ok {
		info.APIEndpoint = e.Endpoint()
	}
	return info, nil
}
