// Package batch runs the single-file archive builder over an ordered batch of
// source files, hands each archive to a Sink and reports progress.
package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Vitalii2594/zip-password-app/internal/archive"
	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/metrics"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

// Sink persists one built archive and returns the locator it can be
// retrieved by. archive is fully populated except for Locator.
type Sink interface {
	Store(ctx context.Context, requestID string, index int, archive *models.GeneratedArchive, data []byte) (string, error)
}

// ProgressFunc receives the batch completion percentage after every item.
type ProgressFunc func(percent int)

type Orchestrator struct {
	Builder archive.Builder
	Sink    Sink
	Logger  *logging.Logger
	// Workers above 1 builds that many files concurrently.
	Workers int
	Now     func() time.Time
}

type itemResult struct {
	archive *models.GeneratedArchive
	err     error
}

// Run archives every file of req. Per-item failures never abort the batch:
// they are logged and returned in BatchResult.Failures. The returned error is
// reserved for requests that cannot run at all.
func (o *Orchestrator) Run(ctx context.Context, req models.ArchiveRequest, progress ProgressFunc) (*models.BatchResult, error) {
	if o.Builder == nil || o.Sink == nil {
		return nil, errors.New("batch orchestrator is missing a builder or sink")
	}
	if len(req.Files) == 0 {
		return nil, fmt.Errorf("%w: no files provided", common.ErrValidation)
	}
	if req.Password == "" {
		return nil, fmt.Errorf("%w: password is required", common.ErrValidation)
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if progress == nil {
		progress = func(int) {}
	}

	logger := o.logger().With(
		zap.String("request_id", req.ID),
		zap.String("builder", o.Builder.Name()),
		zap.Int("files", len(req.Files)),
	)
	logger.Info("Starting archive batch")

	var results []itemResult
	if o.Workers > 1 {
		results = o.runParallel(ctx, req, progress)
	} else {
		results = o.runSequential(ctx, req, progress)
	}

	out := &models.BatchResult{
		RequestID: req.ID,
		Archives:  make([]models.GeneratedArchive, 0, len(req.Files)),
	}
	if !o.Builder.Protects() {
		out.Notice = archive.UnprotectedNotice
	}

	for i, r := range results {
		if r.err != nil {
			reason := common.Reason(r.err)
			metrics.ArchiveFailuresTotal.WithLabelValues(o.Builder.Name(), reason).Inc()
			logger.Error("Failed to archive file",
				zap.Int("index", i),
				zap.String("file", req.Files[i].Name),
				zap.String("reason", reason),
				zap.Error(r.err),
			)
			out.Failures = append(out.Failures, models.ItemFailure{
				Index:    i,
				FileName: req.Files[i].Name,
				Reason:   reason,
				Message:  r.err.Error(),
			})
			continue
		}
		out.Archives = append(out.Archives, *r.archive)
	}

	logger.Info("Archive batch finished",
		zap.Int("generated", len(out.Archives)),
		zap.Int("failed", len(out.Failures)),
		zap.Int64("total_bytes", out.TotalSize()),
	)
	return out, nil
}

func (o *Orchestrator) runSequential(ctx context.Context, req models.ArchiveRequest, progress ProgressFunc) []itemResult {
	results := make([]itemResult, len(req.Files))
	for i, file := range req.Files {
		a, err := o.buildOne(ctx, req, i, file)
		results[i] = itemResult{archive: a, err: err}
		progress(utils.Percent(i+1, len(req.Files)))
	}
	return results
}

func (o *Orchestrator) runParallel(ctx context.Context, req models.ArchiveRequest, progress ProgressFunc) []itemResult {
	results := make([]itemResult, len(req.Files))

	var (
		mu   sync.Mutex
		done int
	)

	// Goroutines never return an error, so one failed item cannot cancel the rest.
	var g errgroup.Group
	g.SetLimit(o.Workers)
	for i, file := range req.Files {
		i, file := i, file
		g.Go(func() error {
			a, err := o.buildOne(ctx, req, i, file)
			results[i] = itemResult{archive: a, err: err}

			mu.Lock()
			done++
			progress(utils.Percent(done, len(req.Files)))
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (o *Orchestrator) buildOne(ctx context.Context, req models.ArchiveRequest, index int, file models.SourceFile) (*models.GeneratedArchive, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s not started: %v", common.ErrCanceled, file.Name, err)
	}

	start := time.Now()
	data, err := o.Builder.Build(ctx, file, req.Password)
	if err != nil {
		return nil, err
	}
	metrics.ArchiveBuildDuration.WithLabelValues(o.Builder.Name()).Observe(time.Since(start).Seconds())

	createdAt := o.now()
	a := &models.GeneratedArchive{
		ID:               utils.ArchiveID(file.Name, createdAt, index),
		DisplayName:      utils.ArchiveDisplayName(file.Name),
		OriginalFileName: file.Name,
		ByteSize:         int64(len(data)),
		CreatedAt:        createdAt,
		Protected:        o.Builder.Protects(),
	}

	locator, err := o.Sink.Store(ctx, req.ID, index, a, data)
	if err != nil {
		if !errors.Is(err, common.ErrIO) && !errors.Is(err, common.ErrCanceled) {
			err = fmt.Errorf("%w: store %s: %v", common.ErrIO, file.Name, err)
		}
		return nil, err
	}
	a.Locator = locator

	metrics.ArchivesGeneratedTotal.WithLabelValues(o.Builder.Name()).Inc()
	metrics.ArchiveBytesTotal.WithLabelValues(o.Builder.Name()).Add(float64(len(data)))
	return a, nil
}

func (o *Orchestrator) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.NewNop()
	}
	return o.Logger
}

func (o *Orchestrator) now() time.Time {
	if o.Now == nil {
		return time.Now().UTC()
	}
	return o.Now()
}
