package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/logging"
	"github.com/Vitalii2594/zip-password-app/internal/models"
	"github.com/Vitalii2594/zip-password-app/pkg/utils"
)

const (
	claimPrefix   = ".claim-"
	partialPrefix = ".partial-"
)

// LocalStore keeps archives as flat files in one directory. Files whose name
// starts with a dot are in-flight writes or claimed downloads and are never
// served.
type LocalStore struct {
	root   string
	logger *logging.Logger
}

// NewLocalStore creates dir if needed and serves archives from it.
func NewLocalStore(dir string, logger *logging.Logger) (*LocalStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("%w: temp directory is not set", common.ErrValidation)
	}
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: resolve %s: %v", common.ErrIO, dir, err)
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", common.ErrIO, root, err)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &LocalStore{root: root, logger: logger}, nil
}

func (s *LocalStore) Backend() string  { return "local" }
func (s *LocalStore) Location() string { return s.root }

// resolve maps a locator onto a path directly inside the root.
func (s *LocalStore) resolve(locator string) (string, error) {
	if !utils.ValidLocator(locator) {
		return "", fmt.Errorf("%w: %q", common.ErrNotFound, locator)
	}
	path := filepath.Join(s.root, locator)
	if filepath.Dir(path) != s.root {
		return "", fmt.Errorf("%w: %q", common.ErrNotFound, locator)
	}
	return path, nil
}

// Put writes data to a hidden partial file and renames it into place, so a
// concurrent Take never sees a half-written archive.
func (s *LocalStore) Put(ctx context.Context, locator string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", common.ErrCanceled, err)
	}
	path, err := s.resolve(locator)
	if err != nil {
		return fmt.Errorf("%w: invalid locator %q", common.ErrValidation, locator)
	}

	tmp, err := os.CreateTemp(s.root, partialPrefix+"*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", common.ErrIO, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		s.cleanup(tmpPath)
		return fmt.Errorf("%w: write %s: %v", common.ErrIO, locator, err)
	}
	if err := tmp.Close(); err != nil {
		s.cleanup(tmpPath)
		return fmt.Errorf("%w: close %s: %v", common.ErrIO, locator, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		s.cleanup(tmpPath)
		return fmt.Errorf("%w: store %s: %v", common.ErrIO, locator, err)
	}

	s.logger.Debug("Stored archive", zap.String("locator", locator), zap.Int("bytes", len(data)))
	return nil
}

// Take claims the archive by renaming it to a private name. Only one caller
// can win the rename; everyone else gets ErrNotFound.
func (s *LocalStore) Take(ctx context.Context, locator string) (*models.StoredObject, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrCanceled, err)
	}
	path, err := s.resolve(locator)
	if err != nil {
		return nil, err
	}

	claimed := filepath.Join(s.root, claimPrefix+uuid.NewString())
	if err := os.Rename(path, claimed); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", common.ErrNotFound, locator)
		}
		return nil, fmt.Errorf("%w: claim %s: %v", common.ErrIO, locator, err)
	}

	f, err := os.Open(claimed)
	if err != nil {
		s.cleanup(claimed)
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrIO, locator, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		s.cleanup(claimed)
		return nil, fmt.Errorf("%w: stat %s: %v", common.ErrIO, locator, err)
	}

	return &models.StoredObject{
		Locator: locator,
		Name:    utils.LocatorDisplayName(locator),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Body:    f,
		Discard: func() error {
			return utils.CleanupTempFile(claimed)
		},
	}, nil
}

func (s *LocalStore) List(ctx context.Context) ([]models.StoredArchive, error) {
	return s.scan(ctx, false)
}

// Purge deletes archives last modified before olderThan, including claim and
// partial files abandoned by interrupted transfers.
func (s *LocalStore) Purge(ctx context.Context, olderThan time.Time, dryRun bool) ([]models.StoredArchive, error) {
	entries, err := s.scan(ctx, true)
	if err != nil {
		return nil, err
	}

	var purged []models.StoredArchive
	for _, e := range entries {
		if !e.LastModified.Before(olderThan) {
			continue
		}
		if !dryRun {
			if err := utils.CleanupTempFile(filepath.Join(s.root, e.Locator)); err != nil {
				return purged, fmt.Errorf("%w: %v", common.ErrIO, err)
			}
		}
		purged = append(purged, e)
	}

	s.logger.Info("Purged archives",
		zap.Int("count", len(purged)),
		zap.Time("cutoff", olderThan),
		zap.Bool("dry_run", dryRun),
	)
	return purged, nil
}

func (s *LocalStore) scan(ctx context.Context, includeHidden bool) ([]models.StoredArchive, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("%w: list %s: %v", common.ErrIO, s.root, err)
	}

	var out []models.StoredArchive
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %v", common.ErrCanceled, err)
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if strings.HasPrefix(name, ".") && !(includeHidden && isTransient(name)) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Taken or purged between ReadDir and Info.
			continue
		}
		out = append(out, models.StoredArchive{
			Locator:      name,
			Size:         info.Size(),
			LastModified: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Locator < out[j].Locator })
	return out, nil
}

func (s *LocalStore) cleanup(path string) {
	if err := utils.CleanupTempFile(path); err != nil {
		s.logger.Warn("Failed to remove temporary file", zap.String("path", path), zap.Error(err))
	}
}

func isTransient(name string) bool {
	return strings.HasPrefix(name, claimPrefix) || strings.HasPrefix(name, partialPrefix)
}
