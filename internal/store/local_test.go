package store

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vitalii2594/zip-password-app/config"
	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

func newTestStore(t *testing.T) *LocalStore {
	t.Helper()
	s, err := NewLocalStore(filepath.Join(t.TempDir(), "temp"), nil)
	require.NoError(t, err)
	return s
}

func TestNewLocalStoreCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "temp")

	s, err := NewLocalStore(dir, nil)
	require.NoError(t, err)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "local", s.Backend())
	assert.True(t, filepath.IsAbs(s.Location()))
}

func TestPutTakeDiscard(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	locator := "req-0_report_protected.zip"

	require.NoError(t, s.Put(ctx, locator, []byte("zipdata")))

	obj, err := s.Take(ctx, locator)
	require.NoError(t, err)
	assert.Equal(t, "report_protected.zip", obj.Name)
	assert.Equal(t, int64(7), obj.Size)

	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	require.NoError(t, obj.Body.Close())
	assert.Equal(t, "zipdata", string(body))

	// Claimed archives are no longer listed or retrievable.
	_, err = s.Take(ctx, locator)
	assert.True(t, errors.Is(err, common.ErrNotFound))

	require.NoError(t, obj.Discard())
	entries, err := os.ReadDir(s.Location())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTakeOnlyOnceUnderConcurrency(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, s.Put(ctx, "req-0_a_protected.zip", []byte("x")))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			obj, err := s.Take(ctx, "req-0_a_protected.zip")
			if err != nil {
				return
			}
			obj.Body.Close()
			_ = obj.Discard()
			mu.Lock()
			winners++
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestTakeRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	outside := filepath.Join(filepath.Dir(s.Location()), "secret.zip")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))

	for _, locator := range []string{"../secret.zip", "..", "", "sub/file.zip", `..\secret.zip`, ".claim-x"} {
		_, err := s.Take(context.Background(), locator)
		assert.True(t, errors.Is(err, common.ErrNotFound), "locator %q: %v", locator, err)
	}

	_, err := os.Stat(outside)
	assert.NoError(t, err, "file outside the root must be untouched")
}

func TestTakeMissing(t *testing.T) {
	s := newTestStore(t)
	_, err := s.Take(context.Background(), "nope-0_missing_protected.zip")
	assert.True(t, errors.Is(err, common.ErrNotFound))
}

func TestPutRejectsInvalidLocator(t *testing.T) {
	s := newTestStore(t)
	err := s.Put(context.Background(), "../escape.zip", []byte("x"))
	assert.True(t, errors.Is(err, common.ErrValidation))
}

func TestListAndPurge(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Put(ctx, "a-0_old_protected.zip", []byte("old")))
	require.NoError(t, s.Put(ctx, "b-0_new_protected.zip", []byte("new!")))

	old := time.Now().Add(-72 * time.Hour)
	require.NoError(t, os.Chtimes(filepath.Join(s.Location(), "a-0_old_protected.zip"), old, old))

	// An abandoned claim from an interrupted download.
	stale := filepath.Join(s.Location(), claimPrefix+"abandoned")
	require.NoError(t, os.WriteFile(stale, []byte("zz"), 0o644))
	require.NoError(t, os.Chtimes(stale, old, old))

	listed, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, "a-0_old_protected.zip", listed[0].Locator)

	info, err := Info(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, int64(2), info.ArchiveCount)
	assert.Equal(t, int64(7), info.TotalSizeBytes)
	assert.Empty(t, info.APIEndpoint)

	cutoff := time.Now().Add(-24 * time.Hour)

	planned, err := s.Purge(ctx, cutoff, true)
	require.NoError(t, err)
	assert.Len(t, planned, 2)
	_, err = os.Stat(stale)
	assert.NoError(t, err, "dry run must not delete")

	purged, err := s.Purge(ctx, cutoff, false)
	require.NoError(t, err)
	assert.Len(t, purged, 2)

	left, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "b-0_new_protected.zip", left[0].Locator)
	_, err = os.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestSinkStoresUnderRequestNamespace(t *testing.T) {
	s := newTestStore(t)
	sink := NewSink(s)
	ctx := context.Background()

	a := &models.GeneratedArchive{DisplayName: "report_protected.zip"}
	first, err := sink.Store(ctx, "req1", 0, a, []byte("one"))
	require.NoError(t, err)
	second, err := sink.Store(ctx, "req2", 0, a, []byte("two"))
	require.NoError(t, err)

	assert.Equal(t, "req1-0_report_protected.zip", first)
	assert.Equal(t, "req2-0_report_protected.zip", second)

	obj, err := s.Take(ctx, first)
	require.NoError(t, err)
	defer obj.Discard()
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "one", string(body))
}

func TestSinkStoresLongDisplayNames(t *testing.T) {
	s := newTestStore(t)
	sink := NewSink(s)
	ctx := context.Background()

	requestID := "0b6e3c1a-45f1-4b7e-9f0a-2d1c5e6f7a8b"
	a := &models.GeneratedArchive{DisplayName: strings.Repeat("n", 230) + "_protected.zip"}
	locator, err := sink.Store(ctx, requestID, 3, a, []byte("long"))
	require.NoError(t, err)
	assert.LessOrEqual(t, len(locator), 255)
	assert.True(t, strings.HasSuffix(locator, "_protected.zip"), locator)

	obj, err := s.Take(ctx, locator)
	require.NoError(t, err)
	defer obj.Discard()
	defer obj.Body.Close()
	body, err := io.ReadAll(obj.Body)
	require.NoError(t, err)
	assert.Equal(t, "long", string(body))
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	s, err := New(context.Background(), &config.Config{StoreBackend: config.BackendLocal, TempDir: dir}, nil)
	require.NoError(t, err)
	assert.Equal(t, "local", s.Backend())

	_, err = New(context.Background(), &config.Config{StoreBackend: "ftp", TempDir: dir}, nil)
	assert.True(t, errors.Is(err, common.ErrValidation))
}
