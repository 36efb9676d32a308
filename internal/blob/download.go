package blob

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/Vitalii2594/zip-password-app/internal/models"
)

// Trigger delivers one blob to the user under name.
type Trigger interface {
	Download(ctx context.Context, name string, b Blob) error
}

// DownloadAll starts one download per archive, in order, each on its own
// goroutine so a slow delivery never holds back the next one. It waits for
// all of them and returns their errors joined in archive order.
func DownloadAll(ctx context.Context, registry *Registry, archives []models.GeneratedArchive, trigger Trigger) error {
	errs := make([]error, len(archives))

	var wg sync.WaitGroup
	for i, a := range archives {
		i, a := i, a
		b, err := registry.Resolve(a.Locator)
		if err != nil {
			errs[i] = fmt.Errorf("%s: %w", a.DisplayName, err)
			continue
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := trigger.Download(ctx, a.DisplayName, b); err != nil {
				errs[i] = fmt.Errorf("%s: %w", a.DisplayName, err)
			}
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

// DirTrigger saves downloads into a directory. A name that is already taken
// gets a " (n)" suffix the way browsers do.
type DirTrigger struct {
	Dir string

	mu    sync.Mutex
	saved []string
}

func (d *DirTrigger) Download(ctx context.Context, name string, b Blob) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, path, err := d.create(filepath.Base(name))
	if err != nil {
		return err
	}
	if _, err := f.Write(b.Data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return fmt.Errorf("close %s: %w", path, err)
	}

	d.mu.Lock()
	d.saved = append(d.saved, path)
	d.mu.Unlock()
	return nil
}

// Saved lists the files written so far.
func (d *DirTrigger) Saved() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.saved...)
}

func (d *DirTrigger) create(name string) (*os.File, string, error) {
	if err := os.MkdirAll(d.Dir, 0o755); err != nil {
		return nil, "", fmt.Errorf("create %s: %w", d.Dir, err)
	}

	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for n := 0; ; n++ {
		candidate := name
		if n > 0 {
			candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
		}
		path := filepath.Join(d.Dir, candidate)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", fmt.Errorf("create %s: %w", path, err)
		}
	}
}
