// Package blob is the in-process archive pipeline: archives live in memory
// behind ephemeral "blob:" references until the caller releases them.
package blob

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Vitalii2594/zip-password-app/internal/common"
)

const RefScheme = "blob:"

type Blob struct {
	Data        []byte
	ContentType string
	CreatedAt   time.Time
}

// Registry maps references to blobs. References stay valid until released;
// nothing is released automatically.
type Registry struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

func NewRegistry() *Registry {
	return &Registry{blobs: make(map[string]Blob)}
}

// Mint stores data and returns a fresh reference to it.
func (r *Registry) Mint(data []byte, contentType string) string {
	ref := RefScheme + uuid.NewString()

	r.mu.Lock()
	r.blobs[ref] = Blob{Data: data, ContentType: contentType, CreatedAt: time.Now().UTC()}
	r.mu.Unlock()

	return ref
}

func (r *Registry) Resolve(ref string) (Blob, error) {
	if !strings.HasPrefix(ref, RefScheme) {
		return Blob{}, fmt.Errorf("%w: %q is not a blob reference", common.ErrNotFound, ref)
	}

	r.mu.RLock()
	b, ok := r.blobs[ref]
	r.mu.RUnlock()

	if !ok {
		return Blob{}, fmt.Errorf("%w: %s", common.ErrNotFound, ref)
	}
	return b, nil
}

// Release drops ref and reports whether it was live.
func (r *Registry) Release(ref string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.blobs[ref]
	delete(r.blobs, ref)
	return ok
}

// ReleaseAll drops every reference and returns how many there were.
func (r *Registry) ReleaseAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := len(r.blobs)
	r.blobs = make(map[string]Blob)
	return n
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.blobs)
}
