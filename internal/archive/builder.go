// Package archive turns a single source file into a standalone ZIP archive
// holding exactly one entry named after the source file.
//
// Two builders exist. ProtectedBuilder encrypts the entry with the request
// password. BestEffortBuilder cannot encrypt: it produces an ordinary archive
// at maximum compression and callers must show UnprotectedNotice to users.
package archive

import (
	"context"
	"fmt"
	"io"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

const (
	ModeEncrypted  = "encrypted"
	ModeBestEffort = "best-effort"
)

// UnprotectedNotice is shown wherever archives from a non-protecting builder are offered.
const UnprotectedNotice = "These ZIP files are compressed but not password-protected: the selected archive builder " +
	"cannot encrypt entries, so the password was not applied. For true password protection, use a desktop " +
	"application like 7-Zip or WinRAR."

// Builder builds one archive per call. Build returns either the complete
// archive bytes or an error, never a partial archive.
type Builder interface {
	Build(ctx context.Context, file models.SourceFile, password string) ([]byte, error)
	// Protects reports whether the password is really applied to the entry.
	Protects() bool
	Name() string
}

// NewBuilder selects the builder for a deployment: "encrypted" or "best-effort".
// encryption is only consulted in encrypted mode.
func NewBuilder(mode, encryption string) (Builder, error) {
	switch mode {
	case ModeEncrypted:
		return NewProtectedBuilder(encryption)
	case ModeBestEffort:
		return NewBestEffortBuilder(), nil
	default:
		return nil, fmt.Errorf("%w: unknown protection mode %q", common.ErrValidation, mode)
	}
}

// readSource pulls the whole payload of file into memory.
func readSource(ctx context.Context, file models.SourceFile) ([]byte, error) {
	if file.Name == "" {
		return nil, fmt.Errorf("%w: source file name is empty", common.ErrValidation)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCanceled, file.Name, err)
	}
	if file.Open == nil {
		return nil, fmt.Errorf("%w: %s has no content", common.ErrIO, file.Name)
	}

	rc, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", common.ErrIO, file.Name, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", common.ErrIO, file.Name, err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrCanceled, file.Name, err)
	}
	return data, nil
}
