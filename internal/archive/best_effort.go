package archive

import (
	"archive/zip"
	"bytes"
	"compress/flate"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Vitalii2594/zip-password-app/internal/common"
	"github.com/Vitalii2594/zip-password-app/internal/models"
)

// BestEffortBuilder writes an ordinary, unencrypted archive at maximum
// compression. The password is accepted and ignored.
type BestEffortBuilder struct {
	now func() time.Time
}

func NewBestEffortBuilder() *BestEffortBuilder {
	return &BestEffortBuilder{now: time.Now}
}

func (b *BestEffortBuilder) Name() string   { return "best-effort" }
func (b *BestEffortBuilder) Protects() bool { return false }

func (b *BestEffortBuilder) Build(ctx context.Context, file models.SourceFile, _ string) ([]byte, error) {
	data, err := readSource(ctx, file)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.BestCompression)
	})

	header := &zip.FileHeader{
		Name:     file.Name,
		Method:   zip.Deflate,
		Modified: b.now(),
	}
	w, err := zw.CreateHeader(header)
	if err != nil {
		return nil, fmt.Errorf("%w: create entry %s: %v", common.ErrEncoding, file.Name, err)
	}
	if _, err := w.Write(data); err != nil {
		return nil, fmt.Errorf("%w: write entry %s: %v", common.ErrEncoding, file.Name, err)
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finalize archive for %s: %v", common.ErrEncoding, file.Name, err)
	}

	return buf.Bytes(), nil
}
