package models

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"time"
)

// SourceFile is a named payload handed to the archive pipeline. Open is called
// once per build and the returned stream is closed by the builder.
type SourceFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// ArchiveRequest is one generation call: every file is archived with the same password.
type ArchiveRequest struct {
	ID       string
	Files    []SourceFile
	Password string
}

type GeneratedArchive struct {
	ID               string    `json:"id"`
	DisplayName      string    `json:"display_name"`
	OriginalFileName string    `json:"original_file_name"`
	ByteSize         int64     `json:"byte_size"`
	CreatedAt        time.Time `json:"created_at"`
	Locator          string    `json:"locator"`
	Protected        bool      `json:"protected"`
}

type ItemFailure struct {
	Index    int    `json:"index"`
	FileName string `json:"file_name"`
	Reason   string `json:"reason"`
	Message  string `json:"message"`
}

type BatchResult struct {
	RequestID string             `json:"request_id"`
	Archives  []GeneratedArchive `json:"archives"`
	Failures  []ItemFailure      `json:"failures,omitempty"`
	Notice    string             `json:"notice,omitempty"`
}

// TotalSize sums the byte size of every generated archive.
func (r *BatchResult) TotalSize() int64 {
	var total int64
	for _, a := range r.Archives {
		total += a.ByteSize
	}
	return total
}

// BytesSource wraps an in-memory payload as a SourceFile.
func BytesSource(name string, data []byte, contentType string) SourceFile {
	return SourceFile{
		Name:        name,
		Size:        int64(len(data)),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(data)), nil
		},
	}
}

// FileSource wraps a file on local disk as a SourceFile named after its base name.
func FileSource(path string, contentType string) (SourceFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return SourceFile{}, err
	}
	return SourceFile{
		Name:        filepath.Base(path),
		Size:        info.Size(),
		ContentType: contentType,
		Open: func() (io.ReadCloser, error) {
			return os.Open(path)
		},
	}, nil
}
