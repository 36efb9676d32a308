package models

import (
	"io"
	"time"
)

// StoredObject is an archive claimed from a store for a single retrieval.
// Discard removes the backing file or object and must be called once the
// transfer is over, whatever its outcome.
type StoredObject struct {
	Locator string
	Name    string
	Size    int64
	ModTime time.Time
	Body    io.ReadCloser
	Discard func() error
}

type StoredArchive struct {
	Locator      string    `json:"locator"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"last_modified"`
}

type FetchResult struct {
	Backend          string `json:"backend"`
	Locator          string `json:"locator"`
	LocalPath        string `json:"local_path"`
	Size             int64  `json:"size"`
	SizeHuman        string `json:"size_human"`
	OperationTime    string `json:"operation_time"`
	DownloadDuration string `json:"download_duration"`
}
