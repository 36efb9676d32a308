package models

import "time"

type StoreInfo struct {
	Backend        string    `json:"backend"`
	Location       string    `json:"location"`
	ArchiveCount   int64     `json:"archive_count"`
	TotalSizeBytes int64     `json:"total_size_bytes"`
	TotalSizeHuman string    `json:"total_size_human"`
	LastModified   time.Time `json:"last_modified"`
	APIEndpoint    string    `json:"api_endpoint,omitempty"`
}

type ErrorResponse struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
}

type PurgeResult struct {
	Backend        string   `json:"backend"`
	HoursOld       int      `json:"hours_old"`
	DeletedFiles   []string `json:"deleted_files"`
	DeletedCount   int      `json:"deleted_count"`
	TotalSizeBytes int64    `json:"total_size_bytes"`
	TotalSizeHuman string   `json:"total_size_human"`
	OperationTime  string   `json:"operation_time"`
	CutoffDate     string   `json:"cutoff_date"`
	DryRun         bool     `json:"dry_run"`
}

// ManifestEntry is what POST /generate returns for each archive.
type ManifestEntry struct {
	OriginalName string `json:"originalName"`
	ZipName      string `json:"zipName"`
	DisplayName  string `json:"displayName"`
	Size         int64  `json:"size"`
}
