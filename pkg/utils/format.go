package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Vitalii2594/zip-password-app/internal/models"
)

func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// PrintJSON writes data as indented JSON followed by a newline.
func PrintJSON(w io.Writer, data any) error {
	jsonOutput, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(jsonOutput))
	return err
}

// PrintError reports a command failure as a JSON ErrorResponse. It falls back
// to plain text when the JSON report itself cannot be written.
func PrintError(w io.Writer, err error, command string) {
	errorResp := models.ErrorResponse{
		Error:     err.Error(),
		Timestamp: time.Now().Format(time.RFC3339),
		Command:   command,
	}
	if jsonErr := PrintJSON(w, errorResp); jsonErr != nil {
		fmt.Fprintf(w, "Error (%s): %s\n", command, errorResp.Error)
	}
}

func FormatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// Percent returns round(done/total*100). A zero total counts as complete.
func Percent(done, total int) int {
	if total <= 0 {
		return 100
	}
	return (done*200 + total) / (2 * total)
}
