package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ProtectedSuffix is appended to the stripped source name of every generated archive.
const ProtectedSuffix = "_protected.zip"

// ArchiveDisplayName derives "<name without extension>_protected.zip" from a
// source file name. Directory components of either separator style are dropped,
// and dot-files keep their full name.
func ArchiveDisplayName(fileName string) string {
	base := fileName
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if ext := filepath.Ext(base); ext != "" && ext != base {
		base = strings.TrimSuffix(base, ext)
	}
	if base == "" {
		base = "archive"
	}
	return base + ProtectedSuffix
}

// ArchiveID derives a per-artifact identifier from the source name, the
// generation time and the position in the batch, so duplicate file names
// within one batch still get distinct ids.
func ArchiveID(fileName string, createdAt time.Time, index int) string {
	return fmt.Sprintf("%s-%d-%d", fileName, createdAt.UnixMilli(), index)
}

func ValidatePaths(paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				return fmt.Errorf("path does not exist: %s", path)
			}
			return fmt.Errorf("cannot access path %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, only files can be archived: %s", path)
		}
	}
	return nil
}

func CleanupTempFile(path string) error {
	if path == "" {
		return nil
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to cleanup temporary file %s: %w", path, err)
	}
	return nil
}
