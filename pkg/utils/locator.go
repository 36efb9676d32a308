package utils

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// MaxLocatorLength is the longest locator a store accepts; it matches the
// per-component file name limit of common filesystems.
const MaxLocatorLength = 255

// Locator builds the retrieval name of a stored archive. The request id
// prefix keeps identical display names from different requests apart.
// Display names too long to fit are shortened, keeping their suffix.
func Locator(requestID string, index int, displayName string) string {
	prefix := fmt.Sprintf("%s-%d_", requestID, index)
	return prefix + shortenName(displayName, MaxLocatorLength-len(prefix))
}

// shortenName trims the stem of name so that it fits in max bytes. The part
// from the last "_" (or the extension) onwards is kept.
func shortenName(name string, max int) string {
	if len(name) <= max || max <= 0 {
		return name
	}
	tail := filepath.Ext(name)
	if i := strings.LastIndex(name, "_"); i > 0 {
		tail = name[i:]
	}
	if len(tail) >= max {
		tail = ""
	}
	stem := name[:max-len(tail)]
	for len(stem) > 0 && !utf8.RuneStart(name[len(stem)]) {
		stem = stem[:len(stem)-1]
	}
	return stem + tail
}

// LocatorDisplayName returns the part of a locator after the namespace prefix,
// which is the name a downloaded archive is saved under.
func LocatorDisplayName(locator string) string {
	if i := strings.Index(locator, "_"); i >= 0 && i < len(locator)-1 {
		return locator[i+1:]
	}
	return locator
}

// ValidLocator reports whether name can address a stored archive: a single
// visible path element with no traversal.
func ValidLocator(name string) bool {
	if name == "" || len(name) > MaxLocatorLength {
		return false
	}
	if strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
