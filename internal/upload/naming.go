package upload

import (
	"path/filepath"
	"strings"
	"time"
)

const isoLayout = "2006-01-02T15:04:05.000Z07:00"

// Extension returns the extension of a file name including the dot. A name
// consisting only of a leading-dot component (".bashrc") has no extension.
func Extension(name string) string {
	base := filepath.Base(name)
	if strings.Trim(base, ".") == "" {
		return ""
	}

	i := strings.LastIndexByte(base, '.')
	if i <= 0 {
		return ""
	}
	return base[i:]
}

// TimestampDigits renders t as an ISO-8601 UTC timestamp with millisecond
// precision and keeps only its digits, e.g. 20240102030405678.
func TimestampDigits(t time.Time) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, t.UTC().Format(isoLayout))
}

// GenerateName builds <key prefix>_<timestamp digits><lower-cased extension>,
// where the key prefix is the field key up to its first dot.
//
// Keys sharing a prefix ("photo.front", "photo.back") or a repeated key map to
// the same name within one millisecond. The Ingestor resolves such clashes by
// moving the instant forward.
func GenerateName(key string, original string, at time.Time) string {
	prefix, _, _ := strings.Cut(key, ".")
	return prefix + "_" + TimestampDigits(at) + strings.ToLower(Extension(original))
}
