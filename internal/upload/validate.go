package upload

import (
	"slices"
	"strings"
)

const (
	MiB = 1024 * 1024

	// DefaultMaxFileSize is the per-file ceiling applied by CheckSize.
	DefaultMaxFileSize = 10 * MiB
)

// DefaultAllowedExtensions is the extension allow-list of the image service.
var DefaultAllowedExtensions = []string{".png", ".jpg", ".jpeg", ".webp"}

// Policy configures the validator chain.
type Policy struct {
	AllowedExtensions []string
	MaxFileSize       int64
}

// DefaultPolicy returns the reference policy: png/jpg/jpeg/webp up to 10 MiB.
func DefaultPolicy() Policy {
	return Policy{
		AllowedExtensions: slices.Clone(DefaultAllowedExtensions),
		MaxFileSize:       DefaultMaxFileSize,
	}
}

// allows compares ext against the allow-list case-insensitively.
func (p Policy) allows(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range p.AllowedExtensions {
		if strings.ToLower(allowed) == ext {
			return true
		}
	}
	return false
}

// Check is one step of the validator chain. It returns nil to accept the
// request or an *Error rejecting the whole batch.
type Check func(req Request, policy Policy) *Error

// DefaultChecks returns the chain in its fixed order: presence, extension,
// size. The first failing check decides the outcome.
func DefaultChecks() []Check {
	return []Check{CheckPresence, CheckExtensions, CheckSize}
}

// Validate runs checks in order and stops at the first rejection. With no
// checks given it runs DefaultChecks.
func Validate(req Request, policy Policy, checks ...Check) error {
	if len(checks) == 0 {
		checks = DefaultChecks()
	}

	for _, check := range checks {
		if rejection := check(req, policy); rejection != nil {
			return rejection
		}
	}
	return nil
}

// CheckPresence rejects requests without any file field.
func CheckPresence(req Request, _ Policy) *Error {
	if req.Len() == 0 {
		return noFilesError()
	}
	return nil
}

// CheckExtensions rejects the batch when any single-file entry has an
// extension outside the allow-list. Multi-file entries are not inspected.
func CheckExtensions(req Request, policy Policy) *Error {
	var offending []string
	req.singles(func(key string, f File) bool {
		if !policy.allows(Extension(f.Name)) {
			offending = append(offending, key)
		}
		return true
	})

	if len(offending) > 0 {
		return unsupportedExtensionError(offending, slices.Clone(policy.AllowedExtensions))
	}
	return nil
}

// CheckSize rejects the batch when any single-file entry declares more bytes
// than the policy ceiling, naming every offending key.
func CheckSize(req Request, policy Policy) *Error {
	var offending []string
	req.singles(func(key string, f File) bool {
		if f.Size > policy.MaxFileSize {
			offending = append(offending, key)
		}
		return true
	})

	if len(offending) > 0 {
		return payloadTooLargeError(offending, policy.MaxFileSize)
	}
	return nil
}
