package upload

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"depot/internal/locale"

	"golang.org/x/text/message"
)

var (
	ErrNoFiles              = errors.New("request carries no files")
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrPayloadTooLarge      = errors.New("file exceeds size limit")
	ErrCorruptImage         = errors.New("file is not a decodable image")
)

// Error is a batch-level rejection. Kind is one of the sentinel errors above
// and Status the HTTP status the rejection maps to.
type Error struct {
	Kind   error
	Status int
	// Keys lists the offending field keys, when the check names them.
	Keys []string
	// Allowed is the extension allow-list for ErrUnsupportedExtension.
	Allowed []string
	// Limit is the size ceiling in bytes for ErrPayloadTooLarge.
	Limit int64
}

func (e *Error) Error() string {
	switch {
	case len(e.Keys) > 0:
		return fmt.Sprintf("%v: %s", e.Kind, strings.Join(e.Keys, ", "))
	default:
		return e.Kind.Error()
	}
}

func (e *Error) Unwrap() error {
	return e.Kind
}

// Localize renders the client-facing message for the rejection.
func (e *Error) Localize(p *message.Printer) string {
	switch e.Kind {
	case ErrNoFiles:
		return p.Sprintf(locale.MsgNoFiles)
	case ErrUnsupportedExtension:
		return p.Sprintf(locale.MsgUnsupportedExtension, strings.Join(e.Allowed, ", "))
	case ErrPayloadTooLarge:
		return p.Sprintf(locale.MsgPayloadTooLarge, strings.Join(e.Keys, ", "), e.Limit/MiB)
	case ErrCorruptImage:
		return p.Sprintf(locale.MsgCorruptImage)
	default:
		return p.Sprintf(locale.MsgInternalError)
	}
}

func noFilesError() *Error {
	return &Error{Kind: ErrNoFiles, Status: http.StatusBadRequest}
}

func unsupportedExtensionError(keys []string, allowed []string) *Error {
	return &Error{Kind: ErrUnsupportedExtension, Status: http.StatusUnprocessableEntity, Keys: keys, Allowed: allowed}
}

func payloadTooLargeError(keys []string, limit int64) *Error {
	return &Error{Kind: ErrPayloadTooLarge, Status: http.StatusRequestEntityTooLarge, Keys: keys, Limit: limit}
}

func corruptImageError(key string) *Error {
	return &Error{Kind: ErrCorruptImage, Status: http.StatusBadRequest, Keys: []string{key}}
}
