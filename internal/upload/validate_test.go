package upload_test

import (
	"errors"
	"net/http"
	"testing"

	"depot/internal/upload"

	"github.com/stretchr/testify/require"
)

func requireRejection(t *testing.T, err error, kind error, status int) *upload.Error {
	t.Helper()
	require.Error(t, err, "expected a rejection")
	require.ErrorIs(t, err, kind, "rejection kind")

	var rejection *upload.Error
	require.True(t, errors.As(err, &rejection), "expected *upload.Error")
	require.Equal(t, status, rejection.Status, "rejection status")
	return rejection
}

func TestValidateNoFiles(t *testing.T) {
	t.Parallel()

	policies := []upload.Policy{
		upload.DefaultPolicy(),
		{},
		{AllowedExtensions: []string{".gif"}, MaxFileSize: 1},
	}

	for _, policy := range policies {
		err := upload.Validate(upload.NewRequest(), policy)
		requireRejection(t, err, upload.ErrNoFiles, http.StatusBadRequest)
	}
}

func TestValidateAcceptsAllowedFiles(t *testing.T) {
	t.Parallel()

	req := upload.NewRequest(
		single("a", upload.NewFile("a.png", []byte("x"))),
		single("b", upload.NewFile("B.JPG", []byte("x"))),
		single("c", upload.NewFile("c.Jpeg", []byte("x"))),
		single("d", upload.NewFile("d.webp", []byte("x"))),
	)

	require.NoError(t, upload.Validate(req, upload.DefaultPolicy()))
}

func TestValidateUnsupportedExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		file string
	}{
		{name: "gif", file: "anim.gif"},
		{name: "no extension", file: "README"},
		{name: "dotfile", file: ".png"},
		{name: "double extension", file: "photo.png.exe"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			req := upload.NewRequest(
				single("ok", upload.NewFile("ok.png", []byte("x"))),
				single("bad", upload.NewFile(tc.file, []byte("x"))),
			)

			err := upload.Validate(req, upload.DefaultPolicy())
			rejection := requireRejection(t, err, upload.ErrUnsupportedExtension, http.StatusUnprocessableEntity)
			require.Equal(t, upload.DefaultAllowedExtensions, rejection.Allowed, "allow-list in rejection")
			require.Equal(t, []string{"bad"}, rejection.Keys, "offending keys")
		})
	}
}

func TestValidateAllowListIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	policy := upload.Policy{AllowedExtensions: []string{".PNG"}, MaxFileSize: upload.DefaultMaxFileSize}
	req := upload.NewRequest(single("a", upload.NewFile("a.png", []byte("x"))))
	require.NoError(t, upload.Validate(req, policy))
}

func TestValidatePayloadTooLargeNamesEveryKey(t *testing.T) {
	t.Parallel()

	req := upload.NewRequest(
		single("first", sizedFile("first.png", upload.DefaultMaxFileSize+1)),
		single("fits", sizedFile("fits.png", upload.DefaultMaxFileSize)),
		single("second", sizedFile("second.jpg", 50*upload.MiB)),
	)

	err := upload.Validate(req, upload.DefaultPolicy())
	rejection := requireRejection(t, err, upload.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge)
	require.Equal(t, []string{"first", "second"}, rejection.Keys, "offending keys")
	require.Equal(t, int64(upload.DefaultMaxFileSize), rejection.Limit, "limit")
}

func TestValidateExtensionCheckedBeforeSize(t *testing.T) {
	t.Parallel()

	req := upload.NewRequest(
		single("huge", sizedFile("huge.png", 20*upload.MiB)),
		single("text", upload.NewFile("notes.txt", []byte("x"))),
	)

	err := upload.Validate(req, upload.DefaultPolicy())
	requireRejection(t, err, upload.ErrUnsupportedExtension, http.StatusUnprocessableEntity)
}

func TestValidateSkipsMultipleEntries(t *testing.T) {
	t.Parallel()

	req := upload.NewRequest(upload.Field{
		Key: "gallery",
		Entry: upload.MultipleEntry(
			sizedFile("a.exe", 100*upload.MiB),
			sizedFile("b.txt", 1),
		),
	})

	require.NoError(t, upload.Validate(req, upload.DefaultPolicy()), "multi-file entries are not validated")
}

func TestValidateIsIdempotent(t *testing.T) {
	t.Parallel()

	req := upload.NewRequest(
		single("a", sizedFile("a.png", 11*upload.MiB)),
		single("b", upload.NewFile("b.png", []byte("x"))),
	)
	policy := upload.DefaultPolicy()

	for _, check := range []upload.Check{upload.CheckExtensions, upload.CheckSize} {
		first := check(req, policy)
		second := check(req, policy)
		require.Equal(t, first, second, "repeated check must give the same outcome")
	}

	require.Len(t, req.Fields(), 2, "request must not be modified")
}

func TestValidateCustomChainStopsAtFirstRejection(t *testing.T) {
	t.Parallel()

	var calls []string
	record := func(name string, reject bool) upload.Check {
		return func(upload.Request, upload.Policy) *upload.Error {
			calls = append(calls, name)
			if reject {
				return &upload.Error{Kind: upload.ErrNoFiles, Status: http.StatusBadRequest}
			}
			return nil
		}
	}

	err := upload.Validate(upload.NewRequest(), upload.DefaultPolicy(),
		record("one", false),
		record("two", true),
		record("three", false),
	)
	require.ErrorIs(t, err, upload.ErrNoFiles)
	require.Equal(t, []string{"one", "two"}, calls, "chain must stop at the first rejection")
}
