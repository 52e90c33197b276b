package upload_test

import (
	"strings"
	"testing"
	"time"

	"depot/internal/upload"

	"github.com/stretchr/testify/require"
)

func TestTimestampDigits(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 7, 9, 5, 1, 42*int(time.Millisecond), time.UTC)
	require.Equal(t, "20240307090501042", upload.TimestampDigits(at))

	// Non-UTC instants are rendered in UTC.
	moscow := time.FixedZone("MSK", 3*60*60)
	require.Equal(t, "20240307090501042", upload.TimestampDigits(at.In(moscow)))
}

func TestGenerateName(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 3, 7, 9, 5, 1, 678*int(time.Millisecond), time.UTC)

	tests := []struct {
		name     string
		key      string
		original string
		want     string
	}{
		{name: "plain", key: "avatar", original: "me.png", want: "avatar_20240307090501678.png"},
		{name: "upper-case extension", key: "photo", original: "IMG_1.JPG", want: "photo_20240307090501678.jpg"},
		{name: "dotted key", key: "cover.main.v2", original: "x.webp", want: "cover_20240307090501678.webp"},
		{name: "multi-dot original", key: "k", original: "archive.tar.JPEG", want: "k_20240307090501678.jpeg"},
		{name: "no extension", key: "k", original: "blob", want: "k_20240307090501678"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, upload.GenerateName(tc.key, tc.original, at))
		})
	}
}

func TestGenerateNameDistinctAcrossInstantsAndKeys(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	later := at.Add(time.Millisecond)

	require.NotEqual(t,
		upload.GenerateName("file", "a.png", at),
		upload.GenerateName("file", "a.png", later),
		"same key at different instants must differ")

	require.NotEqual(t,
		upload.GenerateName("file1", "a.png", at),
		upload.GenerateName("file2", "a.png", at),
		"different keys at the same instant must differ")
}

func TestGenerateNamePreservesLowerCasedExtension(t *testing.T) {
	t.Parallel()

	at := time.Now()
	for _, original := range []string{"a.PNG", "b.JpG", "c.jpeg", "d.WebP", "e.f.G"} {
		name := upload.GenerateName("key", original, at)
		require.Equal(t, strings.ToLower(upload.Extension(original)), upload.Extension(name), "extension of %q", original)
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	require.Equal(t, ".png", upload.Extension("a.png"))
	require.Equal(t, ".PNG", upload.Extension("dir/a.PNG"))
	require.Equal(t, "", upload.Extension(".bashrc"))
	require.Equal(t, "", upload.Extension("noext"))
	require.Equal(t, "", upload.Extension(".."))
	require.Equal(t, ".", upload.Extension("trailing."))
}
