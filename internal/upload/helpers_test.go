package upload_test

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"depot/internal/upload"
	"depot/pkg/storage"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testProject = "skyarhyz"

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))), "encode png")
	return buf.Bytes()
}

func jpegBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h)), nil), "encode jpeg")
	return buf.Bytes()
}

func single(key string, f upload.File) upload.Field {
	return upload.Field{Key: key, Entry: upload.SingleEntry(f)}
}

// sizedFile declares size without carrying that many bytes.
func sizedFile(name string, size int64) upload.File {
	f := upload.NewFile(name, []byte("x"))
	f.Size = size
	return f
}

// steppingClock returns a clock that advances by one millisecond per call.
func steppingClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		now := current
		current = current.Add(time.Millisecond)
		return now
	}
}

func newMemStorage(t *testing.T) (afero.Fs, *storage.LocalFileStorage) {
	t.Helper()
	memFs := afero.NewMemMapFs()
	return memFs, storage.NewLocalFileStorageFs(memFs, "/data")
}

// webpBytes is a 1x1 lossless WEBP (VP8L) image with an alpha channel.
var webpBytes = []byte{
	0x52, 0x49, 0x46, 0x46, 0x1a, 0x00, 0x00, 0x00, 0x57, 0x45, 0x42, 0x50,
	0x56, 0x50, 0x38, 0x4c, 0x0d, 0x00, 0x00, 0x00, 0x2f, 0x00, 0x00, 0x00,
	0x10, 0x07, 0x10, 0x11, 0x11, 0x88, 0x88, 0xfe, 0x07, 0x00,
}
