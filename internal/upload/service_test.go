package upload_test

import (
	"net/http"
	"testing"

	"depot/internal/upload"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestServiceRejectedBatchWritesNothing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  upload.Request
		kind error
	}{
		{
			name: "unsupported extension",
			req: upload.NewRequest(
				single("ok", upload.NewFile("ok.png", pngBytes(t, 2, 2))),
				single("bad", upload.NewFile("bad.bmp", []byte("x"))),
			),
			kind: upload.ErrUnsupportedExtension,
		},
		{
			name: "too large",
			req: upload.NewRequest(
				single("ok", upload.NewFile("ok.png", pngBytes(t, 2, 2))),
				single("big", sizedFile("big.png", 11*upload.MiB)),
			),
			kind: upload.ErrPayloadTooLarge,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			memFs, engine := newMemStorage(t)
			svc := upload.NewService(upload.DefaultPolicy(), upload.NewIngestor(engine))

			stored, err := svc.Upload(t.Context(), testProject, tc.req)
			require.ErrorIs(t, err, tc.kind)
			require.Empty(t, stored)

			exists, err := afero.DirExists(memFs, "/data/"+testProject)
			require.NoError(t, err)
			require.False(t, exists, "nothing may be written for a rejected batch")
		})
	}
}

func TestServiceUploadTwoImages(t *testing.T) {
	t.Parallel()

	_, engine := newMemStorage(t)
	svc := upload.NewService(upload.DefaultPolicy(), upload.NewIngestor(engine, upload.WithClock(steppingClock(epoch))))

	stored, err := svc.Upload(t.Context(), testProject, upload.NewRequest(
		single("left", upload.NewFile("l.png", pngBytes(t, 16, 9))),
		single("right", upload.NewFile("r.jpeg", jpegBytes(t, 9, 16))),
	))
	require.NoError(t, err)
	require.Len(t, stored, 2)

	for _, sf := range stored {
		exists, err := engine.Exists(testProject, sf.Name)
		require.NoError(t, err)
		require.True(t, exists)
		require.InDelta(t, float64(sf.Image.Width)/float64(sf.Image.Height), sf.AspectRatio(), 1e-9)
	}
}

func TestServiceNoFiles(t *testing.T) {
	t.Parallel()

	_, engine := newMemStorage(t)
	svc := upload.NewService(upload.DefaultPolicy(), upload.NewIngestor(engine))

	_, err := svc.Upload(t.Context(), testProject, upload.Request{})
	requireRejection(t, err, upload.ErrNoFiles, http.StatusBadRequest)
	require.Equal(t, upload.DefaultPolicy(), svc.Policy())
}
