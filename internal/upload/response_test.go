package upload_test

import (
	"testing"

	"depot/internal/imageinfo"
	"depot/internal/upload"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

func TestAssemble(t *testing.T) {
	t.Parallel()

	stored := []upload.StoredFile{
		{Name: "a_1.png", Size: 3 * upload.MiB / 2, Image: imageinfo.Info{Format: "png", Width: 300, Height: 200}},
		{Name: "b_2.webp", Size: 1024, Image: imageinfo.Info{Format: "webp", Width: 100, Height: 400}},
	}

	summary := upload.Assemble(stored)
	require.Len(t, summary.Files, 2)

	require.Equal(t, upload.FileRecord{
		Name:        "a_1.png",
		Format:      "png",
		Width:       300,
		Height:      200,
		AspectRatio: 1.5,
		SizeMB:      "1.50",
	}, summary.Files[0])

	require.Equal(t, "0.00", summary.Files[1].SizeMB)
	require.InDelta(t, 0.25, summary.Files[1].AspectRatio, 1e-9)

	require.Equal(t, []string{"a_1.png", "b_2.webp"}, summary.Names())
	require.Equal(t, []float64{1.5, 0.25}, summary.AspectRatios())
}

func TestSummaryMessage(t *testing.T) {
	t.Parallel()

	summary := upload.Summary{Files: []upload.FileRecord{{Name: "a.png"}, {Name: "b.png"}}}

	require.Equal(t, "Сохранены файлы a.png, b.png", summary.Message(message.NewPrinter(language.Russian)))
	require.Equal(t, "Saved files a.png, b.png", summary.Message(message.NewPrinter(language.English)))
}

func TestErrorLocalize(t *testing.T) {
	t.Parallel()

	en := message.NewPrinter(language.English)

	req := upload.NewRequest(
		single("big", sizedFile("big.png", 11*upload.MiB)),
		single("bigger", sizedFile("bigger.png", 12*upload.MiB)),
	)
	err := upload.Validate(req, upload.DefaultPolicy())
	rejection := requireRejection(t, err, upload.ErrPayloadTooLarge, 413)
	require.Equal(t, "Upload failed! File big, bigger exceeds 10 MB", rejection.Localize(en))

	req = upload.NewRequest(single("doc", upload.NewFile("doc.pdf", []byte("x"))))
	err = upload.Validate(req, upload.DefaultPolicy())
	rejection = requireRejection(t, err, upload.ErrUnsupportedExtension, 422)
	require.Equal(t,
		"Ошибка загрузки. Допускаются только файлы с расширениями: .png, .jpg, .jpeg, .webp.",
		rejection.Localize(message.NewPrinter(language.Russian)))
}
