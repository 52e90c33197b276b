package upload

import (
	"strconv"
	"strings"

	"depot/internal/locale"

	"golang.org/x/text/message"
)

// FileRecord is the per-file entry of a successful upload response.
type FileRecord struct {
	Name        string  `json:"name"`
	Format      string  `json:"format"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	AspectRatio float64 `json:"aspectRatio"`
	SizeMB      string  `json:"sizeMB"`
}

// Summary is the assembled result of a fully successful batch.
type Summary struct {
	Files []FileRecord
}

// Assemble builds the per-file records for stored files, in order.
func Assemble(stored []StoredFile) Summary {
	records := make([]FileRecord, 0, len(stored))
	for _, f := range stored {
		records = append(records, FileRecord{
			Name:        f.Name,
			Format:      f.Image.Format,
			Width:       f.Image.Width,
			Height:      f.Image.Height,
			AspectRatio: f.AspectRatio(),
			SizeMB:      SizeMB(f.Size),
		})
	}
	return Summary{Files: records}
}

// SizeMB formats a byte count in MiB with two decimals.
func SizeMB(size int64) string {
	return strconv.FormatFloat(float64(size)/MiB, 'f', 2, 64)
}

// Names returns the generated file names in order.
func (s Summary) Names() []string {
	names := make([]string, 0, len(s.Files))
	for _, f := range s.Files {
		names = append(names, f.Name)
	}
	return names
}

// AspectRatios returns the aspect ratios in order.
func (s Summary) AspectRatios() []float64 {
	ratios := make([]float64, 0, len(s.Files))
	for _, f := range s.Files {
		ratios = append(ratios, f.AspectRatio)
	}
	return ratios
}

// Message renders the human-readable summary of saved file names.
func (s Summary) Message(p *message.Printer) string {
	return p.Sprintf(locale.MsgSavedFiles, strings.Join(s.Names(), ", "))
}
