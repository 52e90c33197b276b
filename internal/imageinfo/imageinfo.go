// Package imageinfo reads image dimensions and encoding without decoding
// the full pixel data.
package imageinfo

import (
	"errors"
	"fmt"
	"image"
	"io"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"
)

// ErrInvalidImage is returned when the data decodes but does not describe a
// usable image (zero dimensions or no format).
var ErrInvalidImage = errors.New("invalid image metadata")

// Info describes a decoded image header.
type Info struct {
	Format string
	Width  int
	Height int
}

// AspectRatio returns width divided by height.
func (i Info) AspectRatio() float64 {
	if i.Height == 0 {
		return 0
	}
	return float64(i.Width) / float64(i.Height)
}

// Valid reports whether both dimensions are positive and the format is known.
func (i Info) Valid() bool {
	return i.Width > 0 && i.Height > 0 && i.Format != ""
}

// Probe decodes the image header from r. Supported formats are png, jpeg,
// gif and webp.
func Probe(r io.Reader) (Info, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Info{}, fmt.Errorf("decode image config: %w", err)
	}

	info := Info{Format: format, Width: cfg.Width, Height: cfg.Height}
	if !info.Valid() {
		return Info{}, fmt.Errorf("%w: format=%q width=%d height=%d", ErrInvalidImage, format, cfg.Width, cfg.Height)
	}
	return info, nil
}
