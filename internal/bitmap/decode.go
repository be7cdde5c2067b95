package bitmap

import (
	"bytes"
	"fmt"
	"image"

	// Registered decoders.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SupportedExtensions lists file extensions the decoder registry understands.
var SupportedExtensions = []string{".png", ".jpg", ".jpeg", ".bmp", ".tiff", ".tif", ".gif", ".webp"}

// DefaultMaxPixels bounds width*height for Decode. Headers are checked
// before any pixel memory is allocated.
const DefaultMaxPixels = 40_000_000

// Decode turns encoded image bytes into a Bitmap of at most
// DefaultMaxPixels pixels. Any decoder failure is reported as
// ErrInvalidImage.
func Decode(data []byte) (*Bitmap, error) {
	return DecodeLimit(data, DefaultMaxPixels)
}

// DecodeLimit is Decode with an explicit pixel cap; maxPixels <= 0 means
// DefaultMaxPixels.
func DecodeLimit(data []byte, maxPixels int) (*Bitmap, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidImage)
	}
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}

	cfg, format, err := DecodeConfig(data)
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, cfg.Width, cfg.Height)
	}
	if int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, fmt.Errorf("%w: %s is %dx%d, above the %d pixel limit",
			ErrInvalidImage, format, cfg.Width, cfg.Height, maxPixels)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	bm, err := FromImage(img)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", format, err)
	}
	return bm, nil
}

// Decoder returns DecodeLimit bound to maxPixels.
func Decoder(maxPixels int) func([]byte) (*Bitmap, error) {
	return func(data []byte) (*Bitmap, error) {
		return DecodeLimit(data, maxPixels)
	}
}

// DecodeConfig reports the format and dimensions without decoding pixels.
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return image.Config{}, "", fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	return cfg, format, nil
}
