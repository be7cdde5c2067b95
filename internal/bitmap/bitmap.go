// Package bitmap is the adapter between encoded image bytes and the analyzer.
// A Bitmap is an immutable 8-bit-per-channel raster, either single-channel
// grayscale or interleaved RGB.
package bitmap

import (
	"errors"
	"fmt"
	"image"
	"image/color"
)

// ErrInvalidImage is returned when bytes cannot be decoded or the decoded
// raster has no pixels.
var ErrInvalidImage = errors.New("invalid image")

// Channel layouts.
const (
	Gray = 1
	RGB  = 3
)

// Bitmap holds decoded samples in row-major order. For RGB bitmaps the
// samples of a pixel are stored as R, G, B.
type Bitmap struct {
	Width    int
	Height   int
	Channels int
	Pix      []uint8
}

// New validates the dimensions and wraps pix without copying it.
func New(width, height, channels int, pix []uint8) (*Bitmap, error) {
	b := &Bitmap{Width: width, Height: height, Channels: channels, Pix: pix}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Uniform builds a bitmap where every sample equals value.
func Uniform(width, height, channels int, value uint8) *Bitmap {
	pix := make([]uint8, width*height*channels)
	for i := range pix {
		pix[i] = value
	}
	return &Bitmap{Width: width, Height: height, Channels: channels, Pix: pix}
}

// Validate reports ErrInvalidImage for empty or inconsistent bitmaps.
func (b *Bitmap) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil bitmap", ErrInvalidImage)
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, b.Width, b.Height)
	}
	if b.Channels != Gray && b.Channels != RGB {
		return fmt.Errorf("%w: unsupported channel count %d", ErrInvalidImage, b.Channels)
	}
	if want := b.Width * b.Height * b.Channels; len(b.Pix) < want {
		return fmt.Errorf("%w: have %d samples, need %d", ErrInvalidImage, len(b.Pix), want)
	}
	return nil
}

// IsGray reports whether the bitmap is single-channel.
func (b *Bitmap) IsGray() bool {
	return b.Channels == Gray
}

// At returns sample c of the pixel at (x, y).
func (b *Bitmap) At(x, y, c int) uint8 {
	return b.Pix[(y*b.Width+x)*b.Channels+c]
}

// Image exposes the bitmap as a standard library image. Gray bitmaps share
// their backing array; RGB bitmaps are copied into an opaque RGBA image.
func (b *Bitmap) Image() image.Image {
	rect := image.Rect(0, 0, b.Width, b.Height)
	if b.IsGray() {
		return &image.Gray{Pix: b.Pix[:b.Width*b.Height], Stride: b.Width, Rect: rect}
	}
	img := image.NewRGBA(rect)
	n := b.Width * b.Height
	for i := 0; i < n; i++ {
		img.Pix[i*4] = b.Pix[i*3]
		img.Pix[i*4+1] = b.Pix[i*3+1]
		img.Pix[i*4+2] = b.Pix[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// FromImage converts any image.Image into a Bitmap. Grayscale images stay
// single-channel; everything else becomes straight (non-premultiplied) RGB
// with alpha discarded, whichever image type the decoder produced.
func FromImage(img image.Image) (*Bitmap, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidImage)
	}
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: zero dimension %dx%d", ErrInvalidImage, width, height)
	}

	switch src := img.(type) {
	case *image.Gray:
		pix := make([]uint8, width*height)
		for y := 0; y < height; y++ {
			row := src.Pix[y*src.Stride : y*src.Stride+width]
			copy(pix[y*width:], row)
		}
		return New(width, height, Gray, pix)
	case *image.Gray16:
		pix := make([]uint8, width*height)
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				pix[y*width+x] = uint8(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y >> 8)
			}
		}
		return New(width, height, Gray, pix)
	case *image.RGBA:
		pix := make([]uint8, width*height*RGB)
		for y := 0; y < height; y++ {
			off := y * src.Stride
			for x := 0; x < width; x++ {
				i := (y*width + x) * RGB
				s := src.Pix[off+x*4 : off+x*4+4 : off+x*4+4]
				if s[3] == 0xff {
					copy(pix[i:i+RGB], s[:3])
					continue
				}
				// Samples are alpha-premultiplied; undo it like the generic path.
				c := color.NRGBAModel.Convert(color.RGBA{R: s[0], G: s[1], B: s[2], A: s[3]}).(color.NRGBA)
				pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
			}
		}
		return New(width, height, RGB, pix)
	}

	pix := make([]uint8, width*height*RGB)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
			i := (y*width + x) * RGB
			pix[i], pix[i+1], pix[i+2] = c.R, c.G, c.B
		}
	}
	return New(width, height, RGB, pix)
}
