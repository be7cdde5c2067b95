package analyzer

import (
	"image"
	"math"

	xdraw "golang.org/x/image/draw"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

// Perceptual luma weights.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// plane is the S x S working representation every extractor reads.
type plane struct {
	size int
	// luma is the float-valued intensity plane.
	luma []float64
	// gray is luma rounded to 8 bits for the integer kernels.
	gray []uint8
	// rgb holds the resized colour channels. Gray input shares one slice.
	rgb [3][]float64
}

func (p *plane) at(x, y int) int {
	return int(p.gray[y*p.size+x])
}

// preprocess resizes bm to size x size and derives the luma and colour planes.
func preprocess(bm *bitmap.Bitmap, size int) (*plane, error) {
	if err := bm.Validate(); err != nil {
		return nil, err
	}

	resized := resize(bm, size)
	n := size * size
	p := &plane{
		size: size,
		luma: make([]float64, n),
		gray: make([]uint8, n),
	}

	if resized.IsGray() {
		for i := 0; i < n; i++ {
			v := float64(resized.Pix[i])
			p.luma[i] = v
			p.gray[i] = resized.Pix[i]
		}
		p.rgb = [3][]float64{p.luma, p.luma, p.luma}
		return p, nil
	}

	for c := range p.rgb {
		p.rgb[c] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		r := float64(resized.Pix[i*3])
		g := float64(resized.Pix[i*3+1])
		b := float64(resized.Pix[i*3+2])
		p.rgb[0][i], p.rgb[1][i], p.rgb[2][i] = r, g, b

		l := lumaR*r + lumaG*g + lumaB*b
		p.luma[i] = l
		p.gray[i] = quantize(l)
	}
	return p, nil
}

// areaKernel is a box filter. Scale widens its support on downscale, so each
// destination pixel is the mean of the source pixels under its footprint; on
// upscale it takes the nearest source pixel. Support sits one ulp above 0.5
// so a centre exactly between two source pixels averages both rather than
// receiving no weight.
var areaKernel = &xdraw.Kernel{
	Support: math.Nextafter(0.5, 1),
	At:      func(float64) float64 { return 1 },
}

// resize scales bm to size x size with areaKernel.
func resize(bm *bitmap.Bitmap, size int) *bitmap.Bitmap {
	if bm.Width == size && bm.Height == size {
		return bm
	}

	src := bm.Image()
	rect := image.Rect(0, 0, size, size)
	if bm.IsGray() {
		dst := image.NewGray(rect)
		areaKernel.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)
		return &bitmap.Bitmap{Width: size, Height: size, Channels: bitmap.Gray, Pix: dst.Pix}
	}

	dst := image.NewRGBA(rect)
	areaKernel.Scale(dst, rect, src, src.Bounds(), xdraw.Src, nil)
	pix := make([]uint8, size*size*bitmap.RGB)
	for i := 0; i < size*size; i++ {
		pix[i*3] = dst.Pix[i*4]
		pix[i*3+1] = dst.Pix[i*4+1]
		pix[i*3+2] = dst.Pix[i*4+2]
	}
	return &bitmap.Bitmap{Width: size, Height: size, Channels: bitmap.RGB, Pix: pix}
}

func quantize(v float64) uint8 {
	switch {
	case v <= 0:
		return 0
	case v >= 255:
		return 255
	}
	return uint8(math.Round(v))
}
