package analyzer

import (
	"errors"
	"math"
	"testing"

	"github.com/anime-shed/image-quality-go/internal/bitmap"
)

const tolerance = 1e-9

// stepBitmap is black on the left half and white on the right half.
func stepBitmap(size int) *bitmap.Bitmap {
	pix := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		for x := size / 2; x < size; x++ {
			pix[y*size+x] = 255
		}
	}
	return &bitmap.Bitmap{Width: size, Height: size, Channels: bitmap.Gray, Pix: pix}
}

func mustPreprocess(t *testing.T, bm *bitmap.Bitmap, size int) *plane {
	t.Helper()
	p, err := preprocess(bm, size)
	if err != nil {
		t.Fatalf("Failed to preprocess: %v", err)
	}
	return p
}

func mustExtract(t *testing.T, bm *bitmap.Bitmap, size int) FeatureVector {
	t.Helper()
	fv, err := extractFeatures(mustPreprocess(t, bm, size), 50, 150)
	if err != nil {
		t.Fatalf("Failed to extract features: %v", err)
	}
	return fv
}

func TestExtractFeatures_UniformGray(t *testing.T) {
	fv := mustExtract(t, bitmap.Uniform(300, 300, bitmap.Gray, 128), 300)

	want := FeatureVector{Brightness: 128, TextureUniformity: 1}
	if fv != want {
		t.Errorf("Expected %+v, got %+v", want, fv)
	}
}

func TestExtractFeatures_GrayMatchesEqualRGB(t *testing.T) {
	gray := stepBitmap(64)
	rgb := make([]uint8, 0, len(gray.Pix)*3)
	for _, v := range gray.Pix {
		rgb = append(rgb, v, v, v)
	}
	color := &bitmap.Bitmap{Width: 64, Height: 64, Channels: bitmap.RGB, Pix: rgb}

	a := mustExtract(t, gray, 64)
	b := mustExtract(t, color, 64)
	for _, f := range Features {
		if math.Abs(a.Value(f)-b.Value(f)) > 1e-6 {
			t.Errorf("Expected %s to match for gray and RGB input, got %v and %v", f, a.Value(f), b.Value(f))
		}
	}
}

func TestExtractFeatures_StepEdge(t *testing.T) {
	const size = 300
	fv := mustExtract(t, stepBitmap(size), size)

	interior := float64((size - 2) * (size - 2))
	rows := float64(size - 2)

	// One column of +255 and one of -255 Laplacian responses.
	wantSharpness := 2 * rows * 255 * 255 / interior
	if math.Abs(fv.Sharpness-wantSharpness) > tolerance {
		t.Errorf("Expected sharpness %v, got %v", wantSharpness, fv.Sharpness)
	}

	// Two columns with Sobel magnitude 1020.
	p := 2 * rows / interior
	wantNoise := 1020 * math.Sqrt(p*(1-p))
	if math.Abs(fv.Noise-wantNoise) > 1e-6 {
		t.Errorf("Expected noise %v, got %v", wantNoise, fv.Noise)
	}

	// Non-maximum suppression keeps a single edge column.
	wantEdges := rows / float64(size*size)
	if math.Abs(fv.EdgeDensity-wantEdges) > tolerance {
		t.Errorf("Expected edge density %v, got %v", wantEdges, fv.EdgeDensity)
	}

	if math.Abs(fv.TextureUniformity-0.5) > tolerance {
		t.Errorf("Expected texture uniformity 0.5, got %v", fv.TextureUniformity)
	}
	if math.Abs(fv.Brightness-127.5) > tolerance {
		t.Errorf("Expected brightness 127.5, got %v", fv.Brightness)
	}
	if math.Abs(fv.Contrast-127.5) > tolerance {
		t.Errorf("Expected contrast 127.5, got %v", fv.Contrast)
	}
}

func TestExtractFeatures_ColorCast(t *testing.T) {
	pix := make([]uint8, 0, 32*32*3)
	for i := 0; i < 32*32; i++ {
		pix = append(pix, 255, 0, 0)
	}
	bm := &bitmap.Bitmap{Width: 32, Height: 32, Channels: bitmap.RGB, Pix: pix}
	fv := mustExtract(t, bm, 32)

	if fv.ColorImbalance != 255 {
		t.Errorf("Expected color imbalance 255, got %v", fv.ColorImbalance)
	}
	if fv.ColorVariation != 0 {
		t.Errorf("Expected color variation 0, got %v", fv.ColorVariation)
	}
	if math.Abs(fv.Brightness-0.299*255) > 1e-9 {
		t.Errorf("Expected brightness %v, got %v", 0.299*255, fv.Brightness)
	}
}

func TestEdgeDensity_HysteresisFollowsWeakEdges(t *testing.T) {
	const size = 32
	// A step whose upper half is strong (0 -> 255) and lower half weak
	// (0 -> 20). Weak pixels only count when connected to strong ones.
	pix := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		v := uint8(255)
		if y >= size/2 {
			v = 20
		}
		for x := size / 2; x < size; x++ {
			pix[y*size+x] = v
		}
	}
	bm := &bitmap.Bitmap{Width: size, Height: size, Channels: bitmap.Gray, Pix: pix}
	p := mustPreprocess(t, bm, size)

	connected := edgeDensity(p, 50, 150)
	strongOnly := edgeDensity(p, 149, 150)
	if connected <= strongOnly {
		t.Errorf("Expected weak edges connected to strong ones to add density, got %v <= %v", connected, strongOnly)
	}
	if high := edgeDensity(p, 2000, 3000); high != 0 {
		t.Errorf("Expected no edges above every magnitude, got %v", high)
	}
}

func TestPreprocess_Resize(t *testing.T) {
	p := mustPreprocess(t, bitmap.Uniform(600, 450, bitmap.RGB, 90), 300)
	if p.size != 300 || len(p.luma) != 300*300 {
		t.Fatalf("Expected 300x300 plane, got size %d with %d samples", p.size, len(p.luma))
	}
	for i, v := range p.gray {
		if v < 89 || v > 91 {
			t.Fatalf("Expected uniform luma near 90, got %d at %d", v, i)
		}
	}
}

func TestPreprocess_ResizeAveragesArea(t *testing.T) {
	// Alternating black and white columns halve to flat mid-gray with no
	// over- or undershoot.
	const size = 600
	pix := make([]uint8, size*size)
	for y := 0; y < size; y++ {
		for x := 1; x < size; x += 2 {
			pix[y*size+x] = 255
		}
	}
	bm := &bitmap.Bitmap{Width: size, Height: size, Channels: bitmap.Gray, Pix: pix}

	p := mustPreprocess(t, bm, size/2)
	for i, v := range p.gray {
		if v != 127 && v != 128 {
			t.Fatalf("Expected mid-gray 127 or 128, got %d at %d", v, i)
		}
	}
}

func TestPreprocess_UpscaleAveragesTies(t *testing.T) {
	// 2 -> 3 columns: the middle destination centre falls exactly between
	// the two source columns.
	bm := &bitmap.Bitmap{Width: 2, Height: 2, Channels: bitmap.Gray, Pix: []uint8{0, 200, 0, 200}}

	p := mustPreprocess(t, bm, 3)
	want := []int{0, 100, 200}
	for y := 0; y < 3; y++ {
		for x := 0; x < 3; x++ {
			got := int(p.gray[y*3+x])
			if got < want[x]-1 || got > want[x]+1 {
				t.Errorf("Expected %d at (%d,%d), got %d", want[x], x, y, got)
			}
		}
	}
}

func TestPreprocess_InvalidBitmap(t *testing.T) {
	_, err := preprocess(&bitmap.Bitmap{Width: 0, Height: 10, Channels: bitmap.Gray}, 300)
	if !errors.Is(err, bitmap.ErrInvalidImage) {
		t.Errorf("Expected ErrInvalidImage, got %v", err)
	}
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float64
		want uint8
	}{
		{-3, 0}, {0, 0}, {0.49, 0}, {0.5, 1}, {127.6, 128}, {254.5, 255}, {300, 255},
	}
	for _, tt := range tests {
		if got := quantize(tt.in); got != tt.want {
			t.Errorf("quantize(%v): expected %d, got %d", tt.in, tt.want, got)
		}
	}
}

func TestCheckFinite(t *testing.T) {
	fv := FeatureVector{Noise: math.Inf(1)}
	if err := fv.checkFinite(); !errors.Is(err, ErrExtractionFault) {
		t.Errorf("Expected ErrExtractionFault, got %v", err)
	}
	if err := (FeatureVector{}).checkFinite(); err != nil {
		t.Errorf("Expected zero vector to be finite, got %v", err)
	}
}
