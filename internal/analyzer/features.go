package analyzer

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// FeatureVector holds the readings taken from one preprocessed image.
type FeatureVector struct {
	Sharpness         float64 `json:"sharpness" yaml:"sharpness" parquet:"sharpness"`
	Noise             float64 `json:"noise" yaml:"noise" parquet:"noise"`
	Contrast          float64 `json:"contrast" yaml:"contrast" parquet:"contrast"`
	Brightness        float64 `json:"brightness" yaml:"brightness" parquet:"brightness"`
	EdgeDensity       float64 `json:"edge_density" yaml:"edge_density" parquet:"edge_density"`
	ColorImbalance    float64 `json:"color_imbalance" yaml:"color_imbalance" parquet:"color_imbalance"`
	ColorVariation    float64 `json:"color_variation" yaml:"color_variation" parquet:"color_variation"`
	TextureUniformity float64 `json:"texture_uniformity" yaml:"texture_uniformity" parquet:"texture_uniformity"`
}

// Value returns the reading for f, or NaN for an unknown feature.
func (fv FeatureVector) Value(f Feature) float64 {
	switch f {
	case Sharpness:
		return fv.Sharpness
	case Noise:
		return fv.Noise
	case Contrast:
		return fv.Contrast
	case Brightness:
		return fv.Brightness
	case EdgeDensity:
		return fv.EdgeDensity
	case ColorImbalance:
		return fv.ColorImbalance
	case ColorVariation:
		return fv.ColorVariation
	case TextureUniformity:
		return fv.TextureUniformity
	}
	return math.NaN()
}

func (fv FeatureVector) checkFinite() error {
	for _, f := range Features {
		v := fv.Value(f)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrExtractionFault, f, v)
		}
	}
	return nil
}

// extractFeatures computes every reading from p. edgeLow and edgeHigh are the
// hysteresis thresholds of the edge detector.
func extractFeatures(p *plane, edgeLow, edgeHigh float64) (FeatureVector, error) {
	var fv FeatureVector

	fv.Sharpness = laplacianVariance(p)
	fv.Noise = gradientStdDev(p)
	fv.Brightness, fv.Contrast = meanStdDev(p.luma)
	fv.EdgeDensity = edgeDensity(p, edgeLow, edgeHigh)
	fv.ColorImbalance, fv.ColorVariation = colorBalance(p)
	fv.TextureUniformity = textureUniformity(p)

	if err := fv.checkFinite(); err != nil {
		return FeatureVector{}, err
	}
	return fv, nil
}

func meanStdDev(x []float64) (mean, std float64) {
	if len(x) == 0 {
		return 0, 0
	}
	return stat.PopMeanStdDev(x, nil)
}

// laplacianVariance is the population variance of the 4-neighbour Laplacian
// over interior pixels.
func laplacianVariance(p *plane) float64 {
	s := p.size
	if s < 3 {
		return 0
	}
	data := make([]float64, 0, (s-2)*(s-2))
	for y := 1; y < s-1; y++ {
		for x := 1; x < s-1; x++ {
			lap := p.at(x, y-1) + p.at(x, y+1) + p.at(x-1, y) + p.at(x+1, y) - 4*p.at(x, y)
			data = append(data, float64(lap))
		}
	}
	return stat.PopVariance(data, nil)
}

func sobelX(p *plane, x, y int) int {
	return -p.at(x-1, y-1) + p.at(x+1, y-1) +
		-2*p.at(x-1, y) + 2*p.at(x+1, y) +
		-p.at(x-1, y+1) + p.at(x+1, y+1)
}

func sobelY(p *plane, x, y int) int {
	return -p.at(x-1, y-1) - 2*p.at(x, y-1) - p.at(x+1, y-1) +
		p.at(x-1, y+1) + 2*p.at(x, y+1) + p.at(x+1, y+1)
}

// gradientStdDev is the population std of the Sobel magnitude sqrt(gx²+gy²).
func gradientStdDev(p *plane) float64 {
	s := p.size
	if s < 3 {
		return 0
	}
	data := make([]float64, 0, (s-2)*(s-2))
	for y := 1; y < s-1; y++ {
		for x := 1; x < s-1; x++ {
			gx, gy := sobelX(p, x, y), sobelY(p, x, y)
			data = append(data, math.Sqrt(float64(gx*gx+gy*gy)))
		}
	}
	_, std := meanStdDev(data)
	return std
}

const (
	tan22 = 0.41421356237309503 // tan(22.5°)
	tan67 = 2.414213562373095   // tan(67.5°)
)

// edgeDensity runs a Canny-style detector: L1 Sobel magnitude, non-maximum
// suppression along the quantised gradient direction, then 8-connected
// hysteresis between low and high. Border pixels are never edges.
func edgeDensity(p *plane, low, high float64) float64 {
	s := p.size
	if s < 3 {
		return 0
	}
	n := s * s
	mag := make([]float64, n)
	gxs := make([]int, n)
	gys := make([]int, n)
	for y := 1; y < s-1; y++ {
		for x := 1; x < s-1; x++ {
			i := y*s + x
			gx, gy := sobelX(p, x, y), sobelY(p, x, y)
			gxs[i], gys[i] = gx, gy
			mag[i] = math.Abs(float64(gx)) + math.Abs(float64(gy))
		}
	}

	const (
		none = iota
		weak
		strong
	)
	state := make([]uint8, n)
	stack := make([]int, 0, 256)

	for y := 1; y < s-1; y++ {
		for x := 1; x < s-1; x++ {
			i := y*s + x
			m := mag[i]
			if m <= low {
				continue
			}
			ax, ay := math.Abs(float64(gxs[i])), math.Abs(float64(gys[i]))
			var localMax bool
			switch {
			case ay < ax*tan22:
				localMax = m > mag[i-1] && m >= mag[i+1]
			case ay > ax*tan67:
				localMax = m > mag[i-s] && m >= mag[i+s]
			case (gxs[i] < 0) != (gys[i] < 0):
				localMax = m > mag[i-s+1] && m > mag[i+s-1]
			default:
				localMax = m > mag[i-s-1] && m > mag[i+s+1]
			}
			if !localMax {
				continue
			}
			if m > high {
				state[i] = strong
				stack = append(stack, i)
			} else {
				state[i] = weak
			}
		}
	}

	edges := 0
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		edges++
		x, y := i%s, i/s
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				nx, ny := x+dx, y+dy
				if nx < 0 || ny < 0 || nx >= s || ny >= s {
					continue
				}
				j := ny*s + nx
				if state[j] == weak {
					state[j] = strong
					stack = append(stack, j)
				}
			}
		}
	}

	return float64(edges) / float64(n)
}

// colorBalance returns the spread of channel means and the mean channel std.
func colorBalance(p *plane) (imbalance, variation float64) {
	var means, stds [3]float64
	for c, ch := range p.rgb {
		means[c], stds[c] = meanStdDev(ch)
	}
	hi := math.Max(means[0], math.Max(means[1], means[2]))
	lo := math.Min(means[0], math.Min(means[1], means[2]))
	return hi - lo, stat.Mean(stds[:], nil)
}

// textureUniformity is Σh²/(Σh)² over the 256-bin histogram of gray.
func textureUniformity(p *plane) float64 {
	var hist [256]float64
	for _, v := range p.gray {
		hist[v]++
	}
	var sum, sumSq float64
	for _, h := range hist {
		sum += h
		sumSq += h * h
	}
	if sum == 0 {
		return 0
	}
	return sumSq / (sum * sum)
}
