// Package preprocess normalizes raw fundus photographs into fixed-size
// binary images suitable for co-occurrence texture analysis.
//
// The pipeline applies, in order: bilinear resize to the target resolution,
// grayscale conversion, histogram equalization, 5x5 Gaussian smoothing and
// Otsu binarization. The order is part of the contract; reordering steps
// changes the numeric output.
package preprocess

import (
	"errors"
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// ErrInvalidInput is returned when the decoded input image cannot be
// processed, e.g. when it has zero width or height.
var ErrInvalidInput = errors.New("invalid input image")

// kernelSize is the fixed width of the Gaussian smoothing kernel.
const kernelSize = 5

// Preprocessor converts decoded color images into binary images of a fixed
// target resolution. A Preprocessor is stateless and safe for concurrent
// use; each call allocates its own intermediates.
type Preprocessor struct {
	// targetWidth and targetHeight are the output resolution. The input
	// aspect ratio is not preserved; images are stretched to fit.
	targetWidth  int
	targetHeight int
}

// NewPreprocessor creates a preprocessor producing binary images of the
// given resolution. Both dimensions must be positive.
func NewPreprocessor(targetWidth, targetHeight int) (*Preprocessor, error) {
	if targetWidth <= 0 || targetHeight <= 0 {
		return nil, fmt.Errorf("%w: target resolution %dx%d must be positive",
			ErrInvalidInput, targetWidth, targetHeight)
	}
	return &Preprocessor{
		targetWidth:  targetWidth,
		targetHeight: targetHeight,
	}, nil
}

// Run executes the full preprocessing pipeline on a decoded image and
// returns a grayscale image whose pixels are all either 0 or 255.
//
// Channel order convention: the input is interpreted through the standard
// library color model, i.e. RGB. Grayscale conversion uses the Rec. 601
// luminance weights 0.299 R + 0.587 G + 0.114 B. Images decoded with a
// BGR-convention library must be reordered by the caller first.
//
// The source image is never mutated.
func (p *Preprocessor) Run(img image.Image) (*image.Gray, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", ErrInvalidInput)
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: image has zero area (%dx%d)",
			ErrInvalidInput, bounds.Dx(), bounds.Dy())
	}

	// Step 1: Resize to the target resolution with bilinear interpolation.
	// Aspect ratio distortion is accepted; every image maps onto the same
	// grid so feature columns stay comparable across the dataset.
	resized := imaging.Resize(img, p.targetWidth, p.targetHeight, imaging.Linear)

	// Step 2: Grayscale conversion with Rec. 601 channel weights.
	gray := toGray(imaging.Grayscale(resized))

	// Step 3: Histogram equalization to flatten the intensity
	// distribution, removing exposure differences between photographs.
	equalized := equalizeHistogram(gray)

	// Step 4: Gaussian smoothing to suppress high-frequency noise that
	// would otherwise leak into the threshold selection.
	smoothed := gaussianBlur(equalized)

	// Step 5: Otsu threshold selection and binarization.
	threshold := otsuThreshold(histogram(smoothed))
	return binarize(smoothed, threshold), nil
}

// TargetSize returns the configured output resolution.
func (p *Preprocessor) TargetSize() (width, height int) {
	return p.targetWidth, p.targetHeight
}

// toGray collapses a grayscale NRGBA image (equal R, G and B) into a
// single-channel image.Gray.
func toGray(img *image.NRGBA) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			// All three channels carry the luminance after
			// imaging.Grayscale; take the first.
			out.Pix[y*out.Stride+x] = img.Pix[y*img.Stride+x*4]
		}
	}

	return out
}

// histogram counts the occurrences of each of the 256 intensity values.
func histogram(img *image.Gray) [256]int {
	var hist [256]int
	bounds := img.Bounds()
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			hist[img.Pix[y*img.Stride+x]]++
		}
	}
	return hist
}

// equalizeHistogram redistributes intensities so the cumulative histogram
// becomes approximately linear. The mapping is the standard CDF remap
//
//	lut[v] = round((cdf(v) - cdfMin) / (total - cdfMin) * 255)
//
// A perfectly uniform image is returned unchanged since there is nothing
// to redistribute.
func equalizeHistogram(img *image.Gray) *image.Gray {
	hist := histogram(img)
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	total := width * height

	// Build the cumulative distribution and locate its first nonzero
	// entry, which maps to intensity 0.
	var cdf [256]int
	running := 0
	cdfMin := 0
	seenMin := false
	for i := 0; i < 256; i++ {
		running += hist[i]
		cdf[i] = running
		if !seenMin && hist[i] > 0 {
			cdfMin = running
			seenMin = true
		}
	}

	var lut [256]uint8
	if total == cdfMin {
		// Single-intensity image: identity mapping.
		for i := 0; i < 256; i++ {
			lut[i] = uint8(i)
		}
	} else {
		scale := 255.0 / float64(total-cdfMin)
		for i := 0; i < 256; i++ {
			v := float64(cdf[i]-cdfMin) * scale
			if v < 0 {
				v = 0
			}
			lut[i] = uint8(math.Round(v))
		}
	}

	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			out.Pix[y*out.Stride+x] = lut[img.Pix[y*img.Stride+x]]
		}
	}
	return out
}

// gaussianKernel builds the normalized 1D smoothing kernel. The standard
// deviation is derived from the kernel size as 0.3*((k-1)*0.5 - 1) + 0.8,
// which gives sigma = 1.1 for the fixed 5-tap kernel.
func gaussianKernel() [kernelSize]float64 {
	sigma := 0.3*((float64(kernelSize)-1)*0.5-1) + 0.8
	var kernel [kernelSize]float64
	sum := 0.0
	for i := 0; i < kernelSize; i++ {
		d := float64(i - kernelSize/2)
		kernel[i] = math.Exp(-d * d / (2 * sigma * sigma))
		sum += kernel[i]
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur convolves the image with the separable 5x5 Gaussian kernel.
// Edge pixels are handled by clamping the sample coordinate to the image,
// so every output pixel is a full-weight average.
func gaussianBlur(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	kernel := gaussianKernel()
	radius := kernelSize / 2

	// Horizontal pass into a float buffer to avoid double rounding.
	tmp := make([]float64, width*height)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 {
					sx = 0
				} else if sx >= width {
					sx = width - 1
				}
				acc += kernel[k+radius] * float64(img.Pix[y*img.Stride+sx])
			}
			tmp[y*width+x] = acc
		}
	}

	// Vertical pass with final rounding back to bytes.
	out := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			acc := 0.0
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 {
					sy = 0
				} else if sy >= height {
					sy = height - 1
				}
				acc += kernel[k+radius] * tmp[sy*width+x]
			}
			v := math.Round(acc)
			if v < 0 {
				v = 0
			} else if v > 255 {
				v = 255
			}
			out.Pix[y*out.Stride+x] = uint8(v)
		}
	}
	return out
}

// otsuThreshold selects the binarization threshold that maximizes the
// between-class variance of the intensity histogram. For a histogram with
// fewer than two occupied bins there is no variance to split, and the
// midpoint of the intensity range is returned as a stable fallback.
func otsuThreshold(hist [256]int) uint8 {
	total := 0
	weightedSum := 0.0
	for i, count := range hist {
		total += count
		weightedSum += float64(i) * float64(count)
	}
	if total == 0 {
		return 128
	}

	sumBackground := 0.0
	weightBackground := 0
	maxVariance := 0.0
	bestThreshold := -1

	for t := 0; t < 256; t++ {
		weightBackground += hist[t]
		if weightBackground == 0 {
			continue
		}
		weightForeground := total - weightBackground
		if weightForeground == 0 {
			break
		}

		sumBackground += float64(t) * float64(hist[t])
		meanBackground := sumBackground / float64(weightBackground)
		meanForeground := (weightedSum - sumBackground) / float64(weightForeground)
		meanDiff := meanBackground - meanForeground

		variance := float64(weightBackground) * float64(weightForeground) * meanDiff * meanDiff
		if variance > maxVariance {
			maxVariance = variance
			bestThreshold = t
		}
	}

	if bestThreshold < 0 {
		// Uniform image: no split maximizes variance.
		return 128
	}
	return uint8(bestThreshold)
}

// binarize maps every pixel strictly above the threshold to 255 and every
// other pixel to 0.
func binarize(img *image.Gray, threshold uint8) *image.Gray {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	out := image.NewGray(image.Rect(0, 0, width, height))

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if img.Pix[y*img.Stride+x] > threshold {
				out.Pix[y*out.Stride+x] = 255
			}
		}
	}
	return out
}
