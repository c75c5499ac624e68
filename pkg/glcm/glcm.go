// Package glcm computes gray-level co-occurrence matrices over binary
// images and reduces them into scalar texture properties.
//
// A co-occurrence matrix tabulates how often a pixel with gray level i has
// a neighbor with gray level j at a fixed directional offset. For the
// binary images produced by the preprocessing pipeline there are exactly
// two levels, so the matrix is 2x2. Accumulation is symmetric (each pair is
// counted in both directions) and the matrix is normalized to sum to 1.
package glcm

import (
	"errors"
	"fmt"
	"image"
	"math"

	"gonum.org/v1/gonum/stat"
)

// ErrNoPairs is returned when no pixel pair fits inside the image at the
// requested offset, leaving nothing to normalize.
var ErrNoPairs = errors.New("no co-occurring pixel pairs at offset")

// ErrUnknownProperty is returned when a property name is not one of the
// supported reductions.
var ErrUnknownProperty = errors.New("unknown texture property")

// numLevels is the number of gray levels in the binary input images.
const numLevels = 2

// Matrix is a normalized symmetric co-occurrence matrix over the two
// binary gray levels. P[i][j] is the relative frequency of observing level
// j at the configured offset from a pixel with level i.
type Matrix struct {
	P [numLevels][numLevels]float64

	// Pairs is the pre-normalization count of accumulated observations,
	// including the symmetric double counting.
	Pairs int
}

// Offset converts a (distance, angle) pair into integer row and column
// displacements. The convention follows the usual co-occurrence setup:
// angle 0 points right along the row, pi/2 points down the column, so
//
//	row offset = round(d * sin(angle))
//	col offset = round(d * cos(angle))
//
// The standard angles 0, 45, 90 and 135 degrees produce exact integer
// offsets at distance 1; other angles are rounded to the nearest pixel.
func Offset(distance int, angleRadians float64) (rowOffset, colOffset int) {
	rowOffset = int(math.Round(float64(distance) * math.Sin(angleRadians)))
	colOffset = int(math.Round(float64(distance) * math.Cos(angleRadians)))
	return rowOffset, colOffset
}

// Compute accumulates the symmetric co-occurrence matrix of a binary image
// at the given pixel distance and direction. Pixels whose offset neighbor
// falls outside the image are skipped; they contribute no counts. The
// input is treated as binary: intensities above 127 map to level 1,
// everything else to level 0.
func Compute(img *image.Gray, distance int, angleRadians float64) (*Matrix, error) {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	rowOffset, colOffset := Offset(distance, angleRadians)

	var counts [numLevels][numLevels]int
	total := 0

	for r := 0; r < height; r++ {
		nr := r + rowOffset
		if nr < 0 || nr >= height {
			continue
		}
		for c := 0; c < width; c++ {
			nc := c + colOffset
			if nc < 0 || nc >= width {
				continue
			}

			i := level(img.Pix[r*img.Stride+c])
			j := level(img.Pix[nr*img.Stride+nc])

			// Symmetric accumulation: the pair contributes in
			// both directions so the matrix is symmetric before
			// normalization.
			counts[i][j]++
			counts[j][i]++
			total += 2
		}
	}

	if total == 0 {
		return nil, fmt.Errorf("%w: distance %d exceeds image extent %dx%d",
			ErrNoPairs, distance, width, height)
	}

	m := &Matrix{Pairs: total}
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			m.P[i][j] = float64(counts[i][j]) / float64(total)
		}
	}
	return m, nil
}

func level(v uint8) int {
	if v > 127 {
		return 1
	}
	return 0
}

// Sum returns the total of all matrix entries. It is 1 up to floating
// point error for any matrix produced by Compute.
func (m *Matrix) Sum() float64 {
	s := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			s += m.P[i][j]
		}
	}
	return s
}

// Energy is the sum of squared entries, also known as angular second
// moment. It is 1 for a matrix concentrated in a single cell.
func (m *Matrix) Energy() float64 {
	e := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			e += m.P[i][j] * m.P[i][j]
		}
	}
	return e
}

// Entropy is the Shannon entropy of the matrix in nats. Empty cells
// contribute zero.
func (m *Matrix) Entropy() float64 {
	h := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			if p := m.P[i][j]; p > 0 {
				h -= p * math.Log(p)
			}
		}
	}
	return h
}

// Contrast weights each entry by the squared level difference, measuring
// local intensity variation.
func (m *Matrix) Contrast() float64 {
	c := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			d := float64(i - j)
			c += m.P[i][j] * d * d
		}
	}
	return c
}

// Homogeneity weights each entry inversely to the level difference,
// measuring closeness to the diagonal.
func (m *Matrix) Homogeneity() float64 {
	h := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			h += m.P[i][j] / (1 + math.Abs(float64(i-j)))
		}
	}
	return h
}

// Dissimilarity weights each entry by the absolute level difference.
func (m *Matrix) Dissimilarity() float64 {
	d := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			d += m.P[i][j] * math.Abs(float64(i-j))
		}
	}
	return d
}

// Correlation measures the linear dependency between the row and column
// levels. It is defined as 0 when either marginal standard deviation is 0,
// which happens when the image collapses to a single level.
func (m *Matrix) Correlation() float64 {
	levels := []float64{0, 1}

	// Marginal distributions over rows and columns.
	rowWeights := make([]float64, numLevels)
	colWeights := make([]float64, numLevels)
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			rowWeights[i] += m.P[i][j]
			colWeights[j] += m.P[i][j]
		}
	}

	meanI := stat.Mean(levels, rowWeights)
	meanJ := stat.Mean(levels, colWeights)
	stdI := stat.PopStdDev(levels, rowWeights)
	stdJ := stat.PopStdDev(levels, colWeights)

	if stdI == 0 || stdJ == 0 {
		return 0
	}

	num := 0.0
	for i := 0; i < numLevels; i++ {
		for j := 0; j < numLevels; j++ {
			num += m.P[i][j] * (float64(i) - meanI) * (float64(j) - meanJ)
		}
	}
	return num / (stdI * stdJ)
}

// propertyFuncs maps property names to their reductions.
var propertyFuncs = map[string]func(*Matrix) float64{
	"energy":        (*Matrix).Energy,
	"entropy":       (*Matrix).Entropy,
	"contrast":      (*Matrix).Contrast,
	"homogeneity":   (*Matrix).Homogeneity,
	"correlation":   (*Matrix).Correlation,
	"dissimilarity": (*Matrix).Dissimilarity,
}

// KnownProperty reports whether name is a supported texture property.
func KnownProperty(name string) bool {
	_, ok := propertyFuncs[name]
	return ok
}

// Property evaluates the named texture property on the matrix.
func (m *Matrix) Property(name string) (float64, error) {
	fn, ok := propertyFuncs[name]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownProperty, name)
	}
	return fn(m), nil
}
