package glcm

import (
	"errors"
	"image"
	"math"
	"testing"
)

const tolerance = 1e-9

// binaryImage builds an image.Gray from rows of 0/1 levels, mapping level
// 1 to intensity 255.
func binaryImage(rows [][]int) *image.Gray {
	height := len(rows)
	width := len(rows[0])
	img := image.NewGray(image.Rect(0, 0, width, height))
	for y, row := range rows {
		for x, v := range row {
			if v != 0 {
				img.Pix[y*img.Stride+x] = 255
			}
		}
	}
	return img
}

// checkerboard builds an n x n binary checkerboard starting with level 0
// in the top-left corner.
func checkerboard(n int) *image.Gray {
	rows := make([][]int, n)
	for y := range rows {
		rows[y] = make([]int, n)
		for x := range rows[y] {
			rows[y][x] = (x + y) % 2
		}
	}
	return binaryImage(rows)
}

// TestOffset verifies the direction convention for the four standard
// angles at distance 1
func TestOffset(t *testing.T) {
	cases := []struct {
		angleDeg       float64
		rowOff, colOff int
	}{
		{0, 0, 1},
		{45, 1, 1},
		{90, 1, 0},
		{135, 1, -1},
	}

	for _, tc := range cases {
		rowOff, colOff := Offset(1, tc.angleDeg*math.Pi/180)
		if rowOff != tc.rowOff || colOff != tc.colOff {
			t.Errorf("angle %g: expected offset (%d,%d), got (%d,%d)",
				tc.angleDeg, tc.rowOff, tc.colOff, rowOff, colOff)
		}
	}
}

// TestComputeCheckerboardHorizontal checks the accumulator against a hand
// computed matrix: a 4x4 checkerboard at distance 1, angle 0 has 12
// in-bounds horizontal pairs, every one joining opposite levels
func TestComputeCheckerboardHorizontal(t *testing.T) {
	m, err := Compute(checkerboard(4), 1, 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	// 3 horizontal pairs per row x 4 rows = 12 pairs, doubled by the
	// symmetric accumulation.
	if m.Pairs != 24 {
		t.Errorf("expected 24 accumulated counts (2 x 12 pairs), got %d", m.Pairs)
	}

	expected := [2][2]float64{
		{0.0, 0.5},
		{0.5, 0.0},
	}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if math.Abs(m.P[i][j]-expected[i][j]) > tolerance {
				t.Errorf("P[%d][%d]: expected %v, got %v", i, j, expected[i][j], m.P[i][j])
			}
		}
	}
}

// TestComputeSymmetryAndNormalization verifies the two structural
// invariants of the accumulator for all standard angles on an irregular
// image
func TestComputeSymmetryAndNormalization(t *testing.T) {
	img := binaryImage([][]int{
		{0, 1, 1, 0, 1},
		{1, 1, 0, 0, 0},
		{0, 0, 1, 1, 1},
		{1, 0, 0, 1, 0},
	})

	for _, angleDeg := range []float64{0, 45, 90, 135} {
		m, err := Compute(img, 1, angleDeg*math.Pi/180)
		if err != nil {
			t.Fatalf("angle %g: compute failed: %v", angleDeg, err)
		}

		if math.Abs(m.P[0][1]-m.P[1][0]) > tolerance {
			t.Errorf("angle %g: matrix not symmetric: P[0][1]=%v P[1][0]=%v",
				angleDeg, m.P[0][1], m.P[1][0])
		}

		if math.Abs(m.Sum()-1.0) > tolerance {
			t.Errorf("angle %g: entries sum to %v, expected 1", angleDeg, m.Sum())
		}
	}
}

// TestComputeEdgePolicy verifies that border pixels whose neighbor falls
// outside the image contribute nothing: a 2x2 image at distance 1, angle 0
// has exactly 2 in-bounds pairs
func TestComputeEdgePolicy(t *testing.T) {
	img := binaryImage([][]int{
		{0, 1},
		{1, 1},
	})

	m, err := Compute(img, 1, 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if m.Pairs != 4 {
		t.Errorf("expected 4 accumulated counts (2 x 2 pairs), got %d", m.Pairs)
	}
}

// TestComputeNoPairs verifies the failure when the offset cannot fit
// inside the image at all
func TestComputeNoPairs(t *testing.T) {
	single := binaryImage([][]int{{1}})
	if _, err := Compute(single, 1, 0); !errors.Is(err, ErrNoPairs) {
		t.Errorf("1x1 image: expected ErrNoPairs, got %v", err)
	}

	small := checkerboard(4)
	if _, err := Compute(small, 10, 0); !errors.Is(err, ErrNoPairs) {
		t.Errorf("oversized distance: expected ErrNoPairs, got %v", err)
	}
}

// TestAllBlackDegenerateCase verifies the property values for a matrix
// concentrated entirely at [0,0]
func TestAllBlackDegenerateCase(t *testing.T) {
	img := binaryImage([][]int{
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
		{0, 0, 0, 0},
	})

	m, err := Compute(img, 1, 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	if math.Abs(m.P[0][0]-1.0) > tolerance {
		t.Errorf("expected P[0][0]=1, got %v", m.P[0][0])
	}

	checks := []struct {
		name     string
		got      float64
		expected float64
	}{
		{"energy", m.Energy(), 1.0},
		{"homogeneity", m.Homogeneity(), 1.0},
		{"contrast", m.Contrast(), 0.0},
		{"dissimilarity", m.Dissimilarity(), 0.0},
		{"correlation", m.Correlation(), 0.0},
		{"entropy", m.Entropy(), 0.0},
	}
	for _, c := range checks {
		if math.Abs(c.got-c.expected) > tolerance {
			t.Errorf("%s: expected %v, got %v", c.name, c.expected, c.got)
		}
	}
}

// TestPropertyRanges verifies the documented value ranges on an irregular
// binary image
func TestPropertyRanges(t *testing.T) {
	img := binaryImage([][]int{
		{0, 1, 0, 0},
		{1, 1, 1, 0},
		{0, 1, 0, 1},
		{0, 0, 1, 1},
	})

	for _, angleDeg := range []float64{0, 45, 90, 135} {
		m, err := Compute(img, 1, angleDeg*math.Pi/180)
		if err != nil {
			t.Fatalf("angle %g: compute failed: %v", angleDeg, err)
		}

		if e := m.Energy(); e < 0 || e > 1 {
			t.Errorf("angle %g: energy %v outside [0,1]", angleDeg, e)
		}
		if h := m.Homogeneity(); h <= 0 || h > 1 {
			t.Errorf("angle %g: homogeneity %v outside (0,1]", angleDeg, h)
		}
		if h := m.Entropy(); h < 0 {
			t.Errorf("angle %g: entropy %v negative", angleDeg, h)
		}
		if c := m.Contrast(); c < 0 {
			t.Errorf("angle %g: contrast %v negative", angleDeg, c)
		}
		if d := m.Dissimilarity(); d < 0 {
			t.Errorf("angle %g: dissimilarity %v negative", angleDeg, d)
		}
		if c := m.Correlation(); c < -1-tolerance || c > 1+tolerance {
			t.Errorf("angle %g: correlation %v outside [-1,1]", angleDeg, c)
		}
	}
}

// TestDirectionality verifies that vertical stripes look maximally rough
// horizontally and perfectly smooth vertically
func TestDirectionality(t *testing.T) {
	img := binaryImage([][]int{
		{0, 1, 0, 1},
		{0, 1, 0, 1},
		{0, 1, 0, 1},
		{0, 1, 0, 1},
	})

	horizontal, err := Compute(img, 1, 0)
	if err != nil {
		t.Fatalf("horizontal compute failed: %v", err)
	}
	vertical, err := Compute(img, 1, math.Pi/2)
	if err != nil {
		t.Fatalf("vertical compute failed: %v", err)
	}

	if math.Abs(horizontal.Contrast()-1.0) > tolerance {
		t.Errorf("expected horizontal contrast 1 across stripes, got %v", horizontal.Contrast())
	}
	if math.Abs(vertical.Contrast()) > tolerance {
		t.Errorf("expected vertical contrast 0 along stripes, got %v", vertical.Contrast())
	}
	if math.Abs(vertical.Energy()-0.5) > tolerance {
		// Along the stripes the mass splits evenly between [0,0] and [1,1].
		t.Errorf("expected vertical energy 0.5, got %v", vertical.Energy())
	}
}

// TestPropertyDispatch verifies the name-based property lookup and the
// unknown-name failure
func TestPropertyDispatch(t *testing.T) {
	m, err := Compute(checkerboard(4), 1, 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}

	for _, name := range []string{"energy", "entropy", "contrast", "homogeneity", "correlation", "dissimilarity"} {
		if !KnownProperty(name) {
			t.Errorf("property %q should be known", name)
		}
		if _, err := m.Property(name); err != nil {
			t.Errorf("property %q failed: %v", name, err)
		}
	}

	if KnownProperty("sharpness") {
		t.Errorf("property \"sharpness\" should not be known")
	}
	if _, err := m.Property("sharpness"); !errors.Is(err, ErrUnknownProperty) {
		t.Errorf("expected ErrUnknownProperty, got %v", err)
	}
}

// TestCorrelationPerfectStripes verifies correlation on the vertical
// stripe image along the stripe direction: identical levels pair with
// themselves, so the correlation is exactly 1
func TestCorrelationPerfectStripes(t *testing.T) {
	img := binaryImage([][]int{
		{0, 1, 0, 1},
		{0, 1, 0, 1},
		{0, 1, 0, 1},
		{0, 1, 0, 1},
	})

	m, err := Compute(img, 1, math.Pi/2)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if math.Abs(m.Correlation()-1.0) > tolerance {
		t.Errorf("expected correlation 1 along stripes, got %v", m.Correlation())
	}

	// Across the stripes every pair joins opposite levels: correlation -1.
	across, err := Compute(img, 1, 0)
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if math.Abs(across.Correlation()+1.0) > tolerance {
		t.Errorf("expected correlation -1 across stripes, got %v", across.Correlation())
	}
}
