// Package extraction wires the preprocessing pipeline and the
// co-occurrence reduction into the one-image-in, one-record-out feature
// extractor, plus a parallel batch runner for image collections.
package extraction

import (
	"errors"
	"fmt"
	"image"
	"math"

	"fundustexture/internal/models"
	"fundustexture/pkg/config"
	"fundustexture/pkg/glcm"
	"fundustexture/pkg/preprocess"
)

// ErrInvalidConfiguration is returned when the extraction parameters are
// unusable: empty angle or property lists, an unknown property name, a
// distance below 1 or a non-positive target resolution.
var ErrInvalidConfiguration = errors.New("invalid extraction configuration")

// ErrDegenerateInput is returned when the co-occurrence accumulation
// produces no pairs to normalize, which only happens when the offset
// distance exceeds the preprocessed image extent.
var ErrDegenerateInput = errors.New("degenerate input for co-occurrence accumulation")

// Params holds the extraction parameters.
type Params struct {
	// TargetWidth and TargetHeight are the preprocessing output
	// resolution.
	TargetWidth  int
	TargetHeight int

	// Distance is the co-occurrence pixel offset distance.
	Distance int

	// AnglesDegrees lists the pairing directions. The standard set
	// {0, 45, 90, 135} keeps offsets integral at distance 1.
	AnglesDegrees []float64

	// Properties lists the texture properties to compute, in output
	// order.
	Properties []string
}

// DefaultParams returns the reference extraction parameters: 224x224
// preprocessing, distance 1, the four standard angles, and the property
// set correlation, homogeneity, contrast, energy, dissimilarity.
func DefaultParams() *Params {
	return ParamsFromConfig(config.DefaultConfig())
}

// ParamsFromConfig maps an application configuration onto extraction
// parameters.
func ParamsFromConfig(cfg *config.Config) *Params {
	return &Params{
		TargetWidth:   cfg.Preprocess.TargetWidth,
		TargetHeight:  cfg.Preprocess.TargetHeight,
		Distance:      cfg.GLCM.Distance,
		AnglesDegrees: cfg.GLCM.AnglesDegrees,
		Properties:    cfg.GLCM.Properties,
	}
}

// Extractor computes texture feature records from decoded fundus images.
// An Extractor is immutable after construction and safe for concurrent
// use.
type Extractor struct {
	params       *Params
	preprocessor *preprocess.Preprocessor
	keys         []string
}

// NewExtractor validates the parameters and builds an extractor.
func NewExtractor(params *Params) (*Extractor, error) {
	if len(params.AnglesDegrees) == 0 {
		return nil, fmt.Errorf("%w: angle list is empty", ErrInvalidConfiguration)
	}
	if len(params.Properties) == 0 {
		return nil, fmt.Errorf("%w: property list is empty", ErrInvalidConfiguration)
	}
	for _, name := range params.Properties {
		if !glcm.KnownProperty(name) {
			return nil, fmt.Errorf("%w: unknown property %q", ErrInvalidConfiguration, name)
		}
	}
	if params.Distance < 1 {
		return nil, fmt.Errorf("%w: distance %d must be at least 1",
			ErrInvalidConfiguration, params.Distance)
	}

	pre, err := preprocess.NewPreprocessor(params.TargetWidth, params.TargetHeight)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}

	return &Extractor{
		params:       params,
		preprocessor: pre,
		keys:         featureKeys(params.Properties, params.AnglesDegrees),
	}, nil
}

// featureKeys builds the ordered output key list: properties form the
// outer loop and angles the inner loop, so [A,B] x [0,90] yields
// [A_0, A_90, B_0, B_90].
func featureKeys(properties []string, anglesDegrees []float64) []string {
	keys := make([]string, 0, len(properties)*len(anglesDegrees))
	for _, prop := range properties {
		for _, angle := range anglesDegrees {
			keys = append(keys, fmt.Sprintf("%s_%d", prop, int(math.Round(angle))))
		}
	}
	return keys
}

// Keys returns the ordered feature key list shared by every record this
// extractor produces.
func (e *Extractor) Keys() []string {
	keys := make([]string, len(e.keys))
	copy(keys, e.keys)
	return keys
}

// Extract runs the full pipeline on one decoded image: preprocessing into
// a binary image, co-occurrence accumulation per angle, and property
// reduction into a keyed feature record.
//
// Preprocessing errors propagate unchanged apart from wrapping; a
// preprocessing failure produces no partial record.
func (e *Extractor) Extract(img image.Image, imageID string) (*models.FeatureRecord, error) {
	binary, err := e.preprocessor.Run(img)
	if err != nil {
		return nil, fmt.Errorf("preprocessing %s: %w", imageID, err)
	}

	// One accumulation per angle; every property reduces the same
	// normalized matrix.
	matrices := make([]*glcm.Matrix, len(e.params.AnglesDegrees))
	for i, angle := range e.params.AnglesDegrees {
		m, err := glcm.Compute(binary, e.params.Distance, angle*math.Pi/180)
		if err != nil {
			if errors.Is(err, glcm.ErrNoPairs) {
				return nil, fmt.Errorf("%w: %s at angle %g: %v",
					ErrDegenerateInput, imageID, angle, err)
			}
			return nil, fmt.Errorf("accumulating %s at angle %g: %w", imageID, angle, err)
		}
		matrices[i] = m
	}

	record := &models.FeatureRecord{
		ID:     imageID,
		Keys:   e.Keys(),
		Values: make(map[string]float64, len(e.keys)),
	}

	idx := 0
	for _, prop := range e.params.Properties {
		for angleIdx := range e.params.AnglesDegrees {
			value, err := matrices[angleIdx].Property(prop)
			if err != nil {
				// Property names were validated at construction.
				return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
			}
			record.Values[record.Keys[idx]] = value
			idx++
		}
	}

	return record, nil
}
