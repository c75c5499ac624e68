package models

// FeatureRecord holds the texture features extracted from a single fundus
// image. It is the only artifact that leaves the extraction pipeline; the
// intermediate binary image and co-occurrence matrices are discarded once
// the record is built.
type FeatureRecord struct {
	// ID is the identifier of the source image, typically the filename
	// without extension.
	ID string

	// Keys lists the feature names in their configured order
	// (properties outer, angles inner). Downstream consumers rely on
	// this order for column alignment.
	Keys []string

	// Values maps each feature name to its scalar value. Every key in
	// Keys has exactly one entry here.
	Values map[string]float64
}

// Get returns the value for a feature key and whether it is present.
func (r *FeatureRecord) Get(key string) (float64, bool) {
	v, ok := r.Values[key]
	return v, ok
}

// Ordered returns the feature values in key order.
func (r *FeatureRecord) Ordered() []float64 {
	out := make([]float64, len(r.Keys))
	for i, k := range r.Keys {
		out[i] = r.Values[k]
	}
	return out
}

// Failure describes a single image whose pipeline run failed. Failures are
// collected per batch so one malformed image does not abort the run.
type Failure struct {
	// ID is the identifier of the image that failed.
	ID string

	// Err is the error returned by the pipeline for this image.
	Err error
}

// BatchResult aggregates the outcome of processing an image collection.
type BatchResult struct {
	// Records holds one FeatureRecord per successfully processed image,
	// in input order.
	Records []*FeatureRecord

	// Failures holds the images that could not be processed.
	Failures []Failure
}
