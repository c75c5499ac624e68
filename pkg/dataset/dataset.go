// Package dataset provides the collaborators around the extraction core:
// loading decoded images from a directory, reading diagnosis labels from
// CSV, and writing the assembled feature table back out as CSV.
package dataset

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	// Register the decoders for the image formats fundus datasets ship in.
	_ "image/jpeg"
	_ "image/png"

	"fundustexture/pkg/extraction"
)

// LoadImages reads every PNG and JPEG image in dir, sorted
// alphanumerically by filename, and returns them as batch jobs. The job
// identifier is the filename without its extension.
func LoadImages(dir string) ([]extraction.Job, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading image directory: %w", err)
	}

	var imageFiles []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
			imageFiles = append(imageFiles, entry.Name())
		}
	}

	if len(imageFiles) == 0 {
		return nil, fmt.Errorf("no PNG or JPEG images found in %s", dir)
	}

	// Sort files by the numeric part of their names so sequentially
	// numbered datasets keep their order, falling back to lexical order
	// for ties.
	sort.Slice(imageFiles, func(i, j int) bool {
		numI := extractNumber(imageFiles[i])
		numJ := extractNumber(imageFiles[j])
		if numI != numJ {
			return numI < numJ
		}
		return imageFiles[i] < imageFiles[j]
	})

	jobs := make([]extraction.Job, 0, len(imageFiles))
	for _, filename := range imageFiles {
		img, err := loadImage(filepath.Join(dir, filename))
		if err != nil {
			return nil, fmt.Errorf("failed to load image %s: %w", filename, err)
		}
		id := strings.TrimSuffix(filename, filepath.Ext(filename))
		jobs = append(jobs, extraction.Job{ID: id, Image: img})
	}

	return jobs, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	base := filepath.Base(filename)
	numStr := ""
	for _, c := range base {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}

	if numStr != "" {
		num, err := strconv.Atoi(numStr)
		if err == nil {
			return num
		}
	}
	return 0
}

// loadImage decodes a single image file
func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return img, nil
}
