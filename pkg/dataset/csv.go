package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"fundustexture/internal/models"
)

// LoadLabels reads image labels from a CSV file whose first column is the
// image identifier and second column the label. A header row is detected
// by its first field ("id", "image" or similar non-data text) and
// skipped; extra columns are ignored.
func LoadLabels(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening labels file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Tolerate ragged rows, columns beyond the second are unused

	labels := make(map[string]string)
	first := true
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading labels file: %w", err)
		}
		if len(row) < 2 {
			continue
		}
		if first {
			first = false
			if isLabelHeader(row[0]) {
				continue
			}
		}
		labels[strings.TrimSpace(row[0])] = strings.TrimSpace(row[1])
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("no labels found in %s", path)
	}
	return labels, nil
}

func isLabelHeader(field string) bool {
	switch strings.ToLower(strings.TrimSpace(field)) {
	case "id", "image", "image_id", "id_code", "filename", "name":
		return true
	}
	return false
}

// CSVSink assembles feature records into a tabular CSV file. The column
// order is taken from the first record written: identifier first, then
// the feature keys in record order, then an optional label column when
// the sink was created with labels.
type CSVSink struct {
	writer *csv.Writer
	labels map[string]string
	keys   []string
}

// NewCSVSink creates a sink writing to w. If labels is non-nil, every row
// gets a trailing label column filled from the map (empty when an
// identifier has no label).
func NewCSVSink(w io.Writer, labels map[string]string) *CSVSink {
	return &CSVSink{
		writer: csv.NewWriter(w),
		labels: labels,
	}
}

// Write appends one feature record to the table, emitting the header row
// first if this is the first record. Records whose key set differs from
// the first record's are rejected, since the table columns are fixed.
func (s *CSVSink) Write(record *models.FeatureRecord) error {
	if s.keys == nil {
		s.keys = record.Keys
		header := append([]string{"id"}, s.keys...)
		if s.labels != nil {
			header = append(header, "label")
		}
		if err := s.writer.Write(header); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	} else if !sameKeys(s.keys, record.Keys) {
		return fmt.Errorf("record %s has mismatched feature keys", record.ID)
	}

	row := make([]string, 0, len(s.keys)+2)
	row = append(row, record.ID)
	for _, v := range record.Ordered() {
		row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if s.labels != nil {
		row = append(row, s.labels[record.ID])
	}

	if err := s.writer.Write(row); err != nil {
		return fmt.Errorf("writing record %s: %w", record.ID, err)
	}
	return nil
}

// Flush writes any buffered rows to the underlying writer.
func (s *CSVSink) Flush() error {
	s.writer.Flush()
	return s.writer.Error()
}

func sameKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// WriteCSV writes all records to a CSV file at path, creating parent
// directories as needed.
func WriteCSV(path string, records []*models.FeatureRecord, labels map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer file.Close()

	sink := NewCSVSink(file, labels)
	for _, record := range records {
		if err := sink.Write(record); err != nil {
			return err
		}
	}
	return sink.Flush()
}
