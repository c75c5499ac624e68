package extraction

import (
	"image"
	"sync"

	"github.com/sirupsen/logrus"

	"fundustexture/internal/models"
)

// Job pairs a decoded image with its identifier for batch processing.
type Job struct {
	ID    string
	Image image.Image
}

// Batch processes an image collection through a shared extractor using a
// bounded worker pool. Per-image processing is stateless and independent,
// so workers share nothing except the jobs channel and the results
// channel; record collection happens on a single goroutine.
type Batch struct {
	extractor  *Extractor
	numWorkers int
	log        *logrus.Logger
}

// NewBatch creates a batch runner. numWorkers values below 1 are raised to
// 1; a nil logger falls back to the logrus standard logger.
func NewBatch(extractor *Extractor, numWorkers int, log *logrus.Logger) *Batch {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Batch{
		extractor:  extractor,
		numWorkers: numWorkers,
		log:        log,
	}
}

// result carries one image's outcome back to the collector, tagged with
// its input position so record order matches job order.
type result struct {
	index  int
	record *models.FeatureRecord
	err    error
}

// Run processes all jobs and returns the collected records and failures.
// A failing image is logged, recorded in Failures and skipped; it never
// aborts the rest of the batch. Successful records appear in job order.
func (b *Batch) Run(jobs []Job) *models.BatchResult {
	jobChan := make(chan int)
	resultChan := make(chan result)

	var wg sync.WaitGroup
	for w := 0; w < b.numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobChan {
				record, err := b.extractor.Extract(jobs[idx].Image, jobs[idx].ID)
				resultChan <- result{index: idx, record: record, err: err}
			}
		}()
	}

	go func() {
		for idx := range jobs {
			jobChan <- idx
		}
		close(jobChan)
		wg.Wait()
		close(resultChan)
	}()

	// Single collector goroutine (this one) owns the output collection,
	// so no locking is needed around appends.
	records := make([]*models.FeatureRecord, len(jobs))
	var failures []models.Failure
	completed := 0
	for res := range resultChan {
		completed++
		if res.err != nil {
			b.log.WithFields(logrus.Fields{
				"image": jobs[res.index].ID,
				"error": res.err,
			}).Warn("image failed, continuing batch")
			failures = append(failures, models.Failure{
				ID:  jobs[res.index].ID,
				Err: res.err,
			})
			continue
		}
		records[res.index] = res.record
		b.log.WithFields(logrus.Fields{
			"image":     jobs[res.index].ID,
			"completed": completed,
			"total":     len(jobs),
		}).Debug("image processed")
	}

	out := &models.BatchResult{Failures: failures}
	for _, r := range records {
		if r != nil {
			out.Records = append(out.Records, r)
		}
	}
	return out
}
