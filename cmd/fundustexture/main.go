package main

import (
	"flag"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"fundustexture/pkg/config"
	"fundustexture/pkg/dataset"
	"fundustexture/pkg/extraction"
)

func main() {
	// Parse command line arguments
	inputDir := flag.String("input", "", "Directory containing fundus images (PNG or JPEG)")
	outputFile := flag.String("output", "features.csv", "Output CSV filename")
	labelsFile := flag.String("labels", "", "Optional CSV file with image labels (id,label)")
	configFile := flag.String("config", "", "Optional YAML configuration file")
	numWorkers := flag.Int("workers", runtime.NumCPU(), "Number of concurrent workers (default: all cores)")
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Validate inputs
	if *inputDir == "" {
		flag.Usage()
		log.Fatal("missing required -input directory")
	}

	// Load configuration, falling back to defaults when no file is given
	cfg := config.DefaultConfig()
	if *configFile != "" {
		loaded, err := config.LoadConfig(*configFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load configuration")
		}
		cfg = loaded
	}
	if *numWorkers > 0 {
		cfg.Batch.NumWorkers = *numWorkers
	}
	if cfg.Batch.Verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	// Build the extractor from the configured parameters
	extractor, err := extraction.NewExtractor(extraction.ParamsFromConfig(cfg))
	if err != nil {
		log.WithError(err).Fatal("invalid extraction configuration")
	}

	// Load the image collection
	jobs, err := dataset.LoadImages(*inputDir)
	if err != nil {
		log.WithError(err).Fatal("failed to load images")
	}
	log.WithFields(logrus.Fields{
		"images":  len(jobs),
		"workers": cfg.Batch.NumWorkers,
	}).Info("starting feature extraction")

	// Load labels when provided; the label column is a collaborator
	// concern and never feeds back into the extraction itself
	var labels map[string]string
	if *labelsFile != "" {
		labels, err = dataset.LoadLabels(*labelsFile)
		if err != nil {
			log.WithError(err).Fatal("failed to load labels")
		}
		log.WithField("labels", len(labels)).Info("loaded label table")
	}

	// Run the batch with isolate-and-continue failure handling
	startTime := time.Now()
	result := extraction.NewBatch(extractor, cfg.Batch.NumWorkers, log).Run(jobs)
	elapsed := time.Since(startTime)

	// Write the assembled feature table
	if err := dataset.WriteCSV(*outputFile, result.Records, labels); err != nil {
		log.WithError(err).Fatal("failed to write feature table")
	}

	log.WithFields(logrus.Fields{
		"records":  len(result.Records),
		"failures": len(result.Failures),
		"elapsed":  elapsed.Round(time.Millisecond),
		"output":   *outputFile,
	}).Info("feature extraction completed")

	for _, failure := range result.Failures {
		log.WithFields(logrus.Fields{
			"image": failure.ID,
			"error": failure.Err,
		}).Warn("image skipped")
	}
}
