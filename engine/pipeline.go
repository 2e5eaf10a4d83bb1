package engine

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the engine package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// Pipeline runs the full per-image evaluation: region cropping, recognizer
// fan-out, candidate extraction and answer selection. A pipeline holds no
// per-image state and is safe to share across goroutines as long as its
// recognizer is.
type Pipeline struct {
	recognizer Recognizer
	regions    []Region
	configs    []Configuration
	cfg        Config
	dict       *Dictionary
	extractor  *Extractor
}

// NewPipeline builds a pipeline over the default region table, recognizer
// configurations and dictionary. A nil dict selects the default vocabulary.
func NewPipeline(recognizer Recognizer, cfg Config, dict *Dictionary) *Pipeline {
	if dict == nil {
		dict = DefaultDictionary()
	}
	if cfg.MaxParallel <= 0 {
		cfg.MaxParallel = DefaultConfig().MaxParallel
	}
	return &Pipeline{
		recognizer: recognizer,
		regions:    DefaultRegions(),
		configs:    DefaultConfigurations(),
		cfg:        cfg,
		dict:       dict,
		extractor:  NewExtractor(cfg, dict),
	}
}

// SetRegions replaces the region table. The order is significant: it fixes
// candidate insertion order and therefore the final tie-break.
func (p *Pipeline) SetRegions(regions []Region) {
	p.regions = regions
}

// SetConfigurations replaces the recognizer configuration sweep.
func (p *Pipeline) SetConfigurations(configs []Configuration) {
	p.configs = configs
}

type regionImage struct {
	region  Region
	encoded []byte
}

// Process evaluates one image and returns the selected answer. An empty
// Selection means the image needs manual review; only malformed input is
// an error. Recognizer failures on individual region/configuration pairs
// are logged and treated as zero observations.
func (p *Pipeline) Process(ctx context.Context, img image.Image, filename string) (Selection, error) {
	if img == nil {
		return Selection{}, fmt.Errorf("nil image for %s", filename)
	}

	seq := NewSequenceClassifier(filename, p.cfg.Thresholds.SequenceDistance)
	if seq.Degraded() {
		log.WithField("filename", filename).Warn("No ordinal embedded in filename, sequence-number classification disabled")
	}

	crops := p.cropRegions(img, filename)
	observations := p.recognizeAll(ctx, crops, filename)

	table := NewCandidateTable()
	for _, obs := range observations {
		if obs.Confidence < p.cfg.Thresholds.MinObservation {
			continue
		}
		p.extractor.Extract(table, obs)
	}

	selection := SelectAnswer(table, seq, p.dict, p.cfg.Thresholds)
	log.WithFields(logrus.Fields{
		"filename":     filename,
		"observations": len(observations),
		"candidates":   table.Len(),
		"rule":         selection.Rule,
		"answer":       selection.Answer,
	}).Debug("Image evaluated")

	return selection, nil
}

func (p *Pipeline) cropRegions(img image.Image, filename string) []regionImage {
	crops := make([]regionImage, 0, len(p.regions))
	for _, region := range p.regions {
		cropped := CropRegion(img, region, p.cfg.UpscaleFactor)
		if cropped == nil {
			log.WithFields(logrus.Fields{
				"filename": filename,
				"region":   region.Name,
			}).Debug("Region degenerates to empty rectangle, skipping")
			continue
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, cropped, imaging.PNG); err != nil {
			log.WithError(err).WithField("region", region.Name).Warn("Failed to encode region crop")
			continue
		}
		crops = append(crops, regionImage{region: region, encoded: buf.Bytes()})
	}
	return crops
}

// recognizeAll runs every region x configuration combination with bounded
// concurrency. Results are gathered into fixed slots so that aggregation
// order, and with it candidate insertion order, stays deterministic no
// matter how the calls interleave.
func (p *Pipeline) recognizeAll(ctx context.Context, crops []regionImage, filename string) []Observation {
	type task struct {
		crop regionImage
		cfg  Configuration
	}

	tasks := make([]task, 0, len(crops)*len(p.configs))
	for _, crop := range crops {
		for _, cfg := range p.configs {
			tasks = append(tasks, task{crop: crop, cfg: cfg})
		}
	}

	results := make([][]RawResult, len(tasks))

	var g errgroup.Group
	g.SetLimit(p.cfg.MaxParallel)
	for i, t := range tasks {
		g.Go(func() error {
			raw, err := p.recognizer.Recognize(ctx, t.crop.encoded, t.cfg)
			if err != nil {
				// One failing combination is never fatal to the image.
				log.WithError(err).WithFields(logrus.Fields{
					"filename": filename,
					"region":   t.crop.region.Name,
					"language": t.cfg.Language,
				}).Debug("Recognizer call failed, treating as empty")
				return nil
			}
			results[i] = raw
			return nil
		})
	}
	// Tasks always return nil; Wait only synchronizes.
	_ = g.Wait()

	var observations []Observation
	for i, t := range tasks {
		for _, r := range results[i] {
			if r.Text == "" {
				continue
			}
			observations = append(observations, Observation{
				Text:       r.Text,
				Confidence: r.Confidence,
				Region:     t.crop.region,
				Polygon:    r.Polygon,
			})
		}
	}
	return observations
}
