package ocr

import (
	"context"
	"fmt"
	"sync"

	"github.com/otiai10/gosseract/v2"
	"github.com/sirupsen/logrus"

	"cvanswers/engine"
)

// TesseractProvider runs a local Tesseract instance via gosseract. The
// client wraps a single native API handle that is not reentrant, so all
// calls are serialized through a mutex.
type TesseractProvider struct {
	mu             sync.Mutex
	client         *gosseract.Client
	tessdataPrefix string
}

func newTesseractProvider(config Config) (*TesseractProvider, error) {
	client := gosseract.NewClient()
	if config.TessdataPrefix != "" {
		if err := client.SetTessdataPrefix(config.TessdataPrefix); err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to set tessdata prefix: %w", err)
		}
	}

	log.Info("Successfully initialized Tesseract provider")
	return &TesseractProvider{
		client:         client,
		tessdataPrefix: config.TessdataPrefix,
	}, nil
}

// Recognize runs word-level recognition on the region image.
func (p *TesseractProvider) Recognize(ctx context.Context, imageContent []byte, cfg engine.Configuration) ([]engine.RawResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	logger := log.WithFields(logrus.Fields{
		"language": cfg.Language,
		"seg_mode": cfg.SegMode,
	})
	logger.Debug("Starting Tesseract recognition")

	p.mu.Lock()
	defer p.mu.Unlock()

	if cfg.Language != "" {
		if err := p.client.SetLanguage(cfg.Language); err != nil {
			return nil, fmt.Errorf("failed to set language: %w", err)
		}
	}
	if cfg.SegMode > 0 {
		if err := p.client.SetPageSegMode(gosseract.PageSegMode(cfg.SegMode)); err != nil {
			return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
		}
	}
	if err := p.client.SetImageFromBytes(imageContent); err != nil {
		return nil, fmt.Errorf("failed to set image: %w", err)
	}

	boxes, err := p.client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil {
		return nil, fmt.Errorf("tesseract recognition failed: %w", err)
	}

	results := make([]engine.RawResult, 0, len(boxes))
	for _, box := range boxes {
		if box.Word == "" {
			continue
		}
		rect := box.Box
		results = append(results, engine.RawResult{
			Text:       box.Word,
			Confidence: box.Confidence / 100.0,
			Polygon: [4]engine.Point{
				{X: rect.Min.X, Y: rect.Min.Y},
				{X: rect.Max.X, Y: rect.Min.Y},
				{X: rect.Max.X, Y: rect.Max.Y},
				{X: rect.Min.X, Y: rect.Max.Y},
			},
		})
	}

	logger.WithField("result_count", len(results)).Debug("Tesseract recognition completed")
	return results, nil
}

// Close releases the native Tesseract handle.
func (p *TesseractProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client.Close()
}
