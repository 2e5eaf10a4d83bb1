package ocr

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"cvanswers/engine"
)

var log = logrus.New()

// Config holds the recognizer provider configuration
type Config struct {
	// Provider type (e.g., "easyocr", "tesseract", "llm")
	Provider string

	// EasyOCR sidecar settings
	EasyOCRURL     string
	EasyOCRTimeout int // Optional, seconds, defaults to 60

	// Tesseract settings
	TessdataPrefix string // Optional, path to traineddata files

	// Vision LLM settings
	VisionLLMProvider   string
	VisionLLMModel      string
	VisionLLMPrompt     string  // Optional, template with {{.Language}}
	VisionLLMConfidence float64 // Assumed confidence for whole-text results, defaults to 0.6
}

// NewProvider creates a new recognizer provider based on configuration
func NewProvider(config Config) (engine.Recognizer, error) {
	log.Info("Initializing recognizer provider: ", config.Provider)

	switch config.Provider {
	case "easyocr":
		if config.EasyOCRURL == "" {
			return nil, fmt.Errorf("missing required EasyOCR configuration (EASYOCR_URL)")
		}
		log.WithField("url", config.EasyOCRURL).Info("Using EasyOCR sidecar provider")
		return newEasyOCRProvider(config)

	case "tesseract":
		log.WithField("tessdata_prefix", config.TessdataPrefix).Info("Using Tesseract provider")
		return newTesseractProvider(config)

	case "llm":
		if config.VisionLLMProvider == "" || config.VisionLLMModel == "" {
			return nil, fmt.Errorf("missing required vision LLM configuration")
		}
		log.WithFields(logrus.Fields{
			"provider": config.VisionLLMProvider,
			"model":    config.VisionLLMModel,
		}).Info("Using vision LLM provider")
		return newLLMProvider(config)

	default:
		return nil, fmt.Errorf("unsupported recognizer provider: %s", config.Provider)
	}
}

// SetLogLevel sets the logging level for the ocr package
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

func isImageMIMEType(mimeType string) bool {
	switch mimeType {
	case "image/png", "image/jpeg", "image/gif", "image/bmp", "image/tiff", "image/webp":
		return true
	}
	return false
}
