package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"cvanswers/engine"
	"cvanswers/internal/constants"
)

const defaultVisionConfidence = 0.6

const defaultVisionPrompt = `This is a cropped piece of a color-vision test card. Transcribe any printed text you can see, exactly as written, and respond with nothing but that text. If there is no text, respond with an empty message. The text is likely in {{.Language}}.`

var languageNames = map[string]string{
	"chi_sim": "Simplified Chinese",
	"eng":     "English",
}

// LLMProvider performs recognition with a vision LLM. The model returns
// whole-text transcriptions without per-word confidences, so results carry
// a fixed assumed confidence.
type LLMProvider struct {
	provider   string
	model      string
	llm        llms.Model
	template   *template.Template
	confidence float64
}

func newLLMProvider(config Config) (*LLMProvider, error) {
	logger := log.WithFields(logrus.Fields{
		"provider": config.VisionLLMProvider,
		"model":    config.VisionLLMModel,
	})
	logger.Info("Creating new vision LLM provider")

	var model llms.Model
	var err error

	switch strings.ToLower(config.VisionLLMProvider) {
	case "openai":
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			// OpenAI-compatible local servers expect a token but do not
			// validate it.
			apiKey = constants.DummyAPIKey
		}
		model, err = openai.New(
			openai.WithModel(config.VisionLLMModel),
			openai.WithToken(apiKey),
		)
	case "ollama":
		host := os.Getenv("OLLAMA_HOST")
		if host == "" {
			host = "http://127.0.0.1:11434"
		}
		model, err = ollama.New(
			ollama.WithModel(config.VisionLLMModel),
			ollama.WithServerURL(host),
		)
	default:
		return nil, fmt.Errorf("unsupported vision LLM provider: %s", config.VisionLLMProvider)
	}
	if err != nil {
		return nil, fmt.Errorf("error creating vision LLM client: %w", err)
	}

	promptText := config.VisionLLMPrompt
	if promptText == "" {
		promptText = defaultVisionPrompt
	}
	tmpl, err := template.New("vision").Funcs(sprig.FuncMap()).Parse(promptText)
	if err != nil {
		return nil, fmt.Errorf("error parsing vision prompt template: %w", err)
	}

	confidence := config.VisionLLMConfidence
	if confidence <= 0 {
		confidence = defaultVisionConfidence
	}

	logger.Info("Successfully initialized vision LLM provider")
	return &LLMProvider{
		provider:   config.VisionLLMProvider,
		model:      config.VisionLLMModel,
		llm:        model,
		template:   tmpl,
		confidence: confidence,
	}, nil
}

// Recognize sends the region image to the vision model and wraps the
// transcription as a single observation.
func (p *LLMProvider) Recognize(ctx context.Context, imageContent []byte, cfg engine.Configuration) ([]engine.RawResult, error) {
	logger := log.WithFields(logrus.Fields{
		"provider": p.provider,
		"model":    p.model,
		"language": cfg.Language,
	})
	logger.Debug("Starting vision LLM recognition")

	prompt, err := p.renderPrompt(cfg.Language)
	if err != nil {
		return nil, err
	}

	var imagePart llms.ContentPart
	if strings.ToLower(p.provider) == "openai" {
		imagePart = llms.ImageURLPart("data:image/png;base64," + base64.StdEncoding.EncodeToString(imageContent))
	} else {
		imagePart = llms.BinaryPart("image/png", imageContent)
	}

	completion, err := p.llm.GenerateContent(ctx, []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{imagePart, llms.TextPart(prompt)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("error getting response from vision LLM: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("vision LLM returned no choices")
	}

	text := strings.TrimSpace(completion.Choices[0].Content)
	if text == "" {
		return nil, nil
	}

	logger.WithField("content_length", len(text)).Debug("Vision LLM recognition completed")
	return []engine.RawResult{{Text: text, Confidence: p.confidence}}, nil
}

func (p *LLMProvider) renderPrompt(language string) (string, error) {
	name, ok := languageNames[language]
	if !ok {
		name = language
	}

	var buf bytes.Buffer
	err := p.template.Execute(&buf, map[string]interface{}{"Language": name})
	if err != nil {
		return "", fmt.Errorf("error rendering vision prompt: %w", err)
	}
	return buf.String(), nil
}
