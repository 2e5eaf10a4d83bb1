package ocr

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"

	"cvanswers/engine"
)

const defaultEasyOCRTimeout = 60

// EasyOCRProvider talks to an EasyOCR model served behind a small HTTP
// sidecar. One reader instance backs the sidecar; serialization happens
// server-side, so the provider itself is safe for concurrent calls.
type EasyOCRProvider struct {
	endpoint   string
	timeout    time.Duration
	httpClient *retryablehttp.Client
}

type easyOCRRequest struct {
	ImageBase64 string `json:"image_base64"`
	Language    string `json:"language"`
}

type easyOCRResult struct {
	Text       string    `json:"text"`
	Confidence float64   `json:"confidence"`
	Box        [4][2]int `json:"box"`
}

type easyOCRResponse struct {
	Results []easyOCRResult `json:"results"`
}

// EasyOCR names its language packs differently from the pipeline's
// tesseract-style hints.
var easyOCRLanguages = map[string]string{
	"chi_sim": "ch_sim",
	"eng":     "en",
}

func newEasyOCRProvider(config Config) (*EasyOCRProvider, error) {
	logger := log.WithField("url", config.EasyOCRURL)
	logger.Info("Creating new EasyOCR sidecar provider")

	timeout := defaultEasyOCRTimeout
	if config.EasyOCRTimeout > 0 {
		timeout = config.EasyOCRTimeout
	}

	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 5 * time.Second
	client.Logger = logger

	return &EasyOCRProvider{
		endpoint:   config.EasyOCRURL,
		timeout:    time.Duration(timeout) * time.Second,
		httpClient: client,
	}, nil
}

// Recognize sends the region image to the sidecar and maps the response
// onto raw results.
func (p *EasyOCRProvider) Recognize(ctx context.Context, imageContent []byte, cfg engine.Configuration) ([]engine.RawResult, error) {
	logger := log.WithFields(logrus.Fields{
		"language": cfg.Language,
		"bytes":    len(imageContent),
	})
	logger.Debug("Starting EasyOCR recognition")

	mtype := mimetype.Detect(imageContent)
	if !isImageMIMEType(mtype.String()) {
		return nil, fmt.Errorf("unsupported file type: %s", mtype.String())
	}

	language := cfg.Language
	if mapped, ok := easyOCRLanguages[language]; ok {
		language = mapped
	}

	requestBody, err := json.Marshal(easyOCRRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(imageContent),
		Language:    language,
	})
	if err != nil {
		return nil, fmt.Errorf("error marshaling request body: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := retryablehttp.NewRequestWithContext(ctx, "POST", p.endpoint+"/readtext", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("error creating HTTP request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	var response easyOCRResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("error decoding response: %w", err)
	}

	results := make([]engine.RawResult, 0, len(response.Results))
	for _, r := range response.Results {
		var polygon [4]engine.Point
		for i, corner := range r.Box {
			polygon[i] = engine.Point{X: corner[0], Y: corner[1]}
		}
		results = append(results, engine.RawResult{
			Text:       r.Text,
			Confidence: r.Confidence,
			Polygon:    polygon,
		})
	}

	logger.WithField("result_count", len(results)).Debug("EasyOCR recognition completed")
	return results, nil
}
