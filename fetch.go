package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ImageFetcher downloads unmasked original card images into a local cache
// directory. Downloads are rate limited to stay polite towards the card
// host and retried on transient failures.
type ImageFetcher struct {
	httpClient *retryablehttp.Client
	limiter    *rate.Limiter
	cacheDir   string
}

// NewImageFetcher builds a fetcher caching into cacheDir. requestsPerMinute
// of zero or less disables rate limiting.
func NewImageFetcher(cacheDir string, requestsPerMinute float64) *ImageFetcher {
	client := retryablehttp.NewClient()
	client.RetryMax = 3
	client.RetryWaitMin = 1 * time.Second
	client.RetryWaitMax = 10 * time.Second
	client.Logger = log
	client.HTTPClient.Timeout = 60 * time.Second
	client.HTTPClient.Transport = NewHttpTransportWithUserAgent(client.HTTPClient.Transport, browserUserAgent)

	var limiter *rate.Limiter
	if requestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(requestsPerMinute/60.0), 1)
	}

	return &ImageFetcher{
		httpClient: client,
		limiter:    limiter,
		cacheDir:   cacheDir,
	}
}

// Fetch downloads url into the cache under filename and returns the local
// path. An already cached file is returned without touching the network.
func (f *ImageFetcher) Fetch(ctx context.Context, url, filename string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("no original URL for %s", filename)
	}

	localPath := filepath.Join(f.cacheDir, filename)
	if _, err := os.Stat(localPath); err == nil {
		log.WithField("filename", filename).Debug("Original image already cached")
		return localPath, nil
	}

	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limiter wait failed: %w", err)
		}
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return "", fmt.Errorf("error creating request for %s: %w", url, err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("error downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return "", fmt.Errorf("error downloading %s: status %d", url, resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("error reading response for %s: %w", url, err)
	}

	// The host answers dead image links with an HTML error page and
	// status 200, so sniff before caching.
	mtype := mimetype.Detect(data)
	if !isImageMIMEType(mtype.String()) {
		return "", fmt.Errorf("unexpected content type %s for %s", mtype.String(), url)
	}

	if err := os.MkdirAll(f.cacheDir, os.ModePerm); err != nil {
		return "", fmt.Errorf("error creating cache directory: %w", err)
	}
	if err := os.WriteFile(localPath, data, 0644); err != nil {
		return "", fmt.Errorf("error writing cached image: %w", err)
	}

	log.WithFields(logrus.Fields{
		"filename": filename,
		"bytes":    len(data),
	}).Debug("Downloaded original image")
	return localPath, nil
}

func isImageMIMEType(mimeType string) bool {
	return len(mimeType) > 6 && mimeType[:6] == "image/"
}
