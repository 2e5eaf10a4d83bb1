package ocr

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cvanswers/engine"
)

type countingRecognizer struct {
	calls    int
	failures int
}

func (c *countingRecognizer) Recognize(_ context.Context, _ []byte, _ engine.Configuration) ([]engine.RawResult, error) {
	c.calls++
	if c.calls <= c.failures {
		return nil, errors.New("transient failure")
	}
	return []engine.RawResult{{Text: "ok", Confidence: 1}}, nil
}

func TestRateLimitedRecognizerPassThrough(t *testing.T) {
	inner := &countingRecognizer{}
	r := NewRateLimitedRecognizer(inner, RateLimitConfig{})

	results, err := r.Recognize(context.Background(), []byte("img"), engine.Configuration{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "ok", results[0].Text)
	assert.Equal(t, 1, inner.calls)
}

func TestRateLimitedRecognizerRetries(t *testing.T) {
	inner := &countingRecognizer{failures: 2}
	r := NewRateLimitedRecognizer(inner, RateLimitConfig{MaxRetries: 3})
	r.backoffMin = time.Millisecond
	r.backoffMax = 5 * time.Millisecond

	results, err := r.Recognize(context.Background(), []byte("img"), engine.Configuration{})
	require.NoError(t, err)
	assert.Len(t, results, 1)
	assert.Equal(t, 3, inner.calls)
}

func TestRateLimitedRecognizerExhaustsRetries(t *testing.T) {
	inner := &countingRecognizer{failures: 100}
	r := NewRateLimitedRecognizer(inner, RateLimitConfig{MaxRetries: 2})
	r.backoffMin = time.Millisecond
	r.backoffMax = 5 * time.Millisecond

	_, err := r.Recognize(context.Background(), []byte("img"), engine.Configuration{})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls, "initial attempt plus two retries")
}

func TestRateLimitedRecognizerContextCancelled(t *testing.T) {
	inner := &countingRecognizer{failures: 100}
	r := NewRateLimitedRecognizer(inner, RateLimitConfig{MaxRetries: 5})
	r.backoffMin = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Recognize(ctx, []byte("img"), engine.Configuration{})
	assert.Error(t, err)
}
