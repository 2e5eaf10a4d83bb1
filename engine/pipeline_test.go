package engine

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubRecognizer returns the same canned results for every invocation.
type stubRecognizer struct {
	results []RawResult
	err     error
	calls   atomic.Int64
}

func (s *stubRecognizer) Recognize(_ context.Context, _ []byte, _ Configuration) ([]RawResult, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	return s.results, nil
}

func testImage() image.Image {
	return image.NewRGBA(image.Rect(0, 0, 120, 160))
}

// singleShot narrows the pipeline to one region and one configuration so
// observation counts in assertions stay exact.
func singleShot(p *Pipeline) {
	p.SetRegions([]Region{{Name: "left_bottom", X0: 0, Y0: 0.75, X1: 0.3, Y1: 1, Priority: 0}})
	p.SetConfigurations([]Configuration{{Language: "chi_sim", SegMode: 6}})
}

func TestProcessScenarioTigerVersusIndex(t *testing.T) {
	rec := &stubRecognizer{results: []RawResult{
		{Text: "老虎Eee", Confidence: 0.6},
		{Text: "33", Confidence: 0.9},
	}}
	p := NewPipeline(rec, DefaultConfig(), nil)
	singleShot(p)

	sel, err := p.Process(context.Background(), testImage(), "033.jpg")
	require.NoError(t, err)
	assert.Equal(t, "老虎", sel.Answer, "dictionary hit wins while the echoed index is excluded")
	assert.Equal(t, 1, sel.Rule)
}

func TestProcessScenarioPistolAfterIndex(t *testing.T) {
	rec := &stubRecognizer{results: []RawResult{
		{Text: "...47手枪", Confidence: 0.6},
	}}
	p := NewPipeline(rec, DefaultConfig(), nil)
	singleShot(p)

	sel, err := p.Process(context.Background(), testImage(), "047.jpg")
	require.NoError(t, err)
	assert.Equal(t, "手枪", sel.Answer)
	assert.Equal(t, 1, sel.Rule)
}

func TestProcessScenarioGenuineNumericAnswer(t *testing.T) {
	rec := &stubRecognizer{results: []RawResult{
		{Text: "85", Confidence: 0.35},
	}}
	p := NewPipeline(rec, DefaultConfig(), nil)
	singleShot(p)

	sel, err := p.Process(context.Background(), testImage(), "009.jpg")
	require.NoError(t, err)
	assert.Equal(t, "85", sel.Answer, "a two-digit value far from the index is a real answer")
	assert.Equal(t, 2, sel.Rule)
}

func TestProcessNoObservations(t *testing.T) {
	rec := &stubRecognizer{}
	p := NewPipeline(rec, DefaultConfig(), nil)

	sel, err := p.Process(context.Background(), testImage(), "009.jpg")
	require.NoError(t, err)
	assert.Equal(t, "", sel.Answer, "no observations is unresolved, never an error")
	assert.Equal(t, 0, sel.Rule)
}

func TestProcessRecognizerFailuresAreNotFatal(t *testing.T) {
	rec := &stubRecognizer{err: errors.New("model crashed")}
	p := NewPipeline(rec, DefaultConfig(), nil)

	sel, err := p.Process(context.Background(), testImage(), "009.jpg")
	require.NoError(t, err)
	assert.Equal(t, "", sel.Answer)
	assert.Greater(t, rec.calls.Load(), int64(0), "all combinations are still attempted")
}

func TestProcessIdempotent(t *testing.T) {
	rec := &stubRecognizer{results: []RawResult{
		{Text: "12. 骆驼", Confidence: 0.55},
		{Text: "骆驼", Confidence: 0.4},
		{Text: "12", Confidence: 0.8},
	}}
	p := NewPipeline(rec, DefaultConfig(), nil)

	first, err := p.Process(context.Background(), testImage(), "012.jpg")
	require.NoError(t, err)
	require.NotEmpty(t, first.Answer)

	for i := 0; i < 5; i++ {
		again, err := p.Process(context.Background(), testImage(), "012.jpg")
		require.NoError(t, err)
		assert.Equal(t, first.Answer, again.Answer, "identical inputs must select the same answer")
		assert.Equal(t, first.Rule, again.Rule)
	}
}

func TestProcessDropsLowConfidenceObservations(t *testing.T) {
	rec := &stubRecognizer{results: []RawResult{
		{Text: "ABCD", Confidence: 0.01},
	}}
	p := NewPipeline(rec, DefaultConfig(), nil)
	singleShot(p)

	sel, err := p.Process(context.Background(), testImage(), "009.jpg")
	require.NoError(t, err)
	assert.Equal(t, "", sel.Answer)
}

func TestProcessNilImage(t *testing.T) {
	p := NewPipeline(&stubRecognizer{}, DefaultConfig(), nil)
	_, err := p.Process(context.Background(), nil, "009.jpg")
	assert.Error(t, err)
}
