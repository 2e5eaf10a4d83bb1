package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLLMProviderPromptRendering(t *testing.T) {
	provider, err := newLLMProvider(Config{
		Provider:          "llm",
		VisionLLMProvider: "openai",
		VisionLLMModel:    "gpt-4o-mini",
	})
	require.NoError(t, err)

	t.Run("Known language", func(t *testing.T) {
		prompt, err := provider.renderPrompt("chi_sim")
		require.NoError(t, err)
		assert.Contains(t, prompt, "Simplified Chinese")
	})

	t.Run("Unknown language passes through", func(t *testing.T) {
		prompt, err := provider.renderPrompt("deu")
		require.NoError(t, err)
		assert.Contains(t, prompt, "deu")
	})
}

func TestLLMProviderCustomPromptAndConfidence(t *testing.T) {
	provider, err := newLLMProvider(Config{
		Provider:            "llm",
		VisionLLMProvider:   "openai",
		VisionLLMModel:      "gpt-4o-mini",
		VisionLLMPrompt:     "Read the {{.Language}} answer text.",
		VisionLLMConfidence: 0.9,
	})
	require.NoError(t, err)

	prompt, err := provider.renderPrompt("eng")
	require.NoError(t, err)
	assert.Equal(t, "Read the English answer text.", prompt)
	assert.InDelta(t, 0.9, provider.confidence, 1e-9)
}

func TestLLMProviderDefaultConfidence(t *testing.T) {
	provider, err := newLLMProvider(Config{
		Provider:          "llm",
		VisionLLMProvider: "openai",
		VisionLLMModel:    "gpt-4o-mini",
	})
	require.NoError(t, err)
	assert.InDelta(t, defaultVisionConfidence, provider.confidence, 1e-9)
}

func TestLLMProviderBadTemplate(t *testing.T) {
	_, err := newLLMProvider(Config{
		Provider:          "llm",
		VisionLLMProvider: "openai",
		VisionLLMModel:    "gpt-4o-mini",
		VisionLLMPrompt:   "{{.Language",
	})
	assert.Error(t, err)
}
