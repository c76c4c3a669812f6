package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
	assert.Equal(t, "none", cfg.EmbeddingToken)
	assert.Equal(t, "all-minilm", cfg.EmbeddingModel)
	assert.Equal(t, "https://api.groq.com/openai/v1", cfg.CompletionHost)
	assert.Equal(t, "llama-3.1-8b-instant", cfg.CompletionModel)
	assert.InDelta(t, 0.1, cfg.Temperature, 1e-9)
	assert.Empty(t, cfg.APIKey)
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		cfg := NewConfig()

		assert.NotNil(t, cfg)
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "llama-3.1-8b-instant", cfg.CompletionModel)
	})

	t.Run("with custom host", func(t *testing.T) {
		cfg := NewConfig(WithHost("http://custom:8080/v1"))

		assert.Equal(t, "http://custom:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "http://custom:8080/v1", cfg.CompletionHost)
	})

	t.Run("with separate hosts", func(t *testing.T) {
		cfg := NewConfig(
			WithEmbeddingHost("http://embed:8080/v1"),
			WithCompletionHost("https://api.openai.com/v1"),
		)

		assert.Equal(t, "http://embed:8080/v1", cfg.EmbeddingHost)
		assert.Equal(t, "https://api.openai.com/v1", cfg.CompletionHost)
	})

	t.Run("with credentials and models", func(t *testing.T) {
		cfg := NewConfig(
			WithAPIKey("gsk_test"),
			WithEmbeddingToken("sk-embed"),
			WithEmbeddingModel("text-embedding-3-small"),
			WithCompletionModel("gpt-4o-mini"),
			WithTemperature(0.7),
		)

		assert.Equal(t, "gsk_test", cfg.APIKey)
		assert.Equal(t, "sk-embed", cfg.EmbeddingToken)
		assert.Equal(t, "text-embedding-3-small", cfg.EmbeddingModel)
		assert.Equal(t, "gpt-4o-mini", cfg.CompletionModel)
		assert.InDelta(t, 0.7, cfg.Temperature, 1e-9)
	})
}

func TestConfigNormalize(t *testing.T) {
	tests := []struct {
		name               string
		embeddingHost      string
		completionHost     string
		expectedEmbedding  string
		expectedCompletion string
	}{
		{
			name:               "already has /v1",
			embeddingHost:      "http://localhost:11434/v1",
			completionHost:     "https://api.groq.com/openai/v1",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "https://api.groq.com/openai/v1",
		},
		{
			name:               "missing /v1",
			embeddingHost:      "http://localhost:11434",
			completionHost:     "https://api.groq.com/openai",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "https://api.groq.com/openai/v1",
		},
		{
			name:               "has trailing slash",
			embeddingHost:      "http://localhost:11434/",
			completionHost:     "https://api.groq.com/openai/",
			expectedEmbedding:  "http://localhost:11434/v1",
			expectedCompletion: "https://api.groq.com/openai/v1",
		},
		{
			name:               "empty hosts",
			embeddingHost:      "",
			completionHost:     "",
			expectedEmbedding:  "",
			expectedCompletion: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{
				EmbeddingHost:  tt.embeddingHost,
				CompletionHost: tt.completionHost,
			}

			cfg.Normalize()

			assert.Equal(t, tt.expectedEmbedding, cfg.EmbeddingHost)
			assert.Equal(t, tt.expectedCompletion, cfg.CompletionHost)
		})
	}

	t.Run("empty embedding token defaults to none", func(t *testing.T) {
		cfg := &Config{}
		cfg.Normalize()
		assert.Equal(t, "none", cfg.EmbeddingToken)
	})
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			EmbeddingHost:   "http://localhost:11434",
			EmbeddingModel:  "all-minilm",
			CompletionHost:  "https://api.groq.com/openai",
			CompletionModel: "llama-3.1-8b-instant",
			APIKey:          "gsk_test",
			Temperature:     0.1,
		}
	}

	t.Run("valid config", func(t *testing.T) {
		cfg := valid()

		err := cfg.Validate()
		require.NoError(t, err)

		// Should also normalize
		assert.Equal(t, "http://localhost:11434/v1", cfg.EmbeddingHost)
		assert.Equal(t, "https://api.groq.com/openai/v1", cfg.CompletionHost)
	})

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantMsg string
	}{
		{"missing embedding host", func(c *Config) { c.EmbeddingHost = "" }, "EmbeddingHost"},
		{"missing embedding model", func(c *Config) { c.EmbeddingModel = "" }, "EmbeddingModel"},
		{"missing completion host", func(c *Config) { c.CompletionHost = "" }, "CompletionHost"},
		{"missing completion model", func(c *Config) { c.CompletionModel = "" }, "CompletionModel"},
		{"missing api key", func(c *Config) { c.APIKey = "" }, "APIKey"},
		{"temperature too high", func(c *Config) { c.Temperature = 2.5 }, "Temperature"},
		{"negative temperature", func(c *Config) { c.Temperature = -0.1 }, "Temperature"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestConfigValidateEmbedding(t *testing.T) {
	t.Run("does not require completion settings", func(t *testing.T) {
		cfg := &Config{
			EmbeddingHost:  "http://localhost:11434",
			EmbeddingModel: "all-minilm",
		}
		assert.NoError(t, cfg.ValidateEmbedding())
		assert.Error(t, cfg.ValidateCompletion())
	})

	t.Run("requires embedding model", func(t *testing.T) {
		cfg := &Config{EmbeddingHost: "http://localhost:11434"}
		err := cfg.ValidateEmbedding()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "EmbeddingModel")
	})
}
