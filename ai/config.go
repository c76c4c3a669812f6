// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
)

// Config holds configuration for AI service providers.
type Config struct {
	// EmbeddingHost is the base URL for the embedding service API.
	// Example: "http://localhost:11434/v1" for local OpenAI-compatible server
	EmbeddingHost string

	// EmbeddingToken authenticates against the embedding service.
	// Local OpenAI-compatible servers accept any value; default "none".
	EmbeddingToken string

	// EmbeddingModel is the model identifier to use for text embeddings.
	// Example: "all-minilm", "text-embedding-3-small"
	EmbeddingModel string

	// CompletionHost is the base URL for the hosted chat completion API.
	// Example: "https://api.groq.com/openai/v1"
	CompletionHost string

	// APIKey authenticates against the completion service.
	APIKey string

	// CompletionModel is the model identifier used to write recommendations.
	// Example: "llama-3.1-8b-instant"
	CompletionModel string

	// Temperature is the sampling temperature for completions.
	// Default: 0.1
	Temperature float64
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithEmbeddingHost sets the embedding service host URL.
func WithEmbeddingHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
	}
}

// WithEmbeddingToken sets the token sent to the embedding service.
func WithEmbeddingToken(token string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingToken = token
	}
}

// WithCompletionHost sets the completion service host URL.
func WithCompletionHost(host string) ConfigOption {
	return func(c *Config) {
		c.CompletionHost = host
	}
}

// WithHost sets both embedding and completion hosts to the same URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingHost = host
		c.CompletionHost = host
	}
}

// WithEmbeddingModel sets the embedding model identifier.
func WithEmbeddingModel(model string) ConfigOption {
	return func(c *Config) {
		c.EmbeddingModel = model
	}
}

// WithCompletionModel sets the completion model identifier.
func WithCompletionModel(model string) ConfigOption {
	return func(c *Config) {
		c.CompletionModel = model
	}
}

// WithAPIKey sets the completion service API key.
func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

// WithTemperature sets the completion sampling temperature.
func WithTemperature(temperature float64) ConfigOption {
	return func(c *Config) {
		c.Temperature = temperature
	}
}

// DefaultConfig returns a Config that embeds with a local OpenAI-compatible
// server and completes with Groq's hosted llama model.
func DefaultConfig() *Config {
	return &Config{
		EmbeddingHost:   "http://localhost:11434/v1",
		EmbeddingToken:  "none",
		EmbeddingModel:  "all-minilm",
		CompletionHost:  "https://api.groq.com/openai/v1",
		CompletionModel: "llama-3.1-8b-instant",
		Temperature:     0.1,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//
//	cfg := NewConfig(
//	    WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    WithCompletionModel(os.Getenv("MODEL_NAME")),
//	)
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in a canonical form.
// It automatically adds the /v1 suffix to hosts if missing, which is required
// by most OpenAI-compatible APIs (Ollama, LocalAI, vLLM, Groq, etc).
func (c *Config) Normalize() {
	c.EmbeddingHost = withVersionSuffix(c.EmbeddingHost)
	c.CompletionHost = withVersionSuffix(c.CompletionHost)
	if c.EmbeddingToken == "" {
		c.EmbeddingToken = "none"
	}
}

func withVersionSuffix(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

// ValidateEmbedding checks only the settings needed to embed text.
// Index builds use this so they do not require a completion API key.
func (c *Config) ValidateEmbedding() error {
	c.Normalize()

	if c.EmbeddingHost == "" {
		return errors.New("ai config: EmbeddingHost is required")
	}
	if c.EmbeddingModel == "" {
		return errors.New("ai config: EmbeddingModel is required")
	}
	return nil
}

// ValidateCompletion checks only the settings needed to call the completion model.
func (c *Config) ValidateCompletion() error {
	c.Normalize()

	if c.CompletionHost == "" {
		return errors.New("ai config: CompletionHost is required")
	}
	if c.CompletionModel == "" {
		return errors.New("ai config: CompletionModel is required")
	}
	if c.APIKey == "" {
		return errors.New("ai config: APIKey is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be between 0 and 2")
	}
	return nil
}

// Validate checks that the configuration is valid and complete.
// It automatically normalizes the configuration before validation.
func (c *Config) Validate() error {
	if err := c.ValidateEmbedding(); err != nil {
		return err
	}
	return c.ValidateCompletion()
}
