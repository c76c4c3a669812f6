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


package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/poiesic/animerec/ai"
)

// Config holds every setting the build and serving pipelines read.
type Config struct {
	Index      IndexConfig      `koanf:"index"`
	Embedding  EmbeddingConfig  `koanf:"embedding"`
	Completion CompletionConfig `koanf:"completion"`
	Build      BuildConfig      `koanf:"build"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// IndexConfig locates the persisted vector index.
type IndexConfig struct {
	Dir string `koanf:"dir" validate:"required"`
}

// EmbeddingConfig selects the embedding service.
type EmbeddingConfig struct {
	Host  string `koanf:"host" validate:"required,url"`
	Model string `koanf:"model" validate:"required"`
	Token string `koanf:"token"`
}

// CompletionConfig selects the hosted language model.
// APIKey is only checked by ValidateServing since builds never call the model.
type CompletionConfig struct {
	Host        string  `koanf:"host" validate:"required,url"`
	APIKey      string  `koanf:"api_key"`
	Model       string  `koanf:"model" validate:"required"`
	Temperature float64 `koanf:"temperature" validate:"gte=0,lte=2"`
}

// BuildConfig tunes index builds.
type BuildConfig struct {
	ChunkSize      int           `koanf:"chunk_size" validate:"gt=0"`
	ChunkOverlap   int           `koanf:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	BatchSize      int           `koanf:"batch_size" validate:"gt=0"`
	Workers        int           `koanf:"workers" validate:"gte=1"`
	MaxAttempts    int           `koanf:"max_attempts" validate:"gte=1"`
	RetryDelay     time.Duration `koanf:"retry_delay" validate:"gte=0"`
	ReportInterval int           `koanf:"report_interval" validate:"gte=0"`
}

// RetrievalConfig tunes the serving retriever and recommender.
type RetrievalConfig struct {
	K                  int     `koanf:"k" validate:"gt=0"`
	ScoreThreshold     float64 `koanf:"score_threshold" validate:"gte=0,lte=1"`
	EmptyContextAnswer string  `koanf:"empty_context_answer"`
}

// LoggingConfig sets the process log level.
type LoggingConfig struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Default returns the configuration used when no file or environment overrides exist.
func Default() *Config {
	aiDefaults := ai.DefaultConfig()
	return &Config{
		Index: IndexConfig{
			Dir: "index_db",
		},
		Embedding: EmbeddingConfig{
			Host:  aiDefaults.EmbeddingHost,
			Model: aiDefaults.EmbeddingModel,
			Token: aiDefaults.EmbeddingToken,
		},
		Completion: CompletionConfig{
			Host:        aiDefaults.CompletionHost,
			Model:       aiDefaults.CompletionModel,
			Temperature: aiDefaults.Temperature,
		},
		Build: BuildConfig{
			ChunkSize:      1000,
			ChunkOverlap:   0,
			BatchSize:      64,
			Workers:        1,
			MaxAttempts:    1,
			RetryDelay:     time.Second,
			ReportInterval: 100,
		},
		Retrieval: RetrievalConfig{
			K: 4,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

var validate = validator.New()

// Validate checks every field constraint and reports all violations at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		if fe.Param() != "" {
			problems = append(problems, fmt.Sprintf("%s fails %s=%s", fe.Namespace(), fe.Tag(), fe.Param()))
		} else {
			problems = append(problems, fmt.Sprintf("%s fails %s", fe.Namespace(), fe.Tag()))
		}
	}
	return fmt.Errorf("%w: %s", ErrInvalidConfig, strings.Join(problems, "; "))
}

// ValidateServing checks the settings only the serving pipeline needs.
func (c *Config) ValidateServing() error {
	if strings.TrimSpace(c.Completion.APIKey) == "" {
		return ErrAPIKeyRequired
	}
	return nil
}

// AIConfig converts the service settings into an ai.Config.
func (c *Config) AIConfig() *ai.Config {
	return ai.NewConfig(
		ai.WithEmbeddingHost(c.Embedding.Host),
		ai.WithEmbeddingModel(c.Embedding.Model),
		ai.WithEmbeddingToken(c.Embedding.Token),
		ai.WithCompletionHost(c.Completion.Host),
		ai.WithAPIKey(c.Completion.APIKey),
		ai.WithCompletionModel(c.Completion.Model),
		ai.WithTemperature(c.Completion.Temperature),
	)
}
