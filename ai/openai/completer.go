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


package openai

import (
	"context"
	"log/slog"

	"github.com/poiesic/animerec/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// Completer implements ai.Completer using an OpenAI-compatible chat API.
type Completer struct {
	client      llms.Model
	model       string
	temperature float64
	logger      *slog.Logger
}

var _ ai.Completer = (*Completer)(nil)

// newCompleter is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newCompleter(config *ai.Config) (*Completer, error) {
	if err := config.ValidateCompletion(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.CompletionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.CompletionModel),
	)
	if err != nil {
		return nil, err
	}

	return newCompleterWithModel(client, config.CompletionModel, config.Temperature), nil
}

// newCompleterWithModel wraps an already constructed langchaingo model.
func newCompleterWithModel(client llms.Model, model string, temperature float64) *Completer {
	return &Completer{
		client:      client,
		model:       model,
		temperature: temperature,
		logger:      slog.Default().With("component", "openai-completer", "model", model),
	}
}

// NewCompleter creates a completer for the hosted model named in config,
// authenticated with config.APIKey.
//
// Returns ai.Completer interface to enforce abstraction.
func NewCompleter(config *ai.Config) (ai.Completer, error) {
	return newCompleter(config)
}

// Complete sends prompt as a single human message and returns the raw answer.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	c.logger.Debug("requesting completion", "prompt", abbreviate(prompt, 120))

	answer, err := llms.GenerateFromSinglePrompt(ctx, c.client, prompt, llms.WithTemperature(c.temperature))
	if err != nil {
		c.logger.Error("failed to generate completion", "err", err)
		return "", err
	}

	c.logger.Debug("received completion", "length", len(answer))
	return answer, nil
}

// Model returns the completion model identifier.
func (c *Completer) Model() string {
	return c.model
}
