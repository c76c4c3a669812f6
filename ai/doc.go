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


// Package ai provides abstractions for the AI services used by animerec.
//
// Two services are involved in answering a query: an Embedder turns anime
// descriptions and user queries into vectors, and a Completer asks a hosted
// language model to write the recommendation from retrieved context.
//
//   - Embedder: Generates vector embeddings from text
//   - Completer: Produces a text answer for a rendered prompt
//   - AIProvider: Aggregates both for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Production implementation using OpenAI-compatible APIs via langchaingo
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider, openai.NewEmbedder, openai.NewCompleter)
// return INTERFACE types. Mock constructors return CONCRETE types so tests can
// inject behavior and inspect call counts:
//
//	mockEmbed := mock.NewMockEmbedder()
//	mockEmbed.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) { ... }
//	count := mockEmbed.CallCount()
//
// # Configuration
//
// Config separates the embedding and completion endpoints. Index builds only
// need the embedding half (Config.ValidateEmbedding); serving needs both.
//
//	cfg := ai.NewConfig(
//	    ai.WithAPIKey(os.Getenv("GROQ_API_KEY")),
//	    ai.WithCompletionModel("llama-3.1-8b-instant"),
//	)
//	provider, err := openai.NewProvider(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
package ai
