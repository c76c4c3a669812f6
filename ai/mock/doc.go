// Package mock provides test doubles for the ai package interfaces.
//
// # Usage
//
//	// Default behavior
//	mockProvider := mock.NewMockProvider()
//	vector, err := mockProvider.Embedder().EmbedText(ctx, "test")
//
//	// Vectors that cluster on shared words
//	embedder := mock.NewBagOfWordsEmbedder("space", "samurai", "romance")
//
//	// Custom behavior injection
//	completer := mock.NewMockCompleter()
//	completer.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
//	    return "", errors.New("401 unauthorized")
//	}
//
// # Default Behavior
//
//   - MockEmbedder: Returns deterministic unit vectors based on text hash
//   - MockCompleter: Echoes the prompt and records it
//   - MockProvider: Aggregates mock embedder and completer
package mock
