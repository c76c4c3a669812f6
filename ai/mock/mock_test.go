package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockEmbedder_Deterministic(t *testing.T) {
	m := NewMockEmbedder()
	ctx := context.Background()

	a, err := m.EmbedText(ctx, "Cowboy Bebop")
	require.NoError(t, err)
	b, err := m.EmbedText(ctx, "Cowboy Bebop")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, DefaultDimension)
	assert.Equal(t, 2, m.CallCount())

	var norm float64
	for _, v := range a {
		norm += float64(v) * float64(v)
	}
	assert.InDelta(t, 1.0, norm, 1e-4)
}

func TestMockEmbedder_Counts(t *testing.T) {
	m := NewMockEmbedder()
	_, err := m.EmbedTexts(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, 1, m.CallCount())
	assert.Equal(t, 3, m.TextCount())

	m.Reset()
	assert.Zero(t, m.CallCount())
	assert.Zero(t, m.TextCount())
}

func TestMockEmbedder_CustomFunc(t *testing.T) {
	m := NewMockEmbedder()
	m.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, errors.New("connection refused")
	}

	_, err := m.EmbedText(context.Background(), "x")
	assert.Error(t, err)
}

func TestBagOfWordsEmbedder(t *testing.T) {
	m := NewBagOfWordsEmbedder("space", "samurai")
	ctx := context.Background()

	space, err := m.EmbedText(ctx, "Bounty hunters in SPACE.")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, space[0], 1e-6)
	assert.Zero(t, space[1])

	none, err := m.EmbedText(ctx, "a quiet slice of life")
	require.NoError(t, err)
	assert.InDelta(t, 1.0, none[2], 1e-6)
}

func TestMockCompleter(t *testing.T) {
	c := NewMockCompleter()
	ctx := context.Background()

	answer, err := c.Complete(ctx, "prompt one")
	require.NoError(t, err)
	assert.Equal(t, "prompt one", answer)
	assert.Equal(t, "mock-llm", c.Model())

	c.CompleteFunc = func(ctx context.Context, prompt string) (string, error) {
		return "fixed", nil
	}
	answer, err = c.Complete(ctx, "prompt two")
	require.NoError(t, err)
	assert.Equal(t, "fixed", answer)

	assert.Equal(t, []string{"prompt one", "prompt two"}, c.Prompts())
	assert.Equal(t, 2, c.CallCount())

	c.Reset()
	assert.Zero(t, c.CallCount())
}

func TestMockCompleter_Concurrent(t *testing.T) {
	c := NewMockCompleter()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = c.Complete(context.Background(), "q")
		}()
	}
	wg.Wait()
	assert.Equal(t, 50, c.CallCount())
}

func TestMockProvider(t *testing.T) {
	p := NewMockProvider()
	assert.NotNil(t, p.Embedder())
	assert.NotNil(t, p.Completer())
	require.NoError(t, p.Close())
	assert.True(t, p.(*MockProvider).Closed())

	embedOnly := NewMockProviderWithServices(NewMockEmbedder(), nil)
	assert.Nil(t, embedOnly.Completer())
}
