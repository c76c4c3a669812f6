package vectorstore

import (
	"context"
	"testing"

	"github.com/poiesic/animerec/ai/mock"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

func newMemoryStore(t *testing.T, opts ...StoreOption) *Store {
	t.Helper()
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	store, err := NewStore(repo, mock.NewBagOfWordsEmbedder(vocabulary...), append(opts, withCloser(backend.Close))...)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *Store) {
	t.Helper()
	ids, err := store.AddDocuments(context.Background(), []schema.Document{
		{PageContent: "A ninja village story", Metadata: map[string]any{"title": "Naruto", "row": 0}},
		{PageContent: "Bounty hunters in space", Metadata: map[string]any{"title": "Cowboy Bebop", "row": 1}},
		{PageContent: "Pirate crew chases treasure", Metadata: map[string]any{"title": "One Piece", "row": 2}},
	})
	require.NoError(t, err)
	require.Len(t, ids, 3)
}

func TestNewStore_Validation(t *testing.T) {
	repo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)
	defer func() {
		repo.Close()
		backend.Close()
	}()

	_, err = NewStore(repo, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)

	_, err = NewStore(repo, mock.NewMockEmbedder(), WithScoreThreshold(1.5))
	assert.ErrorIs(t, err, ErrInvalidScoreThreshold)
}

func TestStore_SimilaritySearch(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	docs, err := store.SimilaritySearch(context.Background(), "space bounty", 2)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Bounty hunters in space", docs[0].PageContent)
	assert.Equal(t, "Cowboy Bebop", docs[0].Metadata["title"])
	assert.Equal(t, "1", docs[0].Metadata["row"])
	assert.NotEmpty(t, docs[0].Metadata[MetaID])
	assert.InDelta(t, 1.0, docs[0].Score, 1e-5)
	assert.GreaterOrEqual(t, docs[0].Score, docs[1].Score)
}

func TestStore_ScoreThreshold(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	docs, err := store.SimilaritySearch(context.Background(), "pirate treasure", 3,
		vectorstores.WithScoreThreshold(0.9))
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "One Piece", docs[0].Metadata["title"])

	_, err = store.SimilaritySearch(context.Background(), "pirate", 3, vectorstores.WithScoreThreshold(2))
	assert.ErrorIs(t, err, ErrInvalidScoreThreshold)
	assert.ErrorIs(t, err, core.KindData)
}

func TestStore_StoreLevelThreshold(t *testing.T) {
	store := newMemoryStore(t, WithScoreThreshold(0.5))
	seed(t, store)

	results, err := store.Retrieve(context.Background(), "ninja", 3)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Naruto", results[0].Entry.Title)
}

func TestStore_FiltersUnsupported(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	_, err := store.SimilaritySearch(context.Background(), "ninja", 1,
		vectorstores.WithFilters(map[string]any{"title": "Naruto"}))
	assert.ErrorIs(t, err, ErrFiltersUnsupported)
}

func TestStore_AddDocumentsDeduplicates(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	ids, err := store.AddDocuments(context.Background(),
		[]schema.Document{{PageContent: "A ninja village story"}, {PageContent: "School romance"}},
		vectorstores.WithDeduplicater(func(_ context.Context, doc schema.Document) bool {
			return doc.PageContent == "A ninja village story"
		}))
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	results, err := store.Retrieve(context.Background(), "school romance", 10)
	require.NoError(t, err)
	assert.Len(t, results, 4)
	assert.Equal(t, "School romance", results[0].Entry.Content)
}

func TestStore_AddDocumentsEmpty(t *testing.T) {
	store := newMemoryStore(t)

	ids, err := store.AddDocuments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestStore_AsRetriever(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	docs, err := store.AsRetriever(1).GetRelevantDocuments(context.Background(), "pirates and treasure")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Pirate crew chases treasure", docs[0].PageContent)

	docs, err = store.AsRetriever(0).GetRelevantDocuments(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, docs, 3, "default k caps at the index size")
}

func TestStore_EmbeddingFailure(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	failing := mock.NewMockEmbedder()
	failing.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return nil, assert.AnError
	}
	store.embedder = failing

	_, err := store.Retrieve(context.Background(), "ninja", 1)
	assert.ErrorIs(t, err, core.KindService)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestStore_DimensionMismatchIsIndexError(t *testing.T) {
	store := newMemoryStore(t)
	seed(t, store)

	short := mock.NewMockEmbedder()
	short.EmbedTextFunc = func(ctx context.Context, text string) ([]float32, error) {
		return []float32{1}, nil
	}
	store.embedder = short

	_, err := store.Retrieve(context.Background(), "ninja", 1)
	assert.ErrorIs(t, err, core.KindIndex)
	assert.ErrorIs(t, err, core.ErrDimensionMismatch)
}
