package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/poiesic/animerec/ai"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/storage"
	"github.com/tmc/langchaingo/schema"
	"github.com/tmc/langchaingo/vectorstores"
)

// DefaultK is the number of documents a retriever returns when none is configured.
const DefaultK = 4

// MetaID is the document metadata key holding the entry ID.
const MetaID = "id"

// Store answers nearest-neighbour queries over an index repository.
// It is safe for concurrent use.
type Store struct {
	repo      storage.IndexRepository
	embedder  ai.Embedder
	manifest  *core.IndexManifest
	threshold float32
	closers   []func() error
	logger    *slog.Logger
}

var _ vectorstores.VectorStore = (*Store)(nil)

// StoreOption configures a Store.
type StoreOption func(*Store) error

// WithStoreLogger sets a custom logger.
// Default is slog.Default().
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// WithScoreThreshold drops results whose cosine similarity is below threshold.
// Default is 0, which keeps every result.
func WithScoreThreshold(threshold float32) StoreOption {
	return func(s *Store) error {
		if threshold < 0 || threshold > 1 {
			return ErrInvalidScoreThreshold
		}
		s.threshold = threshold
		return nil
	}
}

func withManifest(manifest *core.IndexManifest) StoreOption {
	return func(s *Store) error {
		s.manifest = manifest
		return nil
	}
}

func withCloser(fn func() error) StoreOption {
	return func(s *Store) error {
		s.closers = append(s.closers, fn)
		return nil
	}
}

// NewStore wraps repo. Queries are embedded with embedder, which must be the
// model the index was built with.
func NewStore(repo storage.IndexRepository, embedder ai.Embedder, opts ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, storage.ErrIndexNotFound
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Store{
		repo:     repo,
		embedder: embedder,
		logger:   slog.Default().With("component", "vectorstore"),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Manifest returns the manifest of the loaded build, or nil for a store
// created directly over a repository.
func (s *Store) Manifest() *core.IndexManifest {
	return s.manifest
}

// Retrieve returns at most k entries nearest to query, closest first.
// Equal distances keep insertion order.
func (s *Store) Retrieve(ctx context.Context, query string, k int) ([]*core.SearchResult, error) {
	return s.search(ctx, "retrieve", query, k, s.threshold, s.embedder.EmbedText)
}

func (s *Store) search(ctx context.Context, op, query string, k int, threshold float32,
	embedQuery func(context.Context, string) ([]float32, error)) ([]*core.SearchResult, error) {
	if k <= 0 {
		return nil, core.Wrap(op, core.KindData, fmt.Errorf("%w: got %d", ErrInvalidK, k))
	}
	if threshold < 0 || threshold > 1 {
		return nil, core.Wrap(op, core.KindData, ErrInvalidScoreThreshold)
	}
	if s.manifest != nil && s.manifest.Count == 0 {
		return []*core.SearchResult{}, nil
	}

	vector, err := embedQuery(ctx, query)
	if err != nil {
		s.logger.Error("error embedding query", "query", query, "err", err)
		return nil, core.Wrap(op, core.KindService, err)
	}

	results, err := s.repo.FindNearest(ctx, vector, k)
	if err != nil {
		s.logger.Error("error searching index", "err", err)
		return nil, core.Wrap(op, core.KindIndex, err)
	}

	if threshold > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.Similarity() >= threshold {
				kept = append(kept, r)
			}
		}
		results = kept
	}

	s.logger.Debug("retrieved entries", "query", query, "k", k, "hits", len(results))
	return results, nil
}

// SimilaritySearch implements vectorstores.VectorStore.
// Supported options are WithScoreThreshold and WithEmbedder.
func (s *Store) SimilaritySearch(ctx context.Context, query string, numDocuments int, options ...vectorstores.Option) ([]schema.Document, error) {
	const op = "similarity search"

	opts := vectorstores.Options{ScoreThreshold: s.threshold}
	for _, o := range options {
		o(&opts)
	}
	if opts.Filters != nil {
		return nil, core.Wrap(op, core.KindData, ErrFiltersUnsupported)
	}

	embedQuery := s.embedder.EmbedText
	if opts.Embedder != nil {
		embedQuery = opts.Embedder.EmbedQuery
	}

	results, err := s.search(ctx, op, query, numDocuments, opts.ScoreThreshold, embedQuery)
	if err != nil {
		return nil, err
	}

	docs := make([]schema.Document, len(results))
	for i, r := range results {
		docs[i] = toDocument(r)
	}
	return docs, nil
}

// AddDocuments implements vectorstores.VectorStore. Documents are appended
// after existing entries. Stores opened by Builder.Load are read-only and
// return an error wrapping storage.ErrReadOnly.
func (s *Store) AddDocuments(ctx context.Context, docs []schema.Document, options ...vectorstores.Option) ([]string, error) {
	const op = "add documents"

	opts := vectorstores.Options{}
	for _, o := range options {
		o(&opts)
	}

	if opts.Deduplicater != nil {
		kept := make([]schema.Document, 0, len(docs))
		for _, doc := range docs {
			if !opts.Deduplicater(ctx, doc) {
				kept = append(kept, doc)
			}
		}
		docs = kept
	}
	if len(docs) == 0 {
		return []string{}, nil
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.PageContent
	}

	embedTexts := s.embedder.EmbedTexts
	if opts.Embedder != nil {
		embedTexts = opts.Embedder.EmbedDocuments
	}
	vectors, err := embedTexts(ctx, texts)
	if err != nil {
		return nil, core.Wrap(op, core.KindService, err)
	}
	if len(vectors) != len(docs) {
		return nil, core.Wrap(op, core.KindService,
			fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(docs), len(vectors)))
	}

	entries := make([]*core.Entry, len(docs))
	for i, doc := range docs {
		entries[i] = fromDocument(doc, vectors[i])
	}

	added, err := s.repo.AddEntries(ctx, entries...)
	if err != nil {
		kind := core.KindIndex
		if errors.Is(err, core.ErrInvalidEntry) {
			kind = core.KindData
		}
		return nil, core.Wrap(op, kind, err)
	}

	ids := make([]string, len(added))
	for i, entry := range added {
		ids[i] = entry.Id.String()
	}
	return ids, nil
}

// AsRetriever returns a langchaingo retriever yielding k documents per query.
func (s *Store) AsRetriever(k int, options ...vectorstores.Option) vectorstores.Retriever {
	if k <= 0 {
		k = DefaultK
	}
	return vectorstores.ToRetriever(s, k, options...)
}

// Close releases the repository and, for loaded stores, the underlying index.
func (s *Store) Close() error {
	err := s.repo.Close()
	for _, closer := range s.closers {
		if closeErr := closer(); err == nil {
			err = closeErr
		}
	}
	return err
}

func toDocument(r *core.SearchResult) schema.Document {
	metadata := make(map[string]any, len(r.Entry.Metadata)+1)
	for k, v := range r.Entry.Metadata {
		metadata[k] = v
	}
	metadata[MetaID] = r.Entry.Id.String()
	return schema.Document{
		PageContent: r.Entry.Content,
		Metadata:    metadata,
		Score:       r.Similarity(),
	}
}

func fromDocument(doc schema.Document, vector []float32) *core.Entry {
	metadata := make(map[string]string, len(doc.Metadata))
	for k, v := range doc.Metadata {
		metadata[k] = fmt.Sprint(v)
	}
	return &core.Entry{
		ItemId:   metadata[core.MetaItemID],
		Title:    metadata[core.MetaTitle],
		Content:  doc.PageContent,
		Vector:   vector,
		Metadata: metadata,
	}
}
