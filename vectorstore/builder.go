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


package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/animerec/ai"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/dataset"
	"github.com/poiesic/animerec/storage"
	"github.com/poiesic/animerec/storage/badger"
	"github.com/tmc/langchaingo/textsplitter"
)

const (
	// DefaultChunkSize is the largest chunk, in characters, an item is split into.
	DefaultChunkSize = 1000

	// DefaultBatchSize is the number of chunks sent to the embedder per request.
	DefaultBatchSize = 64

	// DefaultReportInterval is how often, in chunks, progress is printed.
	DefaultReportInterval = 100
)

// BuildStats summarizes a completed build.
type BuildStats struct {
	BuildId   string
	IndexDir  string
	Items     int
	Chunks    int
	Dimension int
	Duration  time.Duration
}

// Builder builds the persisted index and opens it for reading.
type Builder struct {
	indexDir       string
	embedder       ai.Embedder
	embeddingModel string
	loader         *dataset.Loader
	chunkSize      int
	chunkOverlap   int
	batchSize      int
	workers        int
	maxAttempts    int
	retryBaseDelay time.Duration
	progressWriter io.Writer
	reportInterval int
	logger         *slog.Logger
}

// Option configures a Builder.
type Option func(*Builder) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) error {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
		return nil
	}
}

// WithChunking sets the splitter's chunk size and overlap in characters.
// Default is 1000 characters with no overlap.
func WithChunking(size, overlap int) Option {
	return func(b *Builder) error {
		if size < 1 || overlap < 0 || overlap >= size {
			return fmt.Errorf("invalid chunking: size %d, overlap %d", size, overlap)
		}
		b.chunkSize = size
		b.chunkOverlap = overlap
		return nil
	}
}

// WithBatchSize sets how many chunks are embedded per request.
func WithBatchSize(size int) Option {
	return func(b *Builder) error {
		if size < 1 {
			size = 1
		}
		b.batchSize = size
		return nil
	}
}

// WithWorkers sets how many embedding requests may run at once.
// Default is 1. Insertion order does not depend on this setting.
func WithWorkers(workers int) Option {
	return func(b *Builder) error {
		if workers < 1 {
			workers = 1
		}
		b.workers = workers
		return nil
	}
}

// WithRetry sets the attempts per embedding batch and the initial backoff.
// Default is a single attempt.
func WithRetry(maxAttempts int, baseDelay time.Duration) Option {
	return func(b *Builder) error {
		if maxAttempts < 1 {
			return ErrInvalidMaxAttempts
		}
		b.maxAttempts = maxAttempts
		b.retryBaseDelay = baseDelay
		return nil
	}
}

// WithProgress prints embedding progress to w every interval chunks.
func WithProgress(w io.Writer, interval int) Option {
	return func(b *Builder) error {
		b.progressWriter = w
		b.reportInterval = interval
		return nil
	}
}

// WithEmbeddingModel records the embedding model name in the manifest.
func WithEmbeddingModel(name string) Option {
	return func(b *Builder) error {
		b.embeddingModel = name
		return nil
	}
}

// NewBuilder creates a Builder for the index at indexDir.
func NewBuilder(indexDir string, embedder ai.Embedder, opts ...Option) (*Builder, error) {
	if indexDir == "" {
		return nil, ErrIndexDirRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	b := &Builder{
		indexDir:       filepath.Clean(indexDir),
		embedder:       embedder,
		chunkSize:      DefaultChunkSize,
		batchSize:      DefaultBatchSize,
		workers:        1,
		maxAttempts:    1,
		retryBaseDelay: 500 * time.Millisecond,
		reportInterval: DefaultReportInterval,
		logger:         slog.Default().With("component", "vectorstore"),
	}

	for _, opt := range opts {
		if err := opt(b); err != nil {
			return nil, err
		}
	}

	loader, err := dataset.NewLoader(dataset.WithLogger(b.logger))
	if err != nil {
		return nil, err
	}
	b.loader = loader

	return b, nil
}

// IndexDir returns the directory the index is written to.
func (b *Builder) IndexDir() string {
	return b.indexDir
}

// BuildAndSave builds a fresh index from the processed CSV at csvPath and
// replaces any index already in the index directory.
// An empty CSV produces a valid empty index.
func (b *Builder) BuildAndSave(ctx context.Context, csvPath string) (*BuildStats, error) {
	const op = "build and save"
	started := time.Now()

	items, err := b.loader.ReadProcessed(ctx, csvPath)
	if err != nil {
		b.logger.Error("error reading processed dataset", "path", csvPath, "err", err)
		return nil, core.Wrap(op, core.KindUnknown, err)
	}

	entries, err := b.chunk(items)
	if err != nil {
		return nil, core.Wrap(op, core.KindData, err)
	}
	b.logger.Info("chunked dataset", "items", len(items), "chunks", len(entries))

	if err := b.embed(ctx, entries); err != nil {
		b.logger.Error("error embedding chunks", "err", err)
		if ctx.Err() != nil {
			return nil, core.Wrap(op, core.KindUnknown, err)
		}
		return nil, core.Wrap(op, core.KindService, err)
	}

	dimension := 0
	if len(entries) > 0 {
		dimension = len(entries[0].Vector)
	}
	manifest := &core.IndexManifest{
		BuildId:        uuid.NewString(),
		EmbeddingModel: b.embeddingModel,
		Dimension:      dimension,
		Count:          len(entries),
		CreatedAt:      time.Now().UTC(),
	}

	if err := b.write(ctx, entries, manifest); err != nil {
		b.logger.Error("error writing index", "dir", b.indexDir, "err", err)
		return nil, err
	}

	stats := &BuildStats{
		BuildId:   manifest.BuildId,
		IndexDir:  b.indexDir,
		Items:     len(items),
		Chunks:    len(entries),
		Dimension: dimension,
		Duration:  time.Since(started),
	}
	b.logger.Info("index built", "dir", b.indexDir, "buildId", stats.BuildId,
		"items", stats.Items, "chunks", stats.Chunks, "duration", stats.Duration)
	return stats, nil
}

// chunk splits each item's content and returns one unembedded entry per chunk,
// in dataset order.
func (b *Builder) chunk(items []*core.Item) ([]*core.Entry, error) {
	splitter := textsplitter.NewRecursiveCharacter(
		textsplitter.WithChunkSize(b.chunkSize),
		textsplitter.WithChunkOverlap(b.chunkOverlap),
	)

	var entries []*core.Entry
	for row, item := range items {
		chunks, err := splitter.SplitText(item.Content)
		if err != nil {
			return nil, fmt.Errorf("splitting %q: %w", item.Title, err)
		}
		for i, text := range chunks {
			entries = append(entries, &core.Entry{
				ItemId:  item.Id,
				Title:   item.Title,
				Content: text,
				Metadata: map[string]string{
					core.MetaRow:    strconv.Itoa(row),
					core.MetaTitle:  item.Title,
					core.MetaItemID: item.Id,
					core.MetaChunk:  strconv.Itoa(i),
				},
			})
		}
	}
	return entries, nil
}

// embed fills in the vector of every entry. Batches run on an ants pool when
// more than one worker is configured.
func (b *Builder) embed(ctx context.Context, entries []*core.Entry) error {
	if len(entries) == 0 {
		return nil
	}

	tracker := newProgress(b.progressWriter, len(entries), b.reportInterval)

	var batches [][]*core.Entry
	for start := 0; start < len(entries); start += b.batchSize {
		batches = append(batches, entries[start:min(start+b.batchSize, len(entries))])
	}

	if b.workers == 1 || len(batches) == 1 {
		for _, batch := range batches {
			if err := b.embedBatch(ctx, batch); err != nil {
				return err
			}
			tracker.add(len(batch))
		}
		tracker.finish()
		return checkDimensions(entries)
	}

	pool, err := ants.NewPool(b.workers)
	if err != nil {
		return err
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	for _, batch := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			if err := b.embedBatch(ctx, batch); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
					cancel()
				}
				mu.Unlock()
				return
			}
			tracker.add(len(batch))
		})
		if submitErr != nil {
			wg.Done()
			mu.Lock()
			if firstErr == nil {
				firstErr = submitErr
				cancel()
			}
			mu.Unlock()
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	tracker.finish()
	return checkDimensions(entries)
}

func (b *Builder) embedBatch(ctx context.Context, batch []*core.Entry) error {
	texts := make([]string, len(batch))
	for i, entry := range batch {
		texts[i] = entry.Content
	}

	var vectors [][]float32
	err := retryWithBackoff(ctx, b.logger, func() error {
		var err error
		vectors, err = b.embedder.EmbedTexts(ctx, texts)
		return err
	}, b.maxAttempts, b.retryBaseDelay)
	if err != nil {
		return err
	}

	if len(vectors) != len(batch) {
		return fmt.Errorf("%w: expected %d, got %d", ErrEmbeddingCountMismatch, len(batch), len(vectors))
	}
	for i, entry := range batch {
		entry.Vector = vectors[i]
	}
	return nil
}

// checkDimensions verifies every vector has the same length.
func checkDimensions(entries []*core.Entry) error {
	dimension := len(entries[0].Vector)
	for _, entry := range entries {
		if len(entry.Vector) != dimension {
			return fmt.Errorf("%w: %q has %d dimensions, expected %d",
				core.ErrDimensionMismatch, entry.Title, len(entry.Vector), dimension)
		}
	}
	return nil
}

// write stores entries and manifest in a staging directory, then swaps it
// into place.
func (b *Builder) write(ctx context.Context, entries []*core.Entry, manifest *core.IndexManifest) error {
	const op = "write index"

	parent := filepath.Dir(b.indexDir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return core.Wrap(op, core.KindIO, err)
	}
	staging, err := os.MkdirTemp(parent, filepath.Base(b.indexDir)+".staging-")
	if err != nil {
		return core.Wrap(op, core.KindIO, err)
	}

	if err := writeIndex(ctx, staging, entries, manifest); err != nil {
		os.RemoveAll(staging)
		return core.Wrap(op, core.KindIndex, err)
	}

	if err := swapDir(staging, b.indexDir); err != nil {
		os.RemoveAll(staging)
		return core.Wrap(op, core.KindIO, err)
	}
	return nil
}

func writeIndex(ctx context.Context, dir string, entries []*core.Entry, manifest *core.IndexManifest) error {
	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return err
	}
	repo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return err
	}

	err = storeAll(ctx, repo, entries, manifest)
	if closeErr := repo.Close(); err == nil {
		err = closeErr
	}
	if closeErr := backend.Close(); err == nil {
		err = closeErr
	}
	return err
}

func storeAll(ctx context.Context, repo storage.IndexRepository, entries []*core.Entry, manifest *core.IndexManifest) error {
	if len(entries) > 0 {
		if _, err := repo.AddEntries(ctx, entries...); err != nil {
			return err
		}
	}
	return repo.SaveManifest(ctx, manifest)
}

// swapDir moves staging to target, replacing whatever was at target.
func swapDir(staging, target string) error {
	old := ""
	if _, err := os.Stat(target); err == nil {
		old = target + ".old-" + uuid.NewString()
		if err := os.Rename(target, old); err != nil {
			return err
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := os.Rename(staging, target); err != nil {
		if old != "" {
			// put the previous index back
			os.Rename(old, target)
		}
		return err
	}

	if old != "" {
		return os.RemoveAll(old)
	}
	return nil
}

// Load opens the persisted index read-only.
// A missing directory or an index without a manifest yields an error of kind
// core.KindIndex wrapping storage.ErrIndexNotFound.
func (b *Builder) Load(ctx context.Context, opts ...StoreOption) (*Store, error) {
	const op = "load vector store"

	backend, err := badger.OpenReadOnlyBackend(b.indexDir)
	if err != nil {
		b.logger.Error("error opening index", "dir", b.indexDir, "err", err)
		return nil, core.Wrap(op, core.KindIndex, err)
	}

	repo, err := badger.NewIndexRepository(backend)
	if err != nil {
		backend.Close()
		return nil, core.Wrap(op, core.KindIndex, err)
	}

	manifest, err := repo.LoadManifest(ctx)
	if err != nil {
		repo.Close()
		backend.Close()
		if errors.Is(err, storage.ErrNotFound) {
			err = fmt.Errorf("%w: %s has no completed build", storage.ErrIndexNotFound, b.indexDir)
		}
		b.logger.Error("error reading index manifest", "dir", b.indexDir, "err", err)
		return nil, core.Wrap(op, core.KindIndex, err)
	}

	store, err := NewStore(repo, b.embedder, append([]StoreOption{
		withManifest(manifest),
		withCloser(backend.Close),
		WithStoreLogger(b.logger),
	}, opts...)...)
	if err != nil {
		repo.Close()
		backend.Close()
		return nil, err
	}

	b.logger.Info("index loaded", "dir", b.indexDir, "buildId", manifest.BuildId,
		"count", manifest.Count, "model", manifest.EmbeddingModel)
	return store, nil
}
