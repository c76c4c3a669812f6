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


package animerec

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/poiesic/animerec/ai"
	"github.com/poiesic/animerec/ai/openai"
	"github.com/poiesic/animerec/config"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/dataset"
	"github.com/poiesic/animerec/recommend"
	"github.com/poiesic/animerec/vectorstore"
)

// Option configures the build and serving pipelines.
type Option func(*options)

type options struct {
	provider ai.AIProvider
	logger   *slog.Logger
	progress io.Writer
}

// WithProvider injects the AI services instead of building them from the config.
// An injected provider is never closed by the pipeline.
func WithProvider(provider ai.AIProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = slog.Default()
		}
		o.logger = logger
	}
}

// WithProgress prints embedding progress to w during builds.
func WithProgress(w io.Writer) Option {
	return func(o *options) {
		o.progress = w
	}
}

func applyOptions(opts []Option) *options {
	o := &options{logger: slog.Default()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// BuildReport describes a finished build.
type BuildReport struct {
	ProcessedPath string
	Stats         *vectorstore.BuildStats
	Duration      time.Duration
}

// RunBuildPipeline processes the raw CSV at rawPath into processedPath and
// rebuilds the index in cfg.Index.Dir from it. Any failure stops the build and
// is returned as a *core.Error carrying the failing stage's kind.
func RunBuildPipeline(ctx context.Context, cfg *config.Config, rawPath, processedPath string, opts ...Option) (*BuildReport, error) {
	const op = "build pipeline"
	o := applyOptions(opts)
	logger := o.logger.With("component", "build-pipeline")
	started := time.Now()

	logger.Info("build started", "raw", rawPath, "processed", processedPath, "index", cfg.Index.Dir)

	loader, err := dataset.NewLoader(dataset.WithLogger(o.logger))
	if err != nil {
		return nil, core.Wrap(op, core.KindData, err)
	}
	processed, err := loader.LoadAndProcess(ctx, rawPath, processedPath)
	if err != nil {
		logger.Error("error processing dataset", "raw", rawPath, "err", err)
		return nil, core.Wrap(op, core.KindUnknown, err)
	}
	logger.Info("dataset processed", "processed", processed)

	provider := o.provider
	if provider == nil {
		provider, err = openai.NewEmbeddingProvider(cfg.AIConfig())
		if err != nil {
			logger.Error("error creating embedding provider", "err", err)
			return nil, core.Wrap(op, core.KindService, err)
		}
		defer provider.Close()
	}

	builder, err := vectorstore.NewBuilder(cfg.Index.Dir, provider.Embedder(),
		vectorstore.WithLogger(o.logger),
		vectorstore.WithEmbeddingModel(cfg.Embedding.Model),
		vectorstore.WithChunking(cfg.Build.ChunkSize, cfg.Build.ChunkOverlap),
		vectorstore.WithBatchSize(cfg.Build.BatchSize),
		vectorstore.WithWorkers(cfg.Build.Workers),
		vectorstore.WithRetry(cfg.Build.MaxAttempts, cfg.Build.RetryDelay),
		vectorstore.WithProgress(o.progress, cfg.Build.ReportInterval),
	)
	if err != nil {
		return nil, core.Wrap(op, core.KindData, err)
	}

	stats, err := builder.BuildAndSave(ctx, processed)
	if err != nil {
		logger.Error("error building index", "index", cfg.Index.Dir, "err", err)
		return nil, core.Wrap(op, core.KindUnknown, err)
	}

	report := &BuildReport{
		ProcessedPath: processed,
		Stats:         stats,
		Duration:      time.Since(started),
	}
	logger.Info("build finished", "items", stats.Items, "chunks", stats.Chunks,
		"buildId", stats.BuildId, "duration", report.Duration)
	return report, nil
}

// RecommendationPipeline answers queries against a built index.
// It is safe for concurrent use.
type RecommendationPipeline struct {
	store        *vectorstore.Store
	recommender  *recommend.Recommender
	provider     ai.AIProvider
	ownsProvider bool
	logger       *slog.Logger
}

// NewRecommendationPipeline opens the index in cfg.Index.Dir read-only and
// prepares a recommender over it. A missing index yields a core.KindIndex error.
func NewRecommendationPipeline(ctx context.Context, cfg *config.Config, opts ...Option) (*RecommendationPipeline, error) {
	const op = "new recommendation pipeline"
	o := applyOptions(opts)
	logger := o.logger.With("component", "recommendation-pipeline")

	provider := o.provider
	owned := false
	if provider == nil {
		if err := cfg.ValidateServing(); err != nil {
			return nil, core.Wrap(op, core.KindData, err)
		}
		var err error
		provider, err = openai.NewProvider(cfg.AIConfig())
		if err != nil {
			logger.Error("error creating AI provider", "err", err)
			return nil, core.Wrap(op, core.KindService, err)
		}
		owned = true
	}
	closeProvider := func() {
		if owned {
			provider.Close()
		}
	}

	builder, err := vectorstore.NewBuilder(cfg.Index.Dir, provider.Embedder(), vectorstore.WithLogger(o.logger))
	if err != nil {
		closeProvider()
		return nil, core.Wrap(op, core.KindData, err)
	}

	store, err := builder.Load(ctx, vectorstore.WithScoreThreshold(float32(cfg.Retrieval.ScoreThreshold)))
	if err != nil {
		closeProvider()
		return nil, core.Wrap(op, core.KindUnknown, err)
	}

	recOpts := []recommend.Option{recommend.WithLogger(o.logger)}
	if cfg.Retrieval.EmptyContextAnswer != "" {
		recOpts = append(recOpts, recommend.WithEmptyContextAnswer(cfg.Retrieval.EmptyContextAnswer))
	}
	recommender, err := recommend.New(store.AsRetriever(cfg.Retrieval.K), provider.Completer(), recOpts...)
	if err != nil {
		store.Close()
		closeProvider()
		return nil, core.Wrap(op, core.KindData, err)
	}

	logger.Info("recommendation pipeline ready", "index", cfg.Index.Dir, "k", cfg.Retrieval.K,
		"model", recommender.Model())
	return &RecommendationPipeline{
		store:        store,
		recommender:  recommender,
		provider:     provider,
		ownsProvider: owned,
		logger:       logger,
	}, nil
}

// Recommend answers query with the model's raw text.
func (p *RecommendationPipeline) Recommend(ctx context.Context, query string) (string, error) {
	return p.RecommendWithMonitor(ctx, query, nil)
}

// RecommendWithMonitor answers query and reports each stage to monitor.
func (p *RecommendationPipeline) RecommendWithMonitor(ctx context.Context, query string, monitor recommend.Monitor) (string, error) {
	p.logger.Info("query received", "query", query)

	answer, err := p.recommender.GetRecommendationWithMonitor(ctx, query, monitor)
	if err != nil {
		p.logger.Error("error generating recommendation", "query", query, "err", err)
		return "", core.Wrap("recommend", core.KindUnknown, err)
	}
	p.logger.Info("recommendation generated", "query", query, "answer", answer)
	return answer, nil
}

// Manifest describes the loaded index.
func (p *RecommendationPipeline) Manifest() *core.IndexManifest {
	return p.store.Manifest()
}

// Close releases the index and, unless it was injected, the AI provider.
func (p *RecommendationPipeline) Close() error {
	var errs []error
	if err := p.store.Close(); err != nil {
		p.logger.Error("error closing index", "err", err)
		errs = append(errs, err)
	}
	if p.ownsProvider {
		if err := p.provider.Close(); err != nil {
			p.logger.Error("error closing AI provider", "err", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
