// Package animerec wires the data loader, vector store, and recommender into
// the two pipelines of the anime recommender.
//
// RunBuildPipeline turns a raw anime CSV into a persisted vector index:
//
//	cfg, _ := config.Load("")
//	report, err := animerec.RunBuildPipeline(ctx, cfg, "data/anime.csv", "data/processed.csv")
//
// NewRecommendationPipeline opens that index read-only and answers queries:
//
//	p, err := animerec.NewRecommendationPipeline(ctx, cfg)
//	defer p.Close()
//	answer, err := p.Recommend(ctx, "light-hearted anime with school settings")
package animerec
