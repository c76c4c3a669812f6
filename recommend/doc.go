// Package recommend composes a retriever, the anime prompt and a completion
// model into a single recommendation call.
//
// The three stages are exposed separately so each can be exercised alone:
//
//	docs, err := rec.Retrieve(ctx, query)
//	rendered, err := rec.Render(query, docs)
//	answer, err := rec.Complete(ctx, rendered)
//
// GetRecommendation runs them in that order.
package recommend
