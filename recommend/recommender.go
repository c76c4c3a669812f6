package recommend

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/poiesic/animerec/ai"
	"github.com/poiesic/animerec/ai/openai"
	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/prompt"
	"github.com/tmc/langchaingo/schema"
)

// Recommender answers free-text queries by retrieving related titles and
// asking a completion model to recommend from them.
// It holds no per-query state and is safe for concurrent use.
type Recommender struct {
	retriever   schema.Retriever
	completer   ai.Completer
	template    *prompt.Template
	emptyAnswer string
	answerEmpty bool
	logger      *slog.Logger
}

// Option configures a Recommender.
type Option func(*Recommender) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Recommender) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// WithTemplate replaces the anime prompt. The template must use the context
// and input placeholders.
func WithTemplate(template *prompt.Template) Option {
	return func(r *Recommender) error {
		vars := template.Variables()
		for _, name := range []string{prompt.VarContext, prompt.VarInput} {
			if !slices.Contains(vars, name) {
				return fmt.Errorf("%w: template lacks %s", prompt.ErrUnboundPlaceholder, name)
			}
		}
		r.template = template
		return nil
	}
}

// WithEmptyContextAnswer returns answer without calling the model when
// retrieval finds nothing. By default the model is called with an empty context.
func WithEmptyContextAnswer(answer string) Option {
	return func(r *Recommender) error {
		r.emptyAnswer = answer
		r.answerEmpty = true
		return nil
	}
}

// New creates a Recommender from a retriever and a completer.
func New(retriever schema.Retriever, completer ai.Completer, opts ...Option) (*Recommender, error) {
	if retriever == nil {
		return nil, ErrRetrieverRequired
	}
	if completer == nil {
		return nil, ErrCompleterRequired
	}

	r := &Recommender{
		retriever: retriever,
		completer: completer,
		template:  prompt.Anime(),
		logger:    slog.Default().With("component", "recommend"),
	}

	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}

	return r, nil
}

// NewWithCredentials creates a Recommender whose completer talks to the
// default hosted endpoint as modelName, authenticated with apiKey.
func NewWithCredentials(retriever schema.Retriever, apiKey, modelName string, opts ...Option) (*Recommender, error) {
	config := ai.NewConfig(ai.WithAPIKey(apiKey), ai.WithCompletionModel(modelName))
	completer, err := openai.NewCompleter(config)
	if err != nil {
		return nil, core.Wrap("new recommender", core.KindData, err)
	}
	return New(retriever, completer, opts...)
}

// Model returns the completion model's identifier.
func (r *Recommender) Model() string {
	return r.completer.Model()
}

// Retrieve fetches the documents used as context for input.
func (r *Recommender) Retrieve(ctx context.Context, input string) ([]schema.Document, error) {
	docs, err := r.retriever.GetRelevantDocuments(ctx, input)
	if err != nil {
		r.logger.Error("error retrieving context", "input", input, "err", err)
		return nil, core.Wrap("retrieve context", core.KindUnknown, err)
	}
	return docs, nil
}

// Render fills the prompt with input and the text of docs.
func (r *Recommender) Render(input string, docs []schema.Document) (string, error) {
	return r.template.Render(map[string]string{
		prompt.VarContext: prompt.FormatDocuments(docs),
		prompt.VarInput:   input,
	})
}

// Complete sends a rendered prompt to the model and returns its raw answer.
func (r *Recommender) Complete(ctx context.Context, rendered string) (string, error) {
	answer, err := r.completer.Complete(ctx, rendered)
	if err != nil {
		r.logger.Error("error completing prompt", "model", r.completer.Model(), "err", err)
		return "", core.Wrap("complete", core.KindService, err)
	}
	return answer, nil
}

// GetRecommendation runs retrieval, rendering and completion for input.
func (r *Recommender) GetRecommendation(ctx context.Context, input string) (string, error) {
	return r.GetRecommendationWithMonitor(ctx, input, nil)
}

// GetRecommendationWithMonitor is GetRecommendation with stage callbacks.
func (r *Recommender) GetRecommendationWithMonitor(ctx context.Context, input string, monitor Monitor) (string, error) {
	const op = "get recommendation"

	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if strings.TrimSpace(input) == "" {
		return "", core.Wrap(op, core.KindData, ErrEmptyInput)
	}

	monitor.Start(input)

	docs, err := r.Retrieve(ctx, input)
	if err != nil {
		return "", core.Wrap(op, core.KindUnknown, err)
	}
	monitor.AfterRetrieval(docs)

	if len(docs) == 0 {
		r.logger.Warn("no documents retrieved", "input", input)
		if r.answerEmpty {
			monitor.Finish(r.emptyAnswer)
			return r.emptyAnswer, nil
		}
	}

	rendered, err := r.Render(input, docs)
	if err != nil {
		return "", core.Wrap(op, core.KindUnknown, err)
	}
	monitor.AfterRender(rendered)

	answer, err := r.Complete(ctx, rendered)
	if err != nil {
		return "", core.Wrap(op, core.KindUnknown, err)
	}
	monitor.Finish(answer)

	r.logger.Debug("recommendation complete", "input", input, "documents", len(docs), "answerLength", len(answer))
	return answer, nil
}
