package prompt

import (
	"fmt"
	"slices"
	"strings"

	"github.com/poiesic/animerec/core"
	"github.com/tmc/langchaingo/prompts"
	"github.com/tmc/langchaingo/schema"
)

// Placeholder names used by the anime template.
const (
	VarContext = "context"
	VarInput   = "input"
)

// DocumentSeparator joins retrieved documents in the context slot.
const DocumentSeparator = "\n\n"

const animeTemplate = `You are an expert anime recommender. Your job is to help users find the perfect anime based on their preferences.

Using the following context, provide a detailed and engaging response to the user's question.

For each question, suggest exactly three anime titles. For each recommendation, include:
1. The anime title.
2. A concise plot summary (2-3 sentences).
3. A clear explanation of why this anime matches the user's preferences.

Present your recommendations in a numbered list format for easy reading.

If you don't know the answer, respond honestly by saying you don't know. Do not fabricate any information.

Context:
{{.context}}

User's question:
{{.input}}

Your well-structured response:`

// Template is a prompt with named placeholders, every one of which must be
// bound at render time.
type Template struct {
	inner prompts.PromptTemplate
}

// New creates a Template from Go template text and its placeholder names.
func New(text string, variables ...string) (*Template, error) {
	if err := prompts.CheckValidTemplate(text, prompts.TemplateFormatGoTemplate, variables); err != nil {
		return nil, fmt.Errorf("invalid prompt template: %w", err)
	}
	return &Template{inner: prompts.NewPromptTemplate(text, variables)}, nil
}

// Anime returns the recommendation prompt. Its placeholders are context and input.
func Anime() *Template {
	return &Template{inner: prompts.NewPromptTemplate(animeTemplate, []string{VarContext, VarInput})}
}

// Variables lists the placeholder names.
func (t *Template) Variables() []string {
	return slices.Clone(t.inner.InputVariables)
}

// Render substitutes values into the template. Every placeholder must have a
// value; an empty string counts as bound.
func (t *Template) Render(values map[string]string) (string, error) {
	const op = "render prompt"

	args := make(map[string]any, len(values))
	for _, name := range t.inner.InputVariables {
		v, ok := values[name]
		if !ok {
			return "", core.Wrap(op, core.KindData, fmt.Errorf("%w: %s", ErrUnboundPlaceholder, name))
		}
		args[name] = v
	}

	text, err := t.inner.Format(args)
	if err != nil {
		return "", core.Wrap(op, core.KindData, err)
	}
	return text, nil
}

// Langchain exposes the underlying langchaingo template.
func (t *Template) Langchain() prompts.PromptTemplate {
	return t.inner
}

// FormatDocuments joins document texts for the context slot, in order.
func FormatDocuments(docs []schema.Document) string {
	texts := make([]string, 0, len(docs))
	for _, doc := range docs {
		texts = append(texts, doc.PageContent)
	}
	return strings.Join(texts, DocumentSeparator)
}
