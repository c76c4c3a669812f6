package main

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/poiesic/animerec/core"
	"github.com/poiesic/animerec/recommend"
	"github.com/tmc/langchaingo/schema"
)

// textMonitor prints each recommendation stage for --verbose.
type textMonitor struct {
	w       io.Writer
	mu      sync.Mutex
	started time.Time
}

var _ recommend.Monitor = (*textMonitor)(nil)

func newTextMonitor(w io.Writer) *textMonitor {
	return &textMonitor{w: w}
}

func (m *textMonitor) Start(input string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.started = time.Now()
	fmt.Fprintf(m.w, "query: %q\n", input)
}

func (m *textMonitor) AfterRetrieval(docs []schema.Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, "retrieved %d documents in %s\n", len(docs), time.Since(m.started).Round(time.Millisecond))
	for i, doc := range docs {
		fmt.Fprintf(m.w, "  %d. %v [%0.3f]\n", i+1, doc.Metadata[core.MetaTitle], doc.Score)
	}
}

func (m *textMonitor) AfterRender(prompt string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, "prompt: %d characters\n", len(prompt))
}

func (m *textMonitor) Finish(answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	fmt.Fprintf(m.w, "answered in %s\n\n", time.Since(m.started).Round(time.Millisecond))
}
