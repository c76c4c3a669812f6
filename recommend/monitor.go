package recommend

import "github.com/tmc/langchaingo/schema"

// Monitor provides hooks to observe a recommendation as it moves through
// retrieval, prompt rendering and completion.
type Monitor interface {
	Start(input string)
	AfterRetrieval(docs []schema.Document)
	AfterRender(prompt string)
	Finish(answer string)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                     {}
func (n *noopMonitor) AfterRetrieval(_ []schema.Document) {}
func (n *noopMonitor) AfterRender(_ string)               {}
func (n *noopMonitor) Finish(_ string)                    {}
