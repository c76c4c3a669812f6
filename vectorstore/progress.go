package vectorstore

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// progress reports embedding throughput to a writer.
// A nil writer disables reporting.
type progress struct {
	writer       io.Writer
	total        int
	interval     int
	current      int
	lastReported int
	startTime    time.Time
	mu           sync.Mutex
}

func newProgress(writer io.Writer, total, interval int) *progress {
	if interval < 1 {
		interval = 1
	}
	return &progress{
		writer:    writer,
		total:     total,
		interval:  interval,
		startTime: time.Now(),
	}
}

// add records delta more chunks as embedded.
func (p *progress) add(delta int) {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = min(p.current+delta, p.total)
	if p.current-p.lastReported >= p.interval {
		p.report()
		p.lastReported = p.current
	}
}

// finish prints the final line.
func (p *progress) finish() {
	if p.writer == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.report()
	fmt.Fprintln(p.writer)
}

// report must be called with the lock held.
func (p *progress) report() {
	rate := 0.0
	if elapsed := time.Since(p.startTime).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	percentage := 100.0
	if p.total > 0 {
		percentage = float64(p.current) / float64(p.total) * 100.0
	}

	fmt.Fprintf(p.writer, "\rEmbedding: %d/%d chunks (%.1f%%) - %.1f chunks/s",
		p.current, p.total, percentage, rate)
}
