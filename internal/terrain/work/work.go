// Package work runs long terrain scans as bounded, resumable chunks.
//
// A Chunker processes a slice of items per Step and can be driven by any host
// scheduler. Run drives a Chunker to completion on the calling goroutine,
// yielding between chunks and reporting fractional progress after each one.
package work

import (
	"context"
	"runtime"
	"sync"
)

// Stage identifies a pipeline stage in progress events.
type Stage string

// Pipeline stages.
const (
	StageColors   Stage = "colors"
	StageFilter   Stage = "filter"
	StageDisplace Stage = "displace"
	StageNormals  Stage = "normals"
	StageContours Stage = "contours"
)

// Event is a progress report emitted at a chunk boundary.
// Known is false when a stage cannot estimate its fraction.
type Event struct {
	Stage    Stage
	Fraction float64
	Known    bool
}

// ProgressFunc receives progress events. A nil ProgressFunc is allowed.
type ProgressFunc func(Event)

// Report calls fn if it is set.
func (fn ProgressFunc) Report(stage Stage, fraction float64) {
	if fn != nil {
		fn(Event{Stage: stage, Fraction: fraction, Known: true})
	}
}

// Indeterminate reports a stage whose fraction is unknown.
func (fn ProgressFunc) Indeterminate(stage Stage) {
	if fn != nil {
		fn(Event{Stage: stage})
	}
}

// Synchronized wraps fn so it can be shared by stages running concurrently.
func Synchronized(fn ProgressFunc) ProgressFunc {
	if fn == nil {
		return nil
	}
	var mu sync.Mutex
	return func(ev Event) {
		mu.Lock()
		defer mu.Unlock()
		fn(ev)
	}
}

// ChunkFunc processes items [lo, hi). Returning false stops the scan early;
// the chunker then reports itself done.
type ChunkFunc func(lo, hi int) bool

// Chunker walks [0, total) in steps of at most size items.
type Chunker struct {
	stage   Stage
	total   int
	size    int
	next    int
	stopped bool
	fn      ChunkFunc
}

// NewChunker creates a chunker. A size below 1 is treated as 1.
func NewChunker(stage Stage, total, size int, fn ChunkFunc) *Chunker {
	if size < 1 {
		size = 1
	}
	return &Chunker{stage: stage, total: total, size: size, fn: fn}
}

// Stage returns the stage this chunker reports under.
func (c *Chunker) Stage() Stage { return c.stage }

// Done reports whether every item was processed or the scan stopped early.
func (c *Chunker) Done() bool {
	return c.stopped || c.next >= c.total
}

// Stopped reports whether the chunk function ended the scan early.
func (c *Chunker) Stopped() bool { return c.stopped }

// Fraction returns completed/total in [0, 1]. An empty scan is complete.
func (c *Chunker) Fraction() float64 {
	if c.total <= 0 {
		return 1
	}
	return float64(c.next) / float64(c.total)
}

// Step processes the next chunk and reports whether the scan is done.
func (c *Chunker) Step() bool {
	if c.Done() {
		return true
	}
	lo := c.next
	hi := min(lo+c.size, c.total)
	if !c.fn(lo, hi) {
		c.stopped = true
	}
	c.next = hi
	return c.Done()
}

// Run drives c to completion. Between chunks it checks ctx, reports progress
// and yields the processor. Cancellation is only observed at chunk boundaries.
func Run(ctx context.Context, c *Chunker, progress ProgressFunc) error {
	for !c.Done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		c.Step()
		progress.Report(c.stage, c.Fraction())
		runtime.Gosched()
	}
	return nil
}

// Range is a convenience for scans that never stop early.
func Range(ctx context.Context, stage Stage, total, size int, progress ProgressFunc, fn func(i int)) error {
	c := NewChunker(stage, total, size, func(lo, hi int) bool {
		for i := lo; i < hi; i++ {
			fn(i)
		}
		return true
	})
	if total == 0 {
		progress.Report(stage, 1)
		return nil
	}
	return Run(ctx, c, progress)
}
