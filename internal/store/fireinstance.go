package store

import (
	"fmt"
	"sync/atomic"
	"time"
)

// fireInstanceGenerator produces the process-unique, lexically sortable
// fire-instance ids threaded through the Fire & Complete Protocol
// (spec.md §4.7). It is seeded from the wall clock at construction so ids
// stay roughly time-ordered across process restarts, then increments
// monotonically for the lifetime of the store.
type fireInstanceGenerator struct {
	counter int64
}

func newFireInstanceGenerator() *fireInstanceGenerator {
	return &fireInstanceGenerator{counter: time.Now().UnixNano()}
}

// Next returns a new, zero-padded 19-digit fire-instance id.
func (g *fireInstanceGenerator) Next() string {
	n := atomic.AddInt64(&g.counter, 1)
	return fmt.Sprintf("%019d", n)
}
