// Package idseq hands out record identifiers. A single Generator instance is
// shared across the whole process so products, sales, purchases and every
// other collection draw from one monotonic sequence and can never collide.
package idseq

import (
	"sync/atomic"
	"time"
)

type Generator struct {
	last atomic.Int64
}

// New seeds the sequence from the current wall clock in milliseconds, which
// keeps ids roughly time-ordered across restarts.
func New() *Generator {
	g := &Generator{}
	g.last.Store(time.Now().UnixMilli())
	return g
}

// NewAt seeds the sequence from an explicit value. Used by tests and by
// restore, which must continue above the highest restored id.
func NewAt(seed int64) *Generator {
	g := &Generator{}
	g.last.Store(seed)
	return g
}

func (g *Generator) Next() int64 {
	return g.last.Add(1)
}

// Observe raises the sequence floor to at least the given id. Restoring a
// backup calls this with the highest id found so new records keep ascending.
func (g *Generator) Observe(id int64) {
	for {
		current := g.last.Load()
		if id <= current {
			return
		}
		if g.last.CompareAndSwap(current, id) {
			return
		}
	}
}
