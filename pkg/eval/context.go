// Package eval implements the expression evaluator of spec.md §4.3: a pure
// function from (IR expression, evaluation context) to value. Two engines
// are provided: a tree-walking Interpreter and a Compiled evaluator that
// builds a per-stream closure tree once, and both must produce identical
// results for the same module and context.
package eval

import (
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/storage"
	"github.com/lola-rv/monitor/pkg/value"
	"github.com/lola-rv/monitor/pkg/window"
)

// Context is the read-only evaluation context for one stream computation:
// the current discrete tick, the current wall/event time, and the storage
// and window managers the evaluator reads through (spec.md §4.3).
type Context struct {
	Tick    int64
	Now     time.Time
	Storage *storage.Manager
	Windows *window.Manager
}

// Evaluator computes the value of an output stream's expression tree given
// a context. Both engines below implement it.
type Evaluator interface {
	Eval(ref ir.StreamRef, ctx *Context) (value.Value, error)
}
