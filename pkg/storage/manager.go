package storage

import "github.com/lola-rv/monitor/pkg/ir"

// Manager owns one Cell per stream in a module. The Coordinator is the
// sole mutator of a Manager and writes each computed value itself; the
// evaluator only reads through it (spec.md §3 "Entity ownership").
type Manager struct {
	inputs  []*Cell
	outputs []*Cell
}

// NewManager allocates one Cell per declared stream, sized from each
// stream's memorization bound.
func NewManager(mod *ir.Module) *Manager {
	m := &Manager{
		inputs:  make([]*Cell, len(mod.Inputs)),
		outputs: make([]*Cell, len(mod.Outputs)),
	}
	for i, in := range mod.Inputs {
		m.inputs[i] = NewCell(in.Bound)
	}
	for i, out := range mod.Outputs {
		m.outputs[i] = NewCell(out.Bound)
	}
	return m
}

// Cell resolves a stream reference to its owned ring buffer.
func (m *Manager) Cell(ref ir.StreamRef) *Cell {
	if ref.IsInput() {
		return m.inputs[ref.Index]
	}
	return m.outputs[ref.Index]
}
