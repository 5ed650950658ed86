// Package planner computes the evaluation-order layering for a set of
// output streams that must be evaluated together, per spec.md §4.6: the
// precomputed per-stream layer field groups references so that within a
// layer streams may be evaluated in any order, while each layer depends
// only on values already written by earlier layers (or the current tick's
// inputs, for layer 0). The runtime never walks the dependency graph; it
// only consults this precomputed field.
package planner

import (
	"sort"

	"github.com/lola-rv/monitor/pkg/ir"
)

// Plan groups refs by their OutputStream.Layer, in increasing layer order,
// omitting any layer with no members in refs. Refs that don't resolve to
// an output (e.g. a malformed input ref) are silently skipped; callers
// are expected to pass only output references.
func Plan(mod *ir.Module, refs []ir.StreamRef) [][]ir.StreamRef {
	byLayer := make(map[int][]ir.StreamRef)
	for _, r := range refs {
		out := mod.Output(r)
		if out == nil {
			continue
		}
		byLayer[out.Layer] = append(byLayer[out.Layer], r)
	}
	if len(byLayer) == 0 {
		return nil
	}

	layerNums := make([]int, 0, len(byLayer))
	for l := range byLayer {
		layerNums = append(layerNums, l)
	}
	sort.Ints(layerNums)

	layers := make([][]ir.StreamRef, len(layerNums))
	for i, l := range layerNums {
		layers[i] = byLayer[l]
	}
	return layers
}

// EventDrivenLayers computes the layering over every event-driven output
// in mod, the plan the coordinator replays on each input event.
func EventDrivenLayers(mod *ir.Module) [][]ir.StreamRef {
	eventDriven := mod.EventDriven()
	refs := make([]ir.StreamRef, len(eventDriven))
	for i, o := range eventDriven {
		refs[i] = o.Ref
	}
	return Plan(mod, refs)
}
