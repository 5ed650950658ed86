package planner

import (
	"testing"

	"github.com/lola-rv/monitor/pkg/ir"
)

func TestPlanGroupsByLayerInOrder(t *testing.T) {
	mod := &ir.Module{
		Outputs: []*ir.OutputStream{
			{Name: "a", Layer: 0, Ref: ir.OutputRef(0)},
			{Name: "b", Layer: 2, Ref: ir.OutputRef(1)},
			{Name: "c", Layer: 0, Ref: ir.OutputRef(2)},
			{Name: "d", Layer: 1, Ref: ir.OutputRef(3)},
		},
	}
	refs := []ir.StreamRef{
		ir.OutputRef(0), ir.OutputRef(1), ir.OutputRef(2), ir.OutputRef(3),
	}
	layers := Plan(mod, refs)
	if len(layers) != 3 {
		t.Fatalf("got %d layers, want 3 (layer 1 had no gap skipped)", len(layers))
	}
	if len(layers[0]) != 2 {
		t.Errorf("layer 0 should have 2 members (a,c), got %d", len(layers[0]))
	}
	if layers[1][0] != ir.OutputRef(3) {
		t.Errorf("layer 1 should contain d")
	}
	if layers[2][0] != ir.OutputRef(1) {
		t.Errorf("layer 2 should contain b")
	}
}

func TestPlanOmitsEmptyLayers(t *testing.T) {
	mod := &ir.Module{
		Outputs: []*ir.OutputStream{
			{Name: "a", Layer: 0, Ref: ir.OutputRef(0)},
			{Name: "b", Layer: 5, Ref: ir.OutputRef(1)},
		},
	}
	layers := Plan(mod, []ir.StreamRef{ir.OutputRef(0), ir.OutputRef(1)})
	if len(layers) != 2 {
		t.Fatalf("got %d layers, want 2 (no padding for skipped layers 1-4)", len(layers))
	}
}

func TestPlanRestrictedSubsetOnlyIncludesGivenRefs(t *testing.T) {
	mod := &ir.Module{
		Outputs: []*ir.OutputStream{
			{Name: "a", Layer: 0, Ref: ir.OutputRef(0)},
			{Name: "b", Layer: 0, Ref: ir.OutputRef(1)},
		},
	}
	layers := Plan(mod, []ir.StreamRef{ir.OutputRef(1)})
	if len(layers) != 1 || len(layers[0]) != 1 || layers[0][0] != ir.OutputRef(1) {
		t.Fatalf("expected only the requested ref to appear, got %v", layers)
	}
}

func TestEventDrivenLayersExcludesTimeDriven(t *testing.T) {
	mod := &ir.Module{
		Outputs: []*ir.OutputStream{
			{Name: "ev", Layer: 0, Ref: ir.OutputRef(0)},
			{Name: "td", Layer: 0, Ref: ir.OutputRef(1)},
		},
		TimeDriven: []ir.TimeDrivenStream{
			{Ref: ir.OutputRef(1)},
		},
	}
	layers := EventDrivenLayers(mod)
	if len(layers) != 1 || len(layers[0]) != 1 || layers[0][0] != ir.OutputRef(0) {
		t.Fatalf("expected only the event-driven output, got %v", layers)
	}
}
