// Package schedule builds, from a set of time-driven stream rates, the
// cyclic list of deadlines covering one hyper-period (spec.md §4.4), and
// drives a monotonically advancing cursor over it (spec.md §4.5). The
// build algorithm (build_extend_steps, apply_periodicity,
// condense_deadlines) is translated near-verbatim from the Rust original.
package schedule

import (
	"time"

	"github.com/lola-rv/monitor/pkg/ir"
)

// Deadline is a scheduled pause plus the set of streams due after it. Only
// the final deadline of a hyper-period may have an empty Due (the padding
// tail that preserves cycle length, spec.md §3).
type Deadline struct {
	Pause time.Duration
	Due   []ir.StreamRef
}

// Schedule is the static, cyclic firing plan for every time-driven stream
// in a module, built once at startup and never mutated (spec.md §3).
type Schedule struct {
	GCD         time.Duration
	HyperPeriod time.Duration
	Deadlines   []Deadline
}

// Build constructs the Schedule for mod's time-driven streams. A module
// with no time-driven streams yields an empty, inactive Schedule.
func Build(mod *ir.Module) *Schedule {
	rates := mod.Rates()
	if len(rates) == 0 {
		return &Schedule{}
	}

	g := GCDAll(rates)
	hyper := LCMAll(rates)

	steps := buildExtendSteps(mod, g, hyper)
	steps = applyPeriodicity(steps)
	deadlines := condenseDeadlines(g, steps)

	return &Schedule{GCD: g, HyperPeriod: hyper, Deadlines: deadlines}
}

// buildExtendSteps places each time-driven stream at the slot marking its
// first firing within the hyper-period (spec.md §4.4 step 4).
func buildExtendSteps(mod *ir.Module, g, hyper time.Duration) [][]ir.StreamRef {
	numSteps := DivideDurations(hyper, g, false)
	steps := make([][]ir.StreamRef, numSteps)
	for _, td := range mod.TimeDriven {
		ix := DivideDurations(td.Rate, g, false) - 1
		steps[ix] = append(steps[ix], td.Ref)
	}
	return steps
}

// applyPeriodicity enumerates every subsequent firing of a stream placed
// at first-fire index i: slots k*(i+1)-1 for k=1,2,... while in bounds
// (spec.md §4.4 step 5, §9).
func applyPeriodicity(steps [][]ir.StreamRef) [][]ir.StreamRef {
	res := make([][]ir.StreamRef, len(steps))
	for ix, s := range steps {
		if len(s) == 0 {
			continue
		}
		for k := 1; ; k++ {
			target := k*(ix+1) - 1
			if target >= len(res) {
				break
			}
			res[target] = append(res[target], s...)
		}
	}
	return res
}

// condenseDeadlines walks the slot array; each nonempty slot becomes a
// Deadline whose pause covers the run of empty slots before it, plus one
// gcd tick. A trailing run of empty slots becomes a final Deadline with
// empty Due, preserving the hyper-period's total length (spec.md §4.4
// step 6).
func condenseDeadlines(g time.Duration, steps [][]ir.StreamRef) []Deadline {
	var deadlines []Deadline
	emptyRun := 0
	for _, step := range steps {
		if len(step) == 0 {
			emptyRun++
			continue
		}
		pause := time.Duration(emptyRun+1) * g
		deadlines = append(deadlines, Deadline{Pause: pause, Due: step})
		emptyRun = 0
	}
	if emptyRun != 0 {
		deadlines = append(deadlines, Deadline{Pause: time.Duration(emptyRun) * g})
	}
	return deadlines
}
