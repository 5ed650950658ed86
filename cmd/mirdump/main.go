// mirdump loads a compiled stream IR file and prints its computed
// schedule and event-driven evaluation layers without running the
// coordinator. It is a diagnostic tool for inspecting how the schedule
// builder and planner interpret a given specification.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/planner"
	"github.com/lola-rv/monitor/pkg/schedule"
)

func main() {
	var (
		input        = flag.String("i", "", "input IR file")
		showSchedule = flag.Bool("schedule", true, "print the periodic schedule")
		showLayers   = flag.Bool("layers", true, "print event-driven evaluation layers")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "mirdump - inspect a compiled stream IR's schedule and evaluation layers\n")
		fmt.Fprintf(os.Stderr, "Usage: %s -i spec.ir [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -i spec.ir                 # dump schedule and layers\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -i spec.ir -schedule=false # layers only\n", os.Args[0])
	}

	flag.Parse()

	if *input == "" {
		if flag.NArg() > 0 {
			*input = flag.Arg(0)
		} else {
			fmt.Fprintf(os.Stderr, "Error: input IR file required\n")
			flag.Usage()
			os.Exit(1)
		}
	}

	data, err := os.ReadFile(*input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading IR file: %v\n", err)
		os.Exit(1)
	}

	mod, err := ir.Load(string(data))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading IR: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("module: %d inputs, %d outputs, %d windows, %d triggers\n",
		len(mod.Inputs), len(mod.Outputs), len(mod.Windows), len(mod.Triggers))

	if *showSchedule {
		dumpSchedule(mod)
	}
	if *showLayers {
		dumpLayers(mod)
	}
}

func dumpSchedule(mod *ir.Module) {
	sched := schedule.Build(mod)
	fmt.Println("\nschedule:")
	if len(sched.Deadlines) == 0 {
		fmt.Println("  (no time-driven streams)")
		return
	}
	fmt.Printf("  gcd=%s hyper-period=%s deadlines=%d\n", sched.GCD, sched.HyperPeriod, len(sched.Deadlines))
	for i, d := range sched.Deadlines {
		fmt.Printf("  %3d: pause=%-12s due=%s\n", i, d.Pause, refNames(mod, d.Due))
	}
}

func dumpLayers(mod *ir.Module) {
	layers := planner.EventDrivenLayers(mod)
	fmt.Println("\nevent-driven layers:")
	if len(layers) == 0 {
		fmt.Println("  (no event-driven outputs)")
		return
	}
	for i, layer := range layers {
		fmt.Printf("  layer %d: %s\n", i, refNames(mod, layer))
	}
}

func refNames(mod *ir.Module, refs []ir.StreamRef) string {
	if len(refs) == 0 {
		return "[]"
	}
	names := make([]string, len(refs))
	for i, r := range refs {
		if out := mod.Output(r); out != nil {
			names[i] = out.Name
			continue
		}
		if in := mod.Input(r); in != nil {
			names[i] = in.Name
			continue
		}
		names[i] = r.String()
	}
	s := "["
	for i, n := range names {
		if i > 0 {
			s += ", "
		}
		s += n
	}
	return s + "]"
}
