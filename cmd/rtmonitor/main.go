// rtmonitor runs a compiled stream specification against a CSV record
// source, evaluating event-driven and time-driven streams and emitting
// trigger messages, per spec.md §6.4.
package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/lola-rv/monitor/pkg/coordinator"
	"github.com/lola-rv/monitor/pkg/eval"
	"github.com/lola-rv/monitor/pkg/ir"
	"github.com/lola-rv/monitor/pkg/sink"
	"github.com/lola-rv/monitor/pkg/source"
	"github.com/lola-rv/monitor/pkg/stats"
	"github.com/lola-rv/monitor/pkg/version"
	"github.com/spf13/cobra"
)

var (
	irFile        string
	clockMode     string
	evaluatorMode string
	verbosity     string
	inputMode     string
	outputPath    string
	timeColumn    int
	delayMillis   int
	showProgress  bool
	showVersion   bool
)

var rootCmd = &cobra.Command{
	Use:   "rtmonitor [csv file]",
	Short: "rtmonitor " + version.GetVersion() + " - stream runtime monitor",
	Long: `rtmonitor - Lola-style stream runtime monitor
━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━
Evaluates a pre-compiled stream specification (an IR file produced
upstream, see cmd/mirdump) against a CSV event stream, merging the
event clock with any periodic time-driven streams.

CLOCK MODES:
  offline - timestamps come from the input records (default)
  online  - timestamps come from the system clock at record arrival

EVALUATOR MODES:
  compiled    - closures built once per output (default)
  interpreted - tree-walking, re-traverses the expression per tick

VERBOSITY LEVELS:
  debug | outputs | triggers | warnings-only | progress | silent

EXAMPLES:
  rtmonitor --ir spec.ir data.csv
  rtmonitor --ir spec.ir --clock online --progress data.csv
  cat data.csv | rtmonitor --ir spec.ir --clock online`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		if showVersion {
			fmt.Println(version.GetVersion())
			return
		}
		var csvPath string
		if len(args) == 1 {
			csvPath = args[0]
		}
		if err := run(csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().BoolVarP(&showVersion, "version", "v", false, "show version")
	rootCmd.Flags().StringVar(&irFile, "ir", "", "path to a compiled IR file (required)")
	rootCmd.Flags().StringVar(&clockMode, "clock", "offline", "clock mode: offline|online")
	rootCmd.Flags().StringVar(&evaluatorMode, "evaluator", "compiled", "evaluator mode: compiled|interpreted")
	rootCmd.Flags().StringVar(&verbosity, "verbosity", "triggers", "output verbosity: debug|outputs|triggers|warnings-only|progress|silent")
	rootCmd.Flags().StringVar(&inputMode, "input-mode", "strict", "input parse mode: strict|lenient")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output file (default: stdout)")
	rootCmd.Flags().IntVar(&timeColumn, "csv-time-column", -1, "explicit CSV time column index (default: discover by name)")
	rootCmd.Flags().IntVar(&delayMillis, "delay", 0, "artificial per-record delay in milliseconds, for paced replay")
	rootCmd.Flags().BoolVar(&showProgress, "progress", false, "show a live progress line on stderr")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(csvPath string) error {
	if irFile == "" {
		return fmt.Errorf("--ir is required")
	}
	mod, err := loadModule(irFile)
	if err != nil {
		return err
	}

	in, err := openInput(csvPath)
	if err != nil {
		return err
	}
	defer in.Close()

	src, err := source.NewCSVSource(in, timeColumn, time.Duration(delayMillis)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("opening CSV source: %w", err)
	}
	defer src.Close()

	out, err := openOutput(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	v, ok := sink.ParseVerbosity(verbosity)
	if !ok {
		return fmt.Errorf("unknown verbosity %q", verbosity)
	}
	s := sink.New(out, v)

	if src.Columns().TimeColumnIsStream(declaredInputNames(mod)) {
		s.Emitf(sink.Debug, "CSV time column name also names a declared input stream; it is not treated specially")
	}

	var ev eval.Evaluator
	switch evaluatorMode {
	case "compiled":
		ev = eval.NewCompiled(mod)
	case "interpreted":
		ev = eval.NewInterpreter(mod)
	default:
		return fmt.Errorf("unknown evaluator mode %q", evaluatorMode)
	}

	var cm coordinator.ClockMode
	switch clockMode {
	case "offline":
		cm = coordinator.Offline
	case "online":
		cm = coordinator.Online
	default:
		return fmt.Errorf("unknown clock mode %q", clockMode)
	}

	var im coordinator.InputMode
	switch inputMode {
	case "strict":
		im = coordinator.Strict
	case "lenient":
		im = coordinator.Lenient
	default:
		return fmt.Errorf("unknown input mode %q", inputMode)
	}

	st := stats.New()
	var ticker *stats.Ticker
	if showProgress {
		ticker = stats.NewTicker(st, os.Stderr, 100*time.Millisecond)
		ticker.Start()
	}

	co := coordinator.New(coordinator.Config{
		Module:    mod,
		Source:    src,
		Sink:      s,
		Evaluator: ev,
		Stats:     st,
		ClockMode: cm,
		InputMode: im,
	})
	runErr := co.Run()

	if ticker != nil {
		ticker.Stop()
	}
	return runErr
}

func openInput(csvPath string) (*os.File, error) {
	if csvPath == "" {
		return os.Stdin, nil
	}
	f, err := os.Open(csvPath)
	if err != nil {
		return nil, fmt.Errorf("opening input file: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("opening output file: %w", err)
	}
	return f, nil
}

func declaredInputNames(mod *ir.Module) map[string]bool {
	names := make(map[string]bool, len(mod.Inputs))
	for _, in := range mod.Inputs {
		names[in.Name] = true
	}
	return names
}

func loadModule(path string) (*ir.Module, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading IR file: %w", err)
	}
	mod, err := ir.Load(string(data))
	if err != nil {
		return nil, fmt.Errorf("loading IR: %w", err)
	}
	return mod, nil
}
