package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chazu/rebound/programs"
	"github.com/chazu/rebound/server"
	"github.com/chazu/rebound/vm"
)

func newRunCommand() *cobra.Command {
	var (
		budget  int64
		profile bool
		stats   bool
	)
	cmd := &cobra.Command{
		Use:   "run <program> [args...]",
		Short: "Run a program in-process until it returns",
		Long: `Run calls a program and drives its chain to completion. Budget
exhaustion and pauses are resumed immediately; awaited tasks run inline.
Arguments that parse as numbers are passed as numbers, "nil", "true" and
"false" as themselves, anything else as a string.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			cfg, err := m.ExecutorConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") {
				if budget < 1 {
					return fmt.Errorf("budget must be at least 1, got %d", budget)
				}
				cfg.CPUBudget = &budget
			}
			if cmd.Flags().Changed("profile") {
				cfg.Profile = profile
			}

			// The CLI resumes every pause itself.
			cfg.AcceptPauses = true

			ctx := cmd.Context()
			x := newExecutor(cfg)
			fn, err := programs.Lookup(x.Runtime(), args[0])
			if err != nil {
				return err
			}
			res, err := drive(ctx, x, fn, parseArgs(args[1:]))
			if err != nil {
				return err
			}
			if res.handle.State() == vm.Failed {
				fmt.Fprintln(os.Stderr, x.FormatError(res.handle.Err()))
				return fmt.Errorf("%s failed", args[0])
			}
			for _, v := range res.handle.Values() {
				fmt.Println(formatValue(v))
			}
			if stats {
				fmt.Fprintf(os.Stderr, "%s slices, %s work units, %s suspensions\n",
					humanize.Comma(int64(res.slices)), humanize.Comma(res.work), humanize.Comma(int64(res.suspensions)))
			}
			if cfg.Profile {
				printProfile(x.Profiler())
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.Int64Var(&budget, "budget", 0, "CPU budget per slice (overrides rebound.toml)")
	f.BoolVar(&profile, "profile", false, "print per-function counters")
	f.BoolVar(&stats, "stats", false, "print slice and work totals")
	return cmd
}

func newExecutor(cfg vm.ExecutorConfig) *vm.Executor {
	rt := vm.NewRuntime()
	programs.Install(rt)
	return vm.NewExecutor(rt, cfg)
}

// runResult is a finished chain with its totals.
type runResult struct {
	handle      *vm.CallHandle
	slices      int
	suspensions int
	work        int64
}

// drive runs fn to a terminal state, resuming every suspension, and
// totals its slices.
func drive(ctx context.Context, x *vm.Executor, fn vm.Callable, args []vm.Value) (runResult, error) {
	h := x.Call(ctx, fn, args...)
	res := runResult{slices: 1, work: h.Work()}
	h, err := x.Drive(ctx, h, func(next *vm.CallHandle) {
		res.slices++
		res.suspensions++
		res.work += next.Work()
		log.Debugf("slice %d ended %s after %d units", res.slices, next.State(), next.Work())
	})
	res.handle = h
	return res, err
}

func parseArgs(args []string) []vm.Value {
	values := make([]vm.Value, len(args))
	for i, a := range args {
		values[i] = parseArg(a)
	}
	return values
}

func parseArg(s string) vm.Value {
	switch s {
	case "nil":
		return nil
	case "true":
		return true
	case "false":
		return false
	}
	if n, ok := vm.ParseNumber(s); ok {
		return n
	}
	return s
}

// formatValue renders a result the way the server reports it, with strings
// left unquoted.
func formatValue(v vm.Value) string {
	if s, ok := v.(string); ok {
		return s
	}
	w, err := server.EncodeValue(v)
	if err != nil {
		return vm.TypeName(v)
	}
	return w.String()
}

func printProfile(p *vm.Profiler) {
	w := tabwriter.NewWriter(os.Stderr, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FUNCTION\tCALLS\tTAIL\tSUSPENDED\tRESUMED")
	for _, e := range p.Snapshot() {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Name,
			humanize.Comma(int64(e.Invocations)), humanize.Comma(int64(e.TailCalls)),
			humanize.Comma(int64(e.Suspensions)), humanize.Comma(int64(e.Resumptions)))
	}
	w.Flush()
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the available programs",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			for _, p := range programs.All() {
				fmt.Fprintf(w, "%s\t%s\n", p.Name, p.Usage)
			}
			w.Flush()
		},
	}
}
