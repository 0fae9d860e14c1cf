// Command rebound runs resumable programs locally or against an execution
// server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/rebound/manifest"
)

var log = commonlog.GetLogger("rebound.cli")

// Flags shared by every command.
var (
	configDir string
	verbosity int
	logFile   string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := newRootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "rebound",
		Short: "Run resumable programs under a CPU budget",
		Long: `rebound runs compiled programs on a trampolined executor.

Calls run in slices bounded by a CPU budget. A slice that runs out of
budget, pauses, or waits on a task hands back a continuation that a later
slice resumes. Programs run in-process with "run" or remotely with "serve",
"call" and "resume".`,
		Example: `  rebound run count 1000000
  rebound run sum 100 --budget 10 --stats
  rebound serve --addr :7878
  rebound call fib 20 --drive`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			configureLogging(m)
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&configDir, "config", ".", "directory to search upward for rebound.toml")
	flags.CountVarP(&verbosity, "verbose", "v", "increase log verbosity (repeatable)")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file instead of stderr")

	root.AddCommand(
		newRunCommand(),
		newListCommand(),
		newServeCommand(),
		newCallCommand(),
		newResumeCommand(),
		newOutcomeCommand(),
		newDiscardCommand(),
		newJournalCommand(),
		newConfigCommand(),
	)
	return root
}

// loadManifest finds rebound.toml from --config upward, falling back to
// the defaults when there is none.
func loadManifest() (*manifest.Manifest, error) {
	m, err := manifest.FindAndLoad(configDir)
	if err != nil {
		return nil, err
	}
	if m == nil {
		m = manifest.Default()
	}
	return m, nil
}

// configureLogging applies the larger of the manifest's verbosity and the
// -v count. --log-file overrides the manifest's file.
func configureLogging(m *manifest.Manifest) {
	level := m.Log.Verbosity
	if verbosity > level {
		level = verbosity
	}
	path := m.LogFile()
	if logFile != "" {
		path = &logFile
	}
	commonlog.Configure(level, path)
}
