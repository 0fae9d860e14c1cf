package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chazu/rebound/manifest"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect rebound.toml",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [file]",
		Short: "Validate a configuration file and print the effective settings",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var m *manifest.Manifest
			if len(args) == 1 {
				data, err := os.ReadFile(args[0])
				if err != nil {
					return err
				}
				if m, err = manifest.Parse(data); err != nil {
					return fmt.Errorf("%s: %w", args[0], err)
				}
				m.Dir, _ = filepath.Abs(filepath.Dir(args[0]))
			} else {
				var err error
				if m, err = loadManifest(); err != nil {
					return err
				}
			}
			if _, err := m.ExecutorConfig(); err != nil {
				return err
			}
			printManifest(m)
			return nil
		},
	})
	return cmd
}

func printManifest(m *manifest.Manifest) {
	budget := "unlimited"
	if m.Executor.CPUBudget != nil {
		budget = humanize.Comma(*m.Executor.CPUBudget)
	}
	fmt.Printf("directory:        %s\n", m.Dir)
	fmt.Printf("cpu budget:       %s\n", budget)
	fmt.Printf("accept pauses:    %t\n", m.Executor.AcceptPauses)
	fmt.Printf("return buffer:    %s\n", m.Executor.Buffer)
	fmt.Printf("server address:   %s\n", m.Server.Addr)
	fmt.Printf("continuation ttl: %s\n", m.Server.ContinuationTTL.Duration)
	fmt.Printf("max tasks:        %d\n", m.Server.MaxTasks)
	if m.Journal.Enabled {
		fmt.Printf("journal:          %s\n", m.JournalPath())
	} else {
		fmt.Println("journal:          disabled")
	}
}
