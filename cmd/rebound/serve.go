package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/chazu/rebound/server"
)

func newServeCommand() *cobra.Command {
	var (
		addr      string
		noJournal bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the execution server",
		Long: `Serve exposes the programs over Connect with the CBOR codec. Paused
chains are kept as continuations until resumed, discarded or swept. Chains
awaiting a task complete in the background and are read back with
"outcome". When [journal] is enabled every outcome is recorded in SQLite.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			cfg, err := m.ExecutorConfig()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("addr") {
				addr = m.Server.Addr
			}

			opts := []server.ServerOption{
				server.WithContinuationTTL(m.Server.ContinuationTTL.Duration),
				server.WithSweepInterval(m.Server.SweepInterval.Duration),
				server.WithMaxTasks(m.Server.MaxTasks),
			}
			if m.Journal.Enabled && !noJournal {
				j, err := server.OpenJournal(m.JournalPath())
				if err != nil {
					return fmt.Errorf("opening journal: %w", err)
				}
				defer j.Close()
				log.Infof("journal: %s", m.JournalPath())
				opts = append(opts, server.WithJournal(j))
			}

			srv := server.New(newExecutor(cfg), opts...)
			defer srv.Stop()

			errc := make(chan error, 1)
			go func() { errc <- srv.ListenAndServe(addr) }()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
			select {
			case err := <-errc:
				return err
			case s := <-sig:
				log.Infof("received %s, shutting down", s)
				return nil
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from rebound.toml)")
	cmd.Flags().BoolVar(&noJournal, "no-journal", false, "do not record outcomes even if [journal] is enabled")
	return cmd
}
