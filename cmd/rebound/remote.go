package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/chazu/rebound/server"
)

// serverURL resolves --addr against the manifest's server address.
func serverURL(addr string) (string, error) {
	if addr == "" {
		m, err := loadManifest()
		if err != nil {
			return "", err
		}
		addr = m.Server.Addr
	}
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return addr, nil
	}
	if strings.HasPrefix(addr, ":") {
		addr = "127.0.0.1" + addr
	}
	return "http://" + addr, nil
}

func newClient(addr string) (*server.Client, error) {
	url, err := serverURL(addr)
	if err != nil {
		return nil, err
	}
	log.Debugf("server: %s", url)
	return server.NewClient(http.DefaultClient, url), nil
}

func addrFlag(cmd *cobra.Command, addr *string) {
	cmd.Flags().StringVar(addr, "addr", "", "server address (default from rebound.toml)")
}

func newCallCommand() *cobra.Command {
	var (
		addr     string
		doDrive  bool
		interval time.Duration
	)
	cmd := &cobra.Command{
		Use:   "call <program> [args...]",
		Short: "Call a program on the execution server",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(addr)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			resp, err := c.Call(ctx, args[0], parseArgs(args[1:])...)
			if err != nil {
				return err
			}
			if doDrive {
				if resp, err = c.Drive(ctx, resp, interval); err != nil {
					return err
				}
			}
			return printResponse(os.Stdout, resp)
		},
	}
	addrFlag(cmd, &addr)
	cmd.Flags().BoolVar(&doDrive, "drive", false, "resume and poll until the chain finishes")
	cmd.Flags().DurationVar(&interval, "interval", 100*time.Millisecond, "polling interval for chains awaiting a task")
	return cmd
}

func newResumeCommand() *cobra.Command {
	var (
		addr   string
		budget int64
	)
	cmd := &cobra.Command{
		Use:   "resume <continuation>",
		Short: "Resume a paused chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(addr)
			if err != nil {
				return err
			}
			var b *int64
			if cmd.Flags().Changed("budget") {
				b = &budget
			}
			resp, err := c.Resume(cmd.Context(), args[0], b)
			if err != nil {
				return err
			}
			return printResponse(os.Stdout, resp)
		},
	}
	addrFlag(cmd, &addr)
	cmd.Flags().Int64Var(&budget, "budget", 0, "CPU budget for this slice (default the server's)")
	return cmd
}

func newOutcomeCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "outcome <chain>",
		Short: "Show the latest state of a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(addr)
			if err != nil {
				return err
			}
			resp, err := c.Outcome(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printResponse(os.Stdout, resp)
		},
	}
	addrFlag(cmd, &addr)
	return cmd
}

func newDiscardCommand() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "discard <continuation>",
		Short: "Drop a paused chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(addr)
			if err != nil {
				return err
			}
			ok, err := c.Discard(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("no paused chain %s", args[0])
			}
			fmt.Println("discarded")
			return nil
		},
	}
	addrFlag(cmd, &addr)
	return cmd
}

func newJournalCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "journal <chain>",
		Short: "Show the recorded outcomes of a chain",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := loadManifest()
			if err != nil {
				return err
			}
			j, err := server.OpenJournal(m.JournalPath())
			if err != nil {
				return err
			}
			defer j.Close()

			entries, err := j.History(args[0])
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				return fmt.Errorf("no outcomes recorded for chain %s", args[0])
			}
			for _, e := range entries {
				fmt.Printf("%s  %s  %s\n", humanize.Time(e.RecordedAt), e.Function, e.Response.State)
			}
			total, err := j.TotalWork(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("total work: %s units\n", humanize.Comma(total))
			return nil
		},
	}
}

// printResponse writes a response in the form "key: value", one per line.
func printResponse(w io.Writer, resp *server.CallResponse) error {
	fmt.Fprintf(w, "chain: %s\n", resp.Chain)
	fmt.Fprintf(w, "state: %s\n", resp.State)
	if resp.Reason != "" {
		fmt.Fprintf(w, "reason: %s\n", resp.Reason)
	}
	if resp.Continuation != "" {
		fmt.Fprintf(w, "continuation: %s\n", resp.Continuation)
	}
	if resp.Work > 0 {
		fmt.Fprintf(w, "work: %s\n", humanize.Comma(resp.Work))
	}
	for i, v := range resp.Values {
		fmt.Fprintf(w, "value %d: %s\n", i+1, v)
	}
	if resp.Error != "" {
		msg := resp.Traceback
		if msg == "" {
			msg = resp.Error
		}
		fmt.Fprintf(w, "error: %s\n", msg)
		return fmt.Errorf("%s", resp.Error)
	}
	return nil
}
