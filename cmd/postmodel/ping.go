package main

import (
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Konsultn-Engineering/postmodel/engine"
)

type cmdPing struct {
	common *cmdControl

	flagStats bool
}

func (c *cmdPing) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ping",
		Short: "Check that every configured database is reachable",
		RunE:  c.run,
	}

	cmd.Flags().BoolVar(&c.flagStats, "stats", false, "Print pool and render cache statistics")

	return cmd
}

func (c *cmdPing) run(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cmd.Help()
	}

	ctx := cmd.Context()
	r, err := c.common.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer r.Close(ctx)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Name", "Dialect", "Status", "Latency"})

	var failed error
	var stats []engine.Stats
	for _, name := range r.Names() {
		e, err := r.Get(name)
		if err != nil {
			return err
		}
		start := time.Now()
		status := "ok"
		if err := e.Ping(ctx); err != nil {
			status = err.Error()
			failed = err
		}
		table.Append([]string{name, e.Dialect().Name(), status, time.Since(start).Round(time.Microsecond).String()})
		stats = append(stats, e.Stats())
	}
	table.Render()

	if c.flagStats {
		enc := yaml.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent(2)
		if err := enc.Encode(stats); err != nil {
			return err
		}
		if err := enc.Close(); err != nil {
			return err
		}
	}
	return failed
}
