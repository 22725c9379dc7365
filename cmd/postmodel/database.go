package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/postmodel/connector"
	"github.com/Konsultn-Engineering/postmodel/errs"
	"github.com/Konsultn-Engineering/postmodel/providers"
)

type cmdDatabase struct {
	common *cmdControl
}

func (c *cmdDatabase) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "db",
		Short: "Create or drop the configured database",
		RunE:  c.run,
	}

	var cmdCreate = cmdDatabaseAdmin{common: c.common, create: true}
	cmd.AddCommand(cmdCreate.command())

	var cmdDrop = cmdDatabaseAdmin{common: c.common}
	cmd.AddCommand(cmdDrop.command())

	return cmd
}

func (c *cmdDatabase) run(cmd *cobra.Command, args []string) error {
	return cmd.Help()
}

type cmdDatabaseAdmin struct {
	common *cmdControl
	create bool
}

func (c *cmdDatabaseAdmin) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "drop",
		Short: "Drop the database named by the configuration",
		RunE:  c.run,
	}
	if c.create {
		cmd.Use = "create"
		cmd.Short = "Create the database named by the configuration"
	}
	return cmd
}

func (c *cmdDatabaseAdmin) run(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return cmd.Help()
	}

	cfg, err := c.common.config()
	if err != nil {
		return err
	}
	p, err := providers.Registry().Provider(cfg.Scheme)
	if err != nil {
		return err
	}
	admin, ok := p.(connector.DatabaseAdmin)
	if !ok {
		return fmt.Errorf("%w: %s cannot create or drop databases", errs.ErrUnsupportedConstruct, cfg.Scheme)
	}

	verb := "Dropped"
	if c.create {
		verb = "Created"
		err = admin.CreateDatabase(cmd.Context(), cfg)
	} else {
		err = admin.DropDatabase(cmd.Context(), cfg)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s database %s\n", verb, cfg.Database)
	return nil
}
