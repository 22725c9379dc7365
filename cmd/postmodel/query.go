package main

import (
	"fmt"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/Konsultn-Engineering/postmodel/ast"
)

type cmdQuery struct {
	common *cmdControl

	flagExec bool
}

func (c *cmdQuery) command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query <sql>",
		Short: "Run a statement and print its rows",
		RunE:  c.run,
	}

	cmd.Flags().BoolVar(&c.flagExec, "exec", false, "Only report the number of affected rows")

	return cmd
}

func (c *cmdQuery) run(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		return cmd.Help()
	}

	ctx := cmd.Context()
	r, err := c.common.open(ctx, cmd)
	if err != nil {
		return err
	}
	defer r.Close(ctx)

	e, err := r.Get(c.common.flagDatabase)
	if err != nil {
		return err
	}

	q := e.Raw(strings.Join(args, " "))
	if c.flagExec {
		n, err := e.Executor().Exec(ctx, q)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d rows affected\n", n)
		return nil
	}

	rs, err := e.Executor().Execute(ctx, q)
	if err != nil {
		return err
	}

	header := make([]string, len(rs.Columns))
	for i, col := range rs.Columns {
		header[i] = col.Name
	}
	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader(header)
	table.SetAutoFormatHeaders(false)
	for _, row := range rs.Rows {
		cells := make([]string, row.Len())
		for i, v := range row.Values() {
			cells[i] = cellText(v)
		}
		table.Append(cells)
	}
	table.Render()
	fmt.Fprintf(cmd.OutOrStdout(), "(%d rows)\n", len(rs.Rows))
	return nil
}

func cellText(v ast.Value) string {
	if v.IsNull() {
		return "NULL"
	}
	return v.Literal()
}
