package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/sqlite-mcp/pkg/services"
)

func addFormatFlag(cmd *cobra.Command, format *string) {
	cmd.Flags().StringVarP(format, "format", "f", FormatTable, "Output format: table, json, yaml")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return formats, cobra.ShellCompDirectiveNoFileComp
	})
}

type queryOptions struct {
	table  string
	limit  int
	format string
}

func newQueryCommand(root *rootOptions) *cobra.Command {
	opts := &queryOptions{}

	cmd := &cobra.Command{
		Use:   "query [question]",
		Short: "Answer a natural-language question with read-only SQL",
		Long: `Translate a natural-language question into a read-only SELECT,
validate it and run it against the database.`,
		Example: `  sqlite-mcp query --db ./shop.db "show me all users"
  sqlite-mcp query --db ./shop.db "count orders" --table orders
  sqlite-mcp query --db ./shop.db "latest 5 orders" --format json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(opts.format); err != nil {
				return err
			}

			app := root.app(cmd.Context())
			resp, err := app.Exploration.Query(cmd.Context(), &services.QueryRequest{
				DBPath:   app.Config.Database.Path,
				UserText: strings.Join(args, " "),
				Table:    opts.table,
				Limit:    opts.limit,
			})
			if err != nil {
				return err
			}
			return renderQueryResponse(cmd.OutOrStdout(), opts.format, resp)
		},
	}

	cmd.Flags().StringVar(&opts.table, "table", "", "Table to query (skips table resolution)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "n", 0, "Maximum rows to return (default from config)")
	addFormatFlag(cmd, &opts.format)

	return cmd
}

func newTablesCommand(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "tables",
		Short:   "List tables and views",
		Example: `  sqlite-mcp tables --db ./shop.db`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			app := root.app(cmd.Context())
			tables, err := app.Exploration.ListTables(cmd.Context(), app.Config.Database.Path)
			if err != nil {
				return err
			}
			return renderTables(cmd.OutOrStdout(), format, tables)
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}

func newOverviewCommand(root *rootOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:     "overview",
		Short:   "Summarize every table: kind, row count and columns",
		Example: `  sqlite-mcp overview --db ./shop.db --format yaml`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := validateFormat(format); err != nil {
				return err
			}

			app := root.app(cmd.Context())
			overview, err := app.Exploration.Overview(cmd.Context(), app.Config.Database.Path)
			if err != nil {
				return err
			}
			return renderOverview(cmd.OutOrStdout(), format, overview)
		},
	}

	addFormatFlag(cmd, &format)
	return cmd
}
