// Package cli wires the cobra command tree around the canonical store.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ominideck",
		Short: "OminiDeck - OTM migration project canonical store",
		Long: `OminiDeck keeps the OTM migration project document in its canonical shape.
It normalizes and validates the project against the OTM data dictionary,
the domain statistics and the deployment policy, reports progress, and
publishes the item catalog to MongoDB.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(
		NewNormalizeCmd(),
		NewValidateCmd(),
		NewDashboardCmd(),
		NewSQLTablesCmd(),
		NewTablesCmd(),
		NewFieldsCmd(),
		NewItemCmd(),
		NewStatsCmd(),
		NewPublishCmd(),
		NewServeCmd(),
	)
	return rootCmd
}

func NewNormalizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "normalize",
		Short: "Normalize the migration project and rewrite it when it changed",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runNormalize(c)
		},
	}
}

func NewValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Normalize the migration project in memory and report every violation",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runValidate(c)
		},
	}
}

type DashboardOptions struct {
	JSON bool
}

func NewDashboardCmd() *cobra.Command {
	opts := &DashboardOptions{}
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show migration progress",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runDashboard(c, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Print the report as JSON")
	return cmd
}

func NewSQLTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sql-tables [SQL|-]",
		Short: "List the tables in the FROM clause of a query (reads stdin without SQL or with -)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runSQLTables(c, args)
		},
	}
}

func NewTablesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tables",
		Short: "List the tables of the data dictionary",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runTables(c)
		},
	}
}

func NewFieldsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fields <TABLE>",
		Short: "Describe the form fields of a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			return runFields(c, args[0])
		},
	}
}

type IgnoreOptions struct {
	Group string
	Index int
	Undo  bool
}

func NewItemCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "item",
		Short: "Item operations",
	}

	opts := &IgnoreOptions{}
	ignore := &cobra.Command{
		Use:   "ignore",
		Short: "Flag an item as ignored (moves it to IGNORADOS) or undo it",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runIgnore(c, opts)
		},
	}
	ignore.Flags().StringVarP(&opts.Group, "group", "g", "", "Group id of the item")
	ignore.Flags().IntVarP(&opts.Index, "index", "i", -1, "Index of the item inside the group")
	ignore.Flags().BoolVar(&opts.Undo, "undo", false, "Clear the ignore flag instead")
	ignore.MarkFlagRequired("group")
	ignore.MarkFlagRequired("index")

	cmd.AddCommand(ignore)
	return cmd
}

type CollectOptions struct {
	Tables []string
}

func NewStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Domain statistics operations",
	}

	opts := &CollectOptions{}
	collect := &cobra.Command{
		Use:   "collect",
		Short: "Count rows per domain in the staging database and write the statistics catalog",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runCollect(c, opts)
		},
	}
	collect.Flags().StringSliceVarP(&opts.Tables, "tables", "t", nil, "Tables to count (default: every table of the data dictionary)")

	cmd.AddCommand(collect)
	return cmd
}

type PublishOptions struct {
	BatchSize int
	DryRun    bool
}

func NewPublishCmd() *cobra.Command {
	opts := &PublishOptions{}
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Upsert every migration item into the MongoDB catalog collection",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runPublish(c, opts)
		},
	}
	cmd.Flags().IntVarP(&opts.BatchSize, "batch-size", "b", 100, "Batch size")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Extract and transform without writing to MongoDB")
	return cmd
}

type ServeOptions struct {
	Addr string
}

func NewServeCmd() *cobra.Command {
	opts := &ServeOptions{}
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and the dashboard page",
		Args:  cobra.NoArgs,
		RunE: func(c *cobra.Command, args []string) error {
			return runServe(c, opts)
		},
	}
	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", "", "Listen address (default: listen_addr setting)")
	return cmd
}
