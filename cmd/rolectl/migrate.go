package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create the roles and assignment tables",
		Long: `Create the roles table and the assignment table for the configured names.
The subject table (roles.associated_model_table_name) must already exist.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if dryRun {
				for _, m := range a.service.Migrations() {
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s: %s\n%s;\n\n", m.ID, m.Description, m.SQL)
				}
				return nil
			}
			return a.service.RunMigrations(a.ctx(cmd))
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the SQL instead of running it")
	return cmd
}

func newHealthCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check database connectivity and pool usage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := a.service.Health(a.ctx(cmd))
			stats := a.service.GetPoolStats()
			report := map[string]any{"health": status, "pool": stats}
			if err := a.print(cmd.OutOrStdout(), report, func(w io.Writer) {
				fmt.Fprintf(w, "healthy=%t\n", status.Healthy)
				if status.Error != "" {
					fmt.Fprintf(w, "error=%s\n", status.Error)
				}
				fmt.Fprintf(w, "pool=%+v\n", stats)
			}); err != nil {
				return err
			}
			if !status.Healthy {
				return fmt.Errorf("database is not healthy")
			}
			return nil
		},
	}
}
