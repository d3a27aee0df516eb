package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(ctx context.Context, core *app.Core) error {
			return core.Migrate()
		})
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
