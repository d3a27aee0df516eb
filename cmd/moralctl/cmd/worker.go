package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run only the job worker pool until interrupted",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCore(func(ctx context.Context, core *app.Core) error {
			core.StartWorker(ctx)
			core.Log.Info("Worker running; press Ctrl-C to stop", "handlers", core.Services.JobRegistry.Types())
			<-ctx.Done()
			return nil
		})
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
