package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
)

var (
	dedupeBatchLimit int
	dedupeDrain      bool
)

var dedupeCmd = &cobra.Command{
	Use:   "dedupe",
	Short: "Deduplicate pending submissions into canonical values",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deliberationID()
		if err != nil {
			return err
		}
		return withCore(func(ctx context.Context, core *app.Core) error {
			var runs []steps.ValuesDedupeOutput
			for {
				out, err := steps.ValuesDedupe(ctx, core.Services.ValuesDedupe, steps.ValuesDedupeInput{
					DeliberationID: id,
					BatchLimit:     dedupeBatchLimit,
					Report:         stderrReport,
				})
				if err != nil {
					return err
				}
				runs = append(runs, out)
				// Stop when a batch makes no progress.
				if !dedupeDrain || out.Fetched == 0 || out.Processed == 0 {
					break
				}
			}
			return printJSON(runs)
		})
	},
}

var contextsDedupeCmd = &cobra.Command{
	Use:   "contexts-dedupe",
	Short: "Merge contexts that describe the same situation",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deliberationID()
		if err != nil {
			return err
		}
		return withCore(func(ctx context.Context, core *app.Core) error {
			out, err := steps.ContextsDedupe(ctx, core.Services.ContextsDedupe, steps.ContextsDedupeInput{
				DeliberationID: id,
				Report:         stderrReport,
			})
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

func init() {
	dedupeCmd.Flags().IntVar(&dedupeBatchLimit, "batch-limit", 0, "Submissions per batch (0 uses config)")
	dedupeCmd.Flags().BoolVar(&dedupeDrain, "drain", false, "Repeat batches until no pending submissions remain")
	rootCmd.AddCommand(dedupeCmd)
	rootCmd.AddCommand(contextsDedupeCmd)
}
