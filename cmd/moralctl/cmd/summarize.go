package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

var (
	summarizeRanking   bool
	summarizeAllEdges  bool
	summarizeMinWiser  int
	summarizeComponent string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize",
	Short: "Print the moral graph summary as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deliberationID()
		if err != nil {
			return err
		}
		q := services.SummaryQuery{
			IncludeRanking:  summarizeRanking,
			IncludeAllEdges: summarizeAllEdges,
			Component:       summarizeComponent,
		}
		if cmd.Flags().Changed("min-wiser") {
			q.MarkedWiserThreshold = &summarizeMinWiser
		}
		return withCore(func(ctx context.Context, core *app.Core) error {
			out, err := core.Services.Graph.Summarize(ctx, id, q)
			if err != nil {
				return err
			}
			return printJSON(out)
		})
	},
}

func init() {
	summarizeCmd.Flags().BoolVar(&summarizeRanking, "ranking", false, "Include PageRank scores")
	summarizeCmd.Flags().BoolVar(&summarizeAllEdges, "all-edges", false, "Keep edges with fewer wiser votes than not-wiser")
	summarizeCmd.Flags().IntVar(&summarizeMinWiser, "min-wiser", 0, "Drop edges with fewer wiser votes")
	summarizeCmd.Flags().StringVar(&summarizeComponent, "component", "", "Restrict to values connected to this value id")
	rootCmd.AddCommand(summarizeCmd)
}
