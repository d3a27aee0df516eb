package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
)

var (
	drawUser        string
	drawSize        int
	drawPopularity  float64
	drawConvergence float64
	drawSparsity    float64
)

var drawCmd = &cobra.Command{
	Use:   "draw",
	Short: "Draw hypotheses to show a participant",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deliberationID()
		if err != nil {
			return err
		}
		return withCore(func(ctx context.Context, core *app.Core) error {
			w := core.Cfg.Sampler
			if cmd.Flags().Changed("popularity") {
				w.Popularity = drawPopularity
			}
			if cmd.Flags().Changed("convergence") {
				w.Convergence = drawConvergence
			}
			if cmd.Flags().Changed("sparsity") {
				w.Sparsity = drawSparsity
			}
			picked, err := core.Services.Graph.Draw(ctx, id, drawUser, drawSize, w)
			if err != nil {
				return err
			}
			return printJSON(picked)
		})
	},
}

func init() {
	drawCmd.Flags().StringVar(&drawUser, "user", "", "Exclude pairs this user already voted on")
	drawCmd.Flags().IntVar(&drawSize, "size", 5, "Number of hypotheses")
	drawCmd.Flags().Float64Var(&drawPopularity, "popularity", 0, "Popularity weight (defaults from config)")
	drawCmd.Flags().Float64Var(&drawConvergence, "convergence", 0, "Convergence weight (defaults from config)")
	drawCmd.Flags().Float64Var(&drawSparsity, "sparsity", 0, "Sparsity weight (defaults from config)")
	rootCmd.AddCommand(drawCmd)
}
