package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/yungbote/moralgraph-backend/internal/app"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

var (
	hypothesizeContext    string
	hypothesizeCandidates []string
)

var hypothesizeCmd = &cobra.Command{
	Use:   "hypothesize",
	Short: "Generate upgrade hypotheses for one context, or every context when --context is omitted",
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := deliberationID()
		if err != nil {
			return err
		}
		candidates := make([]uuid.UUID, 0, len(hypothesizeCandidates))
		for _, raw := range hypothesizeCandidates {
			v, err := uuid.Parse(strings.TrimSpace(raw))
			if err != nil {
				return fmt.Errorf("invalid --candidate %q: %w", raw, err)
			}
			candidates = append(candidates, v)
		}

		return withCore(func(ctx context.Context, core *app.Core) error {
			contextIDs := []string{strings.TrimSpace(hypothesizeContext)}
			if contextIDs[0] == "" {
				rows, err := core.Repos.Context.List(dbctx.Context{Ctx: ctx}, id)
				if err != nil {
					return err
				}
				contextIDs = contextIDs[:0]
				for _, c := range rows {
					contextIDs = append(contextIDs, c.ID)
				}
			}

			results := make(map[string]steps.HypothesesGenerateOutput, len(contextIDs))
			for _, contextID := range contextIDs {
				fmt.Fprintf(os.Stderr, "context: %s\n", contextID)
				out, err := steps.HypothesesGenerate(ctx, core.Services.HypothesesGenerate, steps.HypothesesGenerateInput{
					DeliberationID:    id,
					ContextID:         contextID,
					CandidateValueIDs: candidates,
					RunID:             uuid.NewString(),
					Report:            stderrReport,
				})
				if err != nil {
					return fmt.Errorf("context %q: %w", contextID, err)
				}
				results[contextID] = out
			}
			return printJSON(results)
		})
	},
}

func init() {
	hypothesizeCmd.Flags().StringVar(&hypothesizeContext, "context", "", "Context id")
	hypothesizeCmd.Flags().StringSliceVar(&hypothesizeCandidates, "candidate", nil, "Restrict the shortlist to these value ids (repeatable)")
	rootCmd.AddCommand(hypothesizeCmd)
}
