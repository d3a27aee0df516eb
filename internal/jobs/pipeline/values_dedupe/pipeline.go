package values_dedupe

import (
	"github.com/google/uuid"

	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/moralgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	deliberationID, ok := jc.PayloadUUID("deliberation_id")
	if !ok || deliberationID == uuid.Nil {
		jc.Fail("validate", apierr.InvalidArgument("missing deliberation_id"))
		return nil
	}
	limit, _ := jc.PayloadInt("batch_limit")

	jc.Progress("dedupe", 1, "Deduplicating submissions")
	out, err := steps.ValuesDedupe(jc.Ctx, p.deps, steps.ValuesDedupeInput{
		DeliberationID: deliberationID,
		BatchLimit:     limit,
		Report:         jc.Progress,
	})
	if err != nil {
		jc.Fail("dedupe", err)
		return nil
	}
	jc.Succeed("done", out)

	p.followUps(jc, deliberationID, out)
	return nil
}

// followUps schedules the remaining backlog and the graph projection. Both
// are best effort: the dedupe result is already committed.
func (p *Pipeline) followUps(jc *jobrt.Context, deliberationID uuid.UUID, out steps.ValuesDedupeOutput) {
	if p.jobs == nil {
		return
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}
	key := deliberationID.String()
	payload := map[string]any{"deliberation_id": key}

	if out.Processed > 0 && out.Fetched > 0 && p.deps.Submissions != nil {
		pending, err := p.deps.Submissions.CountPending(dbc, deliberationID)
		if err != nil {
			p.log.Warn("count pending failed", "deliberation_id", key, "error", err)
		} else if pending > 0 {
			// This run still counts as runnable, so EnqueueIfIdle would always skip.
			if _, err := p.jobs.Enqueue(dbc, jobstatus.TypeValuesDedupe, jobstatus.EntityDeliberation, key, payload); err != nil {
				p.log.Warn("enqueue next dedupe batch failed", "deliberation_id", key, "error", err)
			}
		}
	}
	if p.graphSync && out.NewCanonicalCount > 0 {
		if _, _, err := p.jobs.EnqueueIfIdle(dbc, jobstatus.TypeGraphSync, jobstatus.EntityDeliberation, key, payload); err != nil {
			p.log.Warn("enqueue graph_sync failed", "deliberation_id", key, "error", err)
		}
	}
}
