package hypotheses_generate_all

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/moralgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

// Pipeline fans out one hypotheses_generate job per context.
type Pipeline struct {
	log      *logger.Logger
	contexts repos.ContextRepo
	jobs     services.JobService
}

func New(baseLog *logger.Logger, contexts repos.ContextRepo, jobs services.JobService) *Pipeline {
	return &Pipeline{
		log:      baseLog.With("job", jobstatus.TypeHypothesesGenerateAll),
		contexts: contexts,
		jobs:     jobs,
	}
}

func (p *Pipeline) Type() string { return jobstatus.TypeHypothesesGenerateAll }

type Result struct {
	Contexts int      `json:"contexts"`
	Enqueued []string `json:"enqueued"`
	Skipped  []string `json:"skipped"`
}

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	deliberationID, ok := jc.PayloadUUID("deliberation_id")
	if !ok || deliberationID == uuid.Nil {
		jc.Fail("validate", apierr.InvalidArgument("missing deliberation_id"))
		return nil
	}
	dbc := dbctx.Context{Ctx: jc.Ctx}
	rows, err := p.contexts.List(dbc, deliberationID)
	if err != nil {
		jc.Fail("list_contexts", err)
		return nil
	}

	res := Result{Contexts: len(rows), Enqueued: []string{}, Skipped: []string{}}
	for i, c := range rows {
		jc.Progress("fan_out", int(float64(i)/float64(len(rows))*100), c.ID)
		_, created, err := p.jobs.EnqueueIfIdle(dbc,
			jobstatus.TypeHypothesesGenerate,
			jobstatus.EntityContext,
			jobstatus.ContextEntityKey(deliberationID, c.ID),
			map[string]any{
				"deliberation_id": deliberationID.String(),
				"context_id":      c.ID,
			},
		)
		if err != nil {
			jc.Fail("fan_out", fmt.Errorf("enqueue %q: %w", c.ID, err))
			return nil
		}
		if created {
			res.Enqueued = append(res.Enqueued, c.ID)
		} else {
			res.Skipped = append(res.Skipped, c.ID)
		}
	}
	p.log.Info("hypotheses fan-out", "deliberation_id", deliberationID, "enqueued", len(res.Enqueued), "skipped", len(res.Skipped))
	jc.Succeed("done", res)
	return nil
}
