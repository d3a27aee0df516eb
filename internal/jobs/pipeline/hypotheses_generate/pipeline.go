package hypotheses_generate

import (
	"fmt"

	"github.com/google/uuid"

	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/moralgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type Pipeline struct {
	log  *logger.Logger
	deps steps.HypothesesGenerateDeps
}

func New(baseLog *logger.Logger, deps steps.HypothesesGenerateDeps) *Pipeline {
	deps.Log = baseLog
	return &Pipeline{log: baseLog.With("job", jobstatus.TypeHypothesesGenerate), deps: deps}
}

func (p *Pipeline) Type() string { return jobstatus.TypeHypothesesGenerate }

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	deliberationID, ok := jc.PayloadUUID("deliberation_id")
	if !ok || deliberationID == uuid.Nil {
		jc.Fail("validate", apierr.InvalidArgument("missing deliberation_id"))
		return nil
	}
	contextID := jc.PayloadString("context_id")
	if contextID == "" {
		jc.Fail("validate", apierr.InvalidArgument("missing context_id"))
		return nil
	}

	jc.Progress("shortlist", 1, "Selecting candidate values")
	out, err := steps.HypothesesGenerate(jc.Ctx, p.deps, steps.HypothesesGenerateInput{
		DeliberationID:    deliberationID,
		ContextID:         contextID,
		CandidateValueIDs: jc.PayloadUUIDs("candidate_value_ids"),
		// The job id names the run, so a retried attempt reuses it.
		RunID:  jc.Job.ID.String(),
		Report: jc.Progress,
	})
	if err != nil {
		jc.Fail("hypotheses_generate", err)
		return nil
	}
	if out.ReverseFailed > 0 {
		// Forward rows are persisted; a retry reuses the run id and fills in the reverses.
		jc.Fail("reverse", apierr.Transient(fmt.Sprintf("%d reverse hypotheses failed", out.ReverseFailed)))
		return nil
	}
	jc.Succeed("done", out)
	return nil
}
