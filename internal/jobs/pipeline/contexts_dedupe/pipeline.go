package contexts_dedupe

import (
	"github.com/google/uuid"

	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	jobrt "github.com/yungbote/moralgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type Pipeline struct {
	log  *logger.Logger
	deps steps.ContextsDedupeDeps
}

func New(baseLog *logger.Logger, deps steps.ContextsDedupeDeps) *Pipeline {
	deps.Log = baseLog
	return &Pipeline{log: baseLog.With("job", jobstatus.TypeContextsDedupe), deps: deps}
}

func (p *Pipeline) Type() string { return jobstatus.TypeContextsDedupe }

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	deliberationID, ok := jc.PayloadUUID("deliberation_id")
	if !ok || deliberationID == uuid.Nil {
		jc.Fail("validate", apierr.InvalidArgument("missing deliberation_id"))
		return nil
	}
	jc.Progress("embed", 1, "Embedding contexts")
	out, err := steps.ContextsDedupe(jc.Ctx, p.deps, steps.ContextsDedupeInput{
		DeliberationID: deliberationID,
		Report:         jc.Progress,
	})
	if err != nil {
		jc.Fail("contexts_dedupe", err)
		return nil
	}
	jc.Succeed("done", out)
	return nil
}
