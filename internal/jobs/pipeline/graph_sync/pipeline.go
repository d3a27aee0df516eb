package graph_sync

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
	deps steps.GraphSyncDeps
}

func New(baseLog *logger.Logger, deps steps.GraphSyncDeps) *Pipeline {
	deps.Log = baseLog
	return &Pipeline{log: baseLog.With("job", jobstatus.TypeGraphSync), deps: deps}
}

func (p *Pipeline) Type() string { return jobstatus.TypeGraphSync }

func (p *Pipeline) Run(jc *jobrt.Context) error {
	if jc == nil || jc.Job == nil {
		return nil
	}
	deliberationID, ok := jc.PayloadUUID("deliberation_id")
	if !ok || deliberationID == uuid.Nil {
		jc.Fail("validate", apierr.InvalidArgument("missing deliberation_id"))
		return nil
	}
	jc.Progress("sync", 10, "Projecting moral graph")
	out, err := steps.GraphSync(jc.Ctx, p.deps, steps.GraphSyncInput{DeliberationID: deliberationID})
	if err != nil {
		jc.Fail("sync", err)
		return nil
	}
	jc.Succeed("done", out)
	return nil
}
