package values_dedupe

import (
	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type Pipeline struct {
	log  *logger.Logger
	deps steps.ValuesDedupeDeps
	jobs services.JobService
	// graphSync enqueues a neo4j projection after values change.
	graphSync bool
}

func New(baseLog *logger.Logger, deps steps.ValuesDedupeDeps, jobs services.JobService, graphSync bool) *Pipeline {
	deps.Log = baseLog
	return &Pipeline{
		log:       baseLog.With("job", jobstatus.TypeValuesDedupe),
		deps:      deps,
		jobs:      jobs,
		graphSync: graphSync,
	}
}

func (p *Pipeline) Type() string { return jobstatus.TypeValuesDedupe }
