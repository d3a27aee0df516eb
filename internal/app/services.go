package app

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/jobs/pipeline/contexts_dedupe"
	"github.com/yungbote/moralgraph-backend/internal/jobs/pipeline/graph_sync"
	"github.com/yungbote/moralgraph-backend/internal/jobs/pipeline/hypotheses_generate"
	"github.com/yungbote/moralgraph-backend/internal/jobs/pipeline/hypotheses_generate_all"
	"github.com/yungbote/moralgraph-backend/internal/jobs/pipeline/values_dedupe"
	jobruntime "github.com/yungbote/moralgraph-backend/internal/jobs/runtime"
	"github.com/yungbote/moralgraph-backend/internal/jobs/worker"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/steps"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type Services struct {
	Tx      aggregates.TxRunner
	Embed   services.EmbeddingService
	Arbiter services.Arbiter

	Jobs          services.JobService
	Deliberations services.DeliberationService
	Submissions   services.SubmissionService
	Values        services.ValueService
	Votes         services.VoteService
	Graph         services.GraphService

	// Step deps, also used directly by the CLI.
	ValuesDedupe       steps.ValuesDedupeDeps
	ContextsDedupe     steps.ContextsDedupeDeps
	HypothesesGenerate steps.HypothesesGenerateDeps
	GraphSync          *steps.GraphSyncDeps

	JobRegistry *jobruntime.Registry
	JobWorker   *worker.Worker
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, clients Clients, r Repos) (Services, error) {
	log.Info("Wiring services...")
	var s Services

	s.Tx = aggregates.NewGormTxRunner(db)
	s.Embed = services.NewEmbeddingService(log, clients.LLM, clients.VectorCache())
	s.Arbiter = services.NewArbiter(log, clients.LLM)

	s.Jobs = services.NewJobService(log, r.JobRun)
	s.Deliberations = services.NewDeliberationService(log, s.Tx, r.Deliberation, r.Question, r.Context)
	s.Submissions = services.NewSubmissionService(log, r.Deliberation, r.Question, r.Submission, s.Jobs)
	s.Values = services.NewValueService(log, r.Value, s.Embed)
	s.Votes = services.NewVoteService(log, r.Value, r.Context, r.Edge)
	s.Graph = services.NewGraphService(log, r.Value, r.Edge, r.Hypothesis, cfg.Summary.Options())

	s.ValuesDedupe = steps.ValuesDedupeDeps{
		Log:         log,
		Tx:          s.Tx,
		Submissions: r.Submission,
		Values:      r.Value,
		Embed:       s.Embed,
		Arbiter:     s.Arbiter,
		Config:      cfg.Dedupe,
	}
	s.ContextsDedupe = steps.ContextsDedupeDeps{
		Log:      log,
		Tx:       s.Tx,
		Contexts: r.Context,
		Embed:    s.Embed,
		Arbiter:  s.Arbiter,
		Config:   cfg.ContextsDedupe,
	}
	s.HypothesesGenerate = steps.HypothesesGenerateDeps{
		Log:        log,
		Tx:         s.Tx,
		Contexts:   r.Context,
		Values:     r.Value,
		Edges:      r.Edge,
		Hypotheses: r.Hypothesis,
		Embed:      s.Embed,
		Arbiter:    s.Arbiter,
		Config:     cfg.Hypotheses,
	}
	if clients.Neo4j != nil {
		s.GraphSync = &steps.GraphSyncDeps{
			Log:    log,
			Values: r.Value,
			Edges:  r.Edge,
			Neo4j:  clients.Neo4j,
		}
	}

	reg := jobruntime.NewRegistry()
	handlers := []jobruntime.Handler{
		values_dedupe.New(log, s.ValuesDedupe, s.Jobs, s.GraphSync != nil),
		contexts_dedupe.New(log, s.ContextsDedupe),
		hypotheses_generate.New(log, s.HypothesesGenerate),
		hypotheses_generate_all.New(log, r.Context, s.Jobs),
	}
	if s.GraphSync != nil {
		handlers = append(handlers, graph_sync.New(log, *s.GraphSync))
	}
	for _, h := range handlers {
		if err := reg.Register(h); err != nil {
			return s, fmt.Errorf("register %s: %w", h.Type(), err)
		}
	}
	s.JobRegistry = reg
	s.JobWorker = worker.NewWorker(log, r.JobRun, reg, cfg.Worker)
	return s, nil
}
