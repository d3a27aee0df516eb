package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/sampler"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

// SummaryQuery selects what Summarize returns. Component restricts the result
// to the values reachable from that value id.
type SummaryQuery struct {
	IncludeRanking       bool
	MarkedWiserThreshold *int
	IncludeAllEdges      bool
	Component            string
}

type GraphService interface {
	Summarize(ctx context.Context, deliberationID uuid.UUID, q SummaryQuery) (summary.MoralGraphSummary, error)
	// Draw picks up to size hypotheses the user has not voted on yet.
	Draw(ctx context.Context, deliberationID uuid.UUID, userID string, size int, w sampler.Weights) ([]sampler.Selected, error)
}

type graphService struct {
	log        *logger.Logger
	values     repos.ValueRepo
	edges      repos.EdgeRepo
	hypotheses repos.HypothesisRepo
	opts       summary.Options
}

// NewGraphService takes base summary options (damping, iterations, tolerance);
// per-request flags come from SummaryQuery.
func NewGraphService(baseLog *logger.Logger, values repos.ValueRepo, edges repos.EdgeRepo, hypotheses repos.HypothesisRepo, opts summary.Options) GraphService {
	return &graphService{
		log:        baseLog.With("service", "GraphService"),
		values:     values,
		edges:      edges,
		hypotheses: hypotheses,
		opts:       opts,
	}
}

func (s *graphService) Summarize(ctx context.Context, deliberationID uuid.UUID, q SummaryQuery) (summary.MoralGraphSummary, error) {
	ctx, span := observability.Tracer().Start(ctx, "graph.summarize")
	defer span.End()
	span.SetAttributes(attribute.Bool("ranking", q.IncludeRanking))

	dbc := dbctx.Context{Ctx: ctx}
	values, err := s.values.ListByDeliberation(dbc, deliberationID)
	if err != nil {
		return summary.MoralGraphSummary{}, fmt.Errorf("list values: %w", err)
	}
	edges, err := s.edges.ListByDeliberation(dbc, deliberationID)
	if err != nil {
		return summary.MoralGraphSummary{}, fmt.Errorf("list edges: %w", err)
	}
	vin, ein := summary.InputsFromModels(values, edges)

	opts := s.opts
	opts.IncludeRanking = q.IncludeRanking
	opts.MarkedWiserThreshold = q.MarkedWiserThreshold
	opts.IncludeAllEdges = q.IncludeAllEdges
	out := summary.Summarize(vin, ein, opts)

	if q.Component == "" {
		return out, nil
	}
	return restrictToComponent(out, q.Component)
}

func restrictToComponent(s summary.MoralGraphSummary, start string) (summary.MoralGraphSummary, error) {
	known := false
	for _, v := range s.Values {
		if v.ID == start {
			known = true
			break
		}
	}
	if !known {
		return summary.MoralGraphSummary{}, apierr.NotFound(fmt.Sprintf("value %s not found", start))
	}
	links := make([]graphutil.Link, 0, len(s.Edges))
	for _, e := range s.Edges {
		links = append(links, graphutil.Link{A: e.SourceValueID, B: e.WiserValueID})
	}
	keep := map[string]bool{}
	for _, id := range graphutil.Subgraph(start, links) {
		keep[id] = true
	}
	out := summary.MoralGraphSummary{Values: []summary.ValueSummary{}, Edges: []summary.EdgeStats{}}
	for _, v := range s.Values {
		if keep[v.ID] {
			out.Values = append(out.Values, v)
		}
	}
	for _, e := range s.Edges {
		if keep[e.SourceValueID] && keep[e.WiserValueID] {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

type voteKey struct {
	from, to uuid.UUID
	context  string
}

type pairKey struct {
	from, to uuid.UUID
}

func (s *graphService) Draw(ctx context.Context, deliberationID uuid.UUID, userID string, size int, w sampler.Weights) ([]sampler.Selected, error) {
	if size <= 0 {
		return nil, apierr.InvalidArgument("size must be positive")
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	ctx, span := observability.Tracer().Start(ctx, "graph.draw")
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	hyps, err := s.hypotheses.ListActive(dbc, deliberationID)
	if err != nil {
		return nil, fmt.Errorf("list hypotheses: %w", err)
	}
	edges, err := s.edges.ListByDeliberation(dbc, deliberationID)
	if err != nil {
		return nil, fmt.Errorf("list edges: %w", err)
	}

	votes := map[voteKey]int{}
	agrees := map[voteKey]int{}
	mine := map[pairKey]bool{}
	for _, e := range edges {
		if e == nil {
			continue
		}
		k := voteKey{e.FromValueID, e.ToValueID, e.ContextID}
		votes[k]++
		if e.Type == types.VoteUpgrade {
			agrees[k]++
		}
		if userID != "" && e.UserID == userID {
			mine[pairKey{e.FromValueID, e.ToValueID}] = true
		}
	}

	pool := make([]sampler.Candidate, 0, len(hyps))
	for _, h := range hyps {
		if h == nil || mine[pairKey{h.FromValueID, h.ToValueID}] {
			continue
		}
		k := voteKey{h.FromValueID, h.ToValueID, h.ContextID}
		pool = append(pool, sampler.Candidate{
			ID:          h.ID.String(),
			FromID:      h.FromValueID.String(),
			ToID:        h.ToValueID.String(),
			ContextID:   h.ContextID,
			Story:       h.Story,
			TotalVotes:  votes[k],
			TotalAgrees: agrees[k],
		})
	}
	s.log.Debug("Drawing hypotheses", "deliberation_id", deliberationID, "pool", len(pool), "size", size)
	return sampler.Draw(pool, size, w, nil)
}
