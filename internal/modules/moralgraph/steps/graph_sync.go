package steps

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	graphstore "github.com/yungbote/moralgraph-backend/internal/data/graph"
	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/platform/neo4jdb"
)

type GraphSyncDeps struct {
	Log    *logger.Logger
	Values repos.ValueRepo
	Edges  repos.EdgeRepo
	Neo4j  *neo4jdb.Client
}

type GraphSyncInput struct {
	DeliberationID uuid.UUID
}

type GraphSyncOutput struct {
	Values     int `json:"values"`
	Edges      int `json:"edges"`
	Components int `json:"components"`
}

// GraphSync projects the ranked summary of a deliberation into neo4j.
func GraphSync(ctx context.Context, deps GraphSyncDeps, in GraphSyncInput) (GraphSyncOutput, error) {
	out := GraphSyncOutput{}
	if deps.Log == nil || deps.Values == nil || deps.Edges == nil {
		return out, fmt.Errorf("graph_sync: missing deps")
	}
	if in.DeliberationID == uuid.Nil {
		return out, apierr.InvalidArgument("graph_sync: missing deliberation_id")
	}
	if deps.Neo4j == nil {
		return out, nil
	}

	ctx, span := observability.Tracer().Start(ctx, "steps.graph_sync")
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	values, err := deps.Values.ListByDeliberation(dbc, in.DeliberationID)
	if err != nil {
		return out, fmt.Errorf("graph_sync: list values: %w", err)
	}
	edges, err := deps.Edges.ListByDeliberation(dbc, in.DeliberationID)
	if err != nil {
		return out, fmt.Errorf("graph_sync: list edges: %w", err)
	}
	vin, ein := summary.InputsFromModels(values, edges)
	s := summary.Summarize(vin, ein, summary.Options{IncludeRanking: true})

	nodes := make([]string, 0, len(s.Values))
	for _, v := range s.Values {
		nodes = append(nodes, v.ID)
	}
	links := make([]graphutil.Link, 0, len(s.Edges))
	for _, e := range s.Edges {
		links = append(links, graphutil.Link{A: e.SourceValueID, B: e.WiserValueID})
	}
	components := graphutil.ConnectedComponents(nodes, links)
	componentOf := map[string]int{}
	for i, c := range components {
		for _, id := range c {
			componentOf[id] = i
		}
	}

	vn := make([]graphstore.ValueNode, 0, len(s.Values))
	for _, v := range s.Values {
		id, err := uuid.Parse(v.ID)
		if err != nil {
			continue
		}
		vn = append(vn, graphstore.ValueNode{
			ID:          id,
			Title:       v.Title,
			Description: v.Description,
			Policies:    v.Policies,
			PageRank:    v.PageRank,
			Component:   componentOf[v.ID],
		})
	}
	we := make([]graphstore.WiserEdge, 0, len(s.Edges))
	for _, e := range s.Edges {
		from, errA := uuid.Parse(e.SourceValueID)
		to, errB := uuid.Parse(e.WiserValueID)
		if errA != nil || errB != nil {
			continue
		}
		we = append(we, graphstore.WiserEdge{
			FromID:          from,
			ToID:            to,
			Contexts:        e.Contexts,
			WiserLikelihood: e.Summary.WiserLikelihood,
			Entropy:         e.Summary.Entropy,
			MarkedWiser:     e.Counts.MarkedWiser,
			Impressions:     e.Counts.Impressions,
		})
	}

	if err := graphstore.UpsertMoralGraph(ctx, deps.Neo4j, deps.Log, in.DeliberationID, vn, we); err != nil {
		return out, fmt.Errorf("graph_sync: %w", err)
	}
	out.Values = len(vn)
	out.Edges = len(we)
	out.Components = len(components)
	return out, nil
}
