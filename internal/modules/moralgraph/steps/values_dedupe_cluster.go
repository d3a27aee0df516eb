package steps

import (
	"context"

	"github.com/google/uuid"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type submissionCluster struct {
	representative *types.RawSubmission
	members        []*types.RawSubmission
}

type clusterResult struct {
	clusters         []submissionCluster
	invalid          int
	failed           int
	schemaViolations int
}

func singleton(s *types.RawSubmission) submissionCluster {
	return submissionCluster{representative: s, members: []*types.RawSubmission{s}}
}

// clusterSubmissions groups submissions that express the same value. Small
// batches go to the arbiter whole; larger ones are coarsened with DBSCAN first
// and each multi-member group is refined in chunks.
func clusterSubmissions(ctx context.Context, deps ValuesDedupeDeps, cfg DedupeConfig, log *logger.Logger, subs []*types.RawSubmission, vecs map[uuid.UUID][]float32) clusterResult {
	var res clusterResult
	if len(subs) <= cfg.SmallBatchMax {
		res.merge(arbitrateClusters(ctx, deps, log, subs))
		return res
	}

	byID := make(map[string]*types.RawSubmission, len(subs))
	points := make([]graphutil.Point, 0, len(subs))
	for _, s := range subs {
		byID[s.ID.String()] = s
		points = append(points, graphutil.Point{ID: s.ID.String(), Vector: vecs[s.ID]})
	}
	groups := graphutil.DBSCAN(points, cfg.DBSCANEps, cfg.DBSCANMinPoints)
	log.Debug("dbscan coarsening", "points", len(points), "groups", len(groups))

	for _, g := range groups {
		members := make([]*types.RawSubmission, 0, len(g))
		for _, id := range g {
			members = append(members, byID[id])
		}
		if len(members) == 1 {
			res.clusters = append(res.clusters, singleton(members[0]))
			continue
		}
		for start := 0; start < len(members); start += cfg.SmallBatchMax {
			end := start + cfg.SmallBatchMax
			if end > len(members) {
				end = len(members)
			}
			res.merge(arbitrateClusters(ctx, deps, log, members[start:end]))
		}
	}
	return res
}

func (r *clusterResult) merge(o clusterResult) {
	r.clusters = append(r.clusters, o.clusters...)
	r.invalid += o.invalid
	r.failed += o.failed
	r.schemaViolations += o.schemaViolations
}

// arbitrateClusters asks the arbiter to group a chunk and sanitizes the answer:
// unknown ids and repeat claims are dropped, omitted ids become singletons and
// clusters whose representative is not a member are left unlinked.
func arbitrateClusters(ctx context.Context, deps ValuesDedupeDeps, log *logger.Logger, chunk []*types.RawSubmission) clusterResult {
	var res clusterResult
	if len(chunk) == 0 {
		return res
	}
	if len(chunk) == 1 {
		res.clusters = append(res.clusters, singleton(chunk[0]))
		return res
	}

	cards := make([]valueCard, len(chunk))
	byID := make(map[string]*types.RawSubmission, len(chunk))
	for i, s := range chunk {
		cards[i] = cardForSubmission(s)
		byID[s.ID.String()] = s
	}
	var judged prompts.ValuesClusterOutput
	if err := deps.Arbiter.Generate(ctx, prompts.PromptValuesCluster, prompts.Input{SubmissionsJSON: mustJSON(cards)}, &judged); err != nil {
		log.Warn("cluster arbitration failed", "size", len(chunk), "error", err)
		res.failed = len(chunk)
		return res
	}

	claimed := make(map[string]bool, len(chunk))
	for _, jc := range judged.Clusters {
		members := make([]*types.RawSubmission, 0, len(jc.MemberIDs))
		inCluster := map[string]bool{}
		for _, id := range jc.MemberIDs {
			s, ok := byID[id]
			if !ok || claimed[id] {
				res.schemaViolations++
				continue
			}
			claimed[id] = true
			inCluster[id] = true
			members = append(members, s)
		}
		if len(members) == 0 {
			continue
		}
		if !inCluster[jc.RepresentativeID] {
			log.Warn("cluster representative outside cluster; leaving unlinked",
				"representative_id", jc.RepresentativeID,
				"size", len(members),
			)
			res.invalid++
			continue
		}
		res.clusters = append(res.clusters, submissionCluster{representative: byID[jc.RepresentativeID], members: members})
	}
	for _, s := range chunk {
		if !claimed[s.ID.String()] {
			res.clusters = append(res.clusters, singleton(s))
		}
	}
	return res
}
