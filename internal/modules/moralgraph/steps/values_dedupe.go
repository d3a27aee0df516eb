package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type DedupeConfig struct {
	BatchLimit            int     `yaml:"batch_limit"`
	SmallBatchMax         int     `yaml:"small_batch_max"`
	CandidateLimit        int     `yaml:"candidate_limit"`
	CandidateMaxDistance  float64 `yaml:"candidate_max_distance"`
	NearIdenticalDistance float64 `yaml:"near_identical_distance"`
	DBSCANEps             float64 `yaml:"dbscan_eps"`
	DBSCANMinPoints       int     `yaml:"dbscan_min_points"`
}

func DefaultDedupeConfig() DedupeConfig {
	return DedupeConfig{
		BatchLimit:            100,
		SmallBatchMax:         20,
		CandidateLimit:        5,
		CandidateMaxDistance:  0.1,
		NearIdenticalDistance: 0.01,
		DBSCANEps:             0.11,
		DBSCANMinPoints:       2,
	}
}

func (c DedupeConfig) withDefaults() DedupeConfig {
	d := DefaultDedupeConfig()
	if c.BatchLimit <= 0 {
		c.BatchLimit = d.BatchLimit
	}
	if c.SmallBatchMax <= 0 {
		c.SmallBatchMax = d.SmallBatchMax
	}
	if c.CandidateLimit <= 0 {
		c.CandidateLimit = d.CandidateLimit
	}
	if c.CandidateMaxDistance <= 0 {
		c.CandidateMaxDistance = d.CandidateMaxDistance
	}
	if c.NearIdenticalDistance <= 0 {
		c.NearIdenticalDistance = d.NearIdenticalDistance
	}
	if c.DBSCANEps <= 0 {
		c.DBSCANEps = d.DBSCANEps
	}
	if c.DBSCANMinPoints <= 0 {
		c.DBSCANMinPoints = d.DBSCANMinPoints
	}
	return c
}

type ValuesDedupeDeps struct {
	Log         *logger.Logger
	Tx          aggregates.TxRunner
	Submissions repos.SubmissionRepo
	Values      repos.ValueRepo
	Embed       services.EmbeddingService
	Arbiter     services.Arbiter
	Config      DedupeConfig
}

type ValuesDedupeInput struct {
	DeliberationID uuid.UUID
	// BatchLimit overrides Config.BatchLimit when positive.
	BatchLimit int
	Report     ReportFunc
}

type ValuesDedupeOutput struct {
	Fetched           int `json:"fetched"`
	Processed         int `json:"processed"`
	NewCanonicalCount int `json:"new_canonical_count"`
	Clusters          int `json:"clusters"`
	Matched           int `json:"matched"`
	Skipped           int `json:"skipped"`
	Failed            int `json:"failed"`
	SchemaViolations  int `json:"schema_violations"`
}

var errClusterRaced = errors.New("cluster already linked by another run")

// ValuesDedupe links pending submissions of a deliberation to canonical
// values, creating new values for clusters that match nothing. Each cluster is
// written in its own transaction; a failure only affects that cluster.
func ValuesDedupe(ctx context.Context, deps ValuesDedupeDeps, in ValuesDedupeInput) (ValuesDedupeOutput, error) {
	out := ValuesDedupeOutput{}
	if deps.Log == nil || deps.Tx == nil || deps.Submissions == nil || deps.Values == nil || deps.Embed == nil || deps.Arbiter == nil {
		return out, fmt.Errorf("values_dedupe: missing deps")
	}
	if in.DeliberationID == uuid.Nil {
		return out, apierr.InvalidArgument("values_dedupe: missing deliberation_id")
	}
	cfg := deps.Config.withDefaults()
	limit := cfg.BatchLimit
	if in.BatchLimit > 0 {
		limit = in.BatchLimit
	}
	log := deps.Log.With("step", "values_dedupe", "deliberation_id", in.DeliberationID.String())

	ctx, span := observability.Tracer().Start(ctx, "steps.values_dedupe")
	defer span.End()

	pending, err := deps.Submissions.ListPending(dbctx.Context{Ctx: ctx}, in.DeliberationID, limit)
	if err != nil {
		return out, fmt.Errorf("values_dedupe: list pending: %w", err)
	}
	out.Fetched = len(pending)
	span.SetAttributes(attribute.Int("fetched", out.Fetched))
	if len(pending) == 0 {
		return out, nil
	}
	in.Report.report("embed", 5, fmt.Sprintf("embedding %d submissions", len(pending)))

	subs, vecs, failed := embedSubmissions(ctx, deps, log, pending)
	out.Failed += failed
	if len(subs) == 0 {
		return out, nil
	}

	in.Report.report("cluster", 25, "clustering submissions")
	cl := clusterSubmissions(ctx, deps, cfg, log, subs, vecs)
	out.Failed += cl.failed
	out.Skipped += cl.invalid
	out.SchemaViolations += cl.schemaViolations
	out.Clusters = len(cl.clusters)

	for i, c := range cl.clusters {
		in.Report.report("link", 40+int(float64(i)/float64(len(cl.clusters))*55), fmt.Sprintf("cluster %d/%d", i+1, len(cl.clusters)))

		res, err := resolveCluster(ctx, deps, cfg, log, in.DeliberationID, c, vecs[c.representative.ID])
		out.SchemaViolations += res.schemaViolations
		if err != nil {
			log.Warn("cluster resolve failed", "representative_id", c.representative.ID.String(), "error", err)
			out.Failed++
			continue
		}

		created, err := linkCluster(ctx, deps, in.DeliberationID, c, res.matchID, vecs[c.representative.ID])
		switch {
		case errors.Is(err, errClusterRaced):
			log.Warn("cluster skipped; members already linked", "representative_id", c.representative.ID.String())
			out.Skipped++
			continue
		case err != nil:
			log.Warn("cluster link failed", "representative_id", c.representative.ID.String(), "error", err)
			out.Failed++
			continue
		}
		out.Processed += len(c.members)
		if created {
			out.NewCanonicalCount++
		} else {
			out.Matched++
		}
	}

	log.Info("values dedupe finished",
		"fetched", out.Fetched,
		"processed", out.Processed,
		"new_canonical", out.NewCanonicalCount,
		"matched", out.Matched,
		"skipped", out.Skipped,
		"failed", out.Failed,
	)
	return out, nil
}

// embedSubmissions reuses stored vectors and embeds the rest. When the batch
// call fails it falls back to one call per submission so one bad text does not
// sink the batch.
func embedSubmissions(ctx context.Context, deps ValuesDedupeDeps, log *logger.Logger, pending []*types.RawSubmission) ([]*types.RawSubmission, map[uuid.UUID][]float32, int) {
	vecs := make(map[uuid.UUID][]float32, len(pending))
	missing := make([]*types.RawSubmission, 0, len(pending))
	for _, s := range pending {
		if s == nil {
			continue
		}
		if s.Embedding != nil && len(s.Embedding.Slice()) > 0 {
			vecs[s.ID] = s.Embedding.Slice()
			continue
		}
		missing = append(missing, s)
	}

	store := func(s *types.RawSubmission, v []float32) {
		vecs[s.ID] = v
		if err := deps.Submissions.SetEmbedding(dbctx.Context{Ctx: ctx}, s.ID, v); err != nil {
			log.Warn("persist submission embedding failed", "submission_id", s.ID.String(), "error", err)
		}
	}

	failed := 0
	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, s := range missing {
			texts[i] = s.EmbeddingText()
		}
		got, err := deps.Embed.EmbedTexts(ctx, texts)
		if err == nil {
			for i, s := range missing {
				store(s, got[i])
			}
		} else {
			log.Warn("batch embedding failed; retrying individually", "count", len(missing), "error", err)
			for _, s := range missing {
				one, oneErr := deps.Embed.EmbedTexts(ctx, []string{s.EmbeddingText()})
				if oneErr != nil || len(one) != 1 {
					failed++
					continue
				}
				store(s, one[0])
			}
		}
	}

	subs := make([]*types.RawSubmission, 0, len(pending))
	for _, s := range pending {
		if s == nil {
			continue
		}
		if _, ok := vecs[s.ID]; ok {
			subs = append(subs, s)
		}
	}
	return subs, vecs, failed
}

type clusterResolution struct {
	matchID          *uuid.UUID
	schemaViolations int
}

// resolveCluster finds the canonical value the cluster's representative
// matches, if any. Near-identical candidates match without consulting the arbiter.
func resolveCluster(ctx context.Context, deps ValuesDedupeDeps, cfg DedupeConfig, log *logger.Logger, deliberationID uuid.UUID, c submissionCluster, vec []float32) (clusterResolution, error) {
	res := clusterResolution{}
	matches, err := deps.Values.FindNear(dbctx.Context{Ctx: ctx}, deliberationID, vec, cfg.CandidateLimit, cfg.CandidateMaxDistance)
	if err != nil {
		return res, fmt.Errorf("find near: %w", err)
	}
	if len(matches) == 0 {
		return res, nil
	}
	if matches[0].Distance < cfg.NearIdenticalDistance {
		id := matches[0].Value.ID
		res.matchID = &id
		return res, nil
	}

	cards := make([]valueCard, 0, len(matches))
	allowed := make(map[string]uuid.UUID, len(matches))
	for _, m := range matches {
		if m.Value == nil {
			continue
		}
		cards = append(cards, cardForValue(m.Value))
		allowed[m.Value.ID.String()] = m.Value.ID
	}
	var judged prompts.ValuesDedupeMatchOutput
	err = deps.Arbiter.Generate(ctx, prompts.PromptValuesDedupeMatch, prompts.Input{
		ValueJSON:      mustJSON(cardForSubmission(c.representative)),
		CandidatesJSON: mustJSON(cards),
	}, &judged)
	if err != nil {
		return res, err
	}
	if judged.MatchID == nil {
		return res, nil
	}
	id, ok := allowed[*judged.MatchID]
	if !ok {
		log.Warn("arbiter picked a value outside the candidates", "match_id", *judged.MatchID)
		res.schemaViolations++
		return res, nil
	}
	res.matchID = &id
	return res, nil
}

// linkCluster creates the canonical value when needed and links every member
// in one transaction. Fewer updated rows than members rolls the whole cluster back.
func linkCluster(ctx context.Context, deps ValuesDedupeDeps, deliberationID uuid.UUID, c submissionCluster, matchID *uuid.UUID, vec []float32) (bool, error) {
	ids := make([]uuid.UUID, len(c.members))
	for i, m := range c.members {
		ids[i] = m.ID
	}
	created := false
	err := deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		valueID := uuid.Nil
		if matchID != nil {
			valueID = *matchID
		} else {
			rep := c.representative
			emb := pgvector.NewVector(vec)
			v := &types.Value{
				ID:             uuid.New(),
				DeliberationID: deliberationID,
				Title:          rep.Title,
				Description:    rep.Description,
				Policies:       append([]string(nil), rep.Policies...),
				Embedding:      &emb,
				CreatedAt:      time.Now().UTC(),
			}
			if _, err := deps.Values.Create(dbc, []*types.Value{v}); err != nil {
				return fmt.Errorf("create value: %w", err)
			}
			valueID = v.ID
			created = true
		}
		n, err := deps.Submissions.LinkToCanonical(dbc, ids, valueID)
		if err != nil {
			return fmt.Errorf("link: %w", err)
		}
		if int(n) < len(ids) {
			return errClusterRaced
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return created, nil
}
