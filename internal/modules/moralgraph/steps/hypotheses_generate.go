package steps

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/observability"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type HypothesesConfig struct {
	TopK               int `yaml:"top_k"`
	RankedExtra        int `yaml:"ranked_extra"`
	ReverseConcurrency int `yaml:"reverse_concurrency"`
}

func DefaultHypothesesConfig() HypothesesConfig {
	return HypothesesConfig{TopK: 12, RankedExtra: 3, ReverseConcurrency: 4}
}

func (c HypothesesConfig) withDefaults() HypothesesConfig {
	d := DefaultHypothesesConfig()
	if c.TopK <= 0 {
		c.TopK = d.TopK
	}
	if c.RankedExtra < 0 {
		c.RankedExtra = d.RankedExtra
	}
	if c.ReverseConcurrency <= 0 {
		c.ReverseConcurrency = d.ReverseConcurrency
	}
	return c
}

type HypothesesGenerateDeps struct {
	Log        *logger.Logger
	Tx         aggregates.TxRunner
	Contexts   repos.ContextRepo
	Values     repos.ValueRepo
	Edges      repos.EdgeRepo
	Hypotheses repos.HypothesisRepo
	Embed      services.EmbeddingService
	Arbiter    services.Arbiter
	Config     HypothesesConfig
}

type HypothesesGenerateInput struct {
	DeliberationID uuid.UUID
	ContextID      string
	// CandidateValueIDs narrows the eligible set when non-empty.
	CandidateValueIDs []uuid.UUID
	RunID             string
	Report            ReportFunc
}

type GeneratedHypothesis struct {
	FromValueID uuid.UUID       `json:"from_value_id"`
	ToValueID   uuid.UUID       `json:"to_value_id"`
	Story       string          `json:"story"`
	Direction   types.Direction `json:"direction"`
}

type HypothesesGenerateOutput struct {
	RunID         string                `json:"run_id"`
	Shortlist     int                   `json:"shortlist"`
	Hypotheses    []GeneratedHypothesis `json:"hypotheses"`
	Archived      int64                 `json:"archived"`
	RejectedPairs int                   `json:"rejected_pairs"`
	ReverseFailed int                   `json:"reverse_failed"`
	Persisted     bool                  `json:"persisted"`
}

type hypothesisPair struct {
	from, to uuid.UUID
}

// HypothesesGenerate proposes upgrade hypotheses among the values closest to a
// context, adds an independently argued reverse control for each, and
// replaces the context's previous run. Nothing is written when the arbiter
// proposes no usable pair.
func HypothesesGenerate(ctx context.Context, deps HypothesesGenerateDeps, in HypothesesGenerateInput) (HypothesesGenerateOutput, error) {
	out := HypothesesGenerateOutput{Hypotheses: []GeneratedHypothesis{}}
	if deps.Log == nil || deps.Tx == nil || deps.Contexts == nil || deps.Values == nil || deps.Edges == nil || deps.Hypotheses == nil || deps.Embed == nil || deps.Arbiter == nil {
		return out, fmt.Errorf("hypotheses_generate: missing deps")
	}
	if in.DeliberationID == uuid.Nil {
		return out, apierr.InvalidArgument("hypotheses_generate: missing deliberation_id")
	}
	contextID := strings.TrimSpace(in.ContextID)
	if contextID == "" {
		return out, apierr.InvalidArgument("hypotheses_generate: missing context_id")
	}
	cfg := deps.Config.withDefaults()
	runID := strings.TrimSpace(in.RunID)
	if runID == "" {
		runID = uuid.New().String()
	}
	out.RunID = runID
	log := deps.Log.With("step", "hypotheses_generate", "deliberation_id", in.DeliberationID.String(), "context_id", contextID, "run_id", runID)

	ctx, span := observability.Tracer().Start(ctx, "steps.hypotheses_generate")
	span.SetAttributes(attribute.String("context_id", contextID))
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	ctxRow, err := deps.Contexts.Get(dbc, in.DeliberationID, contextID)
	if err != nil {
		return out, fmt.Errorf("hypotheses_generate: load context: %w", err)
	}
	if ctxRow == nil {
		return out, apierr.NotFound(fmt.Sprintf("context %q not found", contextID))
	}
	ctxVec := ctxRow.Vector()
	if len(ctxVec) == 0 {
		vecs, err := deps.Embed.EmbedTexts(ctx, []string{contextID})
		if err != nil {
			return out, fmt.Errorf("hypotheses_generate: embed context: %w", err)
		}
		ctxVec = vecs[0]
		if err := deps.Contexts.SetEmbedding(dbc, in.DeliberationID, contextID, ctxVec); err != nil {
			log.Warn("persist context embedding failed", "error", err)
		}
	}

	eligible, err := deps.Values.ListForContext(dbc, in.DeliberationID, contextID)
	if err != nil {
		return out, fmt.Errorf("hypotheses_generate: list values: %w", err)
	}
	if len(in.CandidateValueIDs) > 0 {
		keep := uuidSet(in.CandidateValueIDs)
		filtered := eligible[:0]
		for _, v := range eligible {
			if v != nil && keep[v.ID] {
				filtered = append(filtered, v)
			}
		}
		eligible = filtered
	}
	if len(eligible) < 2 {
		log.Info("not enough eligible values; skipping", "eligible", len(eligible))
		return out, nil
	}
	in.Report.report("shortlist", 10, fmt.Sprintf("%d eligible values", len(eligible)))

	ranks, err := deliberationRanks(dbc, deps, in.DeliberationID)
	if err != nil {
		return out, fmt.Errorf("hypotheses_generate: rank: %w", err)
	}
	shortlist := buildShortlist(eligible, ctxVec, ranks, cfg)
	out.Shortlist = len(shortlist)
	byID := make(map[string]*types.Value, len(shortlist))
	cards := make([]valueCard, len(shortlist))
	for i, v := range shortlist {
		byID[v.ID.String()] = v
		cards[i] = cardForValue(v)
	}

	in.Report.report("forward", 25, "proposing upgrades")
	var forward prompts.HypothesesForwardOutput
	if err := deps.Arbiter.Generate(ctx, prompts.PromptHypothesesForward, prompts.Input{
		ContextID:  contextID,
		ValuesJSON: mustJSON(cards),
	}, &forward); err != nil {
		return out, fmt.Errorf("hypotheses_generate: forward: %w", err)
	}

	accepted, rejected := acceptForwardPairs(forward.Upgrades, byID)
	out.RejectedPairs = rejected
	if rejected > 0 {
		log.Warn("dropped invalid forward pairs", "rejected", rejected, "kind", apierr.KindSchemaViolation)
	}
	if len(accepted) == 0 {
		log.Info("no forward hypotheses accepted; keeping previous run")
		return out, nil
	}

	in.Report.report("reverse", 45, fmt.Sprintf("arguing %d reverse controls", len(accepted)))
	reverse := make([]string, len(accepted))
	failed := make([]bool, len(accepted))
	g := new(errgroup.Group)
	g.SetLimit(cfg.ReverseConcurrency)
	for i, h := range accepted {
		g.Go(func() error {
			var rev prompts.HypothesesReverseOutput
			err := deps.Arbiter.Generate(ctx, prompts.PromptHypothesesReverse, prompts.Input{
				ContextID:     contextID,
				FromValueJSON: mustJSON(cardForValue(byID[h.ToValueID.String()])),
				ToValueJSON:   mustJSON(cardForValue(byID[h.FromValueID.String()])),
			}, &rev)
			if err != nil {
				log.Warn("reverse hypothesis failed",
					"from_value_id", h.ToValueID.String(),
					"to_value_id", h.FromValueID.String(),
					"error", err,
				)
				failed[i] = true
				return nil
			}
			reverse[i] = strings.TrimSpace(rev.Story)
			return nil
		})
	}
	_ = g.Wait()

	seen := make(map[hypothesisPair]bool, 2*len(accepted))
	for _, h := range accepted {
		seen[hypothesisPair{h.FromValueID, h.ToValueID}] = true
	}
	all := append([]GeneratedHypothesis(nil), accepted...)
	// Pairs whose reverse call failed keep the previous run's reverse row.
	var keep []repos.HypothesisPair
	for i, h := range accepted {
		if failed[i] {
			out.ReverseFailed++
			keep = append(keep, repos.HypothesisPair{FromValueID: h.ToValueID, ToValueID: h.FromValueID})
			continue
		}
		key := hypothesisPair{h.ToValueID, h.FromValueID}
		if seen[key] {
			continue
		}
		seen[key] = true
		all = append(all, GeneratedHypothesis{
			FromValueID: h.ToValueID,
			ToValueID:   h.FromValueID,
			Story:       reverse[i],
			Direction:   types.DirectionReverse,
		})
	}

	rows := make([]*types.EdgeHypothesis, 0, len(all))
	for _, h := range all {
		rows = append(rows, &types.EdgeHypothesis{
			ID:              uuid.New(),
			DeliberationID:  in.DeliberationID,
			FromValueID:     h.FromValueID,
			ToValueID:       h.ToValueID,
			ContextID:       contextID,
			Story:           h.Story,
			HypothesisRunID: runID,
			Direction:       h.Direction,
		})
	}

	in.Report.report("persist", 90, fmt.Sprintf("persisting %d hypotheses", len(rows)))
	err = deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := deps.Hypotheses.Upsert(dbc, rows); err != nil {
			return fmt.Errorf("upsert: %w", err)
		}
		n, err := deps.Hypotheses.ArchiveStale(dbc, in.DeliberationID, contextID, runID, keep)
		if err != nil {
			return fmt.Errorf("archive: %w", err)
		}
		out.Archived = n
		return nil
	})
	if err != nil {
		return out, fmt.Errorf("hypotheses_generate: %w", err)
	}
	out.Hypotheses = all
	out.Persisted = true
	log.Info("hypotheses generated",
		"forward", len(accepted),
		"total", len(all),
		"archived", out.Archived,
		"rejected", out.RejectedPairs,
		"reverse_failed", out.ReverseFailed,
	)
	return out, nil
}

// acceptForwardPairs keeps pairs between distinct shortlisted values with a
// story, first occurrence wins.
func acceptForwardPairs(pairs []prompts.UpgradePair, byID map[string]*types.Value) ([]GeneratedHypothesis, int) {
	out := make([]GeneratedHypothesis, 0, len(pairs))
	seen := map[hypothesisPair]bool{}
	rejected := 0
	for _, p := range pairs {
		from, okFrom := byID[strings.TrimSpace(p.FromID)]
		to, okTo := byID[strings.TrimSpace(p.ToID)]
		story := strings.TrimSpace(p.Story)
		if !okFrom || !okTo || from.ID == to.ID || story == "" {
			rejected++
			continue
		}
		key := hypothesisPair{from.ID, to.ID}
		if seen[key] {
			rejected++
			continue
		}
		seen[key] = true
		out = append(out, GeneratedHypothesis{
			FromValueID: from.ID,
			ToValueID:   to.ID,
			Story:       story,
			Direction:   types.DirectionForward,
		})
	}
	return out, rejected
}

func deliberationRanks(dbc dbctx.Context, deps HypothesesGenerateDeps, deliberationID uuid.UUID) (map[string]float64, error) {
	values, err := deps.Values.ListByDeliberation(dbc, deliberationID)
	if err != nil {
		return nil, err
	}
	edges, err := deps.Edges.ListByDeliberation(dbc, deliberationID)
	if err != nil {
		return nil, err
	}
	vin, ein := summary.InputsFromModels(values, edges)
	s := summary.Summarize(vin, ein, summary.Options{IncludeRanking: true})
	out := make(map[string]float64, len(s.Values))
	for _, v := range s.Values {
		if v.PageRank != nil {
			out[v.ID] = *v.PageRank
		}
	}
	return out, nil
}

// buildShortlist takes the TopK values nearest the context (ties by rank),
// then appends the RankedExtra highest-ranked values left out.
func buildShortlist(eligible []*types.Value, ctxVec []float32, ranks map[string]float64, cfg HypothesesConfig) []*types.Value {
	type scored struct {
		v    *types.Value
		dist float64
		rank float64
	}
	items := make([]scored, 0, len(eligible))
	for _, v := range eligible {
		if v == nil {
			continue
		}
		d := 2.0
		if vec := v.Vector(); len(vec) > 0 {
			d = graphutil.CosineDistance(ctxVec, vec)
		}
		items = append(items, scored{v: v, dist: d, rank: ranks[v.ID.String()]})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].dist != items[j].dist {
			return items[i].dist < items[j].dist
		}
		if items[i].rank != items[j].rank {
			return items[i].rank > items[j].rank
		}
		return items[i].v.ID.String() < items[j].v.ID.String()
	})

	k := cfg.TopK
	if k > len(items) {
		k = len(items)
	}
	out := make([]*types.Value, 0, k+cfg.RankedExtra)
	for _, it := range items[:k] {
		out = append(out, it.v)
	}
	rest := append([]scored(nil), items[k:]...)
	sort.SliceStable(rest, func(i, j int) bool {
		if rest[i].rank != rest[j].rank {
			return rest[i].rank > rest[j].rank
		}
		return rest[i].v.ID.String() < rest[j].v.ID.String()
	})
	for i := 0; i < len(rest) && i < cfg.RankedExtra; i++ {
		out = append(out, rest[i].v)
	}
	return out
}
