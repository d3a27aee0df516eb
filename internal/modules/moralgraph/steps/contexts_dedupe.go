package steps

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

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

type ContextsDedupeConfig struct {
	CandidateLimit int     `yaml:"candidate_limit"`
	MaxDistance    float64 `yaml:"max_distance"`
}

func DefaultContextsDedupeConfig() ContextsDedupeConfig {
	return ContextsDedupeConfig{CandidateLimit: 5, MaxDistance: 0.1}
}

type ContextsDedupeDeps struct {
	Log      *logger.Logger
	Tx       aggregates.TxRunner
	Contexts repos.ContextRepo
	Embed    services.EmbeddingService
	Arbiter  services.Arbiter
	Config   ContextsDedupeConfig
}

type ContextsDedupeInput struct {
	DeliberationID uuid.UUID
	Report         ReportFunc
}

type ContextMerge struct {
	Survivor  string `json:"survivor"`
	Duplicate string `json:"duplicate"`
}

type ContextsDedupeOutput struct {
	Contexts         int            `json:"contexts"`
	Embedded         int            `json:"embedded"`
	Merges           []ContextMerge `json:"merges"`
	SchemaViolations int            `json:"schema_violations"`
	Failed           int            `json:"failed"`
}

// ContextsDedupe merges contexts the arbiter judges to be the same situation.
// The lexicographically smaller id survives and inherits every reference.
func ContextsDedupe(ctx context.Context, deps ContextsDedupeDeps, in ContextsDedupeInput) (ContextsDedupeOutput, error) {
	out := ContextsDedupeOutput{Merges: []ContextMerge{}}
	if deps.Log == nil || deps.Tx == nil || deps.Contexts == nil || deps.Embed == nil || deps.Arbiter == nil {
		return out, fmt.Errorf("contexts_dedupe: missing deps")
	}
	if in.DeliberationID == uuid.Nil {
		return out, apierr.InvalidArgument("contexts_dedupe: missing deliberation_id")
	}
	cfg := deps.Config
	d := DefaultContextsDedupeConfig()
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = d.CandidateLimit
	}
	if cfg.MaxDistance <= 0 {
		cfg.MaxDistance = d.MaxDistance
	}
	log := deps.Log.With("step", "contexts_dedupe", "deliberation_id", in.DeliberationID.String())

	ctx, span := observability.Tracer().Start(ctx, "steps.contexts_dedupe")
	defer span.End()

	dbc := dbctx.Context{Ctx: ctx}
	rows, err := deps.Contexts.List(dbc, in.DeliberationID)
	if err != nil {
		return out, fmt.Errorf("contexts_dedupe: list: %w", err)
	}
	out.Contexts = len(rows)
	if len(rows) < 2 {
		return out, nil
	}

	vecs := make(map[string][]float32, len(rows))
	var missing []*types.Context
	for _, c := range rows {
		if v := c.Vector(); len(v) > 0 {
			vecs[c.ID] = v
		} else {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		texts := make([]string, len(missing))
		for i, c := range missing {
			texts[i] = c.ID
		}
		got, err := deps.Embed.EmbedTexts(ctx, texts)
		if err != nil {
			return out, fmt.Errorf("contexts_dedupe: embed: %w", err)
		}
		for i, c := range missing {
			vecs[c.ID] = got[i]
			if err := deps.Contexts.SetEmbedding(dbc, in.DeliberationID, c.ID, got[i]); err != nil {
				log.Warn("persist context embedding failed", "context_id", c.ID, "error", err)
				continue
			}
			out.Embedded++
		}
	}
	in.Report.report("match", 20, fmt.Sprintf("matching %d contexts", len(rows)))

	ids := make([]string, 0, len(rows))
	for _, c := range rows {
		ids = append(ids, c.ID)
	}
	sort.Strings(ids)

	merged := map[string]bool{}
	for i, target := range ids {
		if merged[target] {
			continue
		}
		in.Report.report("match", 20+int(float64(i)/float64(len(ids))*75), target)

		near, err := deps.Contexts.FindNear(dbc, in.DeliberationID, vecs[target], cfg.CandidateLimit+1)
		if err != nil {
			log.Warn("find near contexts failed", "context_id", target, "error", err)
			out.Failed++
			continue
		}
		allowed := map[string]bool{}
		for _, m := range near {
			if m.Context == nil || m.Context.ID == target || merged[m.Context.ID] {
				continue
			}
			if m.Distance >= cfg.MaxDistance {
				continue
			}
			if len(allowed) < cfg.CandidateLimit {
				allowed[m.Context.ID] = true
			}
		}
		if len(allowed) == 0 {
			continue
		}

		var judged prompts.ContextsDedupeMatchOutput
		if err := deps.Arbiter.Generate(ctx, prompts.PromptContextsDedupeMatch, prompts.Input{
			ContextID:    target,
			ContextsJSON: mustJSON(sortedStrings(allowed)),
		}, &judged); err != nil {
			log.Warn("context arbitration failed", "context_id", target, "error", err)
			out.Failed++
			continue
		}

		dups := map[string]bool{}
		for _, id := range judged.DuplicateIDs {
			if !allowed[id] {
				out.SchemaViolations++
				continue
			}
			dups[id] = true
		}
		current := target
		for _, dup := range sortedStrings(dups) {
			survivor, duplicate := current, dup
			if duplicate < survivor {
				survivor, duplicate = duplicate, survivor
			}
			err := deps.Tx.InTx(ctx, func(dbc dbctx.Context) error {
				return deps.Contexts.Merge(dbc, in.DeliberationID, survivor, duplicate)
			})
			if err != nil {
				log.Warn("context merge failed", "survivor", survivor, "duplicate", duplicate, "error", err)
				out.Failed++
				continue
			}
			merged[duplicate] = true
			current = survivor
			out.Merges = append(out.Merges, ContextMerge{Survivor: survivor, Duplicate: duplicate})
		}
	}

	log.Info("contexts dedupe finished", "contexts", out.Contexts, "merged", len(out.Merges), "failed", out.Failed)
	return out, nil
}
