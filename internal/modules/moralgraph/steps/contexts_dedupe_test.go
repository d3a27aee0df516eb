package steps

import (
	"context"
	"strconv"
	"testing"

	"github.com/google/uuid"

	aggtestutil "github.com/yungbote/moralgraph-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

const (
	ctxGrief      = "When grieving a loss"
	ctxHelping    = "When helping a friend"
	ctxHelpingDup = "When helping a friend in need"
)

func runContextsDedupe(t *testing.T, contexts *fakeContexts, embed *fakeEmbed, arbiter *fakeArbiter) ContextsDedupeOutput {
	t.Helper()
	out, err := ContextsDedupe(context.Background(), ContextsDedupeDeps{
		Log:      logger.Nop(),
		Tx:       &aggtestutil.InjectedTxRunner{},
		Contexts: contexts,
		Embed:    embed,
		Arbiter:  arbiter,
	}, ContextsDedupeInput{DeliberationID: uuid.New()})
	if err != nil {
		t.Fatalf("ContextsDedupe: %v", err)
	}
	return out
}

func dupJSON(ids ...string) string {
	s := "["
	for i, id := range ids {
		if i > 0 {
			s += ","
		}
		s += strconv.Quote(id)
	}
	return `{"version":1,"warnings":[],"duplicate_ids":` + s + `],"rationale":"same situation"}`
}

func TestContextsDedupeMergesIntoSmallerID(t *testing.T) {
	contexts := newFakeContexts()
	for _, id := range []string{ctxGrief, ctxHelping, ctxHelpingDup} {
		contexts.add(id, nil)
	}
	embed := &fakeEmbed{vecs: map[string][]float32{
		ctxGrief:      {1, 0, 0},
		ctxHelping:    {0, 1, 0},
		ctxHelpingDup: {0, 1, 0.05},
	}}
	arbiter := newFakeArbiter(func(name prompts.PromptName, in prompts.Input) (string, error) {
		if in.ContextID != ctxHelping {
			t.Errorf("unexpected arbitration for %q", in.ContextID)
		}
		return dupJSON(ctxHelpingDup), nil
	})

	out := runContextsDedupe(t, contexts, embed, arbiter)
	if out.Embedded != 3 {
		t.Fatalf("expected 3 embedded contexts, got %d", out.Embedded)
	}
	if arbiter.total() != 1 {
		t.Fatalf("expected a single arbitration, got %d", arbiter.total())
	}
	if len(out.Merges) != 1 || out.Merges[0].Survivor != ctxHelping || out.Merges[0].Duplicate != ctxHelpingDup {
		t.Fatalf("unexpected merges %+v", out.Merges)
	}
	if _, ok := contexts.rows[ctxHelpingDup]; ok {
		t.Fatalf("duplicate context should be gone")
	}
	if _, ok := contexts.rows[ctxGrief]; !ok {
		t.Fatalf("unrelated context must survive")
	}
}

func TestContextsDedupeIgnoresForeignIDs(t *testing.T) {
	contexts := newFakeContexts()
	contexts.add(ctxHelping, []float32{0, 1})
	contexts.add(ctxHelpingDup, []float32{0.01, 1})
	arbiter := newFakeArbiter(func(name prompts.PromptName, in prompts.Input) (string, error) {
		return dupJSON(ctxGrief), nil
	})

	out := runContextsDedupe(t, contexts, &fakeEmbed{}, arbiter)
	// both contexts are judged, each answer names an id outside its candidates
	if out.SchemaViolations != 2 || len(out.Merges) != 0 {
		t.Fatalf("expected two violations and no merges, got %+v", out)
	}
	if len(contexts.rows) != 2 {
		t.Fatalf("no context should be merged")
	}
}

func TestContextsDedupeSingleContext(t *testing.T) {
	contexts := newFakeContexts()
	contexts.add(ctxGrief, nil)
	out := runContextsDedupe(t, contexts, &fakeEmbed{}, newFakeArbiter(nil))
	if out.Contexts != 1 || out.Embedded != 0 {
		t.Fatalf("unexpected output %+v", out)
	}
}
