package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	"github.com/yungbote/moralgraph-backend/internal/data/repos/testutil"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/sampler"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

type fixture struct {
	db  *gorm.DB
	ctx context.Context
	d   *types.Deliberation

	values        repos.ValueRepo
	edges         repos.EdgeRepo
	hyps          repos.HypothesisRepo
	contexts      repos.ContextRepo
	questions     repos.QuestionRepo
	deliberations repos.DeliberationRepo
	jobs          repos.JobRunRepo
	submissions   repos.SubmissionRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SQLite(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	return &fixture{
		db:            db,
		ctx:           ctx,
		d:             testutil.SeedDeliberation(t, ctx, db),
		values:        repos.NewValueRepo(db, log),
		edges:         repos.NewEdgeRepo(db, log),
		hyps:          repos.NewHypothesisRepo(db, log),
		contexts:      repos.NewContextRepo(db, log),
		questions:     repos.NewQuestionRepo(db, log),
		deliberations: repos.NewDeliberationRepo(db, log),
		jobs:          repos.NewJobRunRepo(db, log),
		submissions:   repos.NewSubmissionRepo(db, log),
	}
}

func (f *fixture) vote(t *testing.T, user string, from, to *types.Value, ctxID string, vt types.VoteType) {
	t.Helper()
	err := f.edges.Upsert(dbctx.Context{Ctx: f.ctx}, &types.Edge{
		ID: uuid.New(), DeliberationID: f.d.ID, UserID: user,
		FromValueID: from.ID, ToValueID: to.ID, ContextID: ctxID, Type: vt,
	})
	if err != nil {
		t.Fatalf("seed vote: %v", err)
	}
}

func TestVoteCastValidatesAndUpserts(t *testing.T) {
	f := newFixture(t)
	a := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "a", nil)
	b := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "b", nil)
	testutil.SeedContext(t, f.ctx, f.db, f.d.ID, "c", nil)
	svc := NewVoteService(testutil.Logger(t), f.values, f.contexts, f.edges)

	cases := []struct {
		name string
		in   VoteInput
		want apierr.Kind
	}{
		{"self", VoteInput{UserID: "u", FromValueID: a.ID, ToValueID: a.ID, ContextID: "c", Type: "upgrade"}, apierr.KindInvariant},
		{"bad type", VoteInput{UserID: "u", FromValueID: a.ID, ToValueID: b.ID, ContextID: "c", Type: "maybe"}, apierr.KindInvalidArgument},
		{"unknown context", VoteInput{UserID: "u", FromValueID: a.ID, ToValueID: b.ID, ContextID: "nope", Type: "upgrade"}, apierr.KindNotFound},
		{"unknown value", VoteInput{UserID: "u", FromValueID: a.ID, ToValueID: uuid.New(), ContextID: "c", Type: "upgrade"}, apierr.KindNotFound},
		{"no user", VoteInput{FromValueID: a.ID, ToValueID: b.ID, ContextID: "c", Type: "upgrade"}, apierr.KindInvalidArgument},
	}
	for _, tc := range cases {
		if _, err := svc.Cast(f.ctx, f.d.ID, tc.in); apierr.Classify(err) != tc.want {
			t.Fatalf("%s: got %v want %s", tc.name, err, tc.want)
		}
	}

	for _, vt := range []string{"upgrade", "not_sure"} {
		if _, err := svc.Cast(f.ctx, f.d.ID, VoteInput{UserID: "u", FromValueID: a.ID, ToValueID: b.ID, ContextID: "c", Type: vt}); err != nil {
			t.Fatalf("Cast %s: %v", vt, err)
		}
	}
	rows, err := f.edges.ListByDeliberation(dbctx.Context{Ctx: f.ctx}, f.d.ID)
	if err != nil || len(rows) != 1 || rows[0].Type != types.VoteNotSure {
		t.Fatalf("latest vote should win: err=%v rows=%+v", err, rows)
	}
}

func TestSubmitDebouncesDedupe(t *testing.T) {
	f := newFixture(t)
	log := testutil.Logger(t)
	jobs := NewJobService(log, f.jobs)
	svc := NewSubmissionService(log, f.deliberations, f.questions, f.submissions, jobs)

	in := []SubmissionInput{{UserID: "u1", Title: "Honesty", Policies: []string{" say what is true ", ""}}}
	rows, job, err := svc.Submit(f.ctx, f.d.ID, in)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(rows) != 1 || len(rows[0].Policies) != 1 || rows[0].Policies[0] != "say what is true" {
		t.Fatalf("unexpected rows %+v", rows)
	}
	if job == nil || job.JobType != "values_dedupe" || job.EntityKey != f.d.ID.String() {
		t.Fatalf("expected a dedupe job, got %+v", job)
	}
	_, again, err := svc.Submit(f.ctx, f.d.ID, in)
	if err != nil {
		t.Fatalf("Submit #2: %v", err)
	}
	if again != nil {
		t.Fatalf("a pending dedupe should absorb the second submission")
	}
	pending, err := f.submissions.CountPending(dbctx.Context{Ctx: f.ctx}, f.d.ID)
	if err != nil || pending != 2 {
		t.Fatalf("expected 2 pending submissions, got %d err=%v", pending, err)
	}

	if _, _, err := svc.Submit(f.ctx, uuid.New(), in); apierr.Classify(err) != apierr.KindNotFound {
		t.Fatalf("unknown deliberation: got %v", err)
	}
	got, err := jobs.Get(dbctx.Context{Ctx: f.ctx}, job.ID)
	if err != nil || got.Status != "queued" {
		t.Fatalf("Get: %v %+v", err, got)
	}
}

func TestUpdatePoliciesReembeds(t *testing.T) {
	f := newFixture(t)
	v := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "care", []float32{0, 0})
	svc := NewValueService(testutil.Logger(t), f.values, NewEmbeddingService(testutil.Logger(t), &fakeAI{}, nil))

	got, err := svc.UpdatePolicies(f.ctx, f.d.ID, v.ID, []string{"be present", " "})
	if err != nil {
		t.Fatalf("UpdatePolicies: %v", err)
	}
	vec := got.Vector()
	if len(got.Policies) != 1 || len(vec) != 2 || vec[0] != float32(len("be present")) {
		t.Fatalf("embedding should follow policies: policies=%v vec=%v", got.Policies, vec)
	}
	if _, err := svc.UpdatePolicies(f.ctx, f.d.ID, v.ID, nil); apierr.Classify(err) != apierr.KindInvalidArgument {
		t.Fatalf("empty policies: got %v", err)
	}
}

func TestDrawExcludesVotedPairs(t *testing.T) {
	f := newFixture(t)
	a := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "a", nil)
	b := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "b", nil)
	c := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "c", nil)
	err := f.hyps.Upsert(dbctx.Context{Ctx: f.ctx}, []*types.EdgeHypothesis{
		{ID: uuid.New(), DeliberationID: f.d.ID, FromValueID: a.ID, ToValueID: b.ID, ContextID: "x", Story: "ab", HypothesisRunID: "r", Direction: types.DirectionForward},
		{ID: uuid.New(), DeliberationID: f.d.ID, FromValueID: b.ID, ToValueID: c.ID, ContextID: "x", Story: "bc", HypothesisRunID: "r", Direction: types.DirectionForward},
	})
	if err != nil {
		t.Fatalf("seed hypotheses: %v", err)
	}
	f.vote(t, "u1", a, b, "x", types.VoteUpgrade)

	svc := NewGraphService(testutil.Logger(t), f.values, f.edges, f.hyps, summary.Options{})
	mine, err := svc.Draw(f.ctx, f.d.ID, "u1", 5, sampler.DefaultWeights())
	if err != nil {
		t.Fatalf("Draw: %v", err)
	}
	if len(mine) != 1 || mine[0].Story != "bc" {
		t.Fatalf("u1 already voted on a->b, got %+v", mine)
	}
	other, err := svc.Draw(f.ctx, f.d.ID, "u2", 5, sampler.DefaultWeights())
	if err != nil || len(other) != 2 {
		t.Fatalf("Draw u2: err=%v len=%d", err, len(other))
	}
	for _, s := range other {
		if s.Story == "ab" && (s.TotalVotes != 1 || s.TotalAgrees != 1) {
			t.Fatalf("a->b totals: %+v", s)
		}
	}
	if _, err := svc.Draw(f.ctx, f.d.ID, "u2", 1, sampler.Weights{Popularity: 1, Sparsity: 1}); apierr.Classify(err) != apierr.KindInvalidArgument {
		t.Fatalf("bad weights: got %v", err)
	}
}

func TestSummarizeComponent(t *testing.T) {
	f := newFixture(t)
	a := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "a", nil)
	b := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "b", nil)
	c := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "c", nil)
	d := testutil.SeedValue(t, f.ctx, f.db, f.d.ID, "d", nil)
	f.vote(t, "u1", a, b, "x", types.VoteUpgrade)
	f.vote(t, "u1", c, d, "x", types.VoteUpgrade)

	svc := NewGraphService(testutil.Logger(t), f.values, f.edges, f.hyps, summary.Options{})
	all, err := svc.Summarize(f.ctx, f.d.ID, SummaryQuery{IncludeRanking: true})
	if err != nil || len(all.Values) != 4 || len(all.Edges) != 2 {
		t.Fatalf("Summarize: err=%v values=%d edges=%d", err, len(all.Values), len(all.Edges))
	}
	part, err := svc.Summarize(f.ctx, f.d.ID, SummaryQuery{Component: a.ID.String()})
	if err != nil {
		t.Fatalf("Summarize component: %v", err)
	}
	if len(part.Values) != 2 || len(part.Edges) != 1 || part.Edges[0].WiserValueID != b.ID.String() {
		t.Fatalf("unexpected component %+v", part)
	}
	if _, err := svc.Summarize(f.ctx, f.d.ID, SummaryQuery{Component: uuid.NewString()}); apierr.Classify(err) != apierr.KindNotFound {
		t.Fatalf("unknown component: got %v", err)
	}
}

func TestAddContextAttachesQuestions(t *testing.T) {
	f := newFixture(t)
	svc := NewDeliberationService(testutil.Logger(t), aggregates.NewGormTxRunner(f.db), f.deliberations, f.questions, f.contexts)
	qs, err := svc.AddQuestions(f.ctx, f.d.ID, []QuestionInput{{Title: "How should I talk to a grieving friend?"}})
	if err != nil || len(qs) != 1 {
		t.Fatalf("AddQuestions: %v", err)
	}
	if _, err := svc.AddContext(f.ctx, f.d.ID, ContextInput{ID: "When a friend is grieving", QuestionIDs: []uuid.UUID{qs[0].ID}}); err != nil {
		t.Fatalf("AddContext: %v", err)
	}
	if _, err := svc.AddContext(f.ctx, f.d.ID, ContextInput{ID: "Other", QuestionIDs: []uuid.UUID{uuid.New()}}); apierr.Classify(err) != apierr.KindNotFound {
		t.Fatalf("unknown question: got %v", err)
	}
	list, err := svc.ListContexts(f.ctx, f.d.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListContexts: err=%v len=%d", err, len(list))
	}
}
