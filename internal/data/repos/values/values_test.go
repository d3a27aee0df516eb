package values

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/moralgraph-backend/internal/data/repos/testutil"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

func TestValueRepoFindNearAndListForContext(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewValueRepo(db, testutil.Logger(t))

	d := testutil.SeedDeliberation(t, ctx, db)
	other := testutil.SeedDeliberation(t, ctx, db)
	a := testutil.SeedValue(t, ctx, db, d.ID, "a", []float32{1, 0})
	b := testutil.SeedValue(t, ctx, db, d.ID, "b", []float32{0, 1})
	c := testutil.SeedValue(t, ctx, db, d.ID, "c", []float32{1, 0.001})
	testutil.SeedValue(t, ctx, db, other.ID, "foreign", []float32{1, 0})
	testutil.SeedValue(t, ctx, db, d.ID, "unembedded", nil)

	near, err := repo.FindNear(dbc, d.ID, []float32{1, 0}, 5, 0.1)
	if err != nil {
		t.Fatalf("FindNear: %v", err)
	}
	if len(near) != 2 || near[0].Value.ID != a.ID || near[1].Value.ID != c.ID {
		t.Fatalf("FindNear: unexpected result %+v", near)
	}
	if near[0].Distance > 1e-9 {
		t.Fatalf("FindNear: expected zero distance, got %f", near[0].Distance)
	}

	q := testutil.SeedQuestion(t, ctx, db, d.ID)
	testutil.SeedContext(t, ctx, db, d.ID, "when grieving", nil)
	testutil.SeedQuestionContext(t, ctx, db, d.ID, q.ID, "when grieving")
	testutil.SeedSubmission(t, ctx, db, d.ID, &q.ID, &a.ID)
	testutil.SeedSubmission(t, ctx, db, d.ID, &q.ID, &a.ID)
	testutil.SeedSubmission(t, ctx, db, d.ID, nil, &b.ID)

	eligible, err := repo.ListForContext(dbc, d.ID, "when grieving")
	if err != nil {
		t.Fatalf("ListForContext: %v", err)
	}
	if len(eligible) != 1 || eligible[0].ID != a.ID {
		t.Fatalf("ListForContext: expected only a, got %+v", eligible)
	}
}

func TestValueRepoUpdatePolicies(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewValueRepo(db, testutil.Logger(t))

	d := testutil.SeedDeliberation(t, ctx, db)
	v := testutil.SeedValue(t, ctx, db, d.ID, "v", []float32{1, 0})

	if err := repo.UpdatePolicies(dbc, v.ID, []string{"new policy"}, []float32{0, 1}); err != nil {
		t.Fatalf("UpdatePolicies: %v", err)
	}
	rows, err := repo.GetByIDs(dbc, d.ID, []uuid.UUID{v.ID})
	if err != nil || len(rows) != 1 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}
	if len(rows[0].Policies) != 1 || rows[0].Policies[0] != "new policy" {
		t.Fatalf("policies not updated: %v", rows[0].Policies)
	}
	if vec := rows[0].Vector(); len(vec) != 2 || vec[1] != 1 {
		t.Fatalf("embedding not updated: %v", vec)
	}
	if err := repo.UpdatePolicies(dbc, uuid.New(), []string{"x"}, []float32{1}); err != gorm.ErrRecordNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSubmissionRepoLinkIsGuarded(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewSubmissionRepo(db, testutil.Logger(t))

	d := testutil.SeedDeliberation(t, ctx, db)
	v1 := testutil.SeedValue(t, ctx, db, d.ID, "v1", nil)
	v2 := testutil.SeedValue(t, ctx, db, d.ID, "v2", nil)
	s1 := testutil.SeedSubmission(t, ctx, db, d.ID, nil, nil)
	s2 := testutil.SeedSubmission(t, ctx, db, d.ID, nil, nil)

	pending, err := repo.ListPending(dbc, d.ID, 10)
	if err != nil || len(pending) != 2 {
		t.Fatalf("ListPending: err=%v len=%d", err, len(pending))
	}

	n, err := repo.LinkToCanonical(dbc, []uuid.UUID{s1.ID, s2.ID}, v1.ID)
	if err != nil || n != 2 {
		t.Fatalf("LinkToCanonical: err=%v affected=%d", err, n)
	}
	n, err = repo.LinkToCanonical(dbc, []uuid.UUID{s1.ID}, v2.ID)
	if err != nil || n != 0 {
		t.Fatalf("relink must be a no-op: err=%v affected=%d", err, n)
	}
	rows, err := repo.GetByIDs(dbc, []uuid.UUID{s1.ID})
	if err != nil || len(rows) != 1 || rows[0].CanonicalValueID == nil || *rows[0].CanonicalValueID != v1.ID {
		t.Fatalf("canonical changed: %+v err=%v", rows, err)
	}
	if rows[0].DedupedAt == nil {
		t.Fatalf("expected deduped_at")
	}
	if cnt, err := repo.CountPending(dbc, d.ID); err != nil || cnt != 0 {
		t.Fatalf("CountPending: err=%v n=%d", err, cnt)
	}
}

func TestContextRepoMerge(t *testing.T) {
	db := testutil.SQLite(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}
	repo := NewContextRepo(db, testutil.Logger(t))

	d := testutil.SeedDeliberation(t, ctx, db)
	testutil.SeedContext(t, ctx, db, d.ID, "a", []float32{1, 0})
	testutil.SeedContext(t, ctx, db, d.ID, "b", []float32{1, 0.01})
	testutil.SeedContext(t, ctx, db, d.ID, "z", []float32{0, 1})
	q := testutil.SeedQuestion(t, ctx, db, d.ID)
	testutil.SeedQuestionContext(t, ctx, db, d.ID, q.ID, "a")
	testutil.SeedQuestionContext(t, ctx, db, d.ID, q.ID, "b")

	v1, v2, v3 := uuid.New(), uuid.New(), uuid.New()
	hyps := []*types.EdgeHypothesis{
		{DeliberationID: d.ID, FromValueID: v1, ToValueID: v2, ContextID: "a", Story: "s", Direction: types.DirectionForward},
		{DeliberationID: d.ID, FromValueID: v1, ToValueID: v2, ContextID: "b", Story: "dup", Direction: types.DirectionForward},
		{DeliberationID: d.ID, FromValueID: v2, ToValueID: v3, ContextID: "b", Story: "t", Direction: types.DirectionForward},
	}
	if err := db.Create(&hyps).Error; err != nil {
		t.Fatalf("seed hypotheses: %v", err)
	}
	vote := &types.Edge{DeliberationID: d.ID, UserID: "u1", FromValueID: v1, ToValueID: v2, ContextID: "b", Type: types.VoteUpgrade}
	if err := db.Create(vote).Error; err != nil {
		t.Fatalf("seed edge: %v", err)
	}

	near, err := repo.FindNear(dbc, d.ID, []float32{1, 0}, 2)
	if err != nil || len(near) != 2 || near[0].Context.ID != "a" || near[1].Context.ID != "b" {
		t.Fatalf("FindNear: err=%v got %+v", err, near)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return repo.Merge(dbctx.Context{Ctx: ctx, Tx: tx}, d.ID, "a", "b")
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}

	var hypCount, liveCount, orphanCount, qcCount, edgeOnA int64
	db.Model(&types.EdgeHypothesis{}).Where("context_id = ?", "a").Count(&hypCount)
	db.Model(&types.EdgeHypothesis{}).Where("context_id = ? AND archived_at IS NULL", "a").Count(&liveCount)
	db.Model(&types.EdgeHypothesis{}).Where("context_id = ?", "b").Count(&orphanCount)
	db.Model(&types.QuestionContext{}).Where("question_id = ?", q.ID).Count(&qcCount)
	db.Model(&types.Edge{}).Where("context_id = ?", "a").Count(&edgeOnA)
	if hypCount != 3 || liveCount != 2 || orphanCount != 0 {
		t.Fatalf("hypotheses: on a=%d live=%d on b=%d", hypCount, liveCount, orphanCount)
	}
	var dup types.EdgeHypothesis
	if err := db.Where("story = ?", "dup").First(&dup).Error; err != nil {
		t.Fatalf("colliding hypothesis should be kept: %v", err)
	}
	if dup.ContextID != "a" || dup.ArchivedAt == nil {
		t.Fatalf("colliding hypothesis should be archived under the survivor: %+v", dup)
	}
	var live types.EdgeHypothesis
	if err := db.Where("context_id = ? AND from_value_id = ? AND archived_at IS NULL", "a", v1).First(&live).Error; err != nil || live.Story != "s" {
		t.Fatalf("survivor hypothesis should stay live: %+v err=%v", live, err)
	}
	if qcCount != 1 || edgeOnA != 1 {
		t.Fatalf("question contexts=%d edges on a=%d", qcCount, edgeOnA)
	}
	gone, err := repo.Get(dbc, d.ID, "b")
	if err != nil || gone != nil {
		t.Fatalf("duplicate not deleted: %+v err=%v", gone, err)
	}
	list, err := repo.List(dbc, d.ID)
	if err != nil || len(list) != 2 {
		t.Fatalf("List: err=%v len=%d", err, len(list))
	}
}
