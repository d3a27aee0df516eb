package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/moralgraph-backend/internal/data/repos/testutil"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

func newJob(jobType, entityKey, status string, created time.Time) *types.JobRun {
	return &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		EntityType: "deliberation",
		EntityKey:  entityKey,
		Status:     status,
		Stage:      status,
		Payload:    datatypes.JSON([]byte("{}")),
		Result:     datatypes.JSON([]byte("{}")),
		CreatedAt:  created,
		UpdatedAt:  created,
	}
}

func TestJobRunRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}
	repo := NewJobRunRepo(db, testutil.Logger(t))

	now := time.Now().UTC()

	queued := newJob("test_job", "d1", "queued", now.Add(-3*time.Hour))
	failed := newJob("test_job", "d2", "failed", now.Add(-2*time.Hour))
	failed.LastErrorAt = ptrTime(now.Add(-2 * time.Hour))
	staleRunning := newJob("test_job", "d3", "running", now.Add(-1*time.Hour))
	staleRunning.HeartbeatAt = ptrTime(now.Add(-10 * time.Hour))

	created, err := repo.Create(dbc, []*types.JobRun{queued, failed, staleRunning})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(created) != 3 {
		t.Fatalf("Create: expected 3, got %d", len(created))
	}

	if rows, err := repo.GetByIDs(dbc, []uuid.UUID{queued.ID, failed.ID, staleRunning.ID}); err != nil || len(rows) != 3 {
		t.Fatalf("GetByIDs: err=%v len=%d", err, len(rows))
	}

	older := newJob("build", "d9", "queued", now.Add(-5*time.Hour))
	newer := newJob("build", "d9", "queued", now.Add(-4*time.Hour))
	if _, err := repo.Create(dbc, []*types.JobRun{older, newer}); err != nil {
		t.Fatalf("seed latest: %v", err)
	}
	latest, err := repo.GetLatestByEntity(dbc, "build", "d9")
	if err != nil {
		t.Fatalf("GetLatestByEntity: %v", err)
	}
	if latest == nil || latest.ID != newer.ID {
		t.Fatalf("GetLatestByEntity: expected %v got %v", newer.ID, latest)
	}

	// The build/d9 pair is serialized: older is claimed first, newer must wait.
	var order []uuid.UUID
	for i := 0; i < 5; i++ {
		claim, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
		if err != nil {
			t.Fatalf("ClaimNextRunnable #%d: %v", i+1, err)
		}
		if claim == nil {
			break
		}
		if claim.Status != "running" || claim.Attempts != 1 {
			t.Fatalf("claimed job not marked running: %+v", claim)
		}
		order = append(order, claim.ID)
	}
	want := []uuid.UUID{older.ID, queued.ID, failed.ID, staleRunning.ID}
	if len(order) != len(want) {
		t.Fatalf("claimed %d jobs, want %d", len(order), len(want))
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("claim #%d: expected %v got %v", i+1, want[i], order[i])
		}
	}

	if err := repo.UpdateFields(dbc, older.ID, map[string]interface{}{"status": "succeeded", "stage": "done"}); err != nil {
		t.Fatalf("UpdateFields: %v", err)
	}
	claim, err := repo.ClaimNextRunnable(dbc, 3, 1*time.Hour, 1*time.Hour)
	if err != nil || claim == nil || claim.ID != newer.ID {
		t.Fatalf("expected newer after older finished: err=%v claim=%v", err, claim)
	}

	if err := repo.Heartbeat(dbc, failed.ID); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}

	ok, err := repo.UpdateFieldsUnlessStatus(dbc, failed.ID, []string{"canceled"}, map[string]interface{}{"status": "canceled"})
	if err != nil || !ok {
		t.Fatalf("UpdateFieldsUnlessStatus: err=%v ok=%v", err, ok)
	}
	ok, err = repo.UpdateFieldsUnlessStatus(dbc, failed.ID, []string{"canceled"}, map[string]interface{}{"progress": 50})
	if err != nil || ok {
		t.Fatalf("canceled job must not update: err=%v ok=%v", err, ok)
	}

	has, err := repo.HasRunnableForEntity(dbc, "build", "d9")
	if err != nil || !has {
		t.Fatalf("HasRunnableForEntity: err=%v has=%v", err, has)
	}
	has, err = repo.HasRunnableForEntity(dbc, "other", "d9")
	if err != nil || has {
		t.Fatalf("HasRunnableForEntity (other): err=%v has=%v", err, has)
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
