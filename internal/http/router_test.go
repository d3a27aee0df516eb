package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	httpH "github.com/yungbote/moralgraph-backend/internal/http/handlers"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/sampler"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/summary"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
	"github.com/yungbote/moralgraph-backend/internal/services"
)

type stubDeliberations struct {
	services.DeliberationService
	known uuid.UUID
}

func (s *stubDeliberations) Create(ctx context.Context, title string) (*types.Deliberation, error) {
	if strings.TrimSpace(title) == "" {
		return nil, apierr.InvalidArgument("missing title")
	}
	return &types.Deliberation{ID: s.known, Title: title}, nil
}

func (s *stubDeliberations) Get(ctx context.Context, id uuid.UUID) (*types.Deliberation, error) {
	if id != s.known {
		return nil, apierr.NotFound("deliberation not found")
	}
	return &types.Deliberation{ID: id}, nil
}

type enqueueCall struct {
	jobType   string
	entityKey string
	payload   map[string]any
}

type stubJobs struct {
	calls []enqueueCall
	busy  bool
}

func (s *stubJobs) Enqueue(dbc dbctx.Context, jobType, entityType, entityKey string, payload map[string]any) (*types.JobRun, error) {
	s.calls = append(s.calls, enqueueCall{jobType, entityKey, payload})
	return &types.JobRun{ID: uuid.New(), JobType: jobType, EntityKey: entityKey, Status: jobstatus.StatusQueued}, nil
}

func (s *stubJobs) EnqueueIfIdle(dbc dbctx.Context, jobType, entityType, entityKey string, payload map[string]any) (*types.JobRun, bool, error) {
	if s.busy {
		return nil, false, nil
	}
	job, err := s.Enqueue(dbc, jobType, entityType, entityKey, payload)
	return job, err == nil, err
}

func (s *stubJobs) Get(dbc dbctx.Context, id uuid.UUID) (*types.JobRun, error) {
	return nil, apierr.NotFound("job not found")
}

type stubGraph struct {
	lastQuery   services.SummaryQuery
	lastWeights sampler.Weights
	lastSize    int
}

func (s *stubGraph) Summarize(ctx context.Context, id uuid.UUID, q services.SummaryQuery) (summary.MoralGraphSummary, error) {
	s.lastQuery = q
	return summary.MoralGraphSummary{Values: []summary.ValueSummary{}, Edges: []summary.EdgeStats{}}, nil
}

func (s *stubGraph) Draw(ctx context.Context, id uuid.UUID, userID string, size int, w sampler.Weights) ([]sampler.Selected, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	s.lastWeights, s.lastSize = w, size
	return []sampler.Selected{}, nil
}

type stubVotes struct{}

func (stubVotes) Cast(ctx context.Context, id uuid.UUID, in services.VoteInput) (*types.Edge, error) {
	if in.FromValueID == in.ToValueID {
		return nil, apierr.Invariant("a value cannot be wiser than itself")
	}
	return &types.Edge{}, nil
}

type fixture struct {
	router *gin.Engine
	delib  uuid.UUID
	jobs   *stubJobs
	graph  *stubGraph
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	f := &fixture{delib: uuid.New(), jobs: &stubJobs{}, graph: &stubGraph{}}
	delibs := &stubDeliberations{known: f.delib}
	f.router = NewRouter(RouterConfig{
		Log:                 logger.Nop(),
		DeliberationHandler: httpH.NewDeliberationHandler(delibs),
		VoteHandler:         httpH.NewVoteHandler(stubVotes{}),
		GraphHandler:        httpH.NewGraphHandler(f.graph, sampler.DefaultWeights()),
		JobHandler:          httpH.NewJobHandler(f.jobs, delibs),
		HealthHandler:       httpH.NewHealthHandler(),
	})
	return f
}

func (f *fixture) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var env struct {
		Error struct {
			Message string `json:"message"`
			Code    string `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return env.Error.Code
}

func TestHealthcheck(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/healthcheck", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestCreateDeliberation(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/deliberations", `{"title":"Abortion"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodPost, "/api/deliberations", `{"title":"  "}`)
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_argument" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestVoteSelfEdgeIsUnprocessable(t *testing.T) {
	f := newFixture(t)
	v := uuid.New()
	body := `{"user_id":"u1","from_value_id":"` + v.String() + `","to_value_id":"` + v.String() + `","context_id":"c","type":"upgrade"}`
	rec := f.do(http.MethodPost, "/api/deliberations/"+f.delib.String()+"/votes", body)
	if rec.Code != http.StatusUnprocessableEntity || errorCode(t, rec) != "invariant_violation" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestGraphSummaryParsesQuery(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/deliberations/"+f.delib.String()+"/graph?ranking=true&min_wiser=2&component=abc", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	q := f.graph.lastQuery
	if !q.IncludeRanking || q.IncludeAllEdges || q.MarkedWiserThreshold == nil || *q.MarkedWiserThreshold != 2 || q.Component != "abc" {
		t.Fatalf("unexpected query %+v", q)
	}

	rec = f.do(http.MethodGet, "/api/deliberations/"+f.delib.String()+"/graph?min_wiser=lots", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad min_wiser, got %d", rec.Code)
	}
	rec = f.do(http.MethodGet, "/api/deliberations/not-a-uuid/graph", "")
	if rec.Code != http.StatusBadRequest || errorCode(t, rec) != "invalid_id" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestDrawWeights(t *testing.T) {
	f := newFixture(t)
	base := "/api/deliberations/" + f.delib.String() + "/hypotheses/draw?user_id=u1"

	rec := f.do(http.MethodGet, base, "")
	if rec.Code != http.StatusOK || f.graph.lastSize != 5 || f.graph.lastWeights != sampler.DefaultWeights() {
		t.Fatalf("defaults not applied: status=%d size=%d w=%+v", rec.Code, f.graph.lastSize, f.graph.lastWeights)
	}

	rec = f.do(http.MethodGet, base+"&size=3&popularity=1&convergence=0&sparsity=0", "")
	if rec.Code != http.StatusOK || f.graph.lastSize != 3 || f.graph.lastWeights.Popularity != 1 {
		t.Fatalf("override not applied: status=%d size=%d w=%+v", rec.Code, f.graph.lastSize, f.graph.lastWeights)
	}

	rec = f.do(http.MethodGet, base+"&popularity=0.9", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("weights summing above 1 should be rejected, got %d", rec.Code)
	}
	rec = f.do(http.MethodGet, base+"&size=500", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("oversized draw should be rejected, got %d", rec.Code)
	}
	f.graph.lastSize = -1
	rec = f.do(http.MethodGet, base+"&size=0", "")
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), "between 1 and 50") {
		t.Fatalf("empty draw should be rejected by the handler, got %d %s", rec.Code, rec.Body.String())
	}
	if f.graph.lastSize != -1 {
		t.Fatalf("service should not be called for size 0")
	}
}

func TestTriggerHypotheses(t *testing.T) {
	f := newFixture(t)
	path := "/api/deliberations/" + f.delib.String() + "/jobs/hypotheses"

	rec := f.do(http.MethodPost, path, `{"context_id":"When a friend is in distress"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	rec = f.do(http.MethodPost, path, "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if len(f.jobs.calls) != 2 {
		t.Fatalf("expected 2 enqueues, got %d", len(f.jobs.calls))
	}
	one, all := f.jobs.calls[0], f.jobs.calls[1]
	if one.jobType != jobstatus.TypeHypothesesGenerate || one.entityKey != jobstatus.ContextEntityKey(f.delib, "When a friend is in distress") {
		t.Fatalf("unexpected single-context enqueue %+v", one)
	}
	if all.jobType != jobstatus.TypeHypothesesGenerateAll || all.entityKey != f.delib.String() {
		t.Fatalf("unexpected fan-out enqueue %+v", all)
	}

	f.jobs.busy = true
	rec = f.do(http.MethodPost, "/api/deliberations/"+f.delib.String()+"/jobs/dedupe", `{"batch_limit":10}`)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"enqueued":false`) {
		t.Fatalf("debounced enqueue: status=%d body=%s", rec.Code, rec.Body.String())
	}
}

func TestTriggerUnknownDeliberation(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodPost, "/api/deliberations/"+uuid.New().String()+"/jobs/dedupe", "")
	if rec.Code != http.StatusNotFound || len(f.jobs.calls) != 0 {
		t.Fatalf("status=%d calls=%d", rec.Code, len(f.jobs.calls))
	}
}

func TestGetJobNotFound(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/api/jobs/"+uuid.New().String(), "")
	if rec.Code != http.StatusNotFound || errorCode(t, rec) != "not_found" {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
}
