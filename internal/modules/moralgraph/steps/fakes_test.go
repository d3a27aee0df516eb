package steps

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/prompts"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
)

// ---------- embeddings ----------

type fakeEmbed struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	calls int
}

func (f *fakeEmbed) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			return nil, fmt.Errorf("no vector for %q", t)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbed) Model() string { return "fake" }

// ---------- arbiter ----------

// fakeArbiter answers with JSON produced by respond and decodes it the way
// the real arbiter does.
type fakeArbiter struct {
	mu      sync.Mutex
	calls   map[prompts.PromptName]int
	respond func(name prompts.PromptName, in prompts.Input) (string, error)
}

func newFakeArbiter(respond func(name prompts.PromptName, in prompts.Input) (string, error)) *fakeArbiter {
	return &fakeArbiter{calls: map[prompts.PromptName]int{}, respond: respond}
}

func (f *fakeArbiter) Generate(ctx context.Context, name prompts.PromptName, in prompts.Input, out prompts.Validatable) error {
	f.mu.Lock()
	f.calls[name]++
	f.mu.Unlock()
	if f.respond == nil {
		return fmt.Errorf("unexpected arbiter call %s", name)
	}
	raw, err := f.respond(name, in)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return err
	}
	return out.Validate()
}

func (f *fakeArbiter) GenerateText(ctx context.Context, instructions, message string) (string, error) {
	return "", nil
}

func (f *fakeArbiter) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *fakeArbiter) count(name prompts.PromptName) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

// ---------- submissions ----------

type fakeSubmissions struct {
	mu   sync.Mutex
	rows []*types.RawSubmission
	// beforeLink runs inside LinkToCanonical to simulate a concurrent writer.
	beforeLink func(ids []uuid.UUID)
}

func (f *fakeSubmissions) add(id uuid.UUID, text string) *types.RawSubmission {
	s := &types.RawSubmission{
		ID:        id,
		Title:     text,
		Policies:  []string{text},
		CreatedAt: time.Now().Add(time.Duration(len(f.rows)) * time.Millisecond),
	}
	f.rows = append(f.rows, s)
	return s
}

func (f *fakeSubmissions) get(id uuid.UUID) *types.RawSubmission {
	for _, r := range f.rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

func (f *fakeSubmissions) Create(dbc dbctx.Context, rows []*types.RawSubmission) ([]*types.RawSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeSubmissions) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RawSubmission, error) {
	var out []*types.RawSubmission
	for _, id := range ids {
		if r := f.get(id); r != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeSubmissions) ListPending(dbc dbctx.Context, deliberationID uuid.UUID, limit int) ([]*types.RawSubmission, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.RawSubmission
	for _, r := range f.rows {
		if r.CanonicalValueID == nil {
			out = append(out, r)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (f *fakeSubmissions) CountPending(dbc dbctx.Context, deliberationID uuid.UUID) (int64, error) {
	rows, _ := f.ListPending(dbc, deliberationID, 1<<30)
	return int64(len(rows)), nil
}

func (f *fakeSubmissions) SetEmbedding(dbc dbctx.Context, id uuid.UUID, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r := f.get(id); r != nil {
		v := pgvector.NewVector(embedding)
		r.Embedding = &v
	}
	return nil
}

// LinkToCanonical applies nothing when some rows are already linked, which is
// what the surrounding transaction leaves behind after rolling back.
func (f *fakeSubmissions) LinkToCanonical(dbc dbctx.Context, ids []uuid.UUID, valueID uuid.UUID) (int64, error) {
	if f.beforeLink != nil {
		f.beforeLink(ids)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var free []*types.RawSubmission
	for _, id := range ids {
		if r := f.get(id); r != nil && r.CanonicalValueID == nil {
			free = append(free, r)
		}
	}
	if len(free) < len(ids) {
		return int64(len(free)), nil
	}
	now := time.Now()
	for _, r := range free {
		v := valueID
		r.CanonicalValueID = &v
		r.DedupedAt = &now
	}
	return int64(len(free)), nil
}

// ---------- values ----------

type fakeValues struct {
	mu         sync.Mutex
	rows       []*types.Value
	forContext map[string][]uuid.UUID
}

func (f *fakeValues) add(id uuid.UUID, title string, vec []float32) *types.Value {
	v := &types.Value{ID: id, Title: title, Policies: []string{title}}
	if vec != nil {
		pv := pgvector.NewVector(vec)
		v.Embedding = &pv
	}
	f.rows = append(f.rows, v)
	return v
}

func (f *fakeValues) Create(dbc dbctx.Context, rows []*types.Value) ([]*types.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, rows...)
	return rows, nil
}

func (f *fakeValues) GetByIDs(dbc dbctx.Context, deliberationID uuid.UUID, ids []uuid.UUID) ([]*types.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := uuidSet(ids)
	var out []*types.Value
	for _, v := range f.rows {
		if want[v.ID] {
			out = append(out, v)
		}
	}
	return out, nil
}

func (f *fakeValues) ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Value, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*types.Value(nil), f.rows...), nil
}

func (f *fakeValues) ListForContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string) ([]*types.Value, error) {
	return f.GetByIDs(dbc, deliberationID, f.forContext[contextID])
}

func (f *fakeValues) FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int, maxDistance float64) ([]repos.ValueMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cands := map[string][]float32{}
	byID := map[string]*types.Value{}
	for _, v := range f.rows {
		if vv := v.Vector(); len(vv) > 0 {
			cands[v.ID.String()] = vv
			byID[v.ID.String()] = v
		}
	}
	var out []repos.ValueMatch
	for _, s := range graphutil.Nearest(vec, cands, limit, maxDistance) {
		out = append(out, repos.ValueMatch{Value: byID[s.ID], Distance: s.Distance})
	}
	return out, nil
}

func (f *fakeValues) UpdatePolicies(dbc dbctx.Context, id uuid.UUID, policies []string, embedding []float32) error {
	return nil
}

// ---------- contexts ----------

type fakeContexts struct {
	mu     sync.Mutex
	rows   map[string]*types.Context
	merges [][2]string
}

func newFakeContexts() *fakeContexts { return &fakeContexts{rows: map[string]*types.Context{}} }

func (f *fakeContexts) add(id string, vec []float32) {
	c := &types.Context{ID: id}
	if vec != nil {
		pv := pgvector.NewVector(vec)
		c.Embedding = &pv
	}
	f.rows[id] = c
}

func (f *fakeContexts) Upsert(dbc dbctx.Context, rows []*types.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		if _, ok := f.rows[r.ID]; !ok {
			f.rows[r.ID] = r
		}
	}
	return nil
}

func (f *fakeContexts) Get(dbc dbctx.Context, deliberationID uuid.UUID, id string) (*types.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id], nil
}

func (f *fakeContexts) List(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Context, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.rows))
	for id := range f.rows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]*types.Context, 0, len(ids))
	for _, id := range ids {
		out = append(out, f.rows[id])
	}
	return out, nil
}

func (f *fakeContexts) SetEmbedding(dbc dbctx.Context, deliberationID uuid.UUID, id string, embedding []float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c, ok := f.rows[id]; ok {
		pv := pgvector.NewVector(embedding)
		c.Embedding = &pv
	}
	return nil
}

func (f *fakeContexts) FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int) ([]repos.ContextMatch, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cands := map[string][]float32{}
	for id, c := range f.rows {
		if v := c.Vector(); len(v) > 0 {
			cands[id] = v
		}
	}
	var out []repos.ContextMatch
	for _, s := range graphutil.Nearest(vec, cands, limit, -1) {
		out = append(out, repos.ContextMatch{Context: f.rows[s.ID], Distance: s.Distance})
	}
	return out, nil
}

func (f *fakeContexts) Merge(dbc dbctx.Context, deliberationID uuid.UUID, survivor, duplicate string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, duplicate)
	f.merges = append(f.merges, [2]string{survivor, duplicate})
	return nil
}

// ---------- votes and hypotheses ----------

type fakeEdges struct {
	rows []*types.Edge
}

func (f *fakeEdges) Upsert(dbc dbctx.Context, row *types.Edge) error {
	f.rows = append(f.rows, row)
	return nil
}

func (f *fakeEdges) ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Edge, error) {
	return f.rows, nil
}

func (f *fakeEdges) ListByUser(dbc dbctx.Context, deliberationID uuid.UUID, userID string) ([]*types.Edge, error) {
	var out []*types.Edge
	for _, e := range f.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

type hypKey struct {
	from, to uuid.UUID
	ctx      string
}

type fakeHypotheses struct {
	mu          sync.Mutex
	rows        map[hypKey]*types.EdgeHypothesis
	upsertCalls int
}

func newFakeHypotheses() *fakeHypotheses {
	return &fakeHypotheses{rows: map[hypKey]*types.EdgeHypothesis{}}
}

func (f *fakeHypotheses) Upsert(dbc dbctx.Context, rows []*types.EdgeHypothesis) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upsertCalls++
	for _, r := range rows {
		k := hypKey{r.FromValueID, r.ToValueID, r.ContextID}
		if cur, ok := f.rows[k]; ok {
			cur.Story = r.Story
			cur.HypothesisRunID = r.HypothesisRunID
			cur.Direction = r.Direction
			cur.ArchivedAt = nil
			continue
		}
		cp := *r
		f.rows[k] = &cp
	}
	return nil
}

func (f *fakeHypotheses) ArchiveStale(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, runID string, keep []repos.HypothesisPair) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := map[hypKey]bool{}
	for _, p := range keep {
		kept[hypKey{p.FromValueID, p.ToValueID, contextID}] = true
	}
	now := time.Now()
	var n int64
	for k, r := range f.rows {
		if k.ctx == contextID && r.ArchivedAt == nil && r.HypothesisRunID != runID && !kept[k] {
			r.ArchivedAt = &now
			n++
		}
	}
	return n, nil
}

func (f *fakeHypotheses) ListActive(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.EdgeHypothesis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.EdgeHypothesis
	for _, r := range f.rows {
		if r.ArchivedAt == nil {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeHypotheses) ListByContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, includeArchived bool) ([]*types.EdgeHypothesis, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*types.EdgeHypothesis
	for k, r := range f.rows {
		if k.ctx == contextID && (includeArchived || r.ArchivedAt == nil) {
			out = append(out, r)
		}
	}
	return out, nil
}

func jsonIDs(ids ...uuid.UUID) string {
	s := make([]string, len(ids))
	for i, id := range ids {
		s[i] = `"` + id.String() + `"`
	}
	return "[" + strings.Join(s, ",") + "]"
}
