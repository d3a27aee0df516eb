package values

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

// ValueMatch is a canonical value and its cosine distance to a query vector.
type ValueMatch struct {
	Value    *types.Value
	Distance float64
}

type ValueRepo interface {
	Create(dbc dbctx.Context, rows []*types.Value) ([]*types.Value, error)
	GetByIDs(dbc dbctx.Context, deliberationID uuid.UUID, ids []uuid.UUID) ([]*types.Value, error)
	ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Value, error)
	// ListForContext returns values linked from a submission whose question
	// has the context attached.
	ListForContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string) ([]*types.Value, error)
	FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int, maxDistance float64) ([]ValueMatch, error)
	// UpdatePolicies rewrites policies and embedding in one statement.
	UpdatePolicies(dbc dbctx.Context, id uuid.UUID, policies []string, embedding []float32) error
}

type valueRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewValueRepo(db *gorm.DB, baseLog *logger.Logger) ValueRepo {
	return &valueRepo{db: db, log: baseLog.With("repo", "ValueRepo")}
}

func (r *valueRepo) Create(dbc dbctx.Context, rows []*types.Value) ([]*types.Value, error) {
	if len(rows) == 0 {
		return []*types.Value{}, nil
	}
	if err := dbc.Handle(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *valueRepo) GetByIDs(dbc dbctx.Context, deliberationID uuid.UUID, ids []uuid.UUID) ([]*types.Value, error) {
	var out []*types.Value
	if len(ids) == 0 {
		return out, nil
	}
	err := dbc.Handle(r.db).
		Where("deliberation_id = ? AND id IN ?", deliberationID, ids).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *valueRepo) ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Value, error) {
	var out []*types.Value
	err := dbc.Handle(r.db).
		Where("deliberation_id = ?", deliberationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *valueRepo) ListForContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string) ([]*types.Value, error) {
	t := dbc.Handle(r.db)
	linked := t.Session(&gorm.Session{NewDB: true}).
		Table("raw_submission AS s").
		Select("s.canonical_value_id").
		Joins("JOIN question_context AS qc ON qc.question_id = s.question_id").
		Where("s.deliberation_id = ? AND qc.deliberation_id = ? AND qc.context_id = ? AND s.canonical_value_id IS NOT NULL",
			deliberationID, deliberationID, contextID)

	var out []*types.Value
	err := t.
		Where("deliberation_id = ? AND id IN (?)", deliberationID, linked).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

type valueWithDistance struct {
	types.Value `gorm:"embedded"`
	Distance    float64 `gorm:"column:distance"`
}

func (r *valueRepo) FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int, maxDistance float64) ([]ValueMatch, error) {
	if len(vec) == 0 {
		return []ValueMatch{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	t := dbc.Handle(r.db)
	if t.Dialector.Name() != "postgres" {
		return r.findNearScan(t, deliberationID, vec, limit, maxDistance)
	}

	q := pgvector.NewVector(vec)
	var rows []valueWithDistance
	err := t.Model(&types.Value{}).
		Select("value.*, (embedding <=> ?) AS distance", q).
		Where("deliberation_id = ? AND embedding IS NOT NULL", deliberationID).
		Where("(embedding <=> ?) <= ?", q, maxDistance).
		Order("distance ASC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ValueMatch, 0, len(rows))
	for i := range rows {
		v := rows[i].Value
		out = append(out, ValueMatch{Value: &v, Distance: rows[i].Distance})
	}
	return out, nil
}

func (r *valueRepo) findNearScan(t *gorm.DB, deliberationID uuid.UUID, vec []float32, limit int, maxDistance float64) ([]ValueMatch, error) {
	var all []*types.Value
	if err := t.Where("deliberation_id = ? AND embedding IS NOT NULL", deliberationID).Find(&all).Error; err != nil {
		return nil, err
	}
	byID := make(map[string]*types.Value, len(all))
	cands := make(map[string][]float32, len(all))
	for _, v := range all {
		byID[v.ID.String()] = v
		cands[v.ID.String()] = v.Vector()
	}
	scored := graphutil.Nearest(vec, cands, limit, maxDistance)
	out := make([]ValueMatch, 0, len(scored))
	for _, s := range scored {
		out = append(out, ValueMatch{Value: byID[s.ID], Distance: s.Distance})
	}
	return out, nil
}

func (r *valueRepo) UpdatePolicies(dbc dbctx.Context, id uuid.UUID, policies []string, embedding []float32) error {
	if id == uuid.Nil {
		return nil
	}
	vec := pgvector.NewVector(embedding)
	res := dbc.Handle(r.db).
		Model(&types.Value{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"policies":   datatypes.JSONSlice[string](policies),
			"embedding":  &vec,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
