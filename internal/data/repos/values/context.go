package values

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/modules/moralgraph/graphutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type ContextMatch struct {
	Context  *types.Context
	Distance float64
}

type ContextRepo interface {
	// Upsert inserts contexts that do not exist yet. Existing rows are untouched.
	Upsert(dbc dbctx.Context, rows []*types.Context) error
	Get(dbc dbctx.Context, deliberationID uuid.UUID, id string) (*types.Context, error)
	List(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Context, error)
	SetEmbedding(dbc dbctx.Context, deliberationID uuid.UUID, id string, embedding []float32) error
	FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int) ([]ContextMatch, error)
	// Merge repoints every reference from duplicate to survivor and deletes
	// the duplicate. Run it inside a transaction.
	Merge(dbc dbctx.Context, deliberationID uuid.UUID, survivor, duplicate string) error
}

type contextRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewContextRepo(db *gorm.DB, baseLog *logger.Logger) ContextRepo {
	return &contextRepo{db: db, log: baseLog.With("repo", "ContextRepo")}
}

func (r *contextRepo) Upsert(dbc dbctx.Context, rows []*types.Context) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Handle(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "deliberation_id"}, {Name: "id"}},
			DoNothing: true,
		}).
		Create(&rows).Error
}

func (r *contextRepo) Get(dbc dbctx.Context, deliberationID uuid.UUID, id string) (*types.Context, error) {
	var out []*types.Context
	err := dbc.Handle(r.db).
		Where("deliberation_id = ? AND id = ?", deliberationID, id).
		Limit(1).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *contextRepo) List(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Context, error) {
	var out []*types.Context
	err := dbc.Handle(r.db).
		Where("deliberation_id = ?", deliberationID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *contextRepo) SetEmbedding(dbc dbctx.Context, deliberationID uuid.UUID, id string, embedding []float32) error {
	if len(embedding) == 0 {
		return nil
	}
	vec := pgvector.NewVector(embedding)
	return dbc.Handle(r.db).
		Model(&types.Context{}).
		Where("deliberation_id = ? AND id = ?", deliberationID, id).
		Update("embedding", &vec).Error
}

type contextWithDistance struct {
	types.Context `gorm:"embedded"`
	Distance      float64 `gorm:"column:distance"`
}

func (r *contextRepo) FindNear(dbc dbctx.Context, deliberationID uuid.UUID, vec []float32, limit int) ([]ContextMatch, error) {
	if len(vec) == 0 {
		return []ContextMatch{}, nil
	}
	if limit <= 0 {
		limit = 5
	}
	t := dbc.Handle(r.db)
	if t.Dialector.Name() != "postgres" {
		var all []*types.Context
		if err := t.Where("deliberation_id = ? AND embedding IS NOT NULL", deliberationID).Find(&all).Error; err != nil {
			return nil, err
		}
		byID := make(map[string]*types.Context, len(all))
		cands := make(map[string][]float32, len(all))
		for _, c := range all {
			byID[c.ID] = c
			cands[c.ID] = c.Vector()
		}
		scored := graphutil.Nearest(vec, cands, limit, -1)
		out := make([]ContextMatch, 0, len(scored))
		for _, s := range scored {
			out = append(out, ContextMatch{Context: byID[s.ID], Distance: s.Distance})
		}
		return out, nil
	}

	q := pgvector.NewVector(vec)
	var rows []contextWithDistance
	err := t.Model(&types.Context{}).
		Select("context.*, (embedding <=> ?) AS distance", q).
		Where("deliberation_id = ? AND embedding IS NOT NULL", deliberationID).
		Order("distance ASC, id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]ContextMatch, 0, len(rows))
	for i := range rows {
		c := rows[i].Context
		out = append(out, ContextMatch{Context: &c, Distance: rows[i].Distance})
	}
	return out, nil
}

func (r *contextRepo) Merge(dbc dbctx.Context, deliberationID uuid.UUID, survivor, duplicate string) error {
	if survivor == duplicate {
		return nil
	}
	t := dbc.Handle(r.db)

	// Live duplicates of a pair the survivor already holds are archived so the
	// repoint keeps one live row per pair.
	now := time.Now()
	if err := t.Exec(`
    UPDATE edge_hypothesis SET archived_at = ?, updated_at = ?
    WHERE deliberation_id = ? AND context_id = ? AND archived_at IS NULL
      AND EXISTS (
        SELECT 1 FROM edge_hypothesis h2
        WHERE h2.context_id = ? AND h2.archived_at IS NULL
          AND h2.from_value_id = edge_hypothesis.from_value_id
          AND h2.to_value_id = edge_hypothesis.to_value_id
      )`, now, now, deliberationID, duplicate, survivor).Error; err != nil {
		return err
	}
	if err := t.Exec(`UPDATE edge_hypothesis SET context_id = ? WHERE deliberation_id = ? AND context_id = ?`,
		survivor, deliberationID, duplicate).Error; err != nil {
		return err
	}
	if err := t.Exec(`UPDATE edge SET context_id = ? WHERE deliberation_id = ? AND context_id = ?`,
		survivor, deliberationID, duplicate).Error; err != nil {
		return err
	}
	if err := t.Exec(`
    DELETE FROM question_context
    WHERE deliberation_id = ? AND context_id = ?
      AND EXISTS (
        SELECT 1 FROM question_context q2
        WHERE q2.context_id = ? AND q2.question_id = question_context.question_id
      )`, deliberationID, duplicate, survivor).Error; err != nil {
		return err
	}
	if err := t.Exec(`UPDATE question_context SET context_id = ? WHERE deliberation_id = ? AND context_id = ?`,
		survivor, deliberationID, duplicate).Error; err != nil {
		return err
	}
	return t.Exec(`DELETE FROM context WHERE deliberation_id = ? AND id = ?`, deliberationID, duplicate).Error
}
