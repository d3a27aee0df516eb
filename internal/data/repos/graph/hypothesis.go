package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

// HypothesisPair names a directed (from, to) pair within one context.
type HypothesisPair struct {
	FromValueID uuid.UUID
	ToValueID   uuid.UUID
}

type HypothesisRepo interface {
	// Upsert refreshes story, run id and direction of the live row on
	// (from, to, context); a pair with only archived rows gets a new live row.
	// Row IDs of rows that already existed are not reflected back into rows.
	Upsert(dbc dbctx.Context, rows []*types.EdgeHypothesis) error
	// ArchiveStale archives the context's live hypotheses from any other run,
	// except those on a pair listed in keep.
	ArchiveStale(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, runID string, keep []HypothesisPair) (int64, error)
	ListActive(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.EdgeHypothesis, error)
	ListByContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, includeArchived bool) ([]*types.EdgeHypothesis, error)
}

type hypothesisRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewHypothesisRepo(db *gorm.DB, baseLog *logger.Logger) HypothesisRepo {
	return &hypothesisRepo{db: db, log: baseLog.With("repo", "HypothesisRepo")}
}

func (r *hypothesisRepo) Upsert(dbc dbctx.Context, rows []*types.EdgeHypothesis) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Handle(r.db).
		Clauses(clause.OnConflict{
			Columns:     []clause.Column{{Name: "from_value_id"}, {Name: "to_value_id"}, {Name: "context_id"}},
			TargetWhere: clause.Where{Exprs: []clause.Expression{clause.Expr{SQL: "archived_at IS NULL"}}},
			DoUpdates: clause.Set{
				{Column: clause.Column{Name: "story"}, Value: clause.Column{Table: "excluded", Name: "story"}},
				{Column: clause.Column{Name: "hypothesis_run_id"}, Value: clause.Column{Table: "excluded", Name: "hypothesis_run_id"}},
				{Column: clause.Column{Name: "direction"}, Value: clause.Column{Table: "excluded", Name: "direction"}},
				{Column: clause.Column{Name: "updated_at"}, Value: clause.Column{Table: "excluded", Name: "updated_at"}},
			},
		}).
		Create(&rows).Error
}

func (r *hypothesisRepo) ArchiveStale(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, runID string, keep []HypothesisPair) (int64, error) {
	q := dbc.Handle(r.db).
		Model(&types.EdgeHypothesis{}).
		Where("deliberation_id = ? AND context_id = ? AND archived_at IS NULL AND hypothesis_run_id <> ?",
			deliberationID, contextID, runID)
	for _, p := range keep {
		q = q.Where("NOT (from_value_id = ? AND to_value_id = ?)", p.FromValueID, p.ToValueID)
	}
	res := q.Updates(map[string]interface{}{"archived_at": time.Now(), "updated_at": time.Now()})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *hypothesisRepo) ListActive(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.EdgeHypothesis, error) {
	var out []*types.EdgeHypothesis
	err := dbc.Handle(r.db).
		Where("deliberation_id = ? AND archived_at IS NULL", deliberationID).
		Order("id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *hypothesisRepo) ListByContext(dbc dbctx.Context, deliberationID uuid.UUID, contextID string, includeArchived bool) ([]*types.EdgeHypothesis, error) {
	q := dbc.Handle(r.db).Where("deliberation_id = ? AND context_id = ?", deliberationID, contextID)
	if !includeArchived {
		q = q.Where("archived_at IS NULL")
	}
	var out []*types.EdgeHypothesis
	if err := q.Order("id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
