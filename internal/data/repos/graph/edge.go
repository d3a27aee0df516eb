package graph

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type EdgeRepo interface {
	// Upsert records a vote; a repeat vote by the same user on the same pair replaces it.
	Upsert(dbc dbctx.Context, row *types.Edge) error
	ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Edge, error)
	ListByUser(dbc dbctx.Context, deliberationID uuid.UUID, userID string) ([]*types.Edge, error)
}

type edgeRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewEdgeRepo(db *gorm.DB, baseLog *logger.Logger) EdgeRepo {
	return &edgeRepo{db: db, log: baseLog.With("repo", "EdgeRepo")}
}

func (r *edgeRepo) Upsert(dbc dbctx.Context, row *types.Edge) error {
	if row == nil {
		return nil
	}
	return dbc.Handle(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "from_value_id"}, {Name: "to_value_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"context_id", "type", "comment", "story", "updated_at"}),
		}).
		Create(row).Error
}

func (r *edgeRepo) ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Edge, error) {
	var out []*types.Edge
	err := dbc.Handle(r.db).
		Where("deliberation_id = ?", deliberationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *edgeRepo) ListByUser(dbc dbctx.Context, deliberationID uuid.UUID, userID string) ([]*types.Edge, error) {
	var out []*types.Edge
	if userID == "" {
		return out, nil
	}
	err := dbc.Handle(r.db).
		Where("deliberation_id = ? AND user_id = ?", deliberationID, userID).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
