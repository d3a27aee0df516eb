package values

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type DeliberationRepo interface {
	Create(dbc dbctx.Context, row *types.Deliberation) (*types.Deliberation, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Deliberation, error)
	List(dbc dbctx.Context) ([]*types.Deliberation, error)
}

type deliberationRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewDeliberationRepo(db *gorm.DB, baseLog *logger.Logger) DeliberationRepo {
	return &deliberationRepo{db: db, log: baseLog.With("repo", "DeliberationRepo")}
}

func (r *deliberationRepo) Create(dbc dbctx.Context, row *types.Deliberation) (*types.Deliberation, error) {
	if err := dbc.Handle(r.db).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// GetByID returns nil, nil when the deliberation does not exist.
func (r *deliberationRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Deliberation, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var out []*types.Deliberation
	if err := dbc.Handle(r.db).Where("id = ?", id).Limit(1).Find(&out).Error; err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}
	return out[0], nil
}

func (r *deliberationRepo) List(dbc dbctx.Context) ([]*types.Deliberation, error) {
	var out []*types.Deliberation
	if err := dbc.Handle(r.db).Order("created_at ASC, id ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}
