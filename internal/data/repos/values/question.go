package values

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type QuestionRepo interface {
	Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error)
	GetByIDs(dbc dbctx.Context, deliberationID uuid.UUID, ids []uuid.UUID) ([]*types.Question, error)
	ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Question, error)
	AttachContexts(dbc dbctx.Context, rows []*types.QuestionContext) error
}

type questionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewQuestionRepo(db *gorm.DB, baseLog *logger.Logger) QuestionRepo {
	return &questionRepo{db: db, log: baseLog.With("repo", "QuestionRepo")}
}

func (r *questionRepo) Create(dbc dbctx.Context, rows []*types.Question) ([]*types.Question, error) {
	if len(rows) == 0 {
		return []*types.Question{}, nil
	}
	if err := dbc.Handle(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *questionRepo) GetByIDs(dbc dbctx.Context, deliberationID uuid.UUID, ids []uuid.UUID) ([]*types.Question, error) {
	var out []*types.Question
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

func (r *questionRepo) ListByDeliberation(dbc dbctx.Context, deliberationID uuid.UUID) ([]*types.Question, error) {
	var out []*types.Question
	err := dbc.Handle(r.db).
		Where("deliberation_id = ?", deliberationID).
		Order("created_at ASC, id ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AttachContexts is idempotent on (question_id, context_id).
func (r *questionRepo) AttachContexts(dbc dbctx.Context, rows []*types.QuestionContext) error {
	if len(rows) == 0 {
		return nil
	}
	return dbc.Handle(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "question_id"}, {Name: "context_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"application"}),
		}).
		Create(&rows).Error
}
