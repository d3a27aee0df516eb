package values

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type SubmissionRepo interface {
	Create(dbc dbctx.Context, rows []*types.RawSubmission) ([]*types.RawSubmission, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RawSubmission, error)
	// ListPending returns unlinked submissions, oldest first.
	ListPending(dbc dbctx.Context, deliberationID uuid.UUID, limit int) ([]*types.RawSubmission, error)
	CountPending(dbc dbctx.Context, deliberationID uuid.UUID) (int64, error)
	SetEmbedding(dbc dbctx.Context, id uuid.UUID, embedding []float32) error
	// LinkToCanonical only touches rows still unlinked and reports how many it changed.
	LinkToCanonical(dbc dbctx.Context, ids []uuid.UUID, valueID uuid.UUID) (int64, error)
}

type submissionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSubmissionRepo(db *gorm.DB, baseLog *logger.Logger) SubmissionRepo {
	return &submissionRepo{db: db, log: baseLog.With("repo", "SubmissionRepo")}
}

func (r *submissionRepo) Create(dbc dbctx.Context, rows []*types.RawSubmission) ([]*types.RawSubmission, error) {
	if len(rows) == 0 {
		return []*types.RawSubmission{}, nil
	}
	if err := dbc.Handle(r.db).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *submissionRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.RawSubmission, error) {
	var out []*types.RawSubmission
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Handle(r.db).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) ListPending(dbc dbctx.Context, deliberationID uuid.UUID, limit int) ([]*types.RawSubmission, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.RawSubmission
	err := dbc.Handle(r.db).
		Where("deliberation_id = ? AND canonical_value_id IS NULL", deliberationID).
		Order("created_at ASC, id ASC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *submissionRepo) CountPending(dbc dbctx.Context, deliberationID uuid.UUID) (int64, error) {
	var n int64
	err := dbc.Handle(r.db).
		Model(&types.RawSubmission{}).
		Where("deliberation_id = ? AND canonical_value_id IS NULL", deliberationID).
		Count(&n).Error
	return n, err
}

func (r *submissionRepo) SetEmbedding(dbc dbctx.Context, id uuid.UUID, embedding []float32) error {
	if id == uuid.Nil || len(embedding) == 0 {
		return nil
	}
	vec := pgvector.NewVector(embedding)
	return dbc.Handle(r.db).
		Model(&types.RawSubmission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"embedding": &vec, "updated_at": time.Now()}).Error
}

func (r *submissionRepo) LinkToCanonical(dbc dbctx.Context, ids []uuid.UUID, valueID uuid.UUID) (int64, error) {
	if len(ids) == 0 || valueID == uuid.Nil {
		return 0, nil
	}
	now := time.Now()
	res := dbc.Handle(r.db).
		Model(&types.RawSubmission{}).
		Where("id IN ? AND canonical_value_id IS NULL", ids).
		Updates(map[string]interface{}{
			"canonical_value_id": valueID,
			"deduped_at":         now,
			"updated_at":         now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}
