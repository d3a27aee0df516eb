package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/ctxutil"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type JobService interface {
	Enqueue(dbc dbctx.Context, jobType string, entityType string, entityKey string, payload map[string]any) (*types.JobRun, error)
	// EnqueueIfIdle enqueues unless a queued or running job already exists for
	// (jobType, entityKey). The bool reports whether a job was created.
	EnqueueIfIdle(dbc dbctx.Context, jobType string, entityType string, entityKey string, payload map[string]any) (*types.JobRun, bool, error)
	Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error)
}

type jobService struct {
	log  *logger.Logger
	repo repos.JobRunRepo
}

func NewJobService(baseLog *logger.Logger, repo repos.JobRunRepo) JobService {
	return &jobService{
		log:  baseLog.With("service", "JobService"),
		repo: repo,
	}
}

func (s *jobService) Enqueue(dbc dbctx.Context, jobType string, entityType string, entityKey string, payload map[string]any) (*types.JobRun, error) {
	jobType = strings.TrimSpace(jobType)
	if jobType == "" {
		return nil, apierr.InvalidArgument("missing job_type")
	}
	if payload == nil {
		payload = map[string]any{}
	}
	if td := ctxutil.GetTraceData(dbc.Ctx); td != nil {
		if td.TraceID != "" {
			if _, ok := payload["trace_id"]; !ok {
				payload["trace_id"] = td.TraceID
			}
		}
		if td.RequestID != "" {
			if _, ok := payload["request_id"]; !ok {
				payload["request_id"] = td.RequestID
			}
		}
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	now := time.Now()
	job := &types.JobRun{
		ID:         uuid.New(),
		JobType:    jobType,
		EntityType: entityType,
		EntityKey:  entityKey,
		Status:     jobstatus.StatusQueued,
		Stage:      "queued",
		Message:    "Queued",
		Payload:    datatypes.JSON(b),
		Result:     datatypes.JSON([]byte(`{}`)),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if _, err := s.repo.Create(dbc, []*types.JobRun{job}); err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}
	s.log.Debug("Job enqueued", "job_id", job.ID, "job_type", jobType, "entity_key", entityKey)
	return job, nil
}

func (s *jobService) EnqueueIfIdle(dbc dbctx.Context, jobType string, entityType string, entityKey string, payload map[string]any) (*types.JobRun, bool, error) {
	if strings.TrimSpace(entityKey) == "" {
		return nil, false, apierr.InvalidArgument("missing entity_key")
	}
	has, err := s.repo.HasRunnableForEntity(dbc, jobType, entityKey)
	if err != nil {
		return nil, false, err
	}
	if has {
		return nil, false, nil
	}
	job, err := s.Enqueue(dbc, jobType, entityType, entityKey, payload)
	if err != nil {
		return nil, false, err
	}
	return job, true, nil
}

func (s *jobService) Get(dbc dbctx.Context, jobID uuid.UUID) (*types.JobRun, error) {
	if jobID == uuid.Nil {
		return nil, apierr.InvalidArgument("missing job id")
	}
	rows, err := s.repo.GetByIDs(dbc, []uuid.UUID{jobID})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 || rows[0] == nil {
		return nil, apierr.NotFound("job not found")
	}
	return rows[0], nil
}
