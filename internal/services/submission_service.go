package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	jobstatus "github.com/yungbote/moralgraph-backend/internal/domain/jobs"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type SubmissionInput struct {
	UserID      string     `json:"user_id"`
	QuestionID  *uuid.UUID `json:"question_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Policies    []string   `json:"policies"`
}

type SubmissionService interface {
	// Submit stores raw submissions and schedules deduplication unless a
	// dedupe run is already pending for the deliberation.
	Submit(ctx context.Context, deliberationID uuid.UUID, in []SubmissionInput) ([]*types.RawSubmission, *types.JobRun, error)
}

type submissionService struct {
	log           *logger.Logger
	deliberations repos.DeliberationRepo
	questions     repos.QuestionRepo
	submissions   repos.SubmissionRepo
	jobs          JobService
}

func NewSubmissionService(baseLog *logger.Logger, deliberations repos.DeliberationRepo, questions repos.QuestionRepo, submissions repos.SubmissionRepo, jobs JobService) SubmissionService {
	return &submissionService{
		log:           baseLog.With("service", "SubmissionService"),
		deliberations: deliberations,
		questions:     questions,
		submissions:   submissions,
		jobs:          jobs,
	}
}

func (s *submissionService) Submit(ctx context.Context, deliberationID uuid.UUID, in []SubmissionInput) ([]*types.RawSubmission, *types.JobRun, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := requireDeliberation(dbc, s.deliberations, deliberationID); err != nil {
		return nil, nil, err
	}
	if len(in) == 0 {
		return nil, nil, apierr.InvalidArgument("no submissions")
	}

	var questionIDs []uuid.UUID
	rows := make([]*types.RawSubmission, 0, len(in))
	for i, sub := range in {
		userID := strings.TrimSpace(sub.UserID)
		title := strings.TrimSpace(sub.Title)
		if userID == "" || title == "" {
			return nil, nil, apierr.InvalidArgument(fmt.Sprintf("submissions[%d]: user_id and title are required", i))
		}
		policies := make([]string, 0, len(sub.Policies))
		for _, p := range sub.Policies {
			if p = strings.TrimSpace(p); p != "" {
				policies = append(policies, p)
			}
		}
		if sub.QuestionID != nil {
			questionIDs = append(questionIDs, *sub.QuestionID)
		}
		rows = append(rows, &types.RawSubmission{
			ID:             uuid.New(),
			DeliberationID: deliberationID,
			QuestionID:     sub.QuestionID,
			UserID:         userID,
			Title:          title,
			Description:    strings.TrimSpace(sub.Description),
			Policies:       datatypes.JSONSlice[string](policies),
		})
	}
	if len(questionIDs) > 0 {
		want := uniqueUUIDs(questionIDs)
		found, err := s.questions.GetByIDs(dbc, deliberationID, want)
		if err != nil {
			return nil, nil, err
		}
		if len(found) != len(want) {
			return nil, nil, apierr.NotFound("question not found in deliberation")
		}
	}

	created, err := s.submissions.Create(dbc, rows)
	if err != nil {
		return nil, nil, fmt.Errorf("create submissions: %w", err)
	}
	job, enqueued, err := s.jobs.EnqueueIfIdle(dbc, jobstatus.TypeValuesDedupe, jobstatus.EntityDeliberation, deliberationID.String(), map[string]any{
		"deliberation_id": deliberationID.String(),
	})
	if err != nil {
		// The rows are durable; the next submission or a manual run picks them up.
		s.log.Warn("Enqueue dedupe failed", "deliberation_id", deliberationID, "error", err)
		return created, nil, nil
	}
	s.log.Info("Submissions stored", "deliberation_id", deliberationID, "count", len(created), "dedupe_enqueued", enqueued)
	return created, job, nil
}
