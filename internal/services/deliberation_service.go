package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/moralgraph-backend/internal/data/aggregates"
	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type QuestionInput struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

type ContextInput struct {
	ID          string      `json:"id"`
	QuestionIDs []uuid.UUID `json:"question_ids"`
	Application string      `json:"application"`
}

// DeliberationService owns the scoping root and the question/context
// relation that decides which values are eligible in a context.
type DeliberationService interface {
	Create(ctx context.Context, title string) (*types.Deliberation, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Deliberation, error)
	List(ctx context.Context) ([]*types.Deliberation, error)
	AddQuestions(ctx context.Context, deliberationID uuid.UUID, in []QuestionInput) ([]*types.Question, error)
	AddContext(ctx context.Context, deliberationID uuid.UUID, in ContextInput) (*types.Context, error)
	ListContexts(ctx context.Context, deliberationID uuid.UUID) ([]*types.Context, error)
}

type deliberationService struct {
	log           *logger.Logger
	tx            aggregates.TxRunner
	deliberations repos.DeliberationRepo
	questions     repos.QuestionRepo
	contexts      repos.ContextRepo
}

func NewDeliberationService(baseLog *logger.Logger, tx aggregates.TxRunner, deliberations repos.DeliberationRepo, questions repos.QuestionRepo, contexts repos.ContextRepo) DeliberationService {
	return &deliberationService{
		log:           baseLog.With("service", "DeliberationService"),
		tx:            tx,
		deliberations: deliberations,
		questions:     questions,
		contexts:      contexts,
	}
}

func (s *deliberationService) Create(ctx context.Context, title string) (*types.Deliberation, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apierr.InvalidArgument("missing title")
	}
	row, err := s.deliberations.Create(dbctx.Context{Ctx: ctx}, &types.Deliberation{ID: uuid.New(), Title: title})
	if err != nil {
		return nil, fmt.Errorf("create deliberation: %w", err)
	}
	s.log.Info("Deliberation created", "deliberation_id", row.ID)
	return row, nil
}

func (s *deliberationService) Get(ctx context.Context, id uuid.UUID) (*types.Deliberation, error) {
	return requireDeliberation(dbctx.Context{Ctx: ctx}, s.deliberations, id)
}

func (s *deliberationService) List(ctx context.Context) ([]*types.Deliberation, error) {
	return s.deliberations.List(dbctx.Context{Ctx: ctx})
}

func (s *deliberationService) AddQuestions(ctx context.Context, deliberationID uuid.UUID, in []QuestionInput) ([]*types.Question, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := requireDeliberation(dbc, s.deliberations, deliberationID); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, apierr.InvalidArgument("no questions")
	}
	rows := make([]*types.Question, 0, len(in))
	for i, q := range in {
		title := strings.TrimSpace(q.Title)
		if title == "" {
			return nil, apierr.InvalidArgument(fmt.Sprintf("questions[%d]: missing title", i))
		}
		rows = append(rows, &types.Question{
			ID:             uuid.New(),
			DeliberationID: deliberationID,
			Title:          title,
			Body:           strings.TrimSpace(q.Body),
		})
	}
	return s.questions.Create(dbc, rows)
}

// AddContext creates the context if new and attaches it to the given
// questions in one transaction.
func (s *deliberationService) AddContext(ctx context.Context, deliberationID uuid.UUID, in ContextInput) (*types.Context, error) {
	dbc := dbctx.Context{Ctx: ctx}
	if _, err := requireDeliberation(dbc, s.deliberations, deliberationID); err != nil {
		return nil, err
	}
	id := strings.TrimSpace(in.ID)
	if id == "" {
		return nil, apierr.InvalidArgument("missing context id")
	}
	if len(in.QuestionIDs) > 0 {
		found, err := s.questions.GetByIDs(dbc, deliberationID, in.QuestionIDs)
		if err != nil {
			return nil, err
		}
		if len(found) != len(uniqueUUIDs(in.QuestionIDs)) {
			return nil, apierr.NotFound("question not found in deliberation")
		}
	}

	row := &types.Context{DeliberationID: deliberationID, ID: id}
	err := s.tx.InTx(ctx, func(dbc dbctx.Context) error {
		if err := s.contexts.Upsert(dbc, []*types.Context{row}); err != nil {
			return fmt.Errorf("upsert context: %w", err)
		}
		links := make([]*types.QuestionContext, 0, len(in.QuestionIDs))
		for _, qid := range uniqueUUIDs(in.QuestionIDs) {
			links = append(links, &types.QuestionContext{
				QuestionID:     qid,
				ContextID:      id,
				DeliberationID: deliberationID,
				Application:    strings.TrimSpace(in.Application),
			})
		}
		return s.questions.AttachContexts(dbc, links)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

func (s *deliberationService) ListContexts(ctx context.Context, deliberationID uuid.UUID) ([]*types.Context, error) {
	return s.contexts.List(dbctx.Context{Ctx: ctx}, deliberationID)
}

func requireDeliberation(dbc dbctx.Context, repo repos.DeliberationRepo, id uuid.UUID) (*types.Deliberation, error) {
	if id == uuid.Nil {
		return nil, apierr.InvalidArgument("missing deliberation id")
	}
	row, err := repo.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, apierr.NotFound("deliberation not found")
	}
	return row, nil
}

func uniqueUUIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
