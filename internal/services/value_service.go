package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type ValueService interface {
	List(ctx context.Context, deliberationID uuid.UUID) ([]*types.Value, error)
	Get(ctx context.Context, deliberationID uuid.UUID, id uuid.UUID) (*types.Value, error)
	// UpdatePolicies re-embeds the value in the same write so the stored
	// embedding always matches its policies.
	UpdatePolicies(ctx context.Context, deliberationID uuid.UUID, id uuid.UUID, policies []string) (*types.Value, error)
}

type valueService struct {
	log    *logger.Logger
	values repos.ValueRepo
	embed  EmbeddingService
}

func NewValueService(baseLog *logger.Logger, values repos.ValueRepo, embed EmbeddingService) ValueService {
	return &valueService{
		log:    baseLog.With("service", "ValueService"),
		values: values,
		embed:  embed,
	}
}

func (s *valueService) List(ctx context.Context, deliberationID uuid.UUID) ([]*types.Value, error) {
	return s.values.ListByDeliberation(dbctx.Context{Ctx: ctx}, deliberationID)
}

func (s *valueService) Get(ctx context.Context, deliberationID uuid.UUID, id uuid.UUID) (*types.Value, error) {
	rows, err := s.values.GetByIDs(dbctx.Context{Ctx: ctx}, deliberationID, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, apierr.NotFound("value not found")
	}
	return rows[0], nil
}

func (s *valueService) UpdatePolicies(ctx context.Context, deliberationID uuid.UUID, id uuid.UUID, policies []string) (*types.Value, error) {
	clean := make([]string, 0, len(policies))
	for _, p := range policies {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) == 0 {
		return nil, apierr.InvalidArgument("policies must not be empty")
	}
	v, err := s.Get(ctx, deliberationID, id)
	if err != nil {
		return nil, err
	}
	updated := *v
	updated.Policies = datatypes.JSONSlice[string](clean)
	vecs, err := s.embed.EmbedTexts(ctx, []string{updated.EmbeddingText()})
	if err != nil {
		return nil, fmt.Errorf("embed value: %w", err)
	}
	if err := s.values.UpdatePolicies(dbctx.Context{Ctx: ctx}, id, clean, vecs[0]); err != nil {
		return nil, fmt.Errorf("update policies: %w", err)
	}
	return s.Get(ctx, deliberationID, id)
}
