package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/moralgraph-backend/internal/data/repos"
	types "github.com/yungbote/moralgraph-backend/internal/domain"
	"github.com/yungbote/moralgraph-backend/internal/platform/apierr"
	"github.com/yungbote/moralgraph-backend/internal/platform/dbctx"
	"github.com/yungbote/moralgraph-backend/internal/platform/logger"
)

type VoteInput struct {
	UserID      string    `json:"user_id"`
	FromValueID uuid.UUID `json:"from_value_id"`
	ToValueID   uuid.UUID `json:"to_value_id"`
	ContextID   string    `json:"context_id"`
	Type        string    `json:"type"`
	Comment     *string   `json:"comment,omitempty"`
	Story       *string   `json:"story,omitempty"`
}

type VoteService interface {
	// Cast records a vote; a later vote by the same user on the same pair
	// replaces it.
	Cast(ctx context.Context, deliberationID uuid.UUID, in VoteInput) (*types.Edge, error)
}

type voteService struct {
	log      *logger.Logger
	values   repos.ValueRepo
	contexts repos.ContextRepo
	edges    repos.EdgeRepo
}

func NewVoteService(baseLog *logger.Logger, values repos.ValueRepo, contexts repos.ContextRepo, edges repos.EdgeRepo) VoteService {
	return &voteService{
		log:      baseLog.With("service", "VoteService"),
		values:   values,
		contexts: contexts,
		edges:    edges,
	}
}

func (s *voteService) Cast(ctx context.Context, deliberationID uuid.UUID, in VoteInput) (*types.Edge, error) {
	userID := strings.TrimSpace(in.UserID)
	if userID == "" {
		return nil, apierr.InvalidArgument("missing user_id")
	}
	contextID := strings.TrimSpace(in.ContextID)
	if contextID == "" {
		return nil, apierr.InvalidArgument("missing context_id")
	}
	vt, err := types.ParseVoteType(in.Type)
	if err != nil {
		return nil, apierr.InvalidArgument(err.Error())
	}
	if in.FromValueID == uuid.Nil || in.ToValueID == uuid.Nil {
		return nil, apierr.InvalidArgument("missing value ids")
	}
	if in.FromValueID == in.ToValueID {
		return nil, apierr.Invariant("a vote needs two distinct values")
	}

	dbc := dbctx.Context{Ctx: ctx}
	found, err := s.values.GetByIDs(dbc, deliberationID, []uuid.UUID{in.FromValueID, in.ToValueID})
	if err != nil {
		return nil, fmt.Errorf("load values: %w", err)
	}
	if len(found) != 2 {
		return nil, apierr.NotFound("value not found in deliberation")
	}
	c, err := s.contexts.Get(dbc, deliberationID, contextID)
	if err != nil {
		return nil, fmt.Errorf("load context: %w", err)
	}
	if c == nil {
		return nil, apierr.NotFound(fmt.Sprintf("context %q not found", contextID))
	}

	row := &types.Edge{
		ID:             uuid.New(),
		DeliberationID: deliberationID,
		UserID:         userID,
		FromValueID:    in.FromValueID,
		ToValueID:      in.ToValueID,
		ContextID:      contextID,
		Type:           vt,
		Comment:        in.Comment,
		Story:          in.Story,
	}
	if err := s.edges.Upsert(dbc, row); err != nil {
		return nil, fmt.Errorf("upsert vote: %w", err)
	}
	s.log.Debug("Vote cast", "deliberation_id", deliberationID, "user_id", userID, "type", string(vt))
	return row, nil
}
