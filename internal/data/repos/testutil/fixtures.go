package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	types "github.com/yungbote/moralgraph-backend/internal/domain"
)

func SeedDeliberation(tb testing.TB, ctx context.Context, tx *gorm.DB) *types.Deliberation {
	tb.Helper()
	d := &types.Deliberation{ID: uuid.New(), Title: "deliberation"}
	if err := tx.WithContext(ctx).Create(d).Error; err != nil {
		tb.Fatalf("seed deliberation: %v", err)
	}
	return d
}

func SeedQuestion(tb testing.TB, ctx context.Context, tx *gorm.DB, deliberationID uuid.UUID) *types.Question {
	tb.Helper()
	q := &types.Question{ID: uuid.New(), DeliberationID: deliberationID, Title: "question"}
	if err := tx.WithContext(ctx).Create(q).Error; err != nil {
		tb.Fatalf("seed question: %v", err)
	}
	return q
}

func SeedContext(tb testing.TB, ctx context.Context, tx *gorm.DB, deliberationID uuid.UUID, id string, vec []float32) *types.Context {
	tb.Helper()
	c := &types.Context{DeliberationID: deliberationID, ID: id}
	if len(vec) > 0 {
		v := pgvector.NewVector(vec)
		c.Embedding = &v
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed context: %v", err)
	}
	return c
}

func SeedQuestionContext(tb testing.TB, ctx context.Context, tx *gorm.DB, deliberationID, questionID uuid.UUID, contextID string) {
	tb.Helper()
	qc := &types.QuestionContext{QuestionID: questionID, ContextID: contextID, DeliberationID: deliberationID}
	if err := tx.WithContext(ctx).Create(qc).Error; err != nil {
		tb.Fatalf("seed question context: %v", err)
	}
}

func SeedValue(tb testing.TB, ctx context.Context, tx *gorm.DB, deliberationID uuid.UUID, title string, vec []float32) *types.Value {
	tb.Helper()
	v := &types.Value{
		ID:             uuid.New(),
		DeliberationID: deliberationID,
		Title:          title,
		Description:    title + " description",
		Policies:       datatypes.JSONSlice[string]{title + " policy"},
	}
	if len(vec) > 0 {
		pv := pgvector.NewVector(vec)
		v.Embedding = &pv
	}
	if err := tx.WithContext(ctx).Create(v).Error; err != nil {
		tb.Fatalf("seed value: %v", err)
	}
	return v
}

func SeedSubmission(tb testing.TB, ctx context.Context, tx *gorm.DB, deliberationID uuid.UUID, questionID *uuid.UUID, canonical *uuid.UUID) *types.RawSubmission {
	tb.Helper()
	s := &types.RawSubmission{
		ID:               uuid.New(),
		DeliberationID:   deliberationID,
		QuestionID:       questionID,
		UserID:           "user-" + uuid.NewString()[:8],
		Title:            "submission",
		Description:      "submission description",
		Policies:         datatypes.JSONSlice[string]{"attend to what matters"},
		CanonicalValueID: canonical,
	}
	if err := tx.WithContext(ctx).Create(s).Error; err != nil {
		tb.Fatalf("seed submission: %v", err)
	}
	return s
}
