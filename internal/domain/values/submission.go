package values

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// RawSubmission is a participant's articulation before deduplication.
// CanonicalValueID is written exactly once.
type RawSubmission struct {
	ID               uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	DeliberationID   uuid.UUID                   `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	QuestionID       *uuid.UUID                  `gorm:"type:uuid;index" json:"question_id,omitempty"`
	UserID           string                      `gorm:"column:user_id;not null;index" json:"user_id"`
	Title            string                      `gorm:"column:title;not null" json:"title"`
	Description      string                      `gorm:"column:description;type:text" json:"description"`
	Policies         datatypes.JSONSlice[string] `gorm:"column:policies" json:"policies"`
	CanonicalValueID *uuid.UUID                  `gorm:"type:uuid;column:canonical_value_id;index" json:"canonical_value_id,omitempty"`
	DedupedAt        *time.Time                  `gorm:"column:deduped_at" json:"deduped_at,omitempty"`
	Embedding        *pgvector.Vector            `gorm:"column:embedding;type:vector" json:"-"`
	CreatedAt        time.Time                   `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt        time.Time                   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (RawSubmission) TableName() string { return "raw_submission" }

func (s *RawSubmission) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

func (s RawSubmission) EmbeddingText() string {
	return EmbeddingText(s.Title, s.Description, s.Policies)
}
