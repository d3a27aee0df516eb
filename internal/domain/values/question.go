package values

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Question struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeliberationID uuid.UUID `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	Title          string    `gorm:"column:title;not null" json:"title"`
	Body           string    `gorm:"column:body;type:text" json:"body,omitempty"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Question) TableName() string { return "question" }

func (q *Question) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}

// QuestionContext attaches a context to a question. Values submitted for the
// question are eligible for hypotheses in that context.
type QuestionContext struct {
	QuestionID     uuid.UUID `gorm:"type:uuid;primaryKey" json:"question_id"`
	ContextID      string    `gorm:"column:context_id;primaryKey;index" json:"context_id"`
	DeliberationID uuid.UUID `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	Application    string    `gorm:"column:application;type:text" json:"application,omitempty"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (QuestionContext) TableName() string { return "question_context" }
