package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Edge is one participant's judgment that ToValue is (or is not) a wiser way
// to act than FromValue in a context. The latest vote per pair wins.
type Edge struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	DeliberationID uuid.UUID `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	UserID         string    `gorm:"column:user_id;not null;uniqueIndex:idx_edge_user_pair,priority:1" json:"user_id"`
	FromValueID    uuid.UUID `gorm:"type:uuid;column:from_value_id;not null;uniqueIndex:idx_edge_user_pair,priority:2;index" json:"from_value_id"`
	ToValueID      uuid.UUID `gorm:"type:uuid;column:to_value_id;not null;uniqueIndex:idx_edge_user_pair,priority:3;index" json:"to_value_id"`
	ContextID      string    `gorm:"column:context_id;not null;index" json:"context_id"`
	Type           VoteType  `gorm:"column:type;not null" json:"type"`
	Comment        *string   `gorm:"column:comment;type:text" json:"comment,omitempty"`
	Story          *string   `gorm:"column:story;type:text" json:"story,omitempty"`
	CreatedAt      time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Edge) TableName() string { return "edge" }

func (e *Edge) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
