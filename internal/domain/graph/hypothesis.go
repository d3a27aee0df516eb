package graph

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Direction string

const (
	DirectionForward Direction = "forward"
	// DirectionReverse marks the control hypothesis arguing the opposite order.
	DirectionReverse Direction = "reverse"
)

// EdgeHypothesis is a candidate upgrade shown to participants for a vote.
type EdgeHypothesis struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	DeliberationID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	FromValueID     uuid.UUID  `gorm:"type:uuid;column:from_value_id;not null;uniqueIndex:idx_hypothesis_pair,priority:1,where:archived_at IS NULL" json:"from_value_id"`
	ToValueID       uuid.UUID  `gorm:"type:uuid;column:to_value_id;not null;uniqueIndex:idx_hypothesis_pair,priority:2" json:"to_value_id"`
	ContextID       string     `gorm:"column:context_id;not null;uniqueIndex:idx_hypothesis_pair,priority:3;index" json:"context_id"`
	Story           string     `gorm:"column:story;type:text" json:"story"`
	HypothesisRunID string     `gorm:"column:hypothesis_run_id;index" json:"hypothesis_run_id"`
	Direction       Direction  `gorm:"column:direction;not null" json:"direction"`
	ArchivedAt      *time.Time `gorm:"column:archived_at;index" json:"archived_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (EdgeHypothesis) TableName() string { return "edge_hypothesis" }

func (h *EdgeHypothesis) BeforeCreate(tx *gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
