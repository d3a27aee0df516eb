package values

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deliberation scopes every question, value, context and vote.
type Deliberation struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Deliberation) TableName() string { return "deliberation" }

func (d *Deliberation) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
