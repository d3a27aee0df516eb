package values

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// Context is a situational choice type, keyed by its natural-language id
// within a deliberation.
type Context struct {
	DeliberationID uuid.UUID        `gorm:"type:uuid;primaryKey" json:"deliberation_id"`
	ID             string           `gorm:"column:id;primaryKey" json:"id"`
	Embedding      *pgvector.Vector `gorm:"column:embedding;type:vector" json:"-"`
	CreatedAt      time.Time        `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Context) TableName() string { return "context" }

func (c Context) Vector() []float32 {
	if c.Embedding == nil {
		return nil
	}
	return c.Embedding.Slice()
}
