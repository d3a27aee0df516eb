package values

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Value is a canonical, deduplicated articulation of a way of living.
type Value struct {
	ID             uuid.UUID                   `gorm:"type:uuid;primaryKey" json:"id"`
	DeliberationID uuid.UUID                   `gorm:"type:uuid;not null;index" json:"deliberation_id"`
	Title          string                      `gorm:"column:title;not null" json:"title"`
	Description    string                      `gorm:"column:description;type:text" json:"description"`
	Policies       datatypes.JSONSlice[string] `gorm:"column:policies" json:"policies"`
	Embedding      *pgvector.Vector            `gorm:"column:embedding;type:vector" json:"-"`
	CreatedAt      time.Time                   `gorm:"not null;autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (Value) TableName() string { return "value" }

func (v *Value) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// EmbeddingText is the text embedded for both values and submissions.
func EmbeddingText(title, description string, policies []string) string {
	clean := make([]string, 0, len(policies))
	for _, p := range policies {
		if p = strings.TrimSpace(p); p != "" {
			clean = append(clean, p)
		}
	}
	if len(clean) > 0 {
		return strings.Join(clean, "\n")
	}
	return strings.TrimSpace(title) + ": " + strings.TrimSpace(description)
}

func (v Value) EmbeddingText() string {
	return EmbeddingText(v.Title, v.Description, v.Policies)
}

// Vector returns the embedding as a plain slice, or nil.
func (v Value) Vector() []float32 {
	if v.Embedding == nil {
		return nil
	}
	return v.Embedding.Slice()
}
