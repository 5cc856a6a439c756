package models

import (
	"time"

	"github.com/google/uuid"
)

// Prompt is a single sellable prompt. PackID is nil for free-standing prompts.
type Prompt struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	PackID    *uuid.UUID `gorm:"column:pack_id;type:uuid;index"`
	Title     string     `gorm:"column:title;not null"`
	Body      string     `gorm:"column:body;not null"`
	Platform  string     `gorm:"column:platform;not null;default:'generic'"`
	Kind      string     `gorm:"column:kind;not null;default:'text'"`
	Free      bool       `gorm:"column:free;not null;default:false"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
