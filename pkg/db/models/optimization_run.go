package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/enums"
)

// OptimizationRun is the audit record of one prompt-optimizer invocation.
type OptimizationRun struct {
	ID         uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID                `gorm:"column:user_id;type:uuid;not null;index"`
	Platform   string                   `gorm:"column:platform;not null;default:'generic'"`
	InputText  string                   `gorm:"column:input_text;not null"`
	OutputText string                   `gorm:"column:output_text;not null;default:''"`
	Model      string                   `gorm:"column:model;not null;default:''"`
	Status     enums.OptimizationStatus `gorm:"column:status;type:optimization_status;not null"`
	DurationMS int64                    `gorm:"column:duration_ms;not null;default:0"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
}
