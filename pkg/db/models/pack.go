package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Pack is a curated bundle of prompts sold as one purchase.
type Pack struct {
	ID          uuid.UUID      `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Slug        string         `gorm:"column:slug;not null;uniqueIndex"`
	Title       string         `gorm:"column:title;not null"`
	Description string         `gorm:"column:description;not null;default:''"`
	PriceCents  int64          `gorm:"column:price_cents;not null"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[];default:ARRAY[]::text[]"`
	Published   bool           `gorm:"column:published;not null;default:false"`
	CreatedAt   time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
