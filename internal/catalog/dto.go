package catalog

import (
	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
)

// CreatePackInput holds the validated payload to create a pack.
type CreatePackInput struct {
	Slug        string
	Title       string
	Description string
	PriceCents  int64
	Tags        []string
	Published   bool
}

// UpdatePackInput holds optional mutation values for a pack.
type UpdatePackInput struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Tags        *[]string
	Published   *bool
}

// CreatePromptInput holds the validated payload to create a prompt.
type CreatePromptInput struct {
	PackID   *uuid.UUID
	Title    string
	Body     string
	Platform string
	Kind     string
	Free     bool
}

// PackFilters narrows pack listings.
type PackFilters struct {
	Published *bool
	Tag       *string
}

// PackList is one page of packs.
type PackList struct {
	Items      []models.Pack
	NextCursor string
}

// PromptSummary is the public view of a prompt. Body is only present for
// free prompts; paid bodies go through the entitlement-gated detail route.
type PromptSummary struct {
	ID       uuid.UUID  `json:"id"`
	PackID   *uuid.UUID `json:"pack_id,omitempty"`
	Title    string     `json:"title"`
	Platform string     `json:"platform"`
	Kind     string     `json:"kind"`
	Free     bool       `json:"free"`
	Body     *string    `json:"body,omitempty"`
}

func summarize(prompt models.Prompt) PromptSummary {
	summary := PromptSummary{
		ID:       prompt.ID,
		PackID:   prompt.PackID,
		Title:    prompt.Title,
		Platform: prompt.Platform,
		Kind:     prompt.Kind,
		Free:     prompt.Free,
	}
	if prompt.Free {
		body := prompt.Body
		summary.Body = &body
	}
	return summary
}
