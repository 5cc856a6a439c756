package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/promptdeck/promptdeck-backend/pkg/db"
	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
	pkgerrors "github.com/promptdeck/promptdeck-backend/pkg/errors"
	"github.com/promptdeck/promptdeck-backend/pkg/pagination"
)

// Service exposes catalog browsing and admin authoring operations.
type Service interface {
	CreatePack(ctx context.Context, input CreatePackInput) (*models.Pack, error)
	UpdatePack(ctx context.Context, packID uuid.UUID, input UpdatePackInput) (*models.Pack, error)
	CreatePrompt(ctx context.Context, input CreatePromptInput) (*models.Prompt, error)

	GetPublishedPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error)
	ListPublishedPacks(ctx context.Context, params pagination.Params, tag *string) (*PackList, error)
	ListPublishedPackPrompts(ctx context.Context, packID uuid.UUID) ([]PromptSummary, error)

	ListPacksAdmin(ctx context.Context, params pagination.Params, filters PackFilters) (*PackList, error)
	GetPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

// CreatePack inserts a new pack. Slugs are unique across the catalog.
func (s *service) CreatePack(ctx context.Context, input CreatePackInput) (*models.Pack, error) {
	slug := strings.TrimSpace(strings.ToLower(input.Slug))
	if slug == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug required")
	}
	if input.PriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents cannot be negative")
	}

	pack := &models.Pack{
		Slug:        slug,
		Title:       input.Title,
		Description: input.Description,
		PriceCents:  input.PriceCents,
		Tags:        input.Tags,
		Published:   input.Published,
	}
	created, err := s.repo.CreatePack(ctx, pack)
	if err != nil {
		if db.IsUniqueViolation(err, "ux_packs_slug") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
				WithDetails(map[string]string{"slug": slug})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create pack")
	}
	return created, nil
}

// UpdatePack applies a partial update and returns the fresh row.
func (s *service) UpdatePack(ctx context.Context, packID uuid.UUID, input UpdatePackInput) (*models.Pack, error) {
	if packID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}

	updates := map[string]any{}
	if input.Title != nil {
		updates["title"] = *input.Title
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PriceCents != nil {
		if *input.PriceCents < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price_cents cannot be negative")
		}
		updates["price_cents"] = *input.PriceCents
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(*input.Tags)
	}
	if input.Published != nil {
		updates["published"] = *input.Published
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no fields to update")
	}

	if err := s.repo.UpdatePack(ctx, packID, updates); err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update pack")
	}

	pack, err := s.repo.FindPack(ctx, packID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload pack")
	}
	return pack, nil
}

// CreatePrompt inserts a prompt, optionally attached to an existing pack.
func (s *service) CreatePrompt(ctx context.Context, input CreatePromptInput) (*models.Prompt, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title required")
	}
	if strings.TrimSpace(input.Body) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "body required")
	}

	if input.PackID != nil {
		if _, err := s.repo.FindPack(ctx, *input.PackID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack")
		}
	}

	prompt := &models.Prompt{
		PackID:   input.PackID,
		Title:    input.Title,
		Body:     input.Body,
		Platform: defaultString(input.Platform, "generic"),
		Kind:     defaultString(input.Kind, "text"),
		Free:     input.Free,
	}
	created, err := s.repo.CreatePrompt(ctx, prompt)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create prompt")
	}
	return created, nil
}

func defaultString(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

// GetPublishedPack returns a pack visible to the public surface. Unpublished
// packs are indistinguishable from missing ones.
func (s *service) GetPublishedPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error) {
	if packID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}
	pack, err := s.repo.FindPack(ctx, packID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack")
	}
	if !pack.Published {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
	}
	return pack, nil
}

func (s *service) ListPublishedPacks(ctx context.Context, params pagination.Params, tag *string) (*PackList, error) {
	published := true
	list, err := s.repo.ListPacks(ctx, params, PackFilters{Published: &published, Tag: tag})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packs")
	}
	return list, nil
}

// ListPublishedPackPrompts lists prompt summaries for a published pack.
// Paid prompt bodies are withheld on this surface.
func (s *service) ListPublishedPackPrompts(ctx context.Context, packID uuid.UUID) ([]PromptSummary, error) {
	pack, err := s.GetPublishedPack(ctx, packID)
	if err != nil {
		return nil, err
	}

	prompts, err := s.repo.ListPackPrompts(ctx, pack.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list pack prompts")
	}

	summaries := make([]PromptSummary, 0, len(prompts))
	for _, prompt := range prompts {
		summaries = append(summaries, summarize(prompt))
	}
	return summaries, nil
}

func (s *service) ListPacksAdmin(ctx context.Context, params pagination.Params, filters PackFilters) (*PackList, error) {
	list, err := s.repo.ListPacks(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list packs")
	}
	return list, nil
}

func (s *service) GetPack(ctx context.Context, packID uuid.UUID) (*models.Pack, error) {
	if packID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "pack id required")
	}
	pack, err := s.repo.FindPack(ctx, packID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "pack not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pack")
	}
	return pack, nil
}
