package optimizer

import (
	"github.com/google/uuid"

	"github.com/promptdeck/promptdeck-backend/pkg/db/models"
)

// OptimizeInput holds the validated payload for one optimizer invocation.
type OptimizeInput struct {
	UserID   uuid.UUID
	Text     string
	Platform string
}

// OptimizeResult carries the rewritten prompt plus its audit record.
type OptimizeResult struct {
	Output string
	Model  string
	Run    *models.OptimizationRun
}

// RunList is one page of optimization runs.
type RunList struct {
	Items      []models.OptimizationRun
	NextCursor string
}
