package repository

import (
	"context"
	"errors"

	"portcall-service/internal/domain/entity"
)

// ErrNotFound is returned when a request or checklist does not exist
var ErrNotFound = errors.New("not found")

// RequestRepository defines storage for asynchronous checklist requests
type RequestRepository interface {
	Create(ctx context.Context, req *entity.ChecklistRequest) error
	FindByID(ctx context.Context, id string) (*entity.ChecklistRequest, error)
	UpdateStatus(ctx context.Context, id, status, errorDetail string) error
	SaveChecklist(ctx context.Context, requestID string, doc *entity.AggregatedDocument) error
	FindChecklist(ctx context.Context, requestID string) (*entity.AggregatedDocument, error)
}
