package entity

import "time"

// Checklist request status
const (
	RequestPending    = "pending"
	RequestProcessing = "processing"
	RequestCompleted  = "completed"
	RequestFailed     = "failed"
)

// ChecklistRequest represents an asynchronous checklist request
type ChecklistRequest struct {
	ID          string
	UserID      string
	Query       Query
	Status      string
	ErrorDetail string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
