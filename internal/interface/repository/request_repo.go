package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormRequestRepository implements the RequestRepository interface
type GormRequestRepository struct {
	db *gorm.DB
}

// NewGormRequestRepository creates a new GORM request repository
func NewGormRequestRepository(db *gorm.DB) repository.RequestRepository {
	return &GormRequestRepository{
		db: db,
	}
}

// Requests GORM model for database mapping
type Requests struct {
	ID           string    `gorm:"column:id;primaryKey;type:varchar(36)"`
	UserID       string    `gorm:"column:user_id;index"`
	PortName     string    `gorm:"column:port_name"`
	ArrivalDate  string    `gorm:"column:arrival_date"`
	ActivityType string    `gorm:"column:activity_type"`
	YachtFlag    string    `gorm:"column:yacht_flag"`
	Country      string    `gorm:"column:country"`
	Status       string    `gorm:"column:status;index"`
	ErrorDetail  string    `gorm:"column:error_detail"`
	CreatedAt    time.Time `gorm:"column:created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at"`
}

// TableName overrides the default table name
func (Requests) TableName() string {
	return "requests"
}

// Checklists GORM model for database mapping
type Checklists struct {
	RequestID string         `gorm:"column:request_id;primaryKey;type:varchar(36)"`
	Content   datatypes.JSON `gorm:"column:content"`
	CreatedAt time.Time      `gorm:"column:created_at"`
}

// TableName overrides the default table name
func (Checklists) TableName() string {
	return "checklists"
}

// MigrateRequestTables creates or updates the request tables
func MigrateRequestTables(db *gorm.DB) error {
	return db.AutoMigrate(&Requests{}, &Checklists{})
}

// Create inserts a new request
func (r *GormRequestRepository) Create(ctx context.Context, req *entity.ChecklistRequest) error {
	model := Requests{
		ID:           req.ID,
		UserID:       req.UserID,
		PortName:     req.Query.Port,
		ArrivalDate:  req.Query.ArrivalDate,
		ActivityType: req.Query.ActivityType,
		YachtFlag:    req.Query.YachtFlag,
		Country:      req.Query.Country,
		Status:       req.Status,
		ErrorDetail:  req.ErrorDetail,
	}

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	req.CreatedAt = model.CreatedAt
	req.UpdatedAt = model.UpdatedAt

	return nil
}

// FindByID finds a request by its id
func (r *GormRequestRepository) FindByID(ctx context.Context, id string) (*entity.ChecklistRequest, error) {
	var model Requests
	result := r.db.WithContext(ctx).Where("id = ?", id).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, result.Error
	}

	return &entity.ChecklistRequest{
		ID:     model.ID,
		UserID: model.UserID,
		Query: entity.Query{
			Port:         model.PortName,
			ArrivalDate:  model.ArrivalDate,
			ActivityType: model.ActivityType,
			YachtFlag:    model.YachtFlag,
			Country:      model.Country,
		},
		Status:      model.Status,
		ErrorDetail: model.ErrorDetail,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}, nil
}

// UpdateStatus moves a request to a new status
func (r *GormRequestRepository) UpdateStatus(ctx context.Context, id, status, errorDetail string) error {
	result := r.db.WithContext(ctx).Model(&Requests{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":       status,
		"error_detail": errorDetail,
		"updated_at":   time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// SaveChecklist stores the final document for a request, replacing any earlier one
func (r *GormRequestRepository) SaveChecklist(ctx context.Context, requestID string, doc *entity.AggregatedDocument) error {
	content, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("failed to marshal checklist: %w", err)
	}

	model := Checklists{
		RequestID: requestID,
		Content:   datatypes.JSON(content),
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"content"}),
	}).Create(&model).Error
}

// FindChecklist returns the stored document for a request
func (r *GormRequestRepository) FindChecklist(ctx context.Context, requestID string) (*entity.AggregatedDocument, error) {
	var model Checklists
	result := r.db.WithContext(ctx).Where("request_id = ?", requestID).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, result.Error
	}

	var doc entity.AggregatedDocument
	if err := json.Unmarshal(model.Content, &doc); err != nil {
		return nil, fmt.Errorf("failed to unmarshal checklist: %w", err)
	}
	return &doc, nil
}
