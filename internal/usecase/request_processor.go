package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/logger"
	"portcall-service/pkg/metrics"

	"github.com/google/uuid"
)

// Runner produces a checklist document for a query
type Runner interface {
	Run(ctx context.Context, q entity.Query) *entity.AggregatedDocument
}

// RequestProcessor tracks asynchronous checklist requests
type RequestProcessor struct {
	requests repository.RequestRepository
	runner   Runner
	logger   logger.Logger
	metrics  *metrics.Metrics
	wg       sync.WaitGroup
	newID    func() string
}

// NewRequestProcessor creates a new request processor
func NewRequestProcessor(
	requests repository.RequestRepository,
	runner Runner,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *RequestProcessor {
	return &RequestProcessor{
		requests: requests,
		runner:   runner,
		logger:   logger,
		metrics:  metrics,
		newID:    uuid.NewString,
	}
}

// Submit records a pending request and processes it in the background.
// The background work is detached from ctx so it outlives the HTTP request.
func (p *RequestProcessor) Submit(ctx context.Context, userID string, q entity.Query) (*entity.ChecklistRequest, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	req := &entity.ChecklistRequest{
		ID:     p.newID(),
		UserID: userID,
		Query:  q,
		Status: entity.RequestPending,
	}
	if err := p.requests.Create(ctx, req); err != nil {
		p.metrics.ErrorsCount.WithLabelValues("request_create").Inc()
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	p.logger.Info("Checklist request accepted", "requestID", req.ID, "port", q.Port)

	bg := context.WithoutCancel(ctx)
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.process(bg, req.ID, q)
	}()

	return req, nil
}

func (p *RequestProcessor) process(ctx context.Context, id string, q entity.Query) {
	log := p.logger.With("requestID", id)
	defer func() {
		if r := recover(); r != nil {
			log.Error("Request processing panicked", "panic", r)
			p.finish(ctx, id, entity.RequestFailed, fmt.Sprintf("panic: %v", r), log)
		}
	}()

	if err := p.requests.UpdateStatus(ctx, id, entity.RequestProcessing, ""); err != nil {
		log.Error("Failed to mark request processing", "error", err)
	}

	start := time.Now()
	doc := p.runner.Run(ctx, q)

	if err := p.requests.SaveChecklist(ctx, id, doc); err != nil {
		log.Error("Failed to save checklist", "error", err)
		p.metrics.ErrorsCount.WithLabelValues("checklist_save").Inc()
		p.finish(ctx, id, entity.RequestFailed, err.Error(), log)
		return
	}

	log.Info("Checklist request completed",
		"recommendation", doc.Decision.Recommendation,
		"durationMs", time.Since(start).Milliseconds())
	p.finish(ctx, id, entity.RequestCompleted, "", log)
}

func (p *RequestProcessor) finish(ctx context.Context, id, status, detail string, log logger.Logger) {
	if err := p.requests.UpdateStatus(ctx, id, status, detail); err != nil {
		log.Error("Failed to update request status", "status", status, "error", err)
	}
	p.metrics.RequestsTotal.WithLabelValues(status).Inc()
}

// Status returns the stored request
func (p *RequestProcessor) Status(ctx context.Context, id string) (*entity.ChecklistRequest, error) {
	return p.requests.FindByID(ctx, id)
}

// Checklist returns the document of a completed request
func (p *RequestProcessor) Checklist(ctx context.Context, id string) (*entity.AggregatedDocument, error) {
	return p.requests.FindChecklist(ctx, id)
}

// Wait blocks until every background request has finished
func (p *RequestProcessor) Wait() {
	p.wg.Wait()
}
