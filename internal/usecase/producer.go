package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/logger"
)

// Producer researches one regulatory sub-domain for a query
type Producer interface {
	// ID returns a stable identifier used in logs and metrics
	ID() string

	// Domain returns the research domain tag
	Domain() string

	// Research never returns nil and never panics; failures are reported in the result
	Research(ctx context.Context, q entity.Query) *entity.ProducerResult
}

// ResearchProducer asks the research backend a single domain-specific question
type ResearchProducer struct {
	id             string
	name           string
	domain         string
	specialization string
	prompt         PromptBuilder
	research       repository.ResearchRepository
	timeout        time.Duration
	logger         logger.Logger
	now            func() time.Time
}

// NewResearchProducer creates a producer for an arbitrary research domain
func NewResearchProducer(
	id, name, domain, specialization string,
	prompt PromptBuilder,
	research repository.ResearchRepository,
	timeout time.Duration,
	logger logger.Logger,
) *ResearchProducer {
	return &ResearchProducer{
		id:             id,
		name:           name,
		domain:         domain,
		specialization: specialization,
		prompt:         prompt,
		research:       research,
		timeout:        timeout,
		logger:         logger.With("producer", id),
		now:            time.Now,
	}
}

// ID returns the producer id
func (p *ResearchProducer) ID() string { return p.id }

// Domain returns the research domain
func (p *ResearchProducer) Domain() string { return p.domain }

// Name returns the display name
func (p *ResearchProducer) Name() string { return p.name }

// Research runs the query against the research backend
func (p *ResearchProducer) Research(ctx context.Context, q entity.Query) (result *entity.ProducerResult) {
	start := p.now()
	result = &entity.ProducerResult{
		ProducerID:     p.id,
		Name:           p.name,
		Domain:         p.domain,
		Specialization: p.specialization,
		Query:          q,
		Status:         entity.ResearchFailed,
	}

	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Producer panicked", "panic", r)
			p.fail(result, fmt.Sprintf("producer panic: %v", r))
		}
		result.CompletedAt = p.now()
		result.DurationMS = result.CompletedAt.Sub(start).Milliseconds()
	}()

	p.logger.Info("Starting research", "port", q.Port, "domain", p.domain)

	prompt, err := p.prompt(q)
	if err != nil {
		p.logger.Error("Failed to build prompt", "error", err)
		p.fail(result, err.Error())
		return result
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	answer, err := p.research.Ask(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("%s timed out after %s: %w", p.name, p.timeout, err)
		}
		p.logger.Warn("Research failed", "error", err)
		p.fail(result, err.Error())
		return result
	}
	if strings.TrimSpace(answer) == "" {
		p.logger.Warn("Research returned an empty answer")
		p.fail(result, p.name+" returned an empty answer")
		return result
	}

	result.Status = entity.ResearchSuccess
	result.Findings = &answer
	result.Error = nil

	p.logger.Info("Research completed", "chars", len(answer))
	return result
}

func (p *ResearchProducer) fail(result *entity.ProducerResult, reason string) {
	result.Status = entity.ResearchFailed
	result.Findings = nil
	result.Error = &reason
}
