package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/logger"
	"portcall-service/pkg/metrics"
	"portcall-service/pkg/utils"
)

const synthesisTemperature = 0.3

// Synthesizer merges producer results into one document
type Synthesizer interface {
	// Synthesize always returns a well-formed document and its synthesis status
	Synthesize(ctx context.Context, q entity.Query, results []*entity.ProducerResult) (*entity.AggregatedDocument, string)
}

// Aggregator merges research findings through the synthesis backend
type Aggregator struct {
	synthesis repository.SynthesisRepository
	timeout   time.Duration
	logger    logger.Logger
	metrics   *metrics.Metrics
	now       func() time.Time
}

// NewAggregator creates a new synthesis aggregator
func NewAggregator(
	synthesis repository.SynthesisRepository,
	timeout time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Aggregator {
	return &Aggregator{
		synthesis: synthesis,
		timeout:   timeout,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

// Synthesize merges results into a document. Any failure yields the synthesis fallback.
func (a *Aggregator) Synthesize(ctx context.Context, q entity.Query, results []*entity.ProducerResult) (doc *entity.AggregatedDocument, status string) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Synthesis panicked", "panic", r)
			doc, status = a.fallback(q, results, fmt.Sprintf("synthesis panic: %v", r))
		}
		a.metrics.SynthesisOutcomes.WithLabelValues(status).Inc()
	}()

	succeeded := 0
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		}
	}
	if succeeded == 0 {
		a.logger.Warn("No producer succeeded, skipping synthesis backend", "port", q.Port)
		return a.fallback(q, results, "no research findings available")
	}

	doc, err := a.merge(ctx, q, results)
	if err != nil {
		a.logger.Error("Synthesis failed", "port", q.Port, "error", err)
		a.metrics.ErrorsCount.WithLabelValues("synthesis").Inc()
		return a.fallback(q, results, err.Error())
	}

	a.normalize(doc, q, results)
	a.logger.Info("Synthesis completed",
		"port", q.Port,
		"recommendation", doc.Decision.Recommendation,
		"confidence", doc.Decision.ConfidenceLevel)
	return doc, entity.SynthesisSuccess
}

func (a *Aggregator) merge(ctx context.Context, q entity.Query, results []*entity.ProducerResult) (*entity.AggregatedDocument, error) {
	systemPrompt, err := renderPrompt(promptSynthesisSys, nil)
	if err != nil {
		return nil, err
	}
	userPrompt, err := renderPrompt(promptSynthesisUser, synthesisPromptData{
		Query:      q,
		Results:    results,
		Context:    buildResearchContext(results),
		Disclaimer: StandardDisclaimer,
	})
	if err != nil {
		return nil, err
	}

	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	raw, err := a.synthesis.Complete(ctx, repository.SynthesisRequest{
		SystemPrompt: systemPrompt,
		UserPrompt:   userPrompt,
		Temperature:  synthesisTemperature,
	})
	if err != nil {
		return nil, fmt.Errorf("synthesis backend: %w", err)
	}

	object, err := utils.ExtractJSONObject(raw)
	if err != nil {
		return nil, fmt.Errorf("synthesis output %q: %w", utils.Truncate(raw, 120), err)
	}

	var doc entity.AggregatedDocument
	if err := json.Unmarshal([]byte(object), &doc); err != nil {
		return nil, fmt.Errorf("failed to decode synthesis output: %w", err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

func (a *Aggregator) fallback(q entity.Query, results []*entity.ProducerResult, reason string) (*entity.AggregatedDocument, string) {
	a.logger.Warn("Using synthesis fallback document", "port", q.Port, "reason", reason)
	doc := BuildSafeDocument(q, SafeStageSynthesis, a.now())
	doc.Metadata.AgentsUsed = agentNames(results)
	doc.Metadata.AgentsStatus = agentStatuses(results)
	return doc, entity.SynthesisFailedWithFallback
}

// normalize overwrites what the backend must not decide and enforces the decision policy
func (a *Aggregator) normalize(doc *entity.AggregatedDocument, q entity.Query, results []*entity.ProducerResult) {
	doc.EnsureLists()

	doc.Orchestration = nil
	doc.Metadata.PortName = q.Port
	doc.Metadata.ArrivalDate = q.ArrivalDate
	doc.Metadata.ActivityType = q.ActivityType
	doc.Metadata.YachtFlag = q.YachtFlag
	doc.Metadata.Country = q.Country
	doc.Metadata.GeneratedAt = a.now().UTC().Format(time.RFC3339)
	doc.Metadata.CacheUsed = false
	doc.Metadata.CacheAgeHours = 0
	doc.Metadata.AgentsStatus = agentStatuses(results)
	doc.Metadata.SynthesisStatus = entity.SynthesisSuccess
	if len(doc.Metadata.AISources) == 0 {
		doc.Metadata.AISources = append([]string(nil), DefaultAISources...)
	}
	if len(doc.Metadata.AgentsUsed) == 0 {
		doc.Metadata.AgentsUsed = agentNames(results)
	}
	if strings.TrimSpace(doc.Metadata.Disclaimer) == "" {
		doc.Metadata.Disclaimer = StandardDisclaimer
	}

	applyDecisionPolicy(&doc.Decision, results)
}

// applyDecisionPolicy forces NO-GO when research is missing and downgrades
// GO to CONDITIONAL while actions or risks remain
func applyDecisionPolicy(d *entity.Decision, results []*entity.ProducerResult) {
	for _, r := range results {
		if r == nil || r.Succeeded() {
			continue
		}
		d.Recommendation = entity.RecommendationNoGo
		d.RequiredActions = appendUnique(d.RequiredActions,
			fmt.Sprintf("Manually verify %s requirements: %s research is unavailable", r.Domain, r.Name))
		d.RiskFactors = appendUnique(d.RiskFactors,
			fmt.Sprintf("Missing %s information", r.Domain))
	}

	if d.Recommendation == entity.RecommendationGo && (len(d.RiskFactors) > 0 || len(d.RequiredActions) > 0) {
		d.Recommendation = entity.RecommendationConditional
	}
}

func agentStatuses(results []*entity.ProducerResult) map[string]string {
	statuses := make(map[string]string, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		statuses[r.Domain] = r.Status
	}
	return statuses
}

func agentNames(results []*entity.ProducerResult) []string {
	names := make([]string, 0, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		names = append(names, r.Name)
	}
	return names
}

func appendUnique(list []string, item string) []string {
	for _, existing := range list {
		if existing == item {
			return list
		}
	}
	return append(list, item)
}
