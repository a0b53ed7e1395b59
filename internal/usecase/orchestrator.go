package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/pkg/logger"
	"portcall-service/pkg/metrics"

	"golang.org/x/sync/errgroup"
)

// OrchestratorName is recorded in orchestration metadata
const OrchestratorName = "PortCall Orchestrator"

// SuperintendentKey is the synthesis entry of orchestration agents_status
const SuperintendentKey = "superintendent"

// Orchestration states
const (
	StateCacheCheck        = "CACHE_CHECK"
	StateFanout            = "FANOUT"
	StateSynthesize        = "SYNTHESIZE"
	StateEmergencyFallback = "EMERGENCY_FALLBACK"
	StateDone              = "DONE"
)

// Orchestrator runs the cache check, research fan-out and synthesis for a query
type Orchestrator struct {
	cache             *CacheStore
	producers         []Producer
	synthesizer       Synthesizer
	version           string
	cacheWriteTimeout time.Duration
	logger            logger.Logger
	metrics           *metrics.Metrics
	now               func() time.Time
}

// NewOrchestrator creates a new orchestrator
func NewOrchestrator(
	cache *CacheStore,
	producers []Producer,
	synthesizer Synthesizer,
	version string,
	cacheWriteTimeout time.Duration,
	logger logger.Logger,
	metrics *metrics.Metrics,
) *Orchestrator {
	return &Orchestrator{
		cache:             cache,
		producers:         producers,
		synthesizer:       synthesizer,
		version:           version,
		cacheWriteTimeout: cacheWriteTimeout,
		logger:            logger,
		metrics:           metrics,
		now:               time.Now,
	}
}

// Run always returns a structurally valid document.
// Caller cancellation does not reach the pipeline; producers, synthesis and
// the cache write are bounded by their own timeouts.
func (o *Orchestrator) Run(ctx context.Context, q entity.Query) *entity.AggregatedDocument {
	start := o.now()
	log := o.logger.With("cacheKey", q.CacheKey())
	ctx = context.WithoutCancel(ctx)

	doc, results, fromCache, err := o.execute(ctx, q, log)
	if err == nil && doc == nil {
		err = errors.New("no document produced")
	}
	if err != nil {
		log.Error("Orchestration failed", "state", StateEmergencyFallback, "error", err)
		o.metrics.RunsTotal.WithLabelValues("emergency_fallback").Inc()
		o.metrics.ErrorsCount.WithLabelValues("orchestration").Inc()
		return o.emergency(q, start, err)
	}

	if fromCache {
		log.Info("Orchestration state", "state", StateDone, "cacheUsed", true)
		o.metrics.RunsTotal.WithLabelValues("cache_hit").Inc()
		return doc
	}

	elapsed := o.now().Sub(start)
	doc.Orchestration = &entity.OrchestrationMetadata{
		Orchestrator:    OrchestratorName,
		Version:         o.version,
		Architecture:    o.architecture(),
		ExecutionTimeMS: elapsed.Milliseconds(),
		Status:          entity.OrchestrationCompleted,
		AgentsStatus:    runStatuses(results, doc.Metadata.SynthesisStatus),
		RawAgentData:    rawAgentData(results),
	}

	o.store(ctx, q, doc, log)

	o.metrics.RunsTotal.WithLabelValues(doc.Metadata.SynthesisStatus).Inc()
	o.metrics.RunDuration.Observe(elapsed.Seconds())
	log.Info("Orchestration state",
		"state", StateDone,
		"recommendation", doc.Decision.Recommendation,
		"synthesisStatus", doc.Metadata.SynthesisStatus,
		"durationMs", elapsed.Milliseconds())
	return doc
}

// execute converts any panic in the pipeline into an error
func (o *Orchestrator) execute(ctx context.Context, q entity.Query, log logger.Logger) (doc *entity.AggregatedDocument, results []*entity.ProducerResult, fromCache bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			doc, results, fromCache = nil, nil, false
			err = fmt.Errorf("orchestration panic: %v", r)
		}
	}()

	log.Info("Orchestration state", "state", StateCacheCheck, "port", q.Port)
	if cached, ok := o.cache.Lookup(ctx, q); ok {
		return cached, nil, true, nil
	}

	log.Info("Orchestration state", "state", StateFanout, "producers", len(o.producers))
	results = o.fanOut(ctx, q)

	log.Info("Orchestration state", "state", StateSynthesize)
	doc, status := o.synthesizer.Synthesize(ctx, q, results)
	if doc == nil {
		return nil, results, false, errors.New("synthesizer returned no document")
	}
	doc.Metadata.SynthesisStatus = status
	return doc, results, false, nil
}

// fanOut runs every producer concurrently and waits for all of them to settle.
// Tasks never return errors so one failure cannot cancel the others.
func (o *Orchestrator) fanOut(ctx context.Context, q entity.Query) []*entity.ProducerResult {
	results := make([]*entity.ProducerResult, len(o.producers))

	var g errgroup.Group
	for i, p := range o.producers {
		g.Go(func() error {
			results[i] = o.invoke(ctx, p, q)
			return nil
		})
	}
	g.Wait()

	return results
}

func (o *Orchestrator) invoke(ctx context.Context, p Producer, q entity.Query) (result *entity.ProducerResult) {
	start := o.now()
	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("Producer escaped its boundary", "producer", p.ID(), "panic", r)
			reason := fmt.Sprintf("producer panic: %v", r)
			result = &entity.ProducerResult{
				ProducerID:  p.ID(),
				Name:        p.ID(),
				Domain:      p.Domain(),
				Query:       q,
				Status:      entity.ResearchFailed,
				Error:       &reason,
				CompletedAt: o.now(),
			}
		}
		if result == nil {
			reason := "producer returned no result"
			result = &entity.ProducerResult{
				ProducerID:  p.ID(),
				Name:        p.ID(),
				Domain:      p.Domain(),
				Query:       q,
				Status:      entity.ResearchFailed,
				Error:       &reason,
				CompletedAt: o.now(),
			}
		}

		elapsed := o.now().Sub(start)
		o.metrics.ProducerResults.WithLabelValues(p.ID(), result.Status).Inc()
		o.metrics.ProducerDuration.WithLabelValues(p.ID()).Observe(elapsed.Seconds())
		o.logger.Info("Producer settled",
			"producer", p.ID(),
			"status", result.Status,
			"durationMs", elapsed.Milliseconds())
	}()

	return p.Research(ctx, q)
}

// store writes the document with a bounded timeout that survives caller cancellation
func (o *Orchestrator) store(ctx context.Context, q entity.Query, doc *entity.AggregatedDocument, log logger.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("Cache store panicked", "panic", r)
		}
	}()

	writeCtx := ctx
	if o.cacheWriteTimeout > 0 {
		var cancel context.CancelFunc
		writeCtx, cancel = context.WithTimeout(writeCtx, o.cacheWriteTimeout)
		defer cancel()
	}
	o.cache.Store(writeCtx, q, doc)
}

// emergency builds the orchestration-stage safe document; it is never cached
func (o *Orchestrator) emergency(q entity.Query, start time.Time, cause error) *entity.AggregatedDocument {
	doc := BuildSafeDocument(q, SafeStageOrchestration, o.now())

	statuses := make(map[string]string, len(o.producers)+1)
	for _, p := range o.producers {
		statuses[p.ID()+"_agent"] = "unknown"
	}
	statuses[SuperintendentKey] = "failed"

	doc.Orchestration = &entity.OrchestrationMetadata{
		Orchestrator:    OrchestratorName,
		Version:         o.version,
		Architecture:    o.architecture(),
		ExecutionTimeMS: o.now().Sub(start).Milliseconds(),
		Status:          entity.OrchestrationEmergencyFallback,
		Error:           cause.Error(),
		AgentsStatus:    statuses,
	}
	return doc
}

func (o *Orchestrator) architecture() string {
	return fmt.Sprintf("%d-Agent Multi-Agent with AI Superintendent", len(o.producers))
}

// runStatuses keys producer statuses as <id>_agent next to the superintendent
func runStatuses(results []*entity.ProducerResult, synthesisStatus string) map[string]string {
	statuses := make(map[string]string, len(results)+1)
	for _, r := range results {
		if r == nil {
			continue
		}
		statuses[r.ProducerID+"_agent"] = r.Status
	}
	statuses[SuperintendentKey] = synthesisStatus
	return statuses
}

func rawAgentData(results []*entity.ProducerResult) map[string]*entity.ProducerResult {
	raw := make(map[string]*entity.ProducerResult, len(results))
	for _, r := range results {
		if r == nil {
			continue
		}
		raw[r.ProducerID] = r
	}
	return raw
}
