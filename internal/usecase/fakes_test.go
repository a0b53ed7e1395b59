package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
)

var fixedNow = time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewMetrics("test", prometheus.NewRegistry())
}

func gibraltarQuery() entity.Query {
	return entity.Query{
		Port:         "Gibraltar",
		ArrivalDate:  "2024-12-15",
		ActivityType: "Charter",
		YachtFlag:    "Malta",
	}
}

// memCacheRepo is an in-memory CacheRepository
type memCacheRepo struct {
	mu      sync.Mutex
	entries map[string]*entity.CacheEntry
	getErr  error
	putErr  error
	puts    int
	deletes int
}

func newMemCacheRepo() *memCacheRepo {
	return &memCacheRepo{entries: make(map[string]*entity.CacheEntry)}
}

func (m *memCacheRepo) Get(ctx context.Context, key string) (*entity.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	e, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Payload = e.Payload.Clone()
	return &cp, nil
}

func (m *memCacheRepo) Put(ctx context.Context, entry *entity.CacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.putErr != nil {
		return m.putErr
	}
	cp := *entry
	cp.Payload = entry.Payload.Clone()
	m.entries[entry.Key] = &cp
	m.puts++
	return nil
}

func (m *memCacheRepo) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	m.deletes++
	return nil
}

func (m *memCacheRepo) List(ctx context.Context) ([]*entity.CacheEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]string, 0, len(m.entries))
	for k := range m.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*entity.CacheEntry, 0, len(keys))
	for _, k := range keys {
		cp := *m.entries[k]
		out = append(out, &cp)
	}
	return out, nil
}

func (m *memCacheRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// fakeResearch answers by function
type fakeResearch struct {
	ask   func(ctx context.Context, prompt string) (string, error)
	calls atomic.Int32
}

func (f *fakeResearch) Ask(ctx context.Context, prompt string) (string, error) {
	f.calls.Add(1)
	return f.ask(ctx, prompt)
}

// fakeSynthesis answers by function and records the last request
type fakeSynthesis struct {
	mu       sync.Mutex
	complete func(ctx context.Context, req repository.SynthesisRequest) (string, error)
	last     repository.SynthesisRequest
	calls    int
}

func (f *fakeSynthesis) Complete(ctx context.Context, req repository.SynthesisRequest) (string, error) {
	f.mu.Lock()
	f.last = req
	f.calls++
	f.mu.Unlock()
	return f.complete(ctx, req)
}

func (f *fakeSynthesis) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// stubProducer returns a canned result
type stubProducer struct {
	id       string
	domain   string
	findings string
	err      string
	panics   bool
	calls    atomic.Int32
}

func (s *stubProducer) ID() string     { return s.id }
func (s *stubProducer) Domain() string { return s.domain }

func (s *stubProducer) Research(ctx context.Context, q entity.Query) *entity.ProducerResult {
	s.calls.Add(1)
	if s.panics {
		panic("producer exploded")
	}
	r := &entity.ProducerResult{
		ProducerID:  s.id,
		Name:        s.id + " agent",
		Domain:      s.domain,
		Query:       q,
		CompletedAt: fixedNow,
	}
	if s.err != "" {
		reason := s.err
		r.Status = entity.ResearchFailed
		r.Error = &reason
		return r
	}
	findings := s.findings
	r.Status = entity.ResearchSuccess
	r.Findings = &findings
	return r
}

func stubProducers(failing ...string) []*stubProducer {
	failed := map[string]bool{}
	for _, d := range failing {
		failed[d] = true
	}
	domains := []string{entity.DomainETA, entity.DomainClearance, entity.DomainImportation, entity.DomainPortOperations}
	out := make([]*stubProducer, 0, len(domains))
	for _, d := range domains {
		p := &stubProducer{id: d, domain: d, findings: "findings for " + d}
		if failed[d] {
			p.err = d + " backend unavailable"
		}
		out = append(out, p)
	}
	return out
}

func asProducers(stubs []*stubProducer) []Producer {
	out := make([]Producer, len(stubs))
	for i, s := range stubs {
		out[i] = s
	}
	return out
}

func resultsFor(q entity.Query, stubs []*stubProducer) []*entity.ProducerResult {
	out := make([]*entity.ProducerResult, len(stubs))
	for i, s := range stubs {
		out[i] = s.Research(context.Background(), q)
	}
	return out
}

// synthesizerFunc adapts a function to Synthesizer
type synthesizerFunc func(ctx context.Context, q entity.Query, results []*entity.ProducerResult) (*entity.AggregatedDocument, string)

func (f synthesizerFunc) Synthesize(ctx context.Context, q entity.Query, results []*entity.ProducerResult) (*entity.AggregatedDocument, string) {
	return f(ctx, q, results)
}

// validSynthesisJSON returns a schema-complete synthesis answer
func validSynthesisJSON(recommendation string, riskFactors, requiredActions []string) string {
	section := func() map[string]any { return map[string]any{"summary": "Documented", "source_url": nil} }
	doc := map[string]any{
		"port_formalities": map[string]any{
			entity.SectionETANotification:       section(),
			entity.SectionClearanceProcedure:    section(),
			entity.SectionTemporaryImportation:  section(),
			entity.SectionBerthingOperations:    section(),
			entity.SectionRequiredDocumentation: section(),
			entity.SectionPortServices:          section(),
			entity.SectionLocalRegulations:      section(),
		},
		"summary":            []string{"ETA 48h", "Clear at customs dock"},
		"operational_alerts": []string{},
		"go_no_go_decision": map[string]any{
			"recommendation":     recommendation,
			"confidence_level":   entity.ConfidenceMedium,
			"ready_to_proceed":   []string{"Vessel documents in order"},
			"required_actions":   requiredActions,
			"risk_factors":       riskFactors,
			"critical_deadlines": []string{},
		},
		"metadata": map[string]any{
			"port_name":    "Somewhere Else",
			"generated_at": "1999-01-01T00:00:00Z",
			"disclaimer":   "",
			"cache_used":   true,
		},
	}
	data, _ := json.Marshal(doc)
	return string(data)
}

var errBackendDown = errors.New("backend down")

// memRequestRepo is an in-memory RequestRepository
type memRequestRepo struct {
	mu         sync.Mutex
	requests   map[string]*entity.ChecklistRequest
	checklists map[string]*entity.AggregatedDocument
	history    map[string][]string
	saveErr    error
}

func newMemRequestRepo() *memRequestRepo {
	return &memRequestRepo{
		requests:   make(map[string]*entity.ChecklistRequest),
		checklists: make(map[string]*entity.AggregatedDocument),
		history:    make(map[string][]string),
	}
}

func (m *memRequestRepo) Create(ctx context.Context, req *entity.ChecklistRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.ID] = &cp
	m.history[req.ID] = append(m.history[req.ID], req.Status)
	return nil
}

func (m *memRequestRepo) FindByID(ctx context.Context, id string) (*entity.ChecklistRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRequestRepo) UpdateStatus(ctx context.Context, id, status, errorDetail string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	r.ErrorDetail = errorDetail
	m.history[id] = append(m.history[id], status)
	return nil
}

func (m *memRequestRepo) SaveChecklist(ctx context.Context, requestID string, doc *entity.AggregatedDocument) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.checklists[requestID] = doc.Clone()
	return nil
}

func (m *memRequestRepo) FindChecklist(ctx context.Context, requestID string) (*entity.AggregatedDocument, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.checklists[requestID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return doc.Clone(), nil
}

func (m *memRequestRepo) statusHistory(id string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.history[id]...)
}
