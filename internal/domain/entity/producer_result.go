package entity

import "time"

// Research status
const (
	ResearchSuccess = "success"
	ResearchFailed  = "failed"
)

// Research domains
const (
	DomainETA            = "eta_isps"
	DomainClearance      = "clearance"
	DomainImportation    = "importation"
	DomainPortOperations = "port_operations"
)

// ProducerResult represents the outcome of one producer invocation
type ProducerResult struct {
	ProducerID     string    `json:"producer_id"`
	Name           string    `json:"agent"`
	Domain         string    `json:"domain"`
	Specialization string    `json:"specialization,omitempty"`
	Query          Query     `json:"query"`
	Status         string    `json:"status"`
	Findings       *string   `json:"raw_data"`
	Error          *string   `json:"error,omitempty"`
	CompletedAt    time.Time `json:"timestamp"`
	DurationMS     int64     `json:"duration_ms"`
}

// Succeeded reports whether the producer returned findings
func (r *ProducerResult) Succeeded() bool {
	return r != nil && r.Status == ResearchSuccess && r.Findings != nil
}

// ErrorText returns the failure reason or an empty string
func (r *ProducerResult) ErrorText() string {
	if r == nil || r.Error == nil {
		return ""
	}
	return *r.Error
}
