package usecase

import (
	"time"

	"portcall-service/internal/domain/entity"
)

// SafeStage names the pipeline stage that could not produce a document
type SafeStage string

// Safe document stages
const (
	SafeStageSynthesis     SafeStage = "synthesis"
	SafeStageOrchestration SafeStage = "orchestration"
)

// Section summaries of safe documents
const (
	SummaryUnavailable = "Unavailable"
	SummarySystemError = "System error"
)

// StandardDisclaimer is attached to every synthesized document
const StandardDisclaimer = "The information above is generated automatically from research sources. " +
	"It does not replace human validation with the port or local authorities. " +
	"Always verify critical data before any operation."

const (
	synthesisErrorDisclaimer = "AI SYNTHESIS ERROR - The information above is incomplete. " +
		"Human validation with the port or local authorities is MANDATORY before any operation."
	systemErrorDisclaimer = "SYSTEM ERROR - No reliable information could be produced. " +
		"Immediate human intervention is required: contact the port authorities directly."
)

// DefaultAISources lists the backends named in document metadata
var DefaultAISources = []string{"Perplexity AI", "OpenAI GPT-4"}

// BuildSafeDocument returns the deterministic NO-GO document for a failed stage.
// Only metadata.generated_at depends on now.
func BuildSafeDocument(q entity.Query, stage SafeStage, now time.Time) *entity.AggregatedDocument {
	summary := SummaryUnavailable
	disclaimer := synthesisErrorDisclaimer
	alerts := []string{
		"SYNTHESIS ERROR - All information must be verified manually",
		"Contact a local port agent immediately",
	}
	if stage == SafeStageOrchestration {
		summary = SummarySystemError
		disclaimer = systemErrorDisclaimer
		alerts = []string{
			"SYSTEM ERROR - The checklist could not be generated",
			"Immediate human intervention required",
		}
	}

	doc := &entity.AggregatedDocument{
		PortFormalities: entity.NewPortFormalities(summary),
		Summary: []string{
			"Automated synthesis failed - consult the port authorities directly",
			"Verify clearance procedures manually",
			"Verify temporary importation and VAT rules manually",
			"Contact the marina for berthing",
			"Prepare the required documentation",
			"Confirm port services and local regulations with the authorities",
		},
		OperationalAlerts: alerts,
		Decision: entity.Decision{
			Recommendation:  entity.RecommendationNoGo,
			ConfidenceLevel: entity.ConfidenceHigh,
			ReadyToProceed:  []string{},
			RequiredActions: []string{
				"Complete manual verification of every requirement",
				"Contact a local maritime agent before any operation",
				"Confirm all information with the port authorities",
			},
			RiskFactors: []string{
				"Information incomplete or missing",
				"Automated synthesis failed - reliability compromised",
				"Risk of regulatory non-compliance",
			},
			CriticalDeadlines: []string{"Immediate human validation required"},
		},
		Metadata: entity.Metadata{
			PortName:     q.Port,
			ArrivalDate:  q.ArrivalDate,
			ActivityType: q.ActivityType,
			YachtFlag:    q.YachtFlag,
			Country:      q.Country,
			GeneratedAt:  now.UTC().Format(time.RFC3339),
			AISources:    append([]string(nil), DefaultAISources...),
			AgentsUsed:   []string{},
			Disclaimer:   disclaimer,
		},
	}
	if stage == SafeStageSynthesis {
		doc.Metadata.SynthesisStatus = entity.SynthesisFailedWithFallback
	}
	return doc
}
