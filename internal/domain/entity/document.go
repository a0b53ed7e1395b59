package entity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Decision recommendations
const (
	RecommendationGo          = "GO"
	RecommendationConditional = "CONDITIONAL"
	RecommendationNoGo        = "NO-GO"
)

// Confidence levels
const (
	ConfidenceHigh   = "HIGH"
	ConfidenceMedium = "MEDIUM"
	ConfidenceLow    = "LOW"
)

// Synthesis status
const (
	SynthesisSuccess            = "success"
	SynthesisFailedWithFallback = "failed_with_fallback"
)

// Orchestration status
const (
	OrchestrationCompleted         = "completed"
	OrchestrationEmergencyFallback = "emergency_fallback"
)

// Section keys of port_formalities, in document order
const (
	SectionETANotification       = "eta_notification"
	SectionClearanceProcedure    = "clearance_procedure"
	SectionTemporaryImportation  = "temporary_importation"
	SectionBerthingOperations    = "berthing_operations"
	SectionRequiredDocumentation = "required_documentation"
	SectionPortServices          = "port_services"
	SectionLocalRegulations      = "local_regulations"
)

// SectionKeys lists every fixed section
var SectionKeys = []string{
	SectionETANotification,
	SectionClearanceProcedure,
	SectionTemporaryImportation,
	SectionBerthingOperations,
	SectionRequiredDocumentation,
	SectionPortServices,
	SectionLocalRegulations,
}

// SectionBase holds the fields every section carries
type SectionBase struct {
	Summary   string  `json:"summary"`
	SourceURL *string `json:"source_url"`
}

type ETANotification struct {
	SectionBase
	ETADeadline      *string `json:"eta_deadline"`
	ContactMethod    *string `json:"contact_method"`
	VHFChannels      *string `json:"vhf_channels"`
	ISPSRequired     *bool   `json:"isps_required"`
	ISPSThreshold    *string `json:"isps_threshold"`
	AnchoringAllowed *bool   `json:"anchoring_allowed"`
}

type ClearanceProcedure struct {
	SectionBase
	Location          *string `json:"location"`
	Address           *string `json:"address"`
	Hours             *string `json:"hours"`
	RequiredDocuments *string `json:"required_documents"`
	ProcessingTime    *string `json:"processing_time"`
	Fees              *string `json:"fees"`
	ContactPhone      *string `json:"contact_phone"`
	ContactEmail      *string `json:"contact_email"`
}

type TemporaryImportation struct {
	SectionBase
	TADuration          *string `json:"ta_duration"`
	TAEligible          *bool   `json:"ta_eligible"`
	ResetPossible       *bool   `json:"reset_possible"`
	ResetDistance       *string `json:"reset_distance"`
	VATApplicable       *bool   `json:"vat_applicable"`
	VATRate             *string `json:"vat_rate"`
	EUVATArea           *bool   `json:"eu_vat_area"`
	CharterRestrictions *string `json:"charter_restrictions"`
	Penalties           *string `json:"penalties"`
	CustomsOffice       *string `json:"customs_office"`
}

type BerthingOperations struct {
	SectionBase
	ReservationMethod    *string `json:"reservation_method"`
	ReservationMandatory *bool   `json:"reservation_mandatory"`
	MarinaContacts       *string `json:"marina_contacts"`
	AnchoringRegulations *string `json:"anchoring_regulations"`
	DepthRestrictions    *string `json:"depth_restrictions"`
	SizeLimitations      *string `json:"size_limitations"`
	BerthingFees         *string `json:"berthing_fees"`
}

type RequiredDocumentation struct {
	SectionBase
	CrewDocuments         *string `json:"crew_documents"`
	VesselDocuments       *string `json:"vessel_documents"`
	InsuranceRequirements *string `json:"insurance_requirements"`
	PetCertificates       *string `json:"pet_certificates"`
	HealthDeclarations    *string `json:"health_declarations"`
	CharterLicenses       *string `json:"charter_licenses"`
}

type PortServices struct {
	SectionBase
	FuelBunkering       *string `json:"fuel_bunkering"`
	WasteDisposal       *string `json:"waste_disposal"`
	ProvisioningAllowed *string `json:"provisioning_allowed"`
	RepairServices      *string `json:"repair_services"`
	AgentServices       *string `json:"agent_services"`
	EmergencyContacts   *string `json:"emergency_contacts"`
}

type LocalRegulations struct {
	SectionBase
	NoiseRestrictions    *string `json:"noise_restrictions"`
	EnvironmentalRules   *string `json:"environmental_rules"`
	SeasonalRestrictions *string `json:"seasonal_restrictions"`
	SecurityZones        *string `json:"security_zones"`
	SpecialEvents        *string `json:"special_events"`
	LocalContacts        *string `json:"local_contacts"`
}

func (s *ETANotification) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *ClearanceProcedure) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *TemporaryImportation) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *BerthingOperations) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *RequiredDocumentation) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *PortServices) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

func (s *LocalRegulations) base() *SectionBase {
	if s == nil {
		return nil
	}
	return &s.SectionBase
}

// PortFormalities groups the fixed regulatory sections.
// A nil section means the synthesis output omitted it.
type PortFormalities struct {
	ETANotification       *ETANotification       `json:"eta_notification"`
	ClearanceProcedure    *ClearanceProcedure    `json:"clearance_procedure"`
	TemporaryImportation  *TemporaryImportation  `json:"temporary_importation"`
	BerthingOperations    *BerthingOperations    `json:"berthing_operations"`
	RequiredDocumentation *RequiredDocumentation `json:"required_documentation"`
	PortServices          *PortServices          `json:"port_services"`
	LocalRegulations      *LocalRegulations      `json:"local_regulations"`
}

// NamedSection pairs a section key with its shared fields (nil when absent)
type NamedSection struct {
	Key  string
	Base *SectionBase
}

// Sections returns every section in document order
func (p *PortFormalities) Sections() []NamedSection {
	return []NamedSection{
		{Key: SectionETANotification, Base: p.ETANotification.base()},
		{Key: SectionClearanceProcedure, Base: p.ClearanceProcedure.base()},
		{Key: SectionTemporaryImportation, Base: p.TemporaryImportation.base()},
		{Key: SectionBerthingOperations, Base: p.BerthingOperations.base()},
		{Key: SectionRequiredDocumentation, Base: p.RequiredDocumentation.base()},
		{Key: SectionPortServices, Base: p.PortServices.base()},
		{Key: SectionLocalRegulations, Base: p.LocalRegulations.base()},
	}
}

// NewPortFormalities returns all sections with the given summary and null sub-fields
func NewPortFormalities(summary string) PortFormalities {
	base := func() SectionBase { return SectionBase{Summary: summary} }
	return PortFormalities{
		ETANotification:       &ETANotification{SectionBase: base()},
		ClearanceProcedure:    &ClearanceProcedure{SectionBase: base()},
		TemporaryImportation:  &TemporaryImportation{SectionBase: base()},
		BerthingOperations:    &BerthingOperations{SectionBase: base()},
		RequiredDocumentation: &RequiredDocumentation{SectionBase: base()},
		PortServices:          &PortServices{SectionBase: base()},
		LocalRegulations:      &LocalRegulations{SectionBase: base()},
	}
}

// Decision is the GO/CONDITIONAL/NO-GO synthesis
type Decision struct {
	Recommendation    string   `json:"recommendation"`
	ConfidenceLevel   string   `json:"confidence_level"`
	ReadyToProceed    []string `json:"ready_to_proceed"`
	RequiredActions   []string `json:"required_actions"`
	RiskFactors       []string `json:"risk_factors"`
	CriticalDeadlines []string `json:"critical_deadlines"`
}

// Metadata echoes the query and records how the document was produced
type Metadata struct {
	PortName        string            `json:"port_name"`
	ArrivalDate     string            `json:"arrival_date"`
	ActivityType    string            `json:"activity_type"`
	YachtFlag       string            `json:"yacht_flag"`
	Country         string            `json:"country,omitempty"`
	GeneratedAt     string            `json:"generated_at"`
	AISources       []string          `json:"ai_sources"`
	AgentsUsed      []string          `json:"agents_used"`
	Disclaimer      string            `json:"disclaimer"`
	CacheUsed       bool              `json:"cache_used"`
	CacheAgeHours   int               `json:"cache_age_hours"`
	AgentsStatus    map[string]string `json:"agents_status,omitempty"`
	SynthesisStatus string            `json:"synthesis_status,omitempty"`
}

// OrchestrationMetadata describes the run that produced the document
type OrchestrationMetadata struct {
	Orchestrator    string                     `json:"orchestrator"`
	Version         string                     `json:"version"`
	Architecture    string                     `json:"architecture"`
	ExecutionTimeMS int64                      `json:"execution_time_ms"`
	Status          string                     `json:"status"`
	Error           string                     `json:"error,omitempty"`
	AgentsStatus    map[string]string          `json:"agents_status,omitempty"`
	RawAgentData    map[string]*ProducerResult `json:"raw_agent_data,omitempty"`
}

// AggregatedDocument is the synthesized port call checklist
type AggregatedDocument struct {
	PortFormalities   PortFormalities        `json:"port_formalities"`
	Summary           []string               `json:"summary"`
	OperationalAlerts []string               `json:"operational_alerts"`
	Decision          Decision               `json:"go_no_go_decision"`
	Metadata          Metadata               `json:"metadata"`
	Orchestration     *OrchestrationMetadata `json:"orchestration_metadata,omitempty"`
}

// Validate checks the structural completeness of the document
func (d *AggregatedDocument) Validate() error {
	if d == nil {
		return fmt.Errorf("document is nil")
	}
	var problems []string
	for _, s := range d.PortFormalities.Sections() {
		if s.Base == nil {
			problems = append(problems, "missing section "+s.Key)
			continue
		}
		if strings.TrimSpace(s.Base.Summary) == "" {
			problems = append(problems, "empty summary in "+s.Key)
		}
	}
	if len(d.Summary) == 0 {
		problems = append(problems, "empty summary list")
	}
	switch d.Decision.Recommendation {
	case RecommendationGo, RecommendationConditional, RecommendationNoGo:
	default:
		problems = append(problems, fmt.Sprintf("invalid recommendation %q", d.Decision.Recommendation))
	}
	switch d.Decision.ConfidenceLevel {
	case ConfidenceHigh, ConfidenceMedium, ConfidenceLow:
	default:
		problems = append(problems, fmt.Sprintf("invalid confidence level %q", d.Decision.ConfidenceLevel))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid document: %s", strings.Join(problems, "; "))
	}
	return nil
}

// EnsureLists replaces nil lists with empty ones so they serialize as []
func (d *AggregatedDocument) EnsureLists() {
	lists := []*[]string{
		&d.Summary,
		&d.OperationalAlerts,
		&d.Decision.ReadyToProceed,
		&d.Decision.RequiredActions,
		&d.Decision.RiskFactors,
		&d.Decision.CriticalDeadlines,
		&d.Metadata.AISources,
		&d.Metadata.AgentsUsed,
	}
	for _, l := range lists {
		if *l == nil {
			*l = []string{}
		}
	}
}

// Clone returns a deep copy of the document
func (d *AggregatedDocument) Clone() *AggregatedDocument {
	if d == nil {
		return nil
	}
	data, err := json.Marshal(d)
	if err != nil {
		cp := *d
		return &cp
	}
	var out AggregatedDocument
	if err := json.Unmarshal(data, &out); err != nil {
		cp := *d
		return &cp
	}
	return &out
}
