package usecase

import (
	"time"

	"portcall-service/internal/domain/entity"
	"portcall-service/internal/domain/repository"
	"portcall-service/pkg/logger"
)

// NewETAProducer researches arrival notification and ISPS security rules
func NewETAProducer(research repository.ResearchRepository, timeout time.Duration, logger logger.Logger) *ResearchProducer {
	return NewResearchProducer(
		"eta",
		"ETA/ISPS Agent",
		entity.DomainETA,
		"Port arrival notifications and ISPS security requirements",
		templatePrompt(promptETA),
		research, timeout, logger,
	)
}

// NewClearanceProducer researches customs and immigration clearance
func NewClearanceProducer(research repository.ResearchRepository, timeout time.Duration, logger logger.Logger) *ResearchProducer {
	return NewResearchProducer(
		"clearance",
		"Clearance Agent",
		entity.DomainClearance,
		"Customs, immigration clearance procedures and required documentation",
		templatePrompt(promptClearance),
		research, timeout, logger,
	)
}

// NewImportationProducer researches temporary importation and VAT.
// The prompt names the query country, or a generic placeholder when none is given.
func NewImportationProducer(research repository.ResearchRepository, timeout time.Duration, logger logger.Logger) *ResearchProducer {
	return NewResearchProducer(
		"importation",
		"Importation Agent",
		entity.DomainImportation,
		"Temporary importation rules and VAT obligations",
		templatePrompt(promptImportation),
		research, timeout, logger,
	)
}

// NewPortOperationsProducer researches berthing, port services and local regulations
func NewPortOperationsProducer(research repository.ResearchRepository, timeout time.Duration, logger logger.Logger) *ResearchProducer {
	return NewResearchProducer(
		"port_operations",
		"Port Operations Agent",
		entity.DomainPortOperations,
		"Port berthing, fuel services, waste management, and local regulations",
		templatePrompt(promptPortOperations),
		research, timeout, logger,
	)
}

// DefaultProducers returns the four research producers in document order
func DefaultProducers(research repository.ResearchRepository, timeout time.Duration, logger logger.Logger) []Producer {
	return []Producer{
		NewETAProducer(research, timeout, logger),
		NewClearanceProducer(research, timeout, logger),
		NewImportationProducer(research, timeout, logger),
		NewPortOperationsProducer(research, timeout, logger),
	}
}
