package installment

import (
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeApplication = "InstallmentApplication"
	AggregateTypeContract    = "Contract"
)

// Event type constants
const (
	EventTypeApplicationCreated   = "InstallmentApplicationCreated"
	EventTypeApplicationSubmitted = "InstallmentApplicationSubmitted"
	EventTypeApplicationCancelled = "InstallmentApplicationCancelled"
	EventTypeContractCreated      = "ContractCreated"
	EventTypeContractCancelled    = "ContractCancelled"
)

// ApplicationCreatedEvent is published when a draft application is created
type ApplicationCreatedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID       `json:"application_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
}

// NewApplicationCreatedEvent creates a new ApplicationCreatedEvent
func NewApplicationCreatedEvent(ia *InstallmentApplication) *ApplicationCreatedEvent {
	return &ApplicationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationCreated, AggregateTypeApplication, ia.ID),
		ApplicationID:   ia.ID,
		CustomerID:      ia.CustomerID,
		TotalAmount:     ia.TotalAmount.Amount(),
	}
}

// ApplicationSubmittedEvent is published when an application materializes a contract
type ApplicationSubmittedEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID       `json:"application_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	ContractID    uuid.UUID       `json:"contract_id"`
	GrandTotal    decimal.Decimal `json:"grand_total_with_interest"`
}

// NewApplicationSubmittedEvent creates a new ApplicationSubmittedEvent
func NewApplicationSubmittedEvent(ia *InstallmentApplication) *ApplicationSubmittedEvent {
	e := &ApplicationSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationSubmitted, AggregateTypeApplication, ia.ID),
		ApplicationID:   ia.ID,
		CustomerID:      ia.CustomerID,
		GrandTotal:      ia.GrandTotalWithInterest().Amount(),
	}
	if ia.ContractID != nil {
		e.ContractID = *ia.ContractID
	}
	return e
}

// ApplicationCancelledEvent is published when an application is cancelled
type ApplicationCancelledEvent struct {
	shared.BaseDomainEvent
	ApplicationID uuid.UUID `json:"application_id"`
	CustomerID    uuid.UUID `json:"customer_id"`
}

// NewApplicationCancelledEvent creates a new ApplicationCancelledEvent
func NewApplicationCancelledEvent(ia *InstallmentApplication) *ApplicationCancelledEvent {
	return &ApplicationCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeApplicationCancelled, AggregateTypeApplication, ia.ID),
		ApplicationID:   ia.ID,
		CustomerID:      ia.CustomerID,
	}
}

// ContractCreatedEvent is published when a contract is materialized
type ContractCreatedEvent struct {
	shared.BaseDomainEvent
	ContractID    uuid.UUID       `json:"contract_id"`
	ApplicationID uuid.UUID       `json:"application_id"`
	CustomerID    uuid.UUID       `json:"customer_id"`
	GrandTotal    decimal.Decimal `json:"grand_total_with_interest"`
	ScheduleRows  int             `json:"schedule_rows"`
}

// NewContractCreatedEvent creates a new ContractCreatedEvent
func NewContractCreatedEvent(c *Contract) *ContractCreatedEvent {
	return &ContractCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCreated, AggregateTypeContract, c.ID),
		ContractID:      c.ID,
		ApplicationID:   c.ApplicationID,
		CustomerID:      c.CustomerID,
		GrandTotal:      c.GrandTotalWithInterest.Amount(),
		ScheduleRows:    len(c.Schedule),
	}
}

// ContractCancelledEvent is published when a contract is cancelled
type ContractCancelledEvent struct {
	shared.BaseDomainEvent
	ContractID uuid.UUID `json:"contract_id"`
	CustomerID uuid.UUID `json:"customer_id"`
}

// NewContractCancelledEvent creates a new ContractCancelledEvent
func NewContractCancelledEvent(c *Contract) *ContractCancelledEvent {
	return &ContractCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeContractCancelled, AggregateTypeContract, c.ID),
		ContractID:      c.ID,
		CustomerID:      c.CustomerID,
	}
}
