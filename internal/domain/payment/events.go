package payment

import (
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constant
const AggregateTypePaymentEvent = "PaymentEvent"

// Event type constants
const (
	EventTypePaymentCreated   = "PaymentEventCreated"
	EventTypePaymentSubmitted = "PaymentEventSubmitted"
	EventTypePaymentCancelled = "PaymentEventCancelled"
)

// PaymentEventCreatedEvent is published when a draft payment event is created
type PaymentEventCreatedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Direction Direction       `json:"direction"`
	PartyType PartyType       `json:"party_type"`
	PartyID   uuid.UUID       `json:"party_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// NewPaymentEventCreatedEvent creates a new PaymentEventCreatedEvent
func NewPaymentEventCreatedEvent(e *PaymentEvent) *PaymentEventCreatedEvent {
	return &PaymentEventCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCreated, AggregateTypePaymentEvent, e.ID),
		PaymentID:       e.ID,
		Direction:       e.Direction,
		PartyType:       e.PartyType,
		PartyID:         e.PartyID,
		Amount:          e.Amount.Amount(),
	}
}

// PaymentEventSubmittedEvent is published when a payment event is submitted
type PaymentEventSubmittedEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID       `json:"payment_id"`
	Direction  Direction       `json:"direction"`
	PartyType  PartyType       `json:"party_type"`
	PartyID    uuid.UUID       `json:"party_id"`
	ContractID *uuid.UUID      `json:"contract_id,omitempty"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewPaymentEventSubmittedEvent creates a new PaymentEventSubmittedEvent
func NewPaymentEventSubmittedEvent(e *PaymentEvent) *PaymentEventSubmittedEvent {
	return &PaymentEventSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentSubmitted, AggregateTypePaymentEvent, e.ID),
		PaymentID:       e.ID,
		Direction:       e.Direction,
		PartyType:       e.PartyType,
		PartyID:         e.PartyID,
		ContractID:      e.ContractID,
		Amount:          e.Amount.Amount(),
	}
}

// PaymentEventCancelledEvent is published when a payment event is cancelled
type PaymentEventCancelledEvent struct {
	shared.BaseDomainEvent
	PaymentID  uuid.UUID  `json:"payment_id"`
	ContractID *uuid.UUID `json:"contract_id,omitempty"`
}

// NewPaymentEventCancelledEvent creates a new PaymentEventCancelledEvent
func NewPaymentEventCancelledEvent(e *PaymentEvent) *PaymentEventCancelledEvent {
	return &PaymentEventCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePaymentCancelled, AggregateTypePaymentEvent, e.ID),
		PaymentID:       e.ID,
		ContractID:      e.ContractID,
	}
}
