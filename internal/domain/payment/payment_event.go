package payment

import (
	"fmt"
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Direction represents the direction of a payment event
type Direction string

const (
	DirectionReceive Direction = "RECEIVE" // cash in
	DirectionPay     Direction = "PAY"     // cash out
)

// IsValid checks if the direction is valid
func (d Direction) IsValid() bool {
	return d == DirectionReceive || d == DirectionPay
}

// NumberPrefix returns the naming-series prefix for the direction
func (d Direction) NumberPrefix() string {
	if d == DirectionReceive {
		return "CIN"
	}
	return "COUT"
}

// PartyType represents the counterparty type on a payment event
type PartyType string

const (
	PartyTypeCustomer    PartyType = "CUSTOMER"
	PartyTypeSupplier    PartyType = "SUPPLIER"
	PartyTypeShareholder PartyType = "SHAREHOLDER"
)

// IsValid checks if the party type is valid
func (p PartyType) IsValid() bool {
	switch p {
	case PartyTypeCustomer, PartyTypeSupplier, PartyTypeShareholder:
		return true
	}
	return false
}

// EventState represents the lifecycle state of a payment event
type EventState string

const (
	EventStateDraft     EventState = "DRAFT"
	EventStateSubmitted EventState = "SUBMITTED"
	EventStateCancelled EventState = "CANCELLED"
)

// IsValid checks if the state is valid
func (s EventState) IsValid() bool {
	switch s {
	case EventStateDraft, EventStateSubmitted, EventStateCancelled:
		return true
	}
	return false
}

// FormatNumber renders a document number in the payment naming series,
// e.g. CIN-2025-00042.
func FormatNumber(direction Direction, year, sequence int) string {
	return fmt.Sprintf("%s-%d-%05d", direction.NumberPrefix(), year, sequence)
}

// PaymentEvent is a single cash movement: a customer installment receipt, a
// supplier disbursement, a shareholder capital movement or an overhead
// expense. Only submitted events count into any aggregate.
type PaymentEvent struct {
	shared.BaseAggregateRoot
	Number         string
	Direction      Direction
	PartyType      PartyType
	PartyID        uuid.UUID
	PostingDate    time.Time
	Amount         valueobject.Money
	ModeOfPayment  string
	AccountID      uuid.UUID
	CategoryID     uuid.UUID
	ContractID     *uuid.UUID
	ScheduleRowIdx *int
	PaymentMonth   string
	Remarks        string
	State          EventState
}

// NewPaymentEvent creates a draft payment event
func NewPaymentEvent(
	number string,
	direction Direction,
	partyType PartyType,
	partyID uuid.UUID,
	postingDate time.Time,
	amount valueobject.Money,
	modeOfPayment string,
	accountID, categoryID uuid.UUID,
) (*PaymentEvent, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Payment number cannot be empty")
	}
	if !direction.IsValid() {
		return nil, shared.NewDomainError("INVALID_DIRECTION", "Payment direction must be receive or pay")
	}
	if !partyType.IsValid() {
		return nil, shared.NewDomainError("INVALID_PARTY_TYPE", "Party type is not valid")
	}
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Party cannot be empty")
	}
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if accountID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ACCOUNT", "Cash account cannot be empty")
	}
	if categoryID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CATEGORY", "Counterparty category cannot be empty")
	}

	e := &PaymentEvent{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		Direction:         direction,
		PartyType:         partyType,
		PartyID:           partyID,
		PostingDate:       postingDate,
		Amount:            amount,
		ModeOfPayment:     modeOfPayment,
		AccountID:         accountID,
		CategoryID:        categoryID,
		State:             EventStateDraft,
	}

	e.AddDomainEvent(NewPaymentEventCreatedEvent(e))

	return e, nil
}

// LinkContract sets the contract reference on a draft event
func (e *PaymentEvent) LinkContract(contractID uuid.UUID) error {
	if e.State != EventStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft payments can be re-linked")
	}
	e.ContractID = &contractID
	e.UpdatedAt = time.Now()
	return nil
}

// SetScheduleRow records the first schedule row the payment touched
func (e *PaymentEvent) SetScheduleRow(idx int, description string) {
	e.ScheduleRowIdx = &idx
	if description != "" {
		e.PaymentMonth = description
	} else {
		e.PaymentMonth = fmt.Sprintf("Month %d", idx)
	}
	e.UpdatedAt = time.Now()
}

// Submit moves a draft event to submitted
func (e *PaymentEvent) Submit() error {
	if e.State != EventStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft payments can be submitted")
	}
	e.State = EventStateSubmitted
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	e.AddDomainEvent(NewPaymentEventSubmittedEvent(e))
	return nil
}

// Cancel moves a submitted event to cancelled
func (e *PaymentEvent) Cancel() error {
	if e.State != EventStateSubmitted {
		return shared.NewDomainError("INVALID_STATE", "Only submitted payments can be cancelled")
	}
	e.State = EventStateCancelled
	e.UpdatedAt = time.Now()
	e.IncrementVersion()
	e.AddDomainEvent(NewPaymentEventCancelledEvent(e))
	return nil
}

// IsSubmitted returns true when the event counts into aggregates
func (e *PaymentEvent) IsSubmitted() bool {
	return e.State == EventStateSubmitted
}
