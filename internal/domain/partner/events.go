package partner

import (
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeCustomer = "Customer"
	AggregateTypeSupplier = "Supplier"
)

// Event type constants
const (
	EventTypeCustomerCreated      = "CustomerCreated"
	EventTypeCustomerReclassified = "CustomerReclassified"
	EventTypeCustomerDebtChanged  = "CustomerDebtChanged"
	EventTypeSupplierCreated      = "SupplierCreated"
	EventTypeSupplierDebtChanged  = "SupplierDebtChanged"
)

// CustomerCreatedEvent is published when a new customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID `json:"customer_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(customer *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		Code:            customer.Code,
		Name:            customer.Name,
	}
}

// CustomerReclassifiedEvent is published when the risk class transitions
type CustomerReclassifiedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID      `json:"customer_id"`
	OldClass   Classification `json:"old_class"`
	NewClass   Classification `json:"new_class"`
}

// NewCustomerReclassifiedEvent creates a new CustomerReclassifiedEvent
func NewCustomerReclassifiedEvent(customer *Customer, old Classification) *CustomerReclassifiedEvent {
	return &CustomerReclassifiedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerReclassified, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		OldClass:        old,
		NewClass:        customer.Classification,
	}
}

// CustomerDebtChangedEvent is published when the derived total debt changes
type CustomerDebtChangedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	TotalDebt  decimal.Decimal `json:"total_debt"`
}

// NewCustomerDebtChangedEvent creates a new CustomerDebtChangedEvent
func NewCustomerDebtChangedEvent(customer *Customer) *CustomerDebtChangedEvent {
	return &CustomerDebtChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerDebtChanged, AggregateTypeCustomer, customer.ID),
		CustomerID:      customer.ID,
		TotalDebt:       customer.TotalDebt.Amount(),
	}
}

// SupplierCreatedEvent is published when a new supplier is created
type SupplierCreatedEvent struct {
	shared.BaseDomainEvent
	SupplierID uuid.UUID `json:"supplier_id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
}

// NewSupplierCreatedEvent creates a new SupplierCreatedEvent
func NewSupplierCreatedEvent(supplier *Supplier) *SupplierCreatedEvent {
	return &SupplierCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierCreated, AggregateTypeSupplier, supplier.ID),
		SupplierID:      supplier.ID,
		Code:            supplier.Code,
		Name:            supplier.Name,
	}
}

// SupplierDebtChangedEvent is published when supplier balances are recomputed
type SupplierDebtChangedEvent struct {
	shared.BaseDomainEvent
	SupplierID    uuid.UUID       `json:"supplier_id"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
}

// NewSupplierDebtChangedEvent creates a new SupplierDebtChangedEvent
func NewSupplierDebtChangedEvent(supplier *Supplier) *SupplierDebtChangedEvent {
	return &SupplierDebtChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSupplierDebtChanged, AggregateTypeSupplier, supplier.ID),
		SupplierID:      supplier.ID,
		TotalDebt:       supplier.TotalDebt.Amount(),
		PaidAmount:      supplier.PaidAmount.Amount(),
		RemainingDebt:   supplier.RemainingDebt().Amount(),
	}
}
