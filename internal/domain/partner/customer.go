package partner

import (
	"fmt"
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// Classification represents the customer risk class derived from overdue aging
type Classification string

const (
	ClassificationA Classification = "A" // no overdue schedule rows
	ClassificationB Classification = "B" // worst overdue between 1 and 30 days
	ClassificationC Classification = "C" // worst overdue beyond 30 days
)

// IsValid checks if the classification is a valid Classification
func (c Classification) IsValid() bool {
	switch c {
	case ClassificationA, ClassificationB, ClassificationC:
		return true
	}
	return false
}

// String returns the string representation of Classification
func (c Classification) String() string {
	return string(c)
}

// ClassificationForOverdue derives the risk class from the worst overdue age
// in days across the customer's active schedule rows.
func ClassificationForOverdue(daysOverdue int) Classification {
	switch {
	case daysOverdue > 30:
		return ClassificationC
	case daysOverdue >= 1:
		return ClassificationB
	default:
		return ClassificationA
	}
}

// Customer represents an installment-sales customer aggregate root.
// TotalDebt and Classification are derived values maintained exclusively by
// the debt service; they are never written through a generic update.
type Customer struct {
	shared.BaseAggregateRoot
	Code           string
	Name           string
	Phone          string
	Classification Classification
	TotalDebt      valueobject.Money
	Group          string
	Remarks        string
}

// NewCustomer creates a new customer with default classification A
func NewCustomer(code, name, phone string) (*Customer, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Customer code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Customer name cannot be empty")
	}

	c := &Customer{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		Phone:             phone,
		Classification:    ClassificationA,
		TotalDebt:         valueobject.Zero(),
	}

	c.AddDomainEvent(NewCustomerCreatedEvent(c))

	return c, nil
}

// Reclassify moves the customer to a new risk class and returns the audit
// entry recording the transition. Returns nil when the class is unchanged.
func (c *Customer) Reclassify(class Classification, daysOverdue int) (*AuditEntry, error) {
	if !class.IsValid() {
		return nil, shared.NewDomainError("INVALID_CLASSIFICATION", "Classification must be A, B or C")
	}
	if c.Classification == class {
		return nil, nil
	}

	old := c.Classification
	c.Classification = class
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	entry := NewAuditEntry(c.ID, fmt.Sprintf("%s → %s", old, class), daysOverdue)
	c.AddDomainEvent(NewCustomerReclassifiedEvent(c, old))

	return entry, nil
}

// SetTotalDebt replaces the derived total debt.
// Recomputed from source documents, never incrementally patched.
func (c *Customer) SetTotalDebt(debt valueobject.Money) {
	c.TotalDebt = debt
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// AuditEntry records a silent classification transition for later review
type AuditEntry struct {
	shared.BaseEntity
	CustomerID  uuid.UUID
	Comment     string
	DaysOverdue int
}

// NewAuditEntry creates a classification audit entry
func NewAuditEntry(customerID uuid.UUID, comment string, daysOverdue int) *AuditEntry {
	return &AuditEntry{
		BaseEntity:  shared.NewBaseEntity(),
		CustomerID:  customerID,
		Comment:     comment,
		DaysOverdue: daysOverdue,
	}
}
