package partner

import (
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// Supplier represents a procurement supplier aggregate root.
// TotalDebt accrues from submitted installment application items assigned to
// the supplier; PaidAmount accrues from submitted outgoing payments.
type Supplier struct {
	shared.BaseAggregateRoot
	Code       string
	Name       string
	Group      string
	TotalDebt  valueobject.Money
	PaidAmount valueobject.Money
}

// NewSupplier creates a new supplier with zero balances
func NewSupplier(code, name string) (*Supplier, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Supplier code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Supplier name cannot be empty")
	}

	s := &Supplier{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              code,
		Name:              name,
		TotalDebt:         valueobject.Zero(),
		PaidAmount:        valueobject.Zero(),
	}

	s.AddDomainEvent(NewSupplierCreatedEvent(s))

	return s, nil
}

// RemainingDebt returns total debt minus paid amount, never below zero
func (s *Supplier) RemainingDebt() valueobject.Money {
	return s.TotalDebt.Sub(s.PaidAmount).ClampFloor(valueobject.Zero())
}

// SetBalances replaces both derived balances in one step.
// The debt service recomputes from source documents on every relevant event.
func (s *Supplier) SetBalances(totalDebt, paidAmount valueobject.Money) {
	s.TotalDebt = totalDebt.ClampFloor(valueobject.Zero())
	s.PaidAmount = paidAmount.ClampFloor(valueobject.Zero())
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}
