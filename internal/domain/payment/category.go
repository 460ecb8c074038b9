package payment

import (
	"github.com/cashflow/backend/internal/domain/shared"
)

// CategoryType classifies a counterparty category as income or expense.
// Income categories may only appear on receive events, expense categories
// only on pay events.
type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "INCOME"
	CategoryTypeExpense CategoryType = "EXPENSE"
)

// IsValid checks if the category type is valid
func (t CategoryType) IsValid() bool {
	return t == CategoryTypeIncome || t == CategoryTypeExpense
}

// AllowsDirection returns true when the category type may be used with the
// given payment direction.
func (t CategoryType) AllowsDirection(d Direction) bool {
	switch t {
	case CategoryTypeIncome:
		return d == DirectionReceive
	case CategoryTypeExpense:
		return d == DirectionPay
	}
	return false
}

// Well-known category names created at bootstrap
const (
	CategoryNameDownpayment = "Downpayment"
	CategoryNameInstallment = "Installment"
	CategoryNameCapital     = "Share Capital"
	CategoryNameProcurement = "Procurement"
	CategoryNameOverhead    = "Overhead"
)

// CounterpartyCategory constrains which side of the ledger a payment books
type CounterpartyCategory struct {
	shared.BaseEntity
	Name        string
	Type        CategoryType
	ExpenseKind string
}

// NewCounterpartyCategory creates a counterparty category
func NewCounterpartyCategory(name string, categoryType CategoryType, expenseKind string) (*CounterpartyCategory, error) {
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Category name cannot be empty")
	}
	if !categoryType.IsValid() {
		return nil, shared.NewDomainError("INVALID_TYPE", "Category type must be income or expense")
	}
	if categoryType == CategoryTypeIncome && expenseKind != "" {
		return nil, shared.NewDomainError("INVALID_KIND", "Income categories cannot carry an expense kind")
	}

	return &CounterpartyCategory{
		BaseEntity:  shared.NewBaseEntity(),
		Name:        name,
		Type:        categoryType,
		ExpenseKind: expenseKind,
	}, nil
}

// IsExpense returns true for expense categories
func (c *CounterpartyCategory) IsExpense() bool {
	return c.Type == CategoryTypeExpense
}
