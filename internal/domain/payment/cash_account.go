package payment

import (
	"github.com/cashflow/backend/internal/domain/shared"
)

// CashAccount is a cash register or bank account. Its balance is derived:
// the sum of received amounts minus the sum of paid amounts restricted to
// the account, over submitted events only.
type CashAccount struct {
	shared.BaseEntity
	Code string
	Name string
}

// NewCashAccount creates a cash account
func NewCashAccount(code, name string) (*CashAccount, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_CODE", "Account code cannot be empty")
	}
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Account name cannot be empty")
	}

	return &CashAccount{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
	}, nil
}
